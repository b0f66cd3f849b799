package audio

import "fmt"

type ModSource int

const (
	SourceNone ModSource = iota
	SourceAEG
	SourceEG2
	SourceLFO1
	SourceLFO2
	SourceLFO3
	SourceModWheel
	SourceVelocity
	SourceNoteAbsolute
	SourceNoteRelative
	SourceRandomUnipolar
	SourceRandomBipolar
	SourceGate
	SourceInLoop
	numModSources
)

var modSourceNames = [numModSources]string{
	"none", "aeg", "eg2", "lfo1", "lfo2", "lfo3", "modwheel", "velocity",
	"note_abs", "note_rel", "random_uni", "random_bi", "gate", "in_loop",
}

func (s ModSource) String() string {
	if s < 0 || s >= numModSources {
		return fmt.Sprintf("ModSource(%d)", int(s))
	}
	return modSourceNames[s]
}

func ParseModSource(s string) (ModSource, error) {
	for i, name := range modSourceNames {
		if name == s {
			return ModSource(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid modulation source: %q", s)
}

type ModDest int

const (
	DestNone ModDest = iota
	DestFilterCutoff
	DestFilterResonance
	DestPitch
	DestPan
	DestAmplitude
	numModDests
)

var modDestNames = [numModDests]string{"none", "cutoff", "resonance", "pitch", "pan", "amplitude"}

func (d ModDest) String() string {
	if d < 0 || d >= numModDests {
		return fmt.Sprintf("ModDest(%d)", int(d))
	}
	return modDestNames[d]
}

func ParseModDest(s string) (ModDest, error) {
	for i, name := range modDestNames {
		if name == s {
			return ModDest(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid modulation destination: %q", s)
}

// ModDestInfo is the numeric domain of a destination. It bounds slot
// amounts as well as the summed modulation handed to the voice.
type ModDestInfo struct {
	Min, Max, Step, Default float64
	Unit                    string
}

var modDestInfo = [numModDests]ModDestInfo{
	DestNone:            {},
	DestFilterCutoff:    {Min: -8, Max: 8, Step: 0.01, Unit: "oct"},
	DestFilterResonance: {Min: -100, Max: 100, Step: 1, Unit: "%"},
	DestPitch:           {Min: -48, Max: 48, Step: 0.01, Unit: "st"},
	DestPan:             {Min: -2, Max: 2, Step: 0.01},
	DestAmplitude:       {Min: -100, Max: 100, Step: 1, Unit: "%"},
}

func (d ModDest) Info() ModDestInfo {
	if d < 0 || d >= numModDests {
		return ModDestInfo{}
	}
	return modDestInfo[d]
}

// Clamp limits v to the destination's domain.
func (i ModDestInfo) Clamp(v float64) float64 {
	return clamp(v, i.Min, i.Max)
}

type MathFunc int

const (
	FuncIdentity MathFunc = iota
	FuncInvert
	FuncBipolarToUnipolar
	FuncUnipolarToBipolar
	FuncSquare
	FuncCube
	FuncAbs
	FuncNegate
	numMathFuncs
)

var mathFuncNames = [numMathFuncs]string{"identity", "invert", "bi_to_uni", "uni_to_bi", "square", "cube", "abs", "negate"}

func (f MathFunc) String() string {
	if f < 0 || f >= numMathFuncs {
		return fmt.Sprintf("MathFunc(%d)", int(f))
	}
	return mathFuncNames[f]
}

func ParseMathFunc(s string) (MathFunc, error) {
	for i, name := range mathFuncNames {
		if name == s {
			return MathFunc(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid math function: %q", s)
}

func (f MathFunc) Apply(x float64) float64 {
	switch f {
	case FuncInvert:
		return 1 - x
	case FuncBipolarToUnipolar:
		return (x + 1) / 2
	case FuncUnipolarToBipolar:
		return 2*x - 1
	case FuncSquare:
		return x * x
	case FuncCube:
		return x * x * x
	case FuncAbs:
		if x < 0 {
			return -x
		}
		return x
	case FuncNegate:
		return -x
	}
	return x
}

type ModSlot struct {
	Enabled     bool
	Source      ModSource
	Secondary   ModSource
	Destination ModDest
	Function    MathFunc
	Amount      float64
}

// SetAmount stores v limited to the destination's range. Without a
// destination the amount is kept as given until one is set.
func (s *ModSlot) SetAmount(v float64) {
	if s.Destination == DestNone {
		s.Amount = v
		return
	}
	s.Amount = s.Destination.Info().Clamp(v)
}

// SetDestination changes the destination and limits the current amount to
// its range.
func (s *ModSlot) SetDestination(d ModDest) {
	s.Destination = d
	s.SetAmount(s.Amount)
}

const NumModSlots = 5

type ModMatrix struct {
	slots [NumModSlots]ModSlot
}

// Slot returns the i-th slot for editing. Out of range indexes are denied.
func (m *ModMatrix) Slot(i int) (*ModSlot, bool) {
	if i < 0 || i >= NumModSlots {
		return nil, false
	}
	return &m.slots[i], true
}

func (m *ModMatrix) Slots() [NumModSlots]ModSlot { return m.slots }

// ModSourceValues holds the current value of every modulation source.
type ModSourceValues [numModSources]float64

// ModResult is the summed modulation per destination.
type ModResult [numModDests]float64

func (r ModResult) Get(d ModDest) float64 {
	if d < 0 || d >= numModDests {
		return 0
	}
	return r[d]
}

func (v *ModSourceValues) value(s ModSource, def float64) float64 {
	if s <= SourceNone || s >= numModSources {
		return def
	}
	return v[s]
}

func (m *ModMatrix) Evaluate(src *ModSourceValues) ModResult {
	var res ModResult
	for i := range m.slots {
		slot := &m.slots[i]
		if !slot.Enabled || slot.Destination <= DestNone || slot.Destination >= numModDests {
			continue
		}
		x := src.value(slot.Source, 0) * src.value(slot.Secondary, 1) * slot.Amount
		res[slot.Destination] += slot.Function.Apply(x)
	}
	for d := range res {
		res[d] = modDestInfo[d].Clamp(res[d])
	}
	return res
}
