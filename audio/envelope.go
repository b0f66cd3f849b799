package audio

import "fmt"

type EnvelopeState int

const (
	EnvelopeNone EnvelopeState = iota
	EnvelopeAttack
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
	EnvelopeEnd
)

var envelopeStateNames = [...]string{"none", "attack", "decay", "sustain", "release", "end"}

func (s EnvelopeState) String() string {
	if s < 0 || int(s) >= len(envelopeStateNames) {
		return fmt.Sprintf("EnvelopeState(%d)", int(s))
	}
	return envelopeStateNames[s]
}

// Envelope is a linear four stage envelope. Attack, Decay and Release are
// knob positions in 0..1 that map to seconds through EnvelopeDuration,
// Sustain is a level.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	val   float64
	state EnvelopeState
}

// EnvelopeDuration maps a 0..1 knob position to a stage length in seconds.
func EnvelopeDuration(p float64) float64 {
	p = clamp(p, 0, 1)
	return 10 * p * p
}

func (e *Envelope) NoteOn() {
	e.val = 0
	e.state = EnvelopeAttack
}

func (e *Envelope) NoteOff() {
	switch e.state {
	case EnvelopeAttack, EnvelopeDecay, EnvelopeSustain:
		e.state = EnvelopeRelease
	}
}

// Step advances the current stage by elapsed seconds. At most one stage
// transition happens per call.
func (e *Envelope) Step(elapsed, bpm float64) {
	switch e.state {
	case EnvelopeAttack:
		if d := EnvelopeDuration(e.Attack); d > 0 {
			e.val += elapsed / d
		} else {
			e.val = 1
		}
		if e.val >= 1 {
			e.val = 1
			e.state = EnvelopeDecay
		}
	case EnvelopeDecay:
		sustain := clamp(e.Sustain, 0, 1)
		if d := EnvelopeDuration(e.Decay); d > 0 {
			e.val -= elapsed / d
		} else {
			e.val = sustain
		}
		if e.val <= sustain {
			e.val = sustain
			e.state = EnvelopeSustain
		}
	case EnvelopeSustain:
		e.val = clamp(e.Sustain, 0, 1)
	case EnvelopeRelease:
		if d := EnvelopeDuration(e.Release); d > 0 {
			e.val -= elapsed / d
		} else {
			e.val = 0
		}
		if e.val <= 0 {
			e.val = 0
			e.state = EnvelopeEnd
		}
	}
}

func (e *Envelope) Value() float64 { return e.val }

func (e *Envelope) State() EnvelopeState { return e.state }

func (e *Envelope) HasEnded() bool { return e.state == EnvelopeEnd }

// Clone returns a copy of the parameters with the runtime state reset.
func (e *Envelope) Clone() Envelope {
	return Envelope{
		Attack:  e.Attack,
		Decay:   e.Decay,
		Sustain: e.Sustain,
		Release: e.Release,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
