package audio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type PlayMode int

const (
	PlayStandard PlayMode = iota
	PlayLoop
	PlayShot
	PlayLoopUntilRelease
)

var playModeNames = [...]string{"standard", "loop", "shot", "loop_until_release"}

func (m PlayMode) String() string {
	if m < 0 || int(m) >= len(playModeNames) {
		return fmt.Sprintf("PlayMode(%d)", int(m))
	}
	return playModeNames[m]
}

func ParsePlayMode(s string) (PlayMode, error) {
	for i, name := range playModeNames {
		if name == s {
			return PlayMode(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid play mode: %q", s)
}

const NumLFOs = 3

var ErrUnknownKey = errors.New("unknown key")

// Sample is one key/velocity zone: playback settings, template modulators
// cloned into every voice, and the sample data itself.
type Sample struct {
	Name           string
	MinNote        int
	MaxNote        int
	MinVelocity    int
	MaxVelocity    int
	BaseNote       int
	Detune         float64 // cents
	Pan            float64
	Gain           float64
	Keytrack       float64 // percent
	PitchbendRange float64 // semitones
	PlayMode       PlayMode
	Reverse        bool
	OutputBus      int // negative means unassigned
	Layer          int

	AEG       Envelope
	EG2       Envelope
	LFOs      [NumLFOs]LFO
	Filter    Filter
	ModMatrix ModMatrix

	Source SampleSource
}

func NewSample(name string, src SampleSource) *Sample {
	s := &Sample{
		Name:           name,
		MinNote:        0,
		MaxNote:        127,
		MinVelocity:    0,
		MaxVelocity:    127,
		BaseNote:       60,
		Gain:           1,
		Keytrack:       100,
		PitchbendRange: 2,
		AEG:            Envelope{Sustain: 1, Release: 0.1},
		EG2:            Envelope{Sustain: 1},
		Filter:         NewFilter(),
		Source:         src,
	}
	for i := range s.LFOs {
		s.LFOs[i] = NewLFO()
	}
	return s
}

func (s *Sample) Matches(note, velocity int) bool {
	return note >= s.MinNote && note <= s.MaxNote &&
		velocity >= s.MinVelocity && velocity <= s.MaxVelocity
}

// CorrectRanges swaps inverted note and velocity bounds. Setters never do
// this on their own.
func (s *Sample) CorrectRanges() {
	if s.MinNote > s.MaxNote {
		s.MinNote, s.MaxNote = s.MaxNote, s.MinNote
	}
	if s.MinVelocity > s.MaxVelocity {
		s.MinVelocity, s.MaxVelocity = s.MaxVelocity, s.MinVelocity
	}
}

func (s *Sample) bus() int {
	if s.OutputBus < 0 {
		return 0
	}
	return s.OutputBus
}

// Clone returns a deep copy sharing the read-only sample source.
func (s *Sample) Clone() *Sample {
	c := *s
	for i := range s.LFOs {
		c.LFOs[i] = s.LFOs[i].Clone()
	}
	c.AEG = s.AEG.Clone()
	c.EG2 = s.EG2.Clone()
	c.Filter = s.Filter.Clone()
	return &c
}

// Set edits a parameter by key, e.g. "pan", "aeg.attack", "lfo2.wave" or
// "mod1.amount". Values are given in their text form.
func (s *Sample) Set(key, value string) error {
	prefix, field := splitKey(key)
	switch {
	case prefix == "":
		return s.setField(field, value)
	case prefix == "aeg":
		return setEnvelopeField(&s.AEG, field, value)
	case prefix == "eg2":
		return setEnvelopeField(&s.EG2, field, value)
	case prefix == "filter":
		return setFilterField(&s.Filter, field, value)
	case strings.HasPrefix(prefix, "lfo"):
		i, err := keyIndex(prefix, "lfo", NumLFOs)
		if err != nil {
			return err
		}
		return setLFOField(&s.LFOs[i], field, value)
	case strings.HasPrefix(prefix, "mod"):
		i, err := keyIndex(prefix, "mod", NumModSlots)
		if err != nil {
			return err
		}
		slot, _ := s.ModMatrix.Slot(i)
		return setModSlotField(slot, field, value)
	}
	return fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func (s *Sample) setField(field, value string) error {
	var err error
	switch field {
	case "name":
		s.Name = value
	case "min_note":
		s.MinNote, err = strconv.Atoi(value)
	case "max_note":
		s.MaxNote, err = strconv.Atoi(value)
	case "min_velocity":
		s.MinVelocity, err = strconv.Atoi(value)
	case "max_velocity":
		s.MaxVelocity, err = strconv.Atoi(value)
	case "base_note":
		s.BaseNote, err = strconv.Atoi(value)
	case "detune":
		s.Detune, err = strconv.ParseFloat(value, 64)
	case "pan":
		s.Pan, err = strconv.ParseFloat(value, 64)
	case "gain":
		s.Gain, err = strconv.ParseFloat(value, 64)
	case "keytrack":
		s.Keytrack, err = strconv.ParseFloat(value, 64)
	case "pitchbend_range":
		s.PitchbendRange, err = strconv.ParseFloat(value, 64)
	case "mode":
		s.PlayMode, err = ParsePlayMode(value)
	case "reverse":
		s.Reverse, err = strconv.ParseBool(value)
	case "bus":
		s.OutputBus, err = strconv.Atoi(value)
	case "layer":
		s.Layer, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, field)
	}
	return err
}

// Get returns a parameter in the text form accepted by Set.
func (s *Sample) Get(key string) (string, error) {
	prefix, field := splitKey(key)
	switch {
	case prefix == "":
		return s.getField(field)
	case prefix == "aeg":
		return getEnvelopeField(&s.AEG, field)
	case prefix == "eg2":
		return getEnvelopeField(&s.EG2, field)
	case prefix == "filter":
		return getFilterField(&s.Filter, field)
	case strings.HasPrefix(prefix, "lfo"):
		i, err := keyIndex(prefix, "lfo", NumLFOs)
		if err != nil {
			return "", err
		}
		return getLFOField(&s.LFOs[i], field)
	case strings.HasPrefix(prefix, "mod"):
		i, err := keyIndex(prefix, "mod", NumModSlots)
		if err != nil {
			return "", err
		}
		slot, _ := s.ModMatrix.Slot(i)
		return getModSlotField(slot, field)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func (s *Sample) getField(field string) (string, error) {
	switch field {
	case "name":
		return s.Name, nil
	case "min_note":
		return strconv.Itoa(s.MinNote), nil
	case "max_note":
		return strconv.Itoa(s.MaxNote), nil
	case "min_velocity":
		return strconv.Itoa(s.MinVelocity), nil
	case "max_velocity":
		return strconv.Itoa(s.MaxVelocity), nil
	case "base_note":
		return strconv.Itoa(s.BaseNote), nil
	case "detune":
		return formatFloat(s.Detune), nil
	case "pan":
		return formatFloat(s.Pan), nil
	case "gain":
		return formatFloat(s.Gain), nil
	case "keytrack":
		return formatFloat(s.Keytrack), nil
	case "pitchbend_range":
		return formatFloat(s.PitchbendRange), nil
	case "mode":
		return s.PlayMode.String(), nil
	case "reverse":
		return strconv.FormatBool(s.Reverse), nil
	case "bus":
		return strconv.Itoa(s.OutputBus), nil
	case "layer":
		return strconv.Itoa(s.Layer), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, field)
}

func setEnvelopeField(e *Envelope, field, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch field {
	case "attack":
		e.Attack = v
	case "decay":
		e.Decay = v
	case "sustain":
		e.Sustain = v
	case "release":
		e.Release = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, field)
	}
	return nil
}

func getEnvelopeField(e *Envelope, field string) (string, error) {
	switch field {
	case "attack":
		return formatFloat(e.Attack), nil
	case "decay":
		return formatFloat(e.Decay), nil
	case "sustain":
		return formatFloat(e.Sustain), nil
	case "release":
		return formatFloat(e.Release), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, field)
}

func setFilterField(f *Filter, field, value string) error {
	var err error
	switch field {
	case "type":
		f.Type, err = ParseFilterType(value)
	case "cutoff":
		f.Cutoff, err = strconv.ParseFloat(value, 64)
	case "resonance":
		f.Resonance, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, field)
	}
	return err
}

func getFilterField(f *Filter, field string) (string, error) {
	switch field {
	case "type":
		return f.Type.String(), nil
	case "cutoff":
		return formatFloat(f.Cutoff), nil
	case "resonance":
		return formatFloat(f.Resonance), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, field)
}

func setLFOField(l *LFO, field, value string) error {
	var err error
	switch field {
	case "wave":
		l.Waveform, err = ParseWaveform(value)
	case "freq":
		l.Frequency, err = strconv.ParseFloat(value, 64)
	case "sync":
		l.SyncEnabled, err = strconv.ParseBool(value)
	case "sync_beats":
		l.SyncBeats, err = strconv.ParseFloat(value, 64)
	case "delay":
		l.Delay.Seconds, err = strconv.ParseFloat(value, 64)
	case "delay_beats":
		l.Delay.Beats, err = strconv.ParseFloat(value, 64)
	case "delay_sync":
		l.Delay.Sync, err = strconv.ParseBool(value)
	case "fade_in":
		l.FadeIn.Seconds, err = strconv.ParseFloat(value, 64)
	case "fade_in_beats":
		l.FadeIn.Beats, err = strconv.ParseFloat(value, 64)
	case "fade_in_sync":
		l.FadeIn.Sync, err = strconv.ParseBool(value)
	case "once":
		l.OnceEnabled, err = strconv.ParseBool(value)
	case "random_phase":
		l.RandomPhaseEnabled, err = strconv.ParseBool(value)
	case "quantize":
		l.QuantizeEnabled, err = strconv.ParseBool(value)
	case "quantize_levels":
		l.QuantizeLevels, err = strconv.Atoi(value)
	case "steps":
		l.Steps, err = parseSteps(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, field)
	}
	return err
}

func getLFOField(l *LFO, field string) (string, error) {
	switch field {
	case "wave":
		return l.Waveform.String(), nil
	case "freq":
		return formatFloat(l.Frequency), nil
	case "sync":
		return strconv.FormatBool(l.SyncEnabled), nil
	case "sync_beats":
		return formatFloat(l.SyncBeats), nil
	case "delay":
		return formatFloat(l.Delay.Seconds), nil
	case "delay_beats":
		return formatFloat(l.Delay.Beats), nil
	case "delay_sync":
		return strconv.FormatBool(l.Delay.Sync), nil
	case "fade_in":
		return formatFloat(l.FadeIn.Seconds), nil
	case "fade_in_beats":
		return formatFloat(l.FadeIn.Beats), nil
	case "fade_in_sync":
		return strconv.FormatBool(l.FadeIn.Sync), nil
	case "once":
		return strconv.FormatBool(l.OnceEnabled), nil
	case "random_phase":
		return strconv.FormatBool(l.RandomPhaseEnabled), nil
	case "quantize":
		return strconv.FormatBool(l.QuantizeEnabled), nil
	case "quantize_levels":
		return strconv.Itoa(l.QuantizeLevels), nil
	case "steps":
		parts := make([]string, len(l.Steps))
		for i, v := range l.Steps {
			parts[i] = formatFloat(v)
		}
		return strings.Join(parts, ","), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, field)
}

// parseSteps reads a comma separated list of bipolar step values.
func parseSteps(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) > maxLFOSteps {
		return nil, fmt.Errorf("too many steps: %d > %d", len(parts), maxLFOSteps)
	}
	steps := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		steps = append(steps, clamp(v, -1, 1))
	}
	return steps, nil
}

func setModSlotField(slot *ModSlot, field, value string) error {
	var err error
	switch field {
	case "enabled":
		slot.Enabled, err = strconv.ParseBool(value)
	case "source":
		slot.Source, err = ParseModSource(value)
	case "secondary":
		slot.Secondary, err = ParseModSource(value)
	case "dest":
		var d ModDest
		if d, err = ParseModDest(value); err == nil {
			slot.SetDestination(d)
		}
	case "func":
		slot.Function, err = ParseMathFunc(value)
	case "amount":
		var v float64
		if v, err = strconv.ParseFloat(value, 64); err == nil {
			slot.SetAmount(v)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, field)
	}
	return err
}

func getModSlotField(slot *ModSlot, field string) (string, error) {
	switch field {
	case "enabled":
		return strconv.FormatBool(slot.Enabled), nil
	case "source":
		return slot.Source.String(), nil
	case "secondary":
		return slot.Secondary.String(), nil
	case "dest":
		return slot.Destination.String(), nil
	case "func":
		return slot.Function.String(), nil
	case "amount":
		return formatFloat(slot.Amount), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, field)
}

func splitKey(key string) (prefix, field string) {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// keyIndex parses the 1-based index in keys like "lfo2".
func keyIndex(prefix, name string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(prefix, name))
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKey, prefix)
	}
	return i - 1, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
