package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var (
	ErrMissingSource    = errors.New("sample has no source")
	ErrMissingNoteRange = errors.New("sample has no note range")
)

type engineJSON struct {
	Parts []partJSON `json:"parts"`
}

type partJSON struct {
	Samples []*sampleJSON `json:"samples"`
}

type sampleJSON struct {
	Name           string         `json:"name"`
	Mode           string         `json:"mode"`
	Detune         float64        `json:"detune"`
	Pan            float64        `json:"pan"`
	Gain           float64        `json:"gain"`
	Keytrack       float64        `json:"keytrack"`
	PitchbendRange float64        `json:"pitchbendRange"`
	Reverse        bool           `json:"reverse"`
	BaseNote       int            `json:"baseNote"`
	MinNote        *int           `json:"minNote"`
	MaxNote        *int           `json:"maxNote"`
	MinVelocity    int            `json:"minVelocity"`
	MaxVelocity    int            `json:"maxVelocity"`
	Layer          int            `json:"layer"`
	Bus            int            `json:"bus"`
	AEG            *envelopeJSON  `json:"aeg,omitempty"`
	EG2            *envelopeJSON  `json:"eg2,omitempty"`
	LFOs           []*lfoJSON     `json:"lfos,omitempty"`
	Filter         *filterJSON    `json:"filter,omitempty"`
	ModMatrix      []*modSlotJSON `json:"modMatrix,omitempty"`
	Source         *sourceJSON    `json:"source"`
}

type envelopeJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

type timeJSON struct {
	Seconds float64 `json:"seconds"`
	Beats   float64 `json:"beats"`
	Sync    bool    `json:"sync"`
}

type lfoJSON struct {
	Wave           string    `json:"wave"`
	Freq           float64   `json:"freq"`
	Sync           bool      `json:"sync"`
	SyncBeats      float64   `json:"syncBeats"`
	Delay          timeJSON  `json:"delay"`
	FadeIn         timeJSON  `json:"fadeIn"`
	Once           bool      `json:"once"`
	RandomPhase    bool      `json:"randomPhase"`
	Steps          []float64 `json:"steps"`
	Quantize       bool      `json:"quantize"`
	QuantizeLevels int       `json:"quantizeLevels"`
}

type filterJSON struct {
	Type      string  `json:"type"`
	Cutoff    float64 `json:"cutoff"`
	Resonance float64 `json:"resonance"`
}

type modSlotJSON struct {
	Enabled   bool    `json:"enabled"`
	Source    string  `json:"source"`
	Secondary string  `json:"secondary"`
	Dest      string  `json:"dest"`
	Func      string  `json:"func"`
	Amount    float64 `json:"amount"`
}

type sourceJSON struct {
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sampleRate"`
	Bits       int    `json:"bits"`
	Samples    int    `json:"samples"`
	LoopStart  int    `json:"loopStart"`
	LoopEnd    int    `json:"loopEnd"`
	Loop       bool   `json:"loop"`
	Data       []byte `json:"data"`
}

func (e *envelopeJSON) apply(env *Envelope) {
	env.Attack = clamp(e.Attack, 0, 1)
	env.Decay = clamp(e.Decay, 0, 1)
	env.Sustain = clamp(e.Sustain, 0, 1)
	env.Release = clamp(e.Release, 0, 1)
}

func envelopeToJSON(env *Envelope) *envelopeJSON {
	return &envelopeJSON{
		Attack:  env.Attack,
		Decay:   env.Decay,
		Sustain: env.Sustain,
		Release: env.Release,
	}
}

func (l *lfoJSON) apply(lfo *LFO) error {
	wave, err := ParseWaveform(l.Wave)
	if err != nil {
		return err
	}
	if len(l.Steps) > maxLFOSteps {
		return fmt.Errorf("%w: %d lfo steps", ErrBadRange, len(l.Steps))
	}
	lfo.Waveform = wave
	lfo.Frequency = l.Freq
	lfo.SyncEnabled = l.Sync
	lfo.SyncBeats = l.SyncBeats
	lfo.Delay = TimeValue(l.Delay)
	lfo.FadeIn = TimeValue(l.FadeIn)
	lfo.OnceEnabled = l.Once
	lfo.RandomPhaseEnabled = l.RandomPhase
	lfo.Steps = append(lfo.Steps[:0], l.Steps...)
	for i, v := range lfo.Steps {
		lfo.Steps[i] = clamp(v, -1, 1)
	}
	lfo.QuantizeEnabled = l.Quantize
	lfo.QuantizeLevels = l.QuantizeLevels
	return nil
}

func lfoToJSON(lfo *LFO) *lfoJSON {
	return &lfoJSON{
		Wave:           lfo.Waveform.String(),
		Freq:           lfo.Frequency,
		Sync:           lfo.SyncEnabled,
		SyncBeats:      lfo.SyncBeats,
		Delay:          timeJSON(lfo.Delay),
		FadeIn:         timeJSON(lfo.FadeIn),
		Once:           lfo.OnceEnabled,
		RandomPhase:    lfo.RandomPhaseEnabled,
		Steps:          append([]float64(nil), lfo.Steps...),
		Quantize:       lfo.QuantizeEnabled,
		QuantizeLevels: lfo.QuantizeLevels,
	}
}

func (f *filterJSON) apply(filter *Filter) error {
	typ, err := ParseFilterType(f.Type)
	if err != nil {
		return err
	}
	filter.Type = typ
	filter.Cutoff = clamp(f.Cutoff, 0, 1)
	filter.Resonance = clamp(f.Resonance, 0, 1)
	return nil
}

func (m *modSlotJSON) apply(slot *ModSlot) error {
	src, err := ParseModSource(m.Source)
	if err != nil {
		return err
	}
	sec, err := ParseModSource(m.Secondary)
	if err != nil {
		return err
	}
	dest, err := ParseModDest(m.Dest)
	if err != nil {
		return err
	}
	fn, err := ParseMathFunc(m.Func)
	if err != nil {
		return err
	}
	*slot = ModSlot{
		Enabled:     m.Enabled,
		Source:      src,
		Secondary:   sec,
		Destination: dest,
		Function:    fn,
	}
	slot.SetAmount(m.Amount)
	return nil
}

func (s *sourceJSON) pcm() (*PCMData, error) {
	pcm, err := NewPCMData(s.Channels, s.SampleRate, s.Bits, s.Data)
	if err != nil {
		return nil, err
	}
	if pcm.NumSamples() != s.Samples {
		return nil, fmt.Errorf("%w: %d samples declared, %d present", ErrBadFormat, s.Samples, pcm.NumSamples())
	}
	pcm.SetLoop(s.LoopStart, s.LoopEnd, s.Loop)
	return pcm, nil
}

func sourceToJSON(src SampleSource) (*sourceJSON, error) {
	pcm, ok := src.(*PCMData)
	if !ok {
		var err error
		if pcm, err = toPCM(src); err != nil {
			return nil, err
		}
	}
	return &sourceJSON{
		Channels:   pcm.NumChannels(),
		SampleRate: pcm.SampleRate(),
		Bits:       pcm.NumBits(),
		Samples:    pcm.NumSamples(),
		LoopStart:  pcm.LoopStart(),
		LoopEnd:    pcm.LoopEnd(),
		Loop:       pcm.LoopEnabled(),
		Data:       pcm.Bytes(),
	}, nil
}

// toPCM converts any source to 16 bit PCM.
func toPCM(src SampleSource) (*PCMData, error) {
	channels := make([][]float64, src.NumChannels())
	for c := range channels {
		channels[c] = make([]float64, src.NumSamples())
		for i := range channels[c] {
			if v := src.FloatValue(c, i); !math.IsNaN(v) {
				channels[c][i] = v
			}
		}
	}
	pcm, err := NewPCMDataFloat(src.SampleRate(), channels...)
	if err != nil {
		return nil, err
	}
	pcm.SetLoop(src.LoopStart(), src.LoopEnd(), true)
	return pcm, nil
}

func sampleToJSON(s *Sample) (*sampleJSON, error) {
	if s.Source == nil {
		return nil, ErrMissingSource
	}
	src, err := sourceToJSON(s.Source)
	if err != nil {
		return nil, err
	}
	minNote, maxNote := s.MinNote, s.MaxNote
	j := &sampleJSON{
		Name:           s.Name,
		Mode:           s.PlayMode.String(),
		Detune:         s.Detune,
		Pan:            s.Pan,
		Gain:           s.Gain,
		Keytrack:       s.Keytrack,
		PitchbendRange: s.PitchbendRange,
		Reverse:        s.Reverse,
		BaseNote:       s.BaseNote,
		MinNote:        &minNote,
		MaxNote:        &maxNote,
		MinVelocity:    s.MinVelocity,
		MaxVelocity:    s.MaxVelocity,
		Layer:          s.Layer,
		Bus:            s.OutputBus,
		AEG:            envelopeToJSON(&s.AEG),
		EG2:            envelopeToJSON(&s.EG2),
		Filter: &filterJSON{
			Type:      s.Filter.Type.String(),
			Cutoff:    s.Filter.Cutoff,
			Resonance: s.Filter.Resonance,
		},
		Source: src,
	}
	for i := range s.LFOs {
		j.LFOs = append(j.LFOs, lfoToJSON(&s.LFOs[i]))
	}
	for _, slot := range s.ModMatrix.Slots() {
		j.ModMatrix = append(j.ModMatrix, &modSlotJSON{
			Enabled:   slot.Enabled,
			Source:    slot.Source.String(),
			Secondary: slot.Secondary.String(),
			Dest:      slot.Destination.String(),
			Func:      slot.Function.String(),
			Amount:    slot.Amount,
		})
	}
	return j, nil
}

// defaultSampleJSON holds the values a decoded sample falls back to for
// missing scalar fields.
func defaultSampleJSON() *sampleJSON {
	d := NewSample("", nil)
	return &sampleJSON{
		Mode:           d.PlayMode.String(),
		Gain:           d.Gain,
		Keytrack:       d.Keytrack,
		PitchbendRange: d.PitchbendRange,
		BaseNote:       d.BaseNote,
		MinVelocity:    d.MinVelocity,
		MaxVelocity:    d.MaxVelocity,
	}
}

// sample builds a Sample. Source and note range are required, the other
// sections fall back to defaults when absent.
func (j *sampleJSON) sample() (*Sample, error) {
	if j.Source == nil {
		return nil, ErrMissingSource
	}
	if j.MinNote == nil || j.MaxNote == nil {
		return nil, ErrMissingNoteRange
	}
	mode, err := ParsePlayMode(j.Mode)
	if err != nil {
		return nil, err
	}
	src, err := j.Source.pcm()
	if err != nil {
		return nil, err
	}
	s := NewSample(j.Name, src)
	s.PlayMode = mode
	s.Detune = j.Detune
	s.Pan = clamp(j.Pan, -1, 1)
	s.Gain = j.Gain
	s.Keytrack = j.Keytrack
	s.PitchbendRange = j.PitchbendRange
	s.Reverse = j.Reverse
	s.BaseNote = j.BaseNote
	s.MinNote = *j.MinNote
	s.MaxNote = *j.MaxNote
	s.MinVelocity = j.MinVelocity
	s.MaxVelocity = j.MaxVelocity
	s.Layer = j.Layer
	s.OutputBus = j.Bus
	s.CorrectRanges()

	if j.AEG != nil {
		j.AEG.apply(&s.AEG)
	}
	if j.EG2 != nil {
		j.EG2.apply(&s.EG2)
	}
	if j.Filter != nil {
		if err := j.Filter.apply(&s.Filter); err != nil {
			return nil, err
		}
	}
	for i, l := range j.LFOs {
		if i >= NumLFOs {
			break
		}
		if l == nil {
			continue
		}
		if err := l.apply(&s.LFOs[i]); err != nil {
			return nil, fmt.Errorf("lfo%d: %w", i+1, err)
		}
	}
	for i, m := range j.ModMatrix {
		slot, ok := s.ModMatrix.Slot(i)
		if !ok {
			break
		}
		if m == nil {
			continue
		}
		if err := m.apply(slot); err != nil {
			return nil, fmt.Errorf("mod%d: %w", i+1, err)
		}
	}
	return s, nil
}

func (j *sampleJSON) UnmarshalJSON(data []byte) error {
	type plain sampleJSON
	*j = *defaultSampleJSON()
	return json.Unmarshal(data, (*plain)(j))
}

func EncodeSample(s *Sample) ([]byte, error) {
	j, err := sampleToJSON(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

func DecodeSample(data []byte) (*Sample, error) {
	var j sampleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return j.sample()
}

func EncodeEngine(e *Engine) ([]byte, error) {
	var doc engineJSON
	for i, p := range e.parts {
		var part partJSON
		for k, s := range p.samples {
			j, err := sampleToJSON(s)
			if err != nil {
				return nil, fmt.Errorf("part %d sample %d: %w", i, k, err)
			}
			part.Samples = append(part.Samples, j)
		}
		doc.Parts = append(doc.Parts, part)
	}
	return json.MarshalIndent(&doc, "", "  ")
}

// DecodeEngine builds a new Engine from a document. A single invalid sample
// rejects the whole document.
func DecodeEngine(data []byte) (*Engine, error) {
	var doc engineJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Parts) > NumParts {
		return nil, fmt.Errorf("%w: %d parts", ErrBadRange, len(doc.Parts))
	}
	e := NewEngine()
	for i, part := range doc.Parts {
		for k, j := range part.Samples {
			if j == nil {
				return nil, fmt.Errorf("part %d sample %d: %w", i, k, ErrMissingSource)
			}
			s, err := j.sample()
			if err != nil {
				return nil, fmt.Errorf("part %d sample %d: %w", i, k, err)
			}
			e.parts[i].AddSample(s)
		}
	}
	return e, nil
}

func SaveFile(file string, e *Engine) error {
	data, err := EncodeEngine(e)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

func LoadFile(file string) (*Engine, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	e, err := DecodeEngine(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return e, nil
}
