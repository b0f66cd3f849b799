package audio

import "log"

const numVoices = 64

const numControllers = 256

// Selection decides which samples may sound while solo mode is active.
type Selection interface {
	SoloEnabled() bool
	Selected(*Sample) bool
}

// Part owns a set of samples and the voices playing them. A part is driven
// from a single goroutine: the one rendering audio.
type Part struct {
	index       int
	samples     []*Sample
	free        []*Voice
	active      []*Voice
	pitchbend   float64
	controllers [numControllers]float64
}

func newPart(index int) *Part {
	p := &Part{
		index:  index,
		free:   make([]*Voice, numVoices),
		active: make([]*Voice, 0, numVoices),
	}
	for i := range p.free {
		p.free[i] = newVoice()
	}
	return p
}

func (p *Part) Index() int { return p.index }

// Samples returns a copy of the part's sample list.
func (p *Part) Samples() []*Sample {
	return append([]*Sample(nil), p.samples...)
}

func (p *Part) AddSample(s *Sample) {
	p.samples = append(p.samples, s)
}

// RemoveSample stops every voice playing s and drops it from the part. It
// reports whether s belonged to the part.
func (p *Part) RemoveSample(s *Sample) bool {
	for i, sample := range p.samples {
		if sample != s {
			continue
		}
		p.stopVoices(func(v *Voice) bool { return v.sample == s })
		copy(p.samples[i:], p.samples[i+1:])
		p.samples[len(p.samples)-1] = nil
		p.samples = p.samples[:len(p.samples)-1]
		return true
	}
	return false
}

func (p *Part) hasSample(s *Sample) bool {
	for _, sample := range p.samples {
		if sample == s {
			return true
		}
	}
	return false
}

// NoteOn starts a voice for every sample matching note and velocity. With
// solo enabled on sel only selected samples are played.
func (p *Part) NoteOn(note, velocity int, sel Selection) {
	solo := sel != nil && sel.SoloEnabled()
	for _, s := range p.samples {
		if !s.Matches(note, velocity) || s.Source == nil {
			continue
		}
		if solo && !sel.Selected(s) {
			continue
		}
		if len(p.free) == 0 {
			log.Printf("part %d: no free voice available", p.index)
			return
		}
		v := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		v.start(p, s, note, velocity)
		p.active = append(p.active, v)
	}
}

// NoteOff releases the voices started for note. They keep running until
// their envelope or play mode ends them.
func (p *Part) NoteOff(note, velocity int) {
	for _, v := range p.active {
		if v.note == note {
			v.NoteOff()
		}
	}
}

func (p *Part) AllNotesOff() {
	for _, v := range p.active {
		v.NoteOff()
	}
}

// Reset stops all voices immediately.
func (p *Part) Reset() {
	p.stopVoices(func(*Voice) bool { return true })
}

func (p *Part) Pitchbend() float64 { return p.pitchbend }

func (p *Part) SetPitchbend(value float64) {
	p.pitchbend = clamp(value, -1, 1)
}

// Controller returns the last value received for cc, 0 for unknown
// controllers.
func (p *Part) Controller(cc int) float64 {
	if cc < 0 || cc >= numControllers {
		return 0
	}
	return p.controllers[cc]
}

func (p *Part) ControllerChange(cc int, value float64) {
	if cc < 0 || cc >= numControllers {
		return
	}
	p.controllers[cc] = clamp(value, 0, 1)
}

func (p *Part) ActiveVoices() int { return len(p.active) }

// Process renders every active voice into its output bus. Voices routed to
// a missing or invalid bus are dropped without rendering. It returns true
// when voices were removed.
func (p *Part) Process(buses []Bus, sampleRate, bpm float64) bool {
	return p.stopVoices(func(v *Voice) bool {
		bus := v.sample.bus()
		if bus >= len(buses) || !buses[bus].Valid() {
			return true
		}
		ch := buses[bus].Channels
		return v.Render(ch[0], ch[1], sampleRate, bpm)
	})
}

// stopVoices returns every active voice for which stop is true to the pool,
// keeping the order of the remaining ones.
func (p *Part) stopVoices(stop func(*Voice) bool) bool {
	removed := false
	n := 0
	for _, v := range p.active {
		if stop(v) {
			v.reset()
			p.free = append(p.free, v)
			removed = true
			continue
		}
		p.active[n] = v
		n++
	}
	for i := n; i < len(p.active); i++ {
		p.active[i] = nil
	}
	p.active = p.active[:n]
	return removed
}

// SoloSelection is a Selection backed by a set of samples. It is not safe
// for concurrent use; edit it from the rendering goroutine.
type SoloSelection struct {
	solo     bool
	selected map[*Sample]bool
}

func NewSoloSelection() *SoloSelection {
	return &SoloSelection{selected: make(map[*Sample]bool)}
}

func (s *SoloSelection) SoloEnabled() bool { return s.solo }

func (s *SoloSelection) Selected(sample *Sample) bool { return s.selected[sample] }

func (s *SoloSelection) SetSolo(enabled bool) { s.solo = enabled }

// Select replaces the selection with samples.
func (s *SoloSelection) Select(samples ...*Sample) {
	for k := range s.selected {
		delete(s.selected, k)
	}
	for _, sample := range samples {
		s.selected[sample] = true
	}
}

func (s *SoloSelection) Deselect(sample *Sample) {
	delete(s.selected, sample)
}
