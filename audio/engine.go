package audio

const NumParts = 16

// Bus is one output destination. A usable bus is enabled and has two
// channels of equal length.
type Bus struct {
	Enabled  bool
	Channels [][]float32
}

func NewBus(size int) Bus {
	return Bus{
		Enabled:  true,
		Channels: [][]float32{make([]float32, size), make([]float32, size)},
	}
}

func (b Bus) Valid() bool {
	return b.Enabled && len(b.Channels) == 2 && len(b.Channels[0]) == len(b.Channels[1])
}

// Len is the number of frames of a valid bus, 0 otherwise.
func (b Bus) Len() int {
	if !b.Valid() {
		return 0
	}
	return len(b.Channels[0])
}

// Engine routes events to its parts and renders them.
type Engine struct {
	parts     [NumParts]*Part
	selection Selection
}

func NewEngine() *Engine {
	e := &Engine{}
	for i := range e.parts {
		e.parts[i] = newPart(i)
	}
	return e
}

// Part returns the part with index i, or nil when i is out of range.
func (e *Engine) Part(i int) *Part {
	if i < 0 || i >= NumParts {
		return nil
	}
	return e.parts[i]
}

func (e *Engine) SetSelection(sel Selection) { e.selection = sel }

func (e *Engine) NoteOn(part, note, velocity int) {
	if p := e.Part(part); p != nil {
		p.NoteOn(note, velocity, e.selection)
	}
}

func (e *Engine) NoteOff(part, note, velocity int) {
	if p := e.Part(part); p != nil {
		p.NoteOff(note, velocity)
	}
}

func (e *Engine) Pitchbend(part int, value float64) {
	if p := e.Part(part); p != nil {
		p.SetPitchbend(value)
	}
}

func (e *Engine) ControllerChange(part, cc int, value float64) {
	if p := e.Part(part); p != nil {
		p.ControllerChange(cc, value)
	}
}

// Process renders all parts into buses. It returns true when any part
// removed voices.
func (e *Engine) Process(buses []Bus, sampleRate, bpm float64) bool {
	dirty := false
	for _, p := range e.parts {
		if p.Process(buses, sampleRate, bpm) {
			dirty = true
		}
	}
	return dirty
}

func (e *Engine) Samples(part int) []*Sample {
	if p := e.Part(part); p != nil {
		return p.Samples()
	}
	return nil
}

func (e *Engine) AddSample(part int, s *Sample) bool {
	p := e.Part(part)
	if p == nil {
		return false
	}
	p.AddSample(s)
	return true
}

func (e *Engine) RemoveSample(part int, s *Sample) bool {
	if p := e.Part(part); p != nil {
		return p.RemoveSample(s)
	}
	return false
}

// PartOf returns the index of the part owning s.
func (e *Engine) PartOf(s *Sample) (int, bool) {
	for i, p := range e.parts {
		if p.hasSample(s) {
			return i, true
		}
	}
	return 0, false
}

// Replace stops all voices and takes over the samples of other. Controller
// and pitchbend state is reset.
func (e *Engine) Replace(other *Engine) {
	for i, p := range e.parts {
		p.Reset()
		p.samples = append(p.samples[:0], other.parts[i].samples...)
		p.pitchbend = 0
		p.controllers = [numControllers]float64{}
	}
}

func (e *Engine) ActiveVoices() int {
	var n int
	for _, p := range e.parts {
		n += p.ActiveVoices()
	}
	return n
}
