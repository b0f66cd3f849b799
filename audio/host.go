package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

const eventBufferSize = 1024

var ErrRendering = errors.New("host is already rendering")

// Scheduler accepts notes with a sample offset into the block that is about
// to be rendered. It is called from the rendering goroutine.
type Scheduler interface {
	NoteOnAt(offset, part, note, velocity int)
	NoteOffAt(offset, part, note int)
}

// Host owns an Engine and serializes every change to it onto the goroutine
// that renders audio. Control methods may be called from any goroutine.
type Host struct {
	*Props
	engine     *Engine
	selection  *SoloSelection
	sampleRate float64

	bpm   *atomic.Value
	level *atomic.Value
	solo  *atomic.Value

	mu        sync.Mutex
	live      bool
	events    *eventBuffer // control side, producers hold mu
	scheduled *eventBuffer // rendering side only

	sub   []Bus
	subCh [][2][]float32
}

func NewHost(props *Props, sampleRate float64) *Host {
	h := &Host{
		Props:      props,
		engine:     NewEngine(),
		selection:  NewSoloSelection(),
		sampleRate: sampleRate,
		bpm:        props.Shared(PropBPM, setBPM, 120.0),
		level:      props.Shared(PropLevel, setLevel, 0.0),
		solo:       props.Shared(PropSolo, setBool, false),
		events:     newEventBuffer(eventBufferSize),
		scheduled:  newEventBuffer(eventBufferSize),
	}
	h.engine.SetSelection(h.selection)
	return h
}

func (h *Host) SampleRate() float64 { return h.sampleRate }

func (h *Host) BPM() float64 { return h.bpm.Load().(float64) }

// Attach marks the host as driven by a renderer. Until then, and after
// Detach, control methods are applied directly. Only one renderer may be
// attached at a time.
func (h *Host) Attach() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live {
		return ErrRendering
	}
	h.live = true
	return nil
}

// Detach must only be called once the renderer stopped calling Process.
// Pending events are applied before it returns.
func (h *Host) Detach() {
	h.mu.Lock()
	h.live = false
	h.events.iter(-1, h.apply)
	h.mu.Unlock()
}

func (h *Host) send(ev event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.live {
		h.apply(ev)
		return
	}
	h.events.push(ev)
}

func (h *Host) NoteOn(part, note, velocity int) {
	h.send(event{kind: eventNoteOn, part: part, note: note, velocity: velocity})
}

func (h *Host) NoteOff(part, note int) {
	h.send(event{kind: eventNoteOff, part: part, note: note})
}

func (h *Host) Pitchbend(part int, value float64) {
	h.send(event{kind: eventPitchbend, part: part, value: value})
}

func (h *Host) ControllerChange(part, cc int, value float64) {
	h.send(event{kind: eventController, part: part, note: cc, value: value})
}

// Edit runs f on the rendering goroutine before the next block.
func (h *Host) Edit(f func(*Engine)) {
	h.send(event{kind: eventEdit, edit: f})
}

// Do runs f on the rendering goroutine and waits for it to finish.
func (h *Host) Do(f func(*Engine)) {
	h.mu.Lock()
	if !h.live {
		f(h.engine)
		h.mu.Unlock()
		return
	}
	done := make(chan struct{})
	h.events.push(event{kind: eventEdit, edit: func(e *Engine) {
		f(e)
		close(done)
	}})
	h.mu.Unlock()
	<-done
}

// Select replaces the solo selection.
func (h *Host) Select(samples ...*Sample) {
	h.Edit(func(*Engine) { h.selection.Select(samples...) })
}

// Load replaces all samples with those of e.
func (h *Host) Load(e *Engine) {
	h.Edit(func(engine *Engine) {
		h.selection.Select()
		engine.Replace(e)
	})
}

// Snapshot returns an engine holding copies of every part's samples, and
// the copies of the samples in the solo selection. Only the copying happens
// on the rendering goroutine. The copies share the read-only sources.
func (h *Host) Snapshot() (*Engine, []*Sample) {
	var parts [NumParts][]*Sample
	var selected []*Sample
	h.Do(func(live *Engine) {
		for i := range parts {
			for _, s := range live.Samples(i) {
				c := s.Clone()
				parts[i] = append(parts[i], c)
				if h.selection.Selected(s) {
					selected = append(selected, c)
				}
			}
		}
	})
	e := NewEngine()
	for i, samples := range parts {
		for _, s := range samples {
			e.AddSample(i, s)
		}
	}
	return e, selected
}

// HandleMIDI applies a raw MIDI channel message.
func (h *Host) HandleMIDI(data []byte) {
	ev, ok := ParseMIDI(data)
	if !ok {
		return
	}
	switch ev.Kind {
	case MIDINoteOn:
		h.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case MIDINoteOff:
		h.NoteOff(ev.Channel, ev.Note)
	case MIDIControlChange:
		h.ControllerChange(ev.Channel, ev.Controller, ev.Value)
	case MIDIPitchbend:
		h.Pitchbend(ev.Channel, ev.Value)
	}
}

func (h *Host) NoteOnAt(offset, part, note, velocity int) {
	h.scheduled.tryPush(event{kind: eventNoteOn, offset: offset, part: part, note: note, velocity: velocity})
}

func (h *Host) NoteOffAt(offset, part, note int) {
	h.scheduled.tryPush(event{kind: eventNoteOff, offset: offset, part: part, note: note})
}

func (h *Host) apply(ev event) {
	e := h.engine
	switch ev.kind {
	case eventNoteOn:
		h.selection.SetSolo(h.solo.Load().(bool))
		e.NoteOn(ev.part, ev.note, ev.velocity)
	case eventNoteOff:
		e.NoteOff(ev.part, ev.note, ev.velocity)
	case eventPitchbend:
		e.Pitchbend(ev.part, ev.value)
	case eventController:
		e.ControllerChange(ev.part, ev.note, ev.value)
	case eventEdit:
		ev.edit(e)
	}
}

// Process renders one block into buses. Control events are applied at the
// start of the block, scheduled events at their offset. It returns true
// when voices ended.
func (h *Host) Process(buses []Bus) bool {
	n := 0
	for _, b := range buses {
		if n = b.Len(); n > 0 {
			break
		}
	}
	bpm := h.bpm.Load().(float64)
	h.events.iter(-1, h.apply)

	dirty := false
	pos := 0
	h.scheduled.iter(-1, func(ev event) {
		offset := ev.offset
		if offset > n {
			offset = n
		}
		if offset > pos {
			if h.render(buses, pos, offset, n, bpm) {
				dirty = true
			}
			pos = offset
		}
		h.apply(ev)
	})
	if pos < n || n == 0 {
		if h.render(buses, pos, n, n, bpm) {
			dirty = true
		}
	}
	return dirty
}

func (h *Host) render(buses []Bus, from, to, n int, bpm float64) bool {
	if from == 0 && to == n {
		return h.engine.Process(buses, h.sampleRate, bpm)
	}
	if cap(h.sub) < len(buses) {
		h.sub = make([]Bus, len(buses))
		h.subCh = make([][2][]float32, len(buses))
	}
	sub := h.sub[:len(buses)]
	for i, b := range buses {
		if !b.Valid() {
			sub[i] = Bus{}
			continue
		}
		l := b.Len()
		lo, hi := min(from, l), min(to, l)
		h.subCh[i][0] = b.Channels[0][lo:hi]
		h.subCh[i][1] = b.Channels[1][lo:hi]
		sub[i] = Bus{Enabled: true, Channels: h.subCh[i][:]}
	}
	return h.engine.Process(sub, h.sampleRate, bpm)
}
