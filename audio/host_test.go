package audio

import (
	"errors"
	"testing"
)

func TestHostAppliesDirectlyWhenDetached(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	h.Edit(func(e *Engine) {
		e.AddSample(1, flatSample(newConstSource(1000, 1)))
	})
	h.NoteOn(1, 60, 100)

	var voices int
	h.Do(func(e *Engine) { voices = e.ActiveVoices() })
	if want, got := 1, voices; want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestHostQueuesWhenAttached(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	h.Edit(func(e *Engine) {
		e.AddSample(0, flatSample(newConstSource(1000, 1)))
	})
	if err := h.Attach(); err != nil {
		t.Fatal(err)
	}
	if err := h.Attach(); !errors.Is(err, ErrRendering) {
		t.Errorf("want ErrRendering, got %v", err)
	}

	h.NoteOn(0, 60, 100)
	if want, got := 0, h.engine.ActiveVoices(); want != got {
		t.Fatalf("event applied before rendering: want %v voices, got %v", want, got)
	}
	buses := testBuses(1, 64)
	h.Process(buses)
	if want, got := 1, h.engine.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if want, got := float32(100./127), buses[0].Channels[0][0]; want != got {
		t.Errorf("want %v, got %v", want, got)
	}

	h.NoteOff(0, 60)
	h.Detach()
	if h.engine.Part(0).active[0].noteOn {
		t.Errorf("pending note off not applied on detach")
	}
}

func TestHostDoWhileRendering(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	if err := h.Attach(); err != nil {
		t.Fatal(err)
	}
	defer h.Detach()

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		buses := testBuses(1, 64)
		for {
			select {
			case <-stop:
				return
			default:
				h.Process(buses)
			}
		}
	}()

	s := flatSample(newConstSource(1000, 1))
	h.Edit(func(e *Engine) { e.AddSample(4, s) })
	var part int
	var ok bool
	h.Do(func(e *Engine) { part, ok = e.PartOf(s) })
	close(stop)
	<-stopped

	if !ok || part != 4 {
		t.Errorf("want part 4, got %v %v", part, ok)
	}
}

func TestHostScheduledOffsets(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	h.Edit(func(e *Engine) {
		e.AddSample(0, flatSample(newConstSource(1000, 1)))
	})
	if err := h.Attach(); err != nil {
		t.Fatal(err)
	}
	defer h.Detach()

	h.NoteOnAt(16, 0, 60, 127)
	h.NoteOnAt(100, 0, 60, 127) // beyond the block, starts at its end
	buses := testBuses(1, 32)
	h.Process(buses)

	ch := buses[0].Channels[0]
	for i := 0; i < 16; i++ {
		if ch[i] != 0 {
			t.Fatalf("frame %d: sound before the scheduled offset: %v", i, ch[i])
		}
	}
	for i := 16; i < 32; i++ {
		if ch[i] != 1 {
			t.Fatalf("frame %d: want 1, got %v", i, ch[i])
		}
	}
	if want, got := 2, h.engine.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestHostSolo(t *testing.T) {
	props := NewProps()
	h := NewHost(props, 44100)
	a := flatSample(newConstSource(1000, 1))
	b := flatSample(newConstSource(1000, 1))
	h.Edit(func(e *Engine) {
		e.AddSample(0, a)
		e.AddSample(0, b)
	})
	h.Select(b)
	if err := props.Set(PropSolo, "on"); err != nil {
		t.Fatal(err)
	}
	if err := h.Attach(); err != nil {
		t.Fatal(err)
	}
	defer h.Detach()

	h.Process(testBuses(1, 32))
	h.NoteOn(0, 60, 100)
	h.Process(testBuses(1, 32))
	if want, got := 1, h.engine.ActiveVoices(); want != got {
		t.Fatalf("want %v voices, got %v", want, got)
	}
	if h.engine.Part(0).active[0].Sample() != b {
		t.Errorf("unselected sample played")
	}
}

func TestHostHandleMIDI(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	h.Edit(func(e *Engine) {
		e.AddSample(3, flatSample(newConstSource(1000, 1)))
	})
	h.HandleMIDI([]byte{0x93, 60, 100})
	h.HandleMIDI([]byte{0xb3, 1, 127})
	h.HandleMIDI([]byte{0xe3, 0, 0})

	p := h.engine.Part(3)
	if want, got := 1, p.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if want, got := 1.0, p.Controller(1); want != got {
		t.Errorf("want mod wheel %v, got %v", want, got)
	}
	if want, got := -1.0, p.Pitchbend(); want != got {
		t.Errorf("want pitchbend %v, got %v", want, got)
	}

	h.HandleMIDI([]byte{0x93, 60, 0})
	if p.active[0].noteOn {
		t.Errorf("note on with zero velocity should release the note")
	}
}

func TestHostLoad(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	old := flatSample(newConstSource(1000, 1))
	h.Edit(func(e *Engine) { e.AddSample(0, old) })
	h.Select(old)
	h.NoteOn(0, 60, 100)

	other := NewEngine()
	s := flatSample(newConstSource(1000, 1))
	other.AddSample(5, s)
	h.Load(other)

	if want, got := 0, h.engine.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if h.selection.Selected(old) {
		t.Errorf("selection kept after load")
	}
	if samples := h.engine.Samples(5); len(samples) != 1 || samples[0] != s {
		t.Errorf("samples not loaded")
	}
}

func TestHostSoloWhenDetached(t *testing.T) {
	props := NewProps()
	h := NewHost(props, 44100)
	a := flatSample(newConstSource(1000, 1))
	b := flatSample(newConstSource(1000, 1))
	h.Edit(func(e *Engine) {
		e.AddSample(0, a)
		e.AddSample(0, b)
	})
	h.Select(b)
	if err := props.Set(PropSolo, "on"); err != nil {
		t.Fatal(err)
	}

	h.NoteOn(0, 60, 100)
	if want, got := 1, h.engine.ActiveVoices(); want != got {
		t.Fatalf("want %v voices, got %v", want, got)
	}
	if h.engine.Part(0).active[0].Sample() != b {
		t.Errorf("unselected sample played")
	}
}

func TestHostSplitBlockBusLengths(t *testing.T) {
	h := NewHost(NewProps(), 44100)
	s := flatSample(newConstSource(1000, 1))
	s.OutputBus = 1
	h.Edit(func(e *Engine) { e.AddSample(0, s) })
	h.NoteOn(0, 60, 127)
	if err := h.Attach(); err != nil {
		t.Fatal(err)
	}
	defer h.Detach()

	buses := []Bus{NewBus(32), NewBus(16)}
	h.NoteOnAt(16, 1, 60, 127)
	h.Process(buses)

	if want, got := 1, h.engine.Part(0).ActiveVoices(); want != got {
		t.Fatalf("want %v voices, got %v", want, got)
	}
	ch := buses[1].Channels[0]
	for i := range ch {
		if ch[i] != 1 {
			t.Fatalf("frame %d: want 1, got %v", i, ch[i])
		}
	}
}

func TestHostSnapshot(t *testing.T) {
	props := NewProps()
	h := NewHost(props, 44100)
	a := flatSample(newConstSource(1000, 1))
	b := flatSample(newConstSource(1000, 1))
	b.Gain = 0.5
	h.Edit(func(e *Engine) {
		e.AddSample(0, a)
		e.AddSample(2, b)
	})
	h.Select(b)

	snapshot, selected := h.Snapshot()
	if want, got := 1, len(snapshot.Samples(2)); want != got {
		t.Fatalf("want %v samples, got %v", want, got)
	}
	clone := snapshot.Samples(2)[0]
	if clone == b {
		t.Errorf("snapshot shares samples with the live engine")
	}
	if want, got := b.Gain, clone.Gain; want != got {
		t.Errorf("want gain %v, got %v", want, got)
	}
	if len(selected) != 1 || selected[0] != clone {
		t.Fatalf("selection not carried over: %v", selected)
	}
	clone.Gain = 1
	if want, got := 0.5, b.Gain; want != got {
		t.Errorf("editing the snapshot changed the live sample: gain %v", got)
	}

	soloProps := NewProps()
	other := NewHost(soloProps, 44100)
	if err := soloProps.Set(PropSolo, "on"); err != nil {
		t.Fatal(err)
	}
	other.Load(snapshot)
	other.Select(selected...)
	other.NoteOn(0, 60, 100)
	other.NoteOn(2, 60, 100)
	if want, got := 0, other.engine.Part(0).ActiveVoices(); want != got {
		t.Errorf("want %v voices in part 1, got %v", want, got)
	}
	if want, got := 1, other.engine.Part(2).ActiveVoices(); want != got {
		t.Errorf("want %v voices in part 3, got %v", want, got)
	}
}
