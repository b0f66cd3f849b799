package audio

import "testing"

func TestEngineOutOfRangePart(t *testing.T) {
	e := NewEngine()
	s := flatSample(newConstSource(1000, 1))
	if e.AddSample(NumParts, s) {
		t.Errorf("sample added to part %d", NumParts)
	}
	if e.Part(-1) != nil || e.Part(NumParts) != nil {
		t.Errorf("expected nil for out of range parts")
	}
	e.NoteOn(NumParts, 60, 100)
	e.NoteOff(-1, 60, 0)
	e.Pitchbend(NumParts, 1)
	e.ControllerChange(NumParts, 1, 1)
	if e.Samples(NumParts) != nil {
		t.Errorf("expected no samples")
	}
	if want, got := 0, e.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestEngineRouting(t *testing.T) {
	e := NewEngine()
	a := flatSample(newConstSource(1000, 1))
	b := flatSample(newConstSource(1000, 1))
	e.AddSample(0, a)
	e.AddSample(3, b)

	e.NoteOn(3, 60, 100)
	if want, got := 1, e.Part(3).ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if want, got := 0, e.Part(0).ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if i, ok := e.PartOf(b); !ok || i != 3 {
		t.Errorf("want part 3, got %v %v", i, ok)
	}
	if _, ok := e.PartOf(flatSample(nil)); ok {
		t.Errorf("unknown sample found")
	}

	if e.Process(testBuses(1, 32), 44100, 120) {
		t.Errorf("unexpected voice removal")
	}
	if !e.RemoveSample(3, b) {
		t.Errorf("sample not removed")
	}
	if want, got := 0, e.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestEngineSelection(t *testing.T) {
	e := NewEngine()
	a := flatSample(newConstSource(1000, 1))
	b := flatSample(newConstSource(1000, 1))
	e.AddSample(0, a)
	e.AddSample(0, b)
	sel := NewSoloSelection()
	sel.SetSolo(true)
	sel.Select(a)
	e.SetSelection(sel)

	e.NoteOn(0, 60, 100)
	if want, got := 1, e.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestEngineReplace(t *testing.T) {
	e := NewEngine()
	old := flatSample(newConstSource(1000, 1))
	e.AddSample(0, old)
	e.NoteOn(0, 60, 100)
	e.Pitchbend(0, 0.5)
	e.ControllerChange(0, ccModWheel, 1)

	other := NewEngine()
	s := flatSample(newConstSource(1000, 1))
	other.AddSample(2, s)

	e.Replace(other)
	if want, got := 0, e.ActiveVoices(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	if len(e.Samples(0)) != 0 {
		t.Errorf("old samples kept")
	}
	if samples := e.Samples(2); len(samples) != 1 || samples[0] != s {
		t.Errorf("samples not taken over")
	}
	if e.Part(0).Pitchbend() != 0 || e.Part(0).Controller(ccModWheel) != 0 {
		t.Errorf("part state not reset")
	}

	// replacing must not alias the other engine's sample lists
	e.AddSample(2, flatSample(nil))
	if want, got := 1, len(other.Samples(2)); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
}

func TestBusValid(t *testing.T) {
	tests := []struct {
		bus  Bus
		want bool
	}{
		{NewBus(8), true},
		{Bus{Enabled: false, Channels: NewBus(8).Channels}, false},
		{Bus{Enabled: true, Channels: [][]float32{make([]float32, 8)}}, false},
		{Bus{Enabled: true, Channels: [][]float32{make([]float32, 8), make([]float32, 4)}}, false},
	}
	for i, test := range tests {
		if got := test.bus.Valid(); got != test.want {
			t.Errorf("bus %d: want %v, got %v", i, test.want, got)
		}
	}
	if want, got := 8, NewBus(8).Len(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}
