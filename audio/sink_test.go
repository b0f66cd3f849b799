package audio

import (
	"math"
	"testing"
)

func TestMixer(t *testing.T) {
	props := NewProps()
	h := NewHost(props, 44100)
	a := flatSample(newConstSource(1000, 0.25))
	b := flatSample(newConstSource(1000, 0.5))
	b.OutputBus = 1
	h.Edit(func(e *Engine) {
		e.AddSample(0, a)
		e.AddSample(0, b)
	})
	h.NoteOn(0, 60, 127)

	m := NewMixer(h, 2, 64)
	out := [][]float32{constant(32, 1), constant(32, 1), constant(32, 1)}
	m.Process(out)
	if want, got := float32(0.75), out[0][0]; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := float32(0), out[2][0]; want != got {
		t.Errorf("extra channel not silenced: %v", got)
	}

	if err := props.Set(PropLevel, -6.0); err != nil {
		t.Fatal(err)
	}
	m.Process(out)
	want := 0.75 * math.Pow(10, -6.0/20)
	if got := float64(out[1][0]); math.Abs(want-got) > 1e-6 {
		t.Errorf("want %v, got %v", want, got)
	}
}

type countingTicker struct {
	ticks []int
}

func (c *countingTicker) Tick(n int) { c.ticks = append(c.ticks, n) }

func TestMixerTickers(t *testing.T) {
	m := NewMixer(NewHost(NewProps(), 44100), 1, 16)
	ticker := &countingTicker{}
	m.AddTicker(ticker)
	m.Process([][]float32{make([]float32, 16), make([]float32, 16)})
	m.Process([][]float32{make([]float32, 100), make([]float32, 100)})
	if len(ticker.ticks) != 2 || ticker.ticks[0] != 16 || ticker.ticks[1] != 100 {
		t.Errorf("unexpected ticks: %v", ticker.ticks)
	}
	if want, got := 100, m.buses[0].Len(); want != got {
		t.Errorf("bus not resized: want %v, got %v", want, got)
	}
}
