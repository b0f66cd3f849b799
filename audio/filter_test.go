package audio

import (
	"math"
	"testing"
)

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func nyquist(n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = 1
		if i%2 == 1 {
			buf[i] = -1
		}
	}
	return buf
}

func sine(n int, freq, sampleRate float64) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return buf
}

func constant(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestFilterNone(t *testing.T) {
	f := NewFilter()
	left, right := nyquist(64), nyquist(64)
	f.Process(left, right, 44100)
	for i := range left {
		if left[i] != nyquist(64)[i] || right[i] != left[i] {
			t.Fatalf("sample %d changed: %v", i, left[i])
		}
	}
}

func TestFilterLowpass(t *testing.T) {
	f := NewFilter()
	f.Type = FilterLowpass
	f.Cutoff = 0.05
	left, right := nyquist(4096), nyquist(4096)
	f.Process(left, right, 44100)
	if got := rms(left[2048:]); got > 0.01 {
		t.Errorf("lowpass passed nyquist: rms %v", got)
	}

	f.Reset()
	left, right = constant(4096, 1), constant(4096, 1)
	f.Process(left, right, 44100)
	if want, got := 1.0, float64(right[4095]); math.Abs(want-got) > 0.01 {
		t.Errorf("lowpass blocked dc: want %v, got %v", want, got)
	}
}

func TestFilterHighpass(t *testing.T) {
	f := NewFilter()
	f.Type = FilterHighpass
	f.Cutoff = 0.05
	left, right := constant(8192, 1), constant(8192, 1)
	f.Process(left, right, 44100)
	if got := math.Abs(float64(left[8191])); got > 0.01 {
		t.Errorf("highpass passed dc: %v", got)
	}
}

func TestFilterCutoffModulation(t *testing.T) {
	open := NewFilter()
	open.Type = FilterLowpass
	open.Cutoff = 0.05
	open.SetModulation(8, 0)

	closed := open.Clone()

	a, b := sine(4096, 5000, 44100), sine(4096, 5000, 44100)
	open.Process(a, b, 44100)
	c, d := sine(4096, 5000, 44100), sine(4096, 5000, 44100)
	closed.Process(c, d, 44100)
	if rms(a[2048:]) <= rms(c[2048:]) {
		t.Errorf("raising cutoff did not let more signal through: %v <= %v", rms(a[2048:]), rms(c[2048:]))
	}
}

func TestFilterLimitsFrequency(t *testing.T) {
	f := NewFilter()
	f.Type = FilterLowpass
	f.Cutoff = 1
	f.Resonance = 1
	f.SetModulation(8, 100)
	left, right := nyquist(1024), nyquist(1024)
	f.Process(left, right, 8000)
	for i, v := range left {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("sample %d is not finite: %v", i, v)
		}
	}
}
