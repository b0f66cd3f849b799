package audio

import (
	"errors"
	"math"
	"testing"
)

func TestPCMDataFloatValue(t *testing.T) {
	tests := []struct {
		bits int
		data []byte
		want []float64
	}{
		{8, []byte{0, 128, 255}, []float64{-1, 0, 127. / 128}},
		{16, []byte{0x00, 0x80, 0x00, 0x00, 0xff, 0x7f}, []float64{-1, 0, 32767. / 32768}},
		{24, []byte{0x00, 0x00, 0x80, 0xff, 0xff, 0xff}, []float64{-1, -1. / 8388608}},
		{32, []byte{0x00, 0x00, 0x00, 0x40}, []float64{0.5}},
	}
	for _, test := range tests {
		pcm, err := NewPCMData(1, 44100, test.bits, test.data)
		if err != nil {
			t.Fatal(err)
		}
		if want, got := len(test.want), pcm.NumSamples(); want != got {
			t.Fatalf("%d bit: want %v samples, got %v", test.bits, want, got)
		}
		for i, want := range test.want {
			if got := pcm.FloatValue(0, i); got != want {
				t.Errorf("%d bit sample %d: want %v, got %v", test.bits, i, want, got)
			}
		}
	}
}

func TestPCMDataOutOfRange(t *testing.T) {
	pcm, err := NewPCMData(2, 44100, 16, make([]byte, 8))
	if err != nil {
		t.Fatal(err)
	}
	for _, idx := range [][2]int{{-1, 0}, {2, 0}, {0, -1}, {0, 2}} {
		if v := pcm.FloatValue(idx[0], idx[1]); !math.IsNaN(v) {
			t.Errorf("FloatValue(%d, %d): want NaN, got %v", idx[0], idx[1], v)
		}
	}
}

func TestPCMDataBadFormat(t *testing.T) {
	if _, err := NewPCMData(1, 44100, 12, nil); !errors.Is(err, ErrBadFormat) {
		t.Errorf("want ErrBadFormat, got %v", err)
	}
	if _, err := NewPCMData(0, 44100, 16, nil); !errors.Is(err, ErrBadFormat) {
		t.Errorf("want ErrBadFormat, got %v", err)
	}
}

func TestPCMDataLoop(t *testing.T) {
	pcm, err := NewPCMDataFloat(44100, make([]float64, 100))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 0, pcm.LoopStart(); want != got {
		t.Errorf("default loop start: want %v, got %v", want, got)
	}
	if want, got := 100, pcm.LoopEnd(); want != got {
		t.Errorf("default loop end: want %v, got %v", want, got)
	}

	pcm.SetLoop(-5, 500, true)
	if pcm.LoopStart() != 0 || pcm.LoopEnd() != 100 || !pcm.LoopEnabled() {
		t.Errorf("loop not limited to sample: %d..%d", pcm.LoopStart(), pcm.LoopEnd())
	}
}

func TestPCMDataFloatStereo(t *testing.T) {
	pcm, err := NewPCMDataFloat(48000, []float64{0.5, -0.5}, []float64{0.25, 1})
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 2, pcm.NumChannels(); want != got {
		t.Errorf("want %v channels, got %v", want, got)
	}
	tests := []struct {
		ch, i int
		want  float64
	}{
		{0, 0, 0.5},
		{0, 1, -0.5},
		{1, 0, 0.25},
		{1, 1, 32767. / 32768},
	}
	for _, test := range tests {
		if got := pcm.FloatValue(test.ch, test.i); got != test.want {
			t.Errorf("FloatValue(%d, %d): want %v, got %v", test.ch, test.i, test.want, got)
		}
	}
}
