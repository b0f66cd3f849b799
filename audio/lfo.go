package audio

import (
	"fmt"
	"math"
	"math/rand"
)

type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WavePulse
	WaveRectangle
	WaveSawtooth
	WaveRandom
	WaveCustom
)

var waveformNames = [...]string{"sine", "triangle", "pulse", "rectangle", "sawtooth", "random", "custom"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if name == s {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid waveform: %q", s)
}

const maxLFOSteps = 32

// TimeValue is a duration given either in seconds or, when Sync is set, in
// beats of the host tempo.
type TimeValue struct {
	Seconds float64
	Beats   float64
	Sync    bool
}

func (t TimeValue) Duration(bpm float64) float64 {
	if !t.Sync {
		return math.Max(t.Seconds, 0)
	}
	if bpm <= 0 {
		return 0
	}
	return math.Max(t.Beats, 0) * 60 / bpm
}

type LFO struct {
	Waveform           Waveform
	Frequency          float64 // Hz
	SyncEnabled        bool
	SyncBeats          float64 // beats per cycle
	Delay              TimeValue
	FadeIn             TimeValue
	OnceEnabled        bool
	RandomPhaseEnabled bool
	Steps              []float64 // bipolar step values for WaveCustom
	QuantizeEnabled    bool
	QuantizeLevels     int

	startPhase float64
	period     float64
	time       float64
	random     float64
	val        float64
}

func NewLFO() LFO {
	return LFO{
		Waveform:       WaveSine,
		Frequency:      1,
		SyncBeats:      1,
		Steps:          []float64{1, -1},
		QuantizeLevels: 8,
	}
}

// EffectiveFrequency is the cycle rate in Hz, derived from the tempo when
// sync is enabled.
func (l *LFO) EffectiveFrequency(bpm float64) float64 {
	if l.SyncEnabled {
		if l.SyncBeats <= 0 || bpm <= 0 {
			return 0
		}
		return bpm / (60 * l.SyncBeats)
	}
	return l.Frequency
}

func (l *LFO) NoteOn() {
	l.startPhase = 0
	if l.RandomPhaseEnabled {
		l.startPhase = rand.Float64()
	}
	l.period = 0
	l.time = 0
	l.random = 2*rand.Float64() - 1
	l.val = 0
}

func (l *LFO) Step(elapsed, bpm float64) {
	l.time += elapsed
	delay := l.Delay.Duration(bpm)
	if l.time < delay {
		l.val = 0
		return
	}

	// only the part of this step past the delay moves the phase
	active := elapsed
	if since := l.time - delay; since < active {
		active = since
	}
	prevCycle := math.Floor(l.period + l.startPhase)
	l.period += active * l.EffectiveFrequency(bpm)
	cycle := math.Floor(l.period + l.startPhase)
	if cycle != prevCycle {
		l.random = 2*rand.Float64() - 1
	}

	if l.OnceEnabled && l.Waveform != WaveRandom && l.period >= 1 {
		l.val = 0
		return
	}

	fade := 1.0
	if d := l.FadeIn.Duration(bpm); d > 0 {
		fade = clamp((l.time-delay)/d, 0, 1)
	}
	phase := l.period + l.startPhase
	phase -= math.Floor(phase)
	l.val = fade * l.shape(phase)
}

func (l *LFO) shape(phase float64) float64 {
	switch l.Waveform {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveTriangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	case WavePulse:
		if phase < 0.5 {
			return 0
		}
		return 1
	case WaveRectangle:
		if phase < 0.5 {
			return -1
		}
		return 1
	case WaveSawtooth:
		return 1 - 2*phase
	case WaveRandom:
		return l.random
	case WaveCustom:
		return l.customValue(phase)
	}
	return 0
}

func (l *LFO) customValue(phase float64) float64 {
	n := len(l.Steps)
	if n == 0 {
		return 0
	}
	i := int(phase * float64(n))
	if i >= n {
		i = n - 1
	}
	v := clamp(l.Steps[i], -1, 1)
	if l.QuantizeEnabled && l.QuantizeLevels >= 2 {
		levels := float64(l.QuantizeLevels - 1)
		v = math.Round((v+1)/2*levels)/levels*2 - 1
	}
	return v
}

func (l *LFO) Value() float64 { return l.val }

// Clone copies the parameters, including the step table, with the runtime
// state reset.
func (l *LFO) Clone() LFO {
	var c LFO
	l.copyTo(&c)
	return c
}

// copyTo is Clone into an existing LFO. The step table reuses the capacity
// of dst.Steps so pooled voices don't allocate.
func (l *LFO) copyTo(dst *LFO) {
	steps := dst.Steps[:0]
	*dst = *l
	dst.Steps = append(steps, l.Steps...)
	dst.startPhase, dst.period, dst.time, dst.random, dst.val = 0, 0, 0, 0, 0
}
