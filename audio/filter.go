package audio

import (
	"fmt"
	"math"
)

type FilterType int

const (
	FilterNone FilterType = iota
	FilterLowpass
	FilterHighpass
)

var filterTypeNames = [...]string{"none", "lowpass", "highpass"}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterTypeNames) {
		return fmt.Sprintf("FilterType(%d)", int(t))
	}
	return filterTypeNames[t]
}

func ParseFilterType(s string) (FilterType, error) {
	for i, name := range filterTypeNames {
		if name == s {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("not a valid filter type: %q", s)
}

const (
	maxCutoffFreq = 16000
	minResonance  = 0.1
)

// Filter is a resonant two pole filter. Cutoff and Resonance are 0..1 knob
// positions.
type Filter struct {
	Type      FilterType
	Cutoff    float64
	Resonance float64

	cutoffMod    float64 // octaves
	resonanceMod float64 // percent

	a1, a2, a3, b1, b2 float64

	// state per channel: x[n-1] x[n-2] y[n-1] y[n-2]
	state [2][4]float64
}

func NewFilter() Filter {
	return Filter{Type: FilterNone, Cutoff: 1}
}

func (f *Filter) SetModulation(cutoffOctaves, resonancePercent float64) {
	f.cutoffMod = cutoffOctaves
	f.resonanceMod = resonancePercent
}

func (f *Filter) effectiveCutoff() float64 {
	return clamp(f.Cutoff*math.Pow(2, f.cutoffMod), 0, 1)
}

func (f *Filter) effectiveResonance() float64 {
	return clamp(f.Resonance+f.resonanceMod/100, 0, 1)
}

// Based on the resonant lowpass/highpass from the musicdsp.org archive.
func (f *Filter) calculateCoefficients(sampleRate float64) {
	freq := 1 + f.effectiveCutoff()*(maxCutoffFreq-1)
	if limit := 0.49 * sampleRate; freq > limit {
		freq = limit
	}
	r := (math.Sqrt2-minResonance)*(1-f.effectiveResonance()) + minResonance

	switch f.Type {
	case FilterLowpass:
		c := 1 / math.Tan(math.Pi*freq/sampleRate)
		f.a1 = 1 / (1 + r*c + c*c)
		f.a2 = 2 * f.a1
		f.a3 = f.a1
		f.b1 = 2 * (1 - c*c) * f.a1
		f.b2 = (1 - r*c + c*c) * f.a1
	case FilterHighpass:
		c := math.Tan(math.Pi * freq / sampleRate)
		f.a1 = 1 / (1 + r*c + c*c)
		f.a2 = -2 * f.a1
		f.a3 = f.a1
		f.b1 = 2 * (c*c - 1) * f.a1
		f.b2 = (1 - r*c + c*c) * f.a1
	}
}

// Process filters both channels in place. Coefficients are computed once
// per call.
func (f *Filter) Process(left, right []float32, sampleRate float64) {
	if f.Type == FilterNone || sampleRate <= 0 {
		return
	}
	f.calculateCoefficients(sampleRate)
	f.processChannel(left, &f.state[0])
	f.processChannel(right, &f.state[1])
}

func (f *Filter) processChannel(buf []float32, s *[4]float64) {
	a1, a2, a3, b1, b2 := f.a1, f.a2, f.a3, f.b1, f.b2
	x1, x2, y1, y2 := s[0], s[1], s[2], s[3]
	for n := range buf {
		in := float64(buf[n])
		out := a1*in + a2*x1 + a3*x2 - b1*y1 - b2*y2
		x2, x1 = x1, in
		y2, y1 = y1, out
		buf[n] = float32(out)
	}
	s[0], s[1], s[2], s[3] = x1, x2, y1, y2
}

func (f *Filter) Reset() {
	f.state = [2][4]float64{}
	f.cutoffMod = 0
	f.resonanceMod = 0
}

// Clone copies the parameters with delay state and modulation cleared.
func (f *Filter) Clone() Filter {
	return Filter{Type: f.Type, Cutoff: f.Cutoff, Resonance: f.Resonance}
}
