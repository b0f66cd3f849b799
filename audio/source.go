package audio

import (
	"errors"
	"fmt"
	"math"
)

// SampleSource provides decoded sample data for a Sample.
type SampleSource interface {
	NumChannels() int
	SampleRate() int
	NumBits() int
	NumSamples() int
	// FloatValue returns the sample at index in roughly [-1, 1], or NaN when
	// channel or index are out of range.
	FloatValue(channel, index int) float64
	LoopStart() int
	// LoopEnd is exclusive.
	LoopEnd() int
}

var ErrBadFormat = errors.New("unsupported sample format")

// PCMData is a SampleSource over raw little endian PCM frames. 8 bit data is
// unsigned, wider formats are signed.
type PCMData struct {
	channels   int
	sampleRate int
	bits       int
	numSamples int
	loopStart  int
	loopEnd    int
	loop       bool
	data       []byte
}

// NewPCMData wraps interleaved raw PCM bytes. The loop covers the whole
// sample until SetLoop is called.
func NewPCMData(channels, sampleRate, bits int, data []byte) (*PCMData, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrBadFormat, channels)
	}
	switch bits {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrBadFormat, bits)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrBadFormat, sampleRate)
	}
	frame := channels * bits / 8
	p := &PCMData{
		channels:   channels,
		sampleRate: sampleRate,
		bits:       bits,
		numSamples: len(data) / frame,
		data:       data[:len(data)/frame*frame],
	}
	p.loopEnd = p.numSamples
	return p, nil
}

// NewPCMDataFloat builds 16 bit PCM from per channel float slices of equal
// length.
func NewPCMDataFloat(sampleRate int, channels ...[]float64) (*PCMData, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrBadFormat)
	}
	n := len(channels[0])
	data := make([]byte, n*len(channels)*2)
	for i := 0; i < n; i++ {
		for ch, buf := range channels {
			var v float64
			if i < len(buf) {
				v = buf[i]
			}
			s := int16(clamp(math.Round(v*32768), math.MinInt16, math.MaxInt16))
			off := (i*len(channels) + ch) * 2
			data[off] = byte(s)
			data[off+1] = byte(uint16(s) >> 8)
		}
	}
	return NewPCMData(len(channels), sampleRate, 16, data)
}

// SetLoop sets the loop bounds, limiting them to the sample.
func (p *PCMData) SetLoop(start, end int, enabled bool) {
	if start < 0 {
		start = 0
	}
	if end > p.numSamples {
		end = p.numSamples
	}
	if end < start {
		end = start
	}
	p.loopStart, p.loopEnd, p.loop = start, end, enabled
}

func (p *PCMData) NumChannels() int { return p.channels }
func (p *PCMData) SampleRate() int { return p.sampleRate }
func (p *PCMData) NumBits() int { return p.bits }
func (p *PCMData) NumSamples() int { return p.numSamples }
func (p *PCMData) LoopStart() int { return p.loopStart }
func (p *PCMData) LoopEnd() int { return p.loopEnd }
func (p *PCMData) LoopEnabled() bool { return p.loop }

// Bytes returns the raw PCM payload.
func (p *PCMData) Bytes() []byte { return p.data }

func (p *PCMData) FloatValue(channel, index int) float64 {
	if channel < 0 || channel >= p.channels || index < 0 || index >= p.numSamples {
		return math.NaN()
	}
	width := p.bits / 8
	off := (index*p.channels + channel) * width
	b := p.data[off : off+width]
	switch p.bits {
	case 8:
		return float64(int(b[0])-128) / 128
	case 16:
		return float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768
	case 24:
		v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
		return float64(v) / 8388608
	case 32:
		v := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		return float64(v) / 2147483648
	}
	return math.NaN()
}
