package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

const bounceBlockSize = 512

var ErrBadRange = errors.New("value out of range")

// Bounce renders seconds of audio from host offline and writes it to w as
// a 16 bit stereo wav file. Sequencer ticks run as they would for a sink.
func Bounce(host *Host, seconds float64, w io.WriteSeeker, tickers ...Ticker) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: bounce length %v", ErrBadRange, seconds)
	}
	sampleRate := int(host.SampleRate())
	mixer := NewMixer(host, 1, bounceBlockSize)
	for _, t := range tickers {
		mixer.AddTicker(t)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]float32, bounceBlockSize*2),
		SourceBitDepth: 16,
	}
	out := [][]float32{make([]float32, bounceBlockSize), make([]float32, bounceBlockSize)}

	if err := host.Attach(); err != nil {
		return err
	}
	defer host.Detach()

	remaining := int(math.Round(seconds * host.SampleRate()))
	for remaining > 0 {
		n := bounceBlockSize
		if remaining < n {
			n = remaining
		}
		block := [][]float32{out[0][:n], out[1][:n]}
		mixer.Process(block)
		buf.Data = buf.Data[:n*2]
		for i := 0; i < n; i++ {
			buf.Data[i*2] = clipSample(block[0][i])
			buf.Data[i*2+1] = clipSample(block[1][i])
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("bounce: %w", err)
		}
		remaining -= n
	}
	return enc.Close()
}

// BounceFile is Bounce into a newly created file.
func BounceFile(host *Host, seconds float64, file string, tickers ...Ticker) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := Bounce(host, seconds, f, tickers...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// clipSample limits v to full scale before it is quantized to 16 bits.
func clipSample(v float32) float32 {
	return float32(clamp(float64(v), -1, 1))
}
