package audio

import (
	"math"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

type Ticker interface {
	Tick(numSamples int)
}

// Mixer renders a Host into a set of stereo buses and sums them into a
// stereo output with the master level applied.
type Mixer struct {
	host    *Host
	tickers []Ticker
	buses   []Bus
	level   *atomic.Value
}

func NewMixer(host *Host, numBuses, bufferSize int) *Mixer {
	if numBuses < 1 {
		numBuses = 1
	}
	m := &Mixer{
		host:  host,
		buses: make([]Bus, numBuses),
		level: host.level,
	}
	for i := range m.buses {
		m.buses[i] = NewBus(bufferSize)
	}
	return m
}

func (m *Mixer) AddTicker(ticker Ticker) {
	m.tickers = append(m.tickers, ticker)
}

func (m *Mixer) NumBuses() int { return len(m.buses) }

// Process renders len(samples[0]) frames into the first two channels of
// samples. Extra channels are silenced.
func (m *Mixer) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) < 2 {
		return
	}
	n := len(samples[0])
	for i := range m.buses {
		b := &m.buses[i]
		if len(b.Channels[0]) != n {
			if cap(b.Channels[0]) < n {
				*b = NewBus(n)
			} else {
				b.Channels[0] = b.Channels[0][:n]
				b.Channels[1] = b.Channels[1][:n]
			}
		}
		for c := range b.Channels {
			ch := b.Channels[c]
			for j := range ch {
				ch[j] = 0
			}
		}
	}
	for _, ticker := range m.tickers {
		ticker.Tick(n)
	}
	m.host.Process(m.buses)

	db := m.level.Load().(float64)
	gain := float32(math.Pow(10, db/20.0))
	for _, b := range m.buses {
		for j := 0; j < n; j++ {
			samples[0][j] += gain * b.Channels[0][j]
			samples[1][j] += gain * b.Channels[1][j]
		}
	}
}

// Sink plays a Mixer on the default portaudio output device.
type Sink struct {
	*Mixer
	stream *portaudio.Stream
}

func NewSink(mixer *Mixer, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{Mixer: mixer}
	stream, err := portaudio.OpenDefaultStream(0, 2, mixer.host.SampleRate(), bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *Sink) Start() error {
	if err := s.host.Attach(); err != nil {
		return err
	}
	if err := s.stream.Start(); err != nil {
		s.host.Detach()
		return err
	}
	return nil
}

func (s *Sink) Stop() error {
	err := s.stream.Close()
	s.host.Detach()
	portaudio.Terminate()
	return err
}
