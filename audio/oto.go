package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays a Mixer through oto. oto pulls interleaved float32 frames
// from Read.
type OtoSink struct {
	*Mixer
	ctx    *oto.Context
	player *oto.Player
	planar [][]float32
	mu     sync.Mutex
}

func NewOtoSink(mixer *Mixer, bufferSize int) (*OtoSink, error) {
	sampleRate := mixer.host.SampleRate()
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(float64(bufferSize) / sampleRate * float64(time.Second)),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	s := &OtoSink{
		Mixer:  mixer,
		ctx:    ctx,
		planar: [][]float32{make([]float32, bufferSize), make([]float32, bufferSize)},
	}
	return s, nil
}

func (s *OtoSink) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if cap(s.planar[0]) < frames {
		s.planar = [][]float32{make([]float32, frames), make([]float32, frames)}
	}
	s.planar[0] = s.planar[0][:frames]
	s.planar[1] = s.planar[1][:frames]
	s.Mixer.Process(s.planar)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(s.planar[0][i]))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(s.planar[1][i]))
	}
	return frames * 8, nil
}

func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return nil
	}
	if err := s.host.Attach(); err != nil {
		return err
	}
	s.player = s.ctx.NewPlayer(s)
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	s.host.Detach()
	return err
}
