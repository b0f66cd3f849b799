package audio

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

type MIDIKind int

const (
	MIDINoteOn MIDIKind = iota
	MIDINoteOff
	MIDIControlChange
	MIDIPitchbend
)

// MIDIEvent is a decoded channel message. The MIDI channel selects the part.
type MIDIEvent struct {
	Kind       MIDIKind
	Channel    int
	Note       int
	Velocity   int
	Controller int
	Value      float64 // controller value 0..1, pitchbend -1..1
}

// ParseMIDI decodes note on/off, control change and pitch bend messages.
// Everything else is reported as not ok.
func ParseMIDI(data []byte) (MIDIEvent, bool) {
	if len(data) < 3 {
		return MIDIEvent{}, false
	}
	ev := MIDIEvent{Channel: int(data[0] & 0x0f)}
	d1, d2 := int(data[1]&0x7f), int(data[2]&0x7f)
	switch data[0] & 0xf0 {
	case 0x80:
		ev.Kind, ev.Note, ev.Velocity = MIDINoteOff, d1, d2
	case 0x90:
		ev.Kind, ev.Note, ev.Velocity = MIDINoteOn, d1, d2
		if d2 == 0 {
			ev.Kind = MIDINoteOff
		}
	case 0xb0:
		ev.Kind, ev.Controller, ev.Value = MIDIControlChange, d1, float64(d2)/127
	case 0xe0:
		bend := d2<<7 | d1
		ev.Kind = MIDIPitchbend
		ev.Value = clamp(float64(bend-8192)/8192, -1, 1)
	default:
		return MIDIEvent{}, false
	}
	return ev, true
}

// ListenToMidiIn streams raw messages from the first MIDI input until ctx is
// done. The channel is closed when listening stops.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("midi: failed to initialize driver: %v", err)
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				log.Printf("midi: failed to close driver: %v", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("midi: failed to list inputs: %v", err)
			return
		}
		if len(ins) == 0 {
			log.Printf("midi: no input found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("midi: failed to open %s: %v", in, err)
			return
		}
		defer func() {
			if err := in.Close(); err != nil {
				log.Printf("midi: failed to close %s: %v", in, err)
			}
		}()
		log.Printf("midi: listening to %s", in)
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := append([]byte(nil), data...)
			select {
			case ch <- msg:
			default:
			}
		}); err != nil {
			log.Printf("midi: failed to set listener: %v", err)
			return
		}
		defer func() {
			if err := in.StopListening(); err != nil {
				log.Printf("midi: failed to stop listening: %v", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}
