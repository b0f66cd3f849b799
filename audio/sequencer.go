package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

const PropClips = "clips"

// Clip is a looping note pattern for one part.
type Clip struct {
	Length int
	Part   int
	notes  []note
}

func NewClip(length float64, part int) *Clip {
	return &Clip{
		Length: int(length * PPQN),
		Part:   part,
	}
}

// AddNote ignores notes with an invalid pitch or without a length.
func (c *Clip) AddNote(position float64, pitch, velocity int, length float64) {
	if pitch < 0 || pitch > 127 || !(length > 0) {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

func (c *Clip) NumNotes() int { return len(c.notes) }

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

type scheduledNote struct {
	at       uint64 // absolute sample position
	part     int
	pitch    int
	velocity int
	on       bool
}

type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	target      Scheduler
	sampleRate  float64
	totalPulses uint64
	now         uint64
	pending     []scheduledNote // note offs still to come
	out         []scheduledNote
}

func NewSequencer(props *Props, sampleRate float64, target Scheduler) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		target:     target,
		sampleRate: sampleRate,
		clips:      props.Shared(PropClips, setClips, clips),
		bpm:        props.Shared(PropBPM, setBPM, 120.0),
		pending:    make([]scheduledNote, 0, 256),
		out:        make([]scheduledNote, 0, 256),
	}
	return seq
}

// Tick schedules the notes falling into the next numSamples samples.
func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	s.out = s.out[:0]
	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			offset := -1
			if nextPos > clip.Length {
				// We've reached the end of the clip so also check start of clip for notes to schedule.
				if note.pos >= pos {
					offset = int(math.Round(float64(note.pos-pos) * samplesPerPulse))
				} else if note.pos < nextPos-clip.Length {
					offset = int(math.Round(float64(clip.Length-pos+note.pos) * samplesPerPulse))
				}
			} else if note.pos >= pos && note.pos < nextPos {
				offset = int(math.Round(float64(note.pos-pos) * samplesPerPulse))
			}
			if offset < 0 {
				continue
			}
			duration := uint64(note.length * s.sampleRate / (bpm / 60.))
			if duration == 0 {
				duration = 1 // the note off has to follow its note on
			}
			at := s.now + uint64(offset)
			s.out = append(s.out, scheduledNote{at: at, part: clip.Part, pitch: note.pitch, velocity: note.velocity, on: true})
			s.pending = append(s.pending, scheduledNote{at: at + duration, part: clip.Part, pitch: note.pitch})
		}
	}

	end := s.now + uint64(numSamples)
	n := 0
	for _, off := range s.pending {
		if off.at < end {
			s.out = append(s.out, off)
			continue
		}
		s.pending[n] = off
		n++
	}
	s.pending = s.pending[:n]

	sortScheduled(s.out)
	for _, ev := range s.out {
		offset := int(ev.at - s.now)
		if ev.on {
			s.target.NoteOnAt(offset, ev.part, ev.pitch, ev.velocity)
		} else {
			s.target.NoteOffAt(offset, ev.part, ev.pitch)
		}
	}
	s.totalPulses += uint64(numPulses)
	s.now = end
}

// sortScheduled orders notes by position, note offs first. It does not
// allocate.
func sortScheduled(notes []scheduledNote) {
	for i := 1; i < len(notes); i++ {
		for j := i; j > 0 && scheduledBefore(notes[j], notes[j-1]); j-- {
			notes[j], notes[j-1] = notes[j-1], notes[j]
		}
	}
}

func scheduledBefore(a, b scheduledNote) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return !a.on && b.on
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
