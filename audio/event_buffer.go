package audio

import (
	"runtime"
	"sync/atomic"
)

type eventKind int

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventPitchbend
	eventController
	eventEdit
)

type event struct {
	kind     eventKind
	offset   int // sample offset within the block being rendered
	part     int
	note     int // controller number for eventController
	velocity int
	value    float64
	edit     func(*Engine)
}

// eventBuffer is a lock-free spsc queue. Indices grow without bound and wrap
// around the ring with a mask.
type eventBuffer struct {
	events      []event
	mask        uint32
	read, write atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
		mask:   uint32(size - 1),
	}
}

func (b *eventBuffer) full(write uint32) bool {
	return write-b.read.Load() == uint32(len(b.events))
}

// push blocks while the buffer is full.
func (b *eventBuffer) push(ev event) {
	for !b.tryPush(ev) {
		runtime.Gosched()
	}
}

// tryPush is push for the consumer side, which must never wait on itself.
// It reports false when the buffer is full.
func (b *eventBuffer) tryPush(ev event) bool {
	write := b.write.Load()
	if b.full(write) {
		return false
	}
	b.events[write&b.mask] = ev
	b.write.Store(write + 1)
	return true
}

// iter calls f for every queued event with an offset below untilOffset, or
// for all of them when untilOffset is -1. Edit closures are dropped from the
// ring once applied.
func (b *eventBuffer) iter(untilOffset int, f func(event)) {
	read, write := b.read.Load(), b.write.Load()
	for ; read != write; read++ {
		ev := &b.events[read&b.mask]
		if untilOffset != -1 && ev.offset >= untilOffset {
			break
		}
		e := *ev
		ev.edit = nil
		f(e)
	}
	b.read.Store(read)
}

func (b *eventBuffer) len() int {
	return int(b.write.Load() - b.read.Load())
}
