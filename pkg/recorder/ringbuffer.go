package recorder

import (
	"github.com/rucub100/midirc/pkg/logger"
	"github.com/rucub100/midirc/pkg/midimsg"
)

// DefaultRingBufferCapacity is the live-input buffer size a Recorder
// uses, and the capacity NewRingBuffer substitutes for a non-positive one.
const DefaultRingBufferCapacity = 1_000_000

// RingBuffer is a fixed-capacity FIFO of timestamped messages. When
// full, Push drops the oldest entry and logs a warning rather than
// blocking or growing.
type RingBuffer struct {
	capacity int
	entries  []midimsg.Timestamped
	head     int
	size     int
}

// NewRingBuffer creates a ring buffer with the given capacity. A
// non-positive capacity is replaced with DefaultRingBufferCapacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultRingBufferCapacity
	}
	return &RingBuffer{
		capacity: capacity,
		entries:  make([]midimsg.Timestamped, capacity),
	}
}

// Push appends a message, dropping the oldest entry on overflow.
func (r *RingBuffer) Push(m midimsg.Timestamped) {
	if r.size < r.capacity {
		idx := (r.head + r.size) % r.capacity
		r.entries[idx] = m
		r.size++
		return
	}

	logger.GetLogger().Warn("live input buffer overflow, dropping oldest event",
		"capacity", r.capacity)
	r.entries[r.head] = m
	r.head = (r.head + 1) % r.capacity
}

// Drain removes and returns every buffered message, oldest first.
func (r *RingBuffer) Drain() []midimsg.Timestamped {
	out := make([]midimsg.Timestamped, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.head+i)%r.capacity]
	}
	r.head = 0
	r.size = 0
	return out
}

// Len reports the number of buffered messages.
func (r *RingBuffer) Len() int {
	return r.size
}
