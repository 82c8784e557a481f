// Package recorder captures timestamped MIDI messages into in-memory
// recordings.
package recorder

import (
	"fmt"
	"sync"

	"github.com/rucub100/midirc/pkg/midimsg"
)

// State is the recorder's current mode.
type State int

const (
	Stopped State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Recording:
		return "Recording"
	default:
		return "Unknown"
	}
}

// Take is one completed recording: the messages appended to the live
// buffer between StartRecording and StopRecording, in append order.
type Take struct {
	Messages []midimsg.Timestamped
}

// Recorder appends live messages to an in-progress take and stores
// completed takes by index. It is safe for concurrent use; Append is
// typically called from a driver's input callback goroutine while
// StartRecording/StopRecording are called from a control path. The
// in-progress take is held in a bounded RingBuffer (spec.md's overflow
// guard: on a pathologically long take the oldest message is dropped,
// with a warning, rather than growing without limit.
type Recorder struct {
	mu         sync.Mutex
	state      State
	buffer     *RingBuffer
	recordings []Take
}

// New returns a Recorder in the Stopped state with no recordings.
func New() *Recorder {
	return &Recorder{state: Stopped, buffer: NewRingBuffer(DefaultRingBufferCapacity)}
}

// State reports the recorder's current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StartRecording transitions Stopped -> Recording and clears the live
// buffer. It fails unless the recorder is Stopped.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Stopped {
		return fmt.Errorf("recorder: first stop the recorder before starting a new recording")
	}

	r.state = Recording
	r.buffer.Drain()
	return nil
}

// StopRecording transitions Recording -> Stopped. If the buffer is
// non-empty it is appended to recordings as a new take; an empty
// buffer stores nothing. It fails unless the recorder is Recording.
func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return fmt.Errorf("recorder: recorder is not currently recording")
	}

	r.state = Stopped
	if messages := r.buffer.Drain(); len(messages) > 0 {
		r.recordings = append(r.recordings, Take{Messages: messages})
	}
	return nil
}

// Append adds a message to the in-progress take. It fails unless the
// recorder is Recording; a caller forwarding live input should stop
// calling Append once recording has ended.
func (r *Recorder) Append(m midimsg.Timestamped) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return fmt.Errorf("recorder: not currently recording")
	}
	r.buffer.Push(m)
	return nil
}

// Recordings returns a copy of every stored take, 0-indexed in the
// order they were stopped.
func (r *Recorder) Recordings() []Take {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Take, len(r.recordings))
	copy(out, r.recordings)
	return out
}

// RemoveRecording deletes the recording at index, shifting subsequent
// entries down by one; entries before index keep their indexes.
func (r *Recorder) RemoveRecording(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.recordings) {
		return fmt.Errorf("recorder: recording index %d out of range (have %d)", index, len(r.recordings))
	}
	r.recordings = append(r.recordings[:index], r.recordings[index+1:]...)
	return nil
}
