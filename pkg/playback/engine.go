package playback

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rucub100/midirc/pkg/logger"
	"github.com/rucub100/midirc/pkg/midimsg"
	"github.com/rucub100/midirc/pkg/recorder"
	"github.com/rucub100/midirc/pkg/smf"
)

var errEmptyData = errors.New("playback: cannot load empty data")

// State is the playback engine's current mode.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// PlayerFunc sends one wire-format MIDI message out. The scheduler
// owns a clone of this closure rather than a device port directly, so
// playback can survive a device rescan as long as the closure stays valid.
type PlayerFunc func(data []byte) error

// SilenceScope controls how many channels receive AllNotesOff and
// AllSoundOff when a playback run is stopped mid-flight.
type SilenceScope int

const (
	// ScopeAllChannels silences all 16 channels; the engine default.
	ScopeAllChannels SilenceScope = iota
	// ScopeChannelOne silences only channel 1, matching the minimal
	// behavior described in the upstream design notes.
	ScopeChannelOne
)

const pollInterval = 50 * time.Millisecond

// Engine schedules MIDI tracks out to a player in real time, supporting
// pause/resume and a graceful, silence-emitting stop.
type Engine struct {
	mu     sync.Mutex
	state  State
	info   TrackInfo
	player PlayerFunc

	fileTracks    [][]scheduledEvent
	fileDurations []uint32

	silenceScope SilenceScope

	signalStop  *atomic.Bool
	signalPause *atomic.Bool
	done        chan struct{}

	position atomic.Uint32
	duration atomic.Uint32
}

// New returns a playback engine in the Stopped state with no player set.
func New() *Engine {
	return &Engine{silenceScope: ScopeAllChannels}
}

// SetSilenceScope configures how many channels Stop() silences.
func (e *Engine) SetSilenceScope(scope SilenceScope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.silenceScope = scope
}

// SetPlayer installs the byte-sink closure. It fails unless the engine
// is Stopped.
func (e *Engine) SetPlayer(player PlayerFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Stopped {
		return errors.New("playback: cannot set player while playback is in progress")
	}
	e.player = player
	return nil
}

// LoadTrack appends one scheduler-form track per source track in f,
// converting MIDI events at a fixed tempo; non-MIDI events are skipped.
func (e *Engine) LoadTrack(f smf.File) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, track := range f.Tracks {
		events := buildFromFileTrack(track, f.Header.Division)
		e.fileTracks = append(e.fileTracks, events)
		e.fileDurations = append(e.fileDurations, durationOf(events))
	}
	return nil
}

func durationOf(events []scheduledEvent) uint32 {
	var total uint64
	for _, ev := range events {
		total += ev.deltaMicros
	}
	return uint32(total / 1000)
}

// EjectTrack removes a previously loaded file track, shifting
// subsequent indexes down.
func (e *Engine) EjectTrack(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.fileTracks) {
		return errors.New("playback: track index out of range")
	}
	e.fileTracks = append(e.fileTracks[:index], e.fileTracks[index+1:]...)
	e.fileDurations = append(e.fileDurations[:index], e.fileDurations[index+1:]...)
	return nil
}

// LoadedTrackDurations returns the duration in milliseconds of each
// currently loaded file track, in index order.
func (e *Engine) LoadedTrackDurations() []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]uint32, len(e.fileDurations))
	copy(out, e.fileDurations)
	return out
}

// Play stops any in-progress playback, converts rec into scheduler
// form, and spawns the scheduler loop.
func (e *Engine) Play(rec recorder.Take, info TrackInfo) error {
	events, err := buildFromRecording(rec)
	if err != nil {
		return err
	}
	return e.startPlayback(events, info)
}

// PlayTrack plays the i-th loaded file track.
func (e *Engine) PlayTrack(index int) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.fileTracks) {
		e.mu.Unlock()
		return errors.New("playback: track index out of range")
	}
	events := e.fileTracks[index]
	e.mu.Unlock()

	if len(events) == 0 {
		return errEmptyData
	}
	return e.startPlayback(events, TrackInfo{Kind: TrackFromFile, Index: index})
}

func (e *Engine) startPlayback(events []scheduledEvent, info TrackInfo) error {
	if err := e.Stop(); err != nil {
		return err
	}

	e.mu.Lock()

	if e.player == nil {
		e.mu.Unlock()
		return errors.New("playback: no player set")
	}

	signalStop := &atomic.Bool{}
	signalPause := &atomic.Bool{}
	done := make(chan struct{})

	e.state = Playing
	e.info = info
	e.position.Store(0)
	e.duration.Store(durationOf(events))
	e.signalStop = signalStop
	e.signalPause = signalPause
	e.done = done

	player := e.player
	scope := e.silenceScope
	e.mu.Unlock()

	go e.runScheduler(events, player, signalStop, signalPause, done, scope)
	return nil
}

// runScheduler is the per-play scheduler loop: it walks events in
// order, sleeping in bounded chunks so pause and stop signals are
// honored promptly, and resets engine state to Stopped on exit.
func (e *Engine) runScheduler(events []scheduledEvent, player PlayerFunc, signalStop, signalPause *atomic.Bool, done chan struct{}, scope SilenceScope) {
	defer close(done)

	start := time.Now()
	var target time.Duration
	stopped := false

	for _, ev := range events {
		target += time.Duration(ev.deltaMicros) * time.Microsecond
		e.position.Store(uint32(time.Since(start).Milliseconds()))

		for {
			if signalPause.Load() {
				pausedElapsed := time.Since(start)
				for signalPause.Load() {
					if signalStop.Load() {
						stopped = true
						break
					}
					time.Sleep(pollInterval)
				}
				if stopped {
					break
				}
				start = time.Now().Add(-pausedElapsed)
				continue
			}

			if signalStop.Load() {
				stopped = true
				break
			}

			elapsed := time.Since(start)
			if elapsed >= target {
				break
			}
			sleepFor := target - elapsed
			if sleepFor > pollInterval {
				sleepFor = pollInterval
			}
			time.Sleep(sleepFor)
		}

		if stopped {
			e.emitSilence(player, scope)
			break
		}

		if err := player(ev.bytes); err != nil {
			logger.GetLogger().Error("playback player error", "error", err)
			break
		}

		e.position.Store(uint32(time.Since(start).Milliseconds()))
	}

	e.mu.Lock()
	e.state = Stopped
	e.signalStop = nil
	e.signalPause = nil
	e.done = nil
	e.mu.Unlock()
	e.position.Store(0)
}

func (e *Engine) emitSilence(player PlayerFunc, scope SilenceScope) {
	channels := []midimsg.Channel{midimsg.Channel1}
	if scope == ScopeAllChannels {
		channels = allChannels()
	}
	for _, ch := range channels {
		if wire, err := midimsg.Encode(midimsg.NewAllNotesOff(ch)); err == nil {
			_ = player(wire)
		}
		if wire, err := midimsg.Encode(midimsg.NewAllSoundOff(ch)); err == nil {
			_ = player(wire)
		}
	}
}

func allChannels() []midimsg.Channel {
	channels := make([]midimsg.Channel, 16)
	for i := range channels {
		channels[i] = midimsg.Channel(i + 1)
	}
	return channels
}

// Pause flips the pause signal. It fails unless the engine is Playing.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Playing {
		return errors.New("playback: playback is not active, cannot pause")
	}
	e.state = Paused
	if e.signalPause != nil {
		e.signalPause.Store(true)
	}
	return nil
}

// Resume flips the pause signal off. It fails unless the engine is Paused.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Paused {
		return errors.New("playback: playback is not paused, cannot resume")
	}
	e.state = Playing
	if e.signalPause != nil {
		e.signalPause.Store(false)
	}
	return nil
}

// Stop asserts the stop signal and joins the scheduler goroutine if
// one is running. It is always safe to call, including when already Stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	signalStop := e.signalStop
	done := e.done
	e.mu.Unlock()

	if signalStop == nil || done == nil {
		return nil
	}
	signalStop.Store(true)
	<-done
	return nil
}

// State reports the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Info reports the TrackInfo of the most recent play call.
func (e *Engine) Info() TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// Position reports elapsed playback time in milliseconds.
func (e *Engine) Position() uint32 {
	return e.position.Load()
}

// Duration reports the total scheduled duration of the current or most
// recent run in milliseconds.
func (e *Engine) Duration() uint32 {
	return e.duration.Load()
}
