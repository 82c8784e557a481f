// Package engine is the command facade: one coarse lock in front of
// the device manager, recorder, and playback engine, exposing
// UI-facing snapshots instead of internal state.
package engine

import (
	"fmt"
	"os"
	"sync"

	"github.com/rucub100/midirc/pkg/device"
	"github.com/rucub100/midirc/pkg/midimsg"
	"github.com/rucub100/midirc/pkg/playback"
	"github.com/rucub100/midirc/pkg/recorder"
	"github.com/rucub100/midirc/pkg/smf"
)

// Engine wires the device manager's output to the playback engine and
// serializes every command behind one mutex. Commands never block the
// playback scheduler: the scheduler only touches its own goroutine
// state and the device manager's output mutex, never this one.
type Engine struct {
	mu sync.Mutex

	devices  *device.Manager
	recorder *recorder.Recorder
	playback *playback.Engine

	loadedPaths []string
}

// New returns an Engine backed by the given device backend, with its
// playback engine's player already wired to the device manager's
// shared output sink.
func New(backend device.Backend) *Engine {
	e := &Engine{
		devices:  device.New(backend),
		recorder: recorder.New(),
		playback: playback.New(),
	}
	_ = e.playback.SetPlayer(e.devices.OutputSink())
	e.devices.SetRecordingSink(func(m midimsg.Timestamped) {
		_ = e.recorder.Append(m)
	})
	return e
}

// GetMidi returns the current device snapshot.
func (e *Engine) GetMidi() MidiSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.midiSnapshot()
}

func (e *Engine) midiSnapshot() MidiSnapshot {
	return MidiSnapshot{
		AvailableInputPorts:  e.devices.AvailableInputs(),
		AvailableOutputPorts: e.devices.AvailableOutputs(),
		InputConnection:      e.devices.InputConnection(),
		OutputConnection:     e.devices.OutputConnection(),
	}
}

// ScanMidiInput refreshes the available input port list.
func (e *Engine) ScanMidiInput() (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.ScanInputs(); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// ScanMidiOutput refreshes the available output port list.
func (e *Engine) ScanMidiOutput() (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.ScanOutputs(); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// ConnectMidiInput opens the named input port.
func (e *Engine) ConnectMidiInput(id string) (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.ConnectInput(id); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// ConnectMidiOutput opens the named output port.
func (e *Engine) ConnectMidiOutput(id string) (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.ConnectOutput(id); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// DisconnectMidiInput closes the active input connection.
func (e *Engine) DisconnectMidiInput() (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.DisconnectInput(); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// DisconnectMidiOutput closes the active output connection.
func (e *Engine) DisconnectMidiOutput() (MidiSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.devices.DisconnectOutput(); err != nil {
		return MidiSnapshot{}, err
	}
	return e.midiSnapshot(), nil
}

// RegisterMidiChannel installs the push channel used to forward
// incoming messages to the frontend.
func (e *Engine) RegisterMidiChannel(ch chan<- midimsg.Timestamped) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.devices.SetFrontendChannel(ch)
}

// SendMidiMessage writes msg to the active output connection.
func (e *Engine) SendMidiMessage(msg midimsg.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.devices.SendMessage(msg)
}

// GetMidiRecorder returns the current recorder snapshot.
func (e *Engine) GetMidiRecorder() RecorderSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recorderSnapshot()
}

func (e *Engine) recorderSnapshot() RecorderSnapshot {
	recordings := e.recorder.Recordings()
	summaries := make([]RecordingSummary, len(recordings))
	for i, r := range recordings {
		summaries[i] = RecordingSummary{Index: i, DurationMilliseconds: recordingDurationMs(r)}
	}

	state := "stopped"
	if e.recorder.State() == recorder.Recording {
		state = "recording"
	}

	return RecorderSnapshot{State: state, Recordings: summaries}
}

func recordingDurationMs(r recorder.Take) uint64 {
	if len(r.Messages) == 0 {
		return 0
	}
	min, max := r.Messages[0].TimestampMicros, r.Messages[0].TimestampMicros
	for _, m := range r.Messages[1:] {
		if m.TimestampMicros < min {
			min = m.TimestampMicros
		}
		if m.TimestampMicros > max {
			max = m.TimestampMicros
		}
	}
	return (max - min) / 1000
}

// StartMidiRecording starts a new take.
func (e *Engine) StartMidiRecording() (RecorderSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recorder.StartRecording(); err != nil {
		return RecorderSnapshot{}, err
	}
	return e.recorderSnapshot(), nil
}

// StopMidiRecording stops the current take.
func (e *Engine) StopMidiRecording() (RecorderSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recorder.StopRecording(); err != nil {
		return RecorderSnapshot{}, err
	}
	return e.recorderSnapshot(), nil
}

// SaveMidiRecording serializes recording index as a Standard MIDI
// File to path.
func (e *Engine) SaveMidiRecording(index int, path string) error {
	e.mu.Lock()
	recordings := e.recorder.Recordings()
	e.mu.Unlock()

	if index < 0 || index >= len(recordings) {
		return fmt.Errorf("engine: recording index %d not found", index)
	}

	header := smf.SingleMultiChannelTrackHeader()
	track := smf.BuildTrackFromRecording(recordings[index].Messages, header.Division)
	file := smf.File{Header: header, Tracks: []smf.Track{track}}

	data, err := smf.Encode(file)
	if err != nil {
		return fmt.Errorf("engine: failed to encode MIDI file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: failed to write MIDI file: %w", err)
	}
	return nil
}

// DeleteMidiRecording removes recording index.
func (e *Engine) DeleteMidiRecording(index int) (RecorderSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recorder.RemoveRecording(index); err != nil {
		return RecorderSnapshot{}, err
	}
	return e.recorderSnapshot(), nil
}

// GetMidiPlayback returns the current playback snapshot.
func (e *Engine) GetMidiPlayback() PlaybackSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot()
}

func (e *Engine) playbackSnapshot() PlaybackSnapshot {
	durations := e.playback.LoadedTrackDurations()
	tracks := make([]TrackSummary, len(durations))
	for i, d := range durations {
		tracks[i] = TrackSummary{Index: i, DurationMilliseconds: d}
	}

	state := "stopped"
	switch e.playback.State() {
	case playback.Playing:
		state = "playing"
	case playback.Paused:
		state = "paused"
	}

	snapshot := PlaybackSnapshot{
		State:                state,
		Tracks:               tracks,
		PositionMilliseconds: e.playback.Position(),
	}

	if state != "stopped" {
		duration := e.playback.Duration()
		snapshot.DurationMilliseconds = &duration
		snapshot.Identifier = e.playbackIdentifier()
	}

	return snapshot
}

func (e *Engine) playbackIdentifier() *PlaybackIdentifier {
	info := e.playback.Info()
	switch info.Kind {
	case playback.TrackFromRecording:
		index := info.Index
		return &PlaybackIdentifier{Kind: IdentifierRecording, Index: &index}
	case playback.TrackFromFile:
		if info.Index < 0 || info.Index >= len(e.loadedPaths) {
			return nil
		}
		path := e.loadedPaths[info.Index]
		return &PlaybackIdentifier{Kind: IdentifierMidiFile, Path: &path}
	default:
		return nil
	}
}

// PlayMidiRecording plays back recording index.
func (e *Engine) PlayMidiRecording(index int) (PlaybackSnapshot, error) {
	e.mu.Lock()
	recordings := e.recorder.Recordings()
	e.mu.Unlock()

	if index < 0 || index >= len(recordings) {
		return PlaybackSnapshot{}, fmt.Errorf("engine: recording index %d not found", index)
	}

	if err := e.playback.Play(recordings[index], playback.TrackInfo{Kind: playback.TrackFromRecording, Index: index}); err != nil {
		return PlaybackSnapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot(), nil
}

// PauseMidiPlayback pauses the active playback run.
func (e *Engine) PauseMidiPlayback() (PlaybackSnapshot, error) {
	if err := e.playback.Pause(); err != nil {
		return PlaybackSnapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot(), nil
}

// ResumeMidiPlayback resumes a paused playback run.
func (e *Engine) ResumeMidiPlayback() (PlaybackSnapshot, error) {
	if err := e.playback.Resume(); err != nil {
		return PlaybackSnapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot(), nil
}

// StopMidiPlayback stops the active playback run, joining the
// scheduler before returning.
func (e *Engine) StopMidiPlayback() (PlaybackSnapshot, error) {
	if err := e.playback.Stop(); err != nil {
		return PlaybackSnapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot(), nil
}

// LoadMidiTrack reads and parses a Standard MIDI File at path and
// appends its tracks to the playback engine's loaded set.
func (e *Engine) LoadMidiTrack(path string) (PlaybackSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlaybackSnapshot{}, fmt.Errorf("engine: failed to read MIDI file: %w", err)
	}
	file, err := smf.Decode(data)
	if err != nil {
		return PlaybackSnapshot{}, fmt.Errorf("engine: failed to parse MIDI file: %w", err)
	}
	if err := e.playback.LoadTrack(file); err != nil {
		return PlaybackSnapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for range file.Tracks {
		e.loadedPaths = append(e.loadedPaths, path)
	}
	return e.playbackSnapshot(), nil
}

// PlayMidiTrack plays the i-th loaded file track.
func (e *Engine) PlayMidiTrack(index int) (PlaybackSnapshot, error) {
	if err := e.playback.PlayTrack(index); err != nil {
		return PlaybackSnapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbackSnapshot(), nil
}

// EjectMidiTrack removes a previously loaded file track.
func (e *Engine) EjectMidiTrack(index int) (PlaybackSnapshot, error) {
	if err := e.playback.EjectTrack(index); err != nil {
		return PlaybackSnapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if index >= 0 && index < len(e.loadedPaths) {
		e.loadedPaths = append(e.loadedPaths[:index], e.loadedPaths[index+1:]...)
	}
	return e.playbackSnapshot(), nil
}
