package engine

import "github.com/rucub100/midirc/pkg/device"

// MidiSnapshot is the UI-facing view of the device manager's ports
// and active connections.
type MidiSnapshot struct {
	AvailableInputPorts  []device.PortDescriptor `json:"availableInputPorts"`
	AvailableOutputPorts []device.PortDescriptor `json:"availableOutputPorts"`
	InputConnection      *device.PortDescriptor  `json:"inputConnection,omitempty"`
	OutputConnection     *device.PortDescriptor  `json:"outputConnection,omitempty"`
}

// RecordingSummary describes one stored take.
type RecordingSummary struct {
	Index                int    `json:"index"`
	DurationMilliseconds uint64 `json:"durationMilliseconds"`
}

// RecorderSnapshot is the UI-facing view of the recorder.
type RecorderSnapshot struct {
	State      string             `json:"state"`
	Recordings []RecordingSummary `json:"recordings"`
}

// TrackSummary describes one loaded file track.
type TrackSummary struct {
	Index                int    `json:"index"`
	DurationMilliseconds uint32 `json:"durationMilliseconds"`
}

// IdentifierKind tags what a PlaybackIdentifier refers to.
type IdentifierKind string

const (
	IdentifierRecording IdentifierKind = "recording"
	IdentifierMidiFile  IdentifierKind = "midiFile"
)

// PlaybackIdentifier names the source of the current or most recent
// playback run.
type PlaybackIdentifier struct {
	Kind  IdentifierKind `json:"kind"`
	Index *int           `json:"index,omitempty"`
	Path  *string        `json:"path,omitempty"`
}

// PlaybackSnapshot is the UI-facing view of the playback engine.
type PlaybackSnapshot struct {
	State                string              `json:"state"`
	Identifier           *PlaybackIdentifier `json:"identifier,omitempty"`
	Tracks               []TrackSummary      `json:"tracks"`
	DurationMilliseconds *uint32             `json:"durationMilliseconds,omitempty"`
	PositionMilliseconds uint32              `json:"positionMilliseconds"`
}
