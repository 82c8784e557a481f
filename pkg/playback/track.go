// Package playback schedules recorded or loaded MIDI tracks out to a
// byte-sink player function in real time.
package playback

import (
	"sort"

	"github.com/rucub100/midirc/pkg/midimsg"
	"github.com/rucub100/midirc/pkg/recorder"
	"github.com/rucub100/midirc/pkg/smf"
)

// fixedTempo is the tempo assumed when converting loaded file tracks
// into scheduler form; it does not track embedded SetTempo events.
const fixedTempo uint32 = 500_000

// scheduledEvent is one (delta, wire bytes) pair ready for the
// scheduler loop.
type scheduledEvent struct {
	deltaMicros uint64
	bytes       []byte
}

// TrackInfoKind distinguishes a playback source.
type TrackInfoKind int

const (
	// TrackFromRecording identifies a source as recorder.Take at Index.
	TrackFromRecording TrackInfoKind = iota
	// TrackFromFile identifies a source as a loaded file track at Index.
	TrackFromFile
)

// TrackInfo tags a playback run with where its data came from.
type TrackInfo struct {
	Kind  TrackInfoKind
	Index int
}

// buildFromRecording sorts a recording's messages by timestamp, shifts
// so the first message starts at time zero, and converts absolute
// timestamps to deltas.
func buildFromRecording(rec recorder.Take) ([]scheduledEvent, error) {
	if len(rec.Messages) == 0 {
		return nil, errEmptyData
	}

	sorted := append([]midimsg.Timestamped{}, rec.Messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMicros < sorted[j].TimestampMicros
	})

	start := sorted[0].TimestampMicros
	events := make([]scheduledEvent, 0, len(sorted))
	prev := start
	for i, m := range sorted {
		var delta uint64
		if i == 0 {
			delta = m.TimestampMicros - start
		} else {
			delta = m.TimestampMicros - prev
		}
		prev = m.TimestampMicros

		wire, err := midimsg.Encode(m.Message)
		if err != nil {
			return nil, err
		}
		events = append(events, scheduledEvent{deltaMicros: delta, bytes: wire})
	}
	return events, nil
}

// buildFromFileTrack converts one smf.Track into scheduler form at a
// fixed tempo, skipping non-MIDI events. A skipped event's delta is
// carried forward and folded into the next retained event's delta, so
// dropping it never shifts later events earlier than the source file
// specifies.
func buildFromFileTrack(track smf.Track, division smf.Division) []scheduledEvent {
	events := make([]scheduledEvent, 0, len(track))
	var carryTicks uint32
	for _, te := range track {
		midiEvent, ok := te.Event.(smf.MidiEvent)
		if !ok {
			carryTicks += te.Delta
			continue
		}
		wire, err := midimsg.Encode(midiEvent.Message)
		if err != nil {
			carryTicks += te.Delta
			continue
		}
		deltaTicks := carryTicks + te.Delta
		carryTicks = 0
		deltaMicros := smf.DeltaMicroseconds(deltaTicks, fixedTempo, division)
		events = append(events, scheduledEvent{deltaMicros: deltaMicros, bytes: wire})
	}
	return events
}
