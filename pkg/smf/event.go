package smf

import "github.com/rucub100/midirc/pkg/midimsg"

// Event is a MIDI channel event, a SysEx event, or a meta event
// carried inside a track.
type Event interface {
	isEvent()
}

// MidiEvent wraps a decoded channel message.
type MidiEvent struct {
	Message midimsg.ChannelMessage
}

func (MidiEvent) isEvent() {}

// SysExEvent is an opaque System Exclusive payload read from a track.
// Spec permits a decoder to discard this content as long as its bytes
// are still consumed; this codec keeps it.
type SysExEvent struct {
	Data []byte
}

func (SysExEvent) isEvent() {}

// MetaEvent is a non-sounding SMF-only event.
type MetaEvent interface {
	Event
	isMetaEvent()
}

type SequenceNumber struct{ Number uint16 }
type Text struct{ Value string }
type Copyright struct{ Value string }

// SequenceName is produced for every wire type 0x03 meta event; see
// ReclassifyTrackNames for demoting later occurrences to TrackName.
type SequenceName struct{ Value string }
type TrackName struct{ Value string }
type InstrumentName struct{ Value string }
type Lyric struct{ Value string }
type Marker struct{ Value string }
type CuePoint struct{ Value string }
type MidiChannelPrefix struct{ Channel uint8 }
type EndOfTrack struct{}

// SetTempo carries microseconds per quarter note.
type SetTempo struct{ MicrosPerQuarterNote uint32 }

type SmpteOffset struct {
	Hour, Minute, Second, Frame, FractionalFrame uint8
}

// MusicalScale is the scale field of a KeySignature event.
type MusicalScale uint8

const (
	Major MusicalScale = 0
	Minor MusicalScale = 1
)

type TimeSignature struct {
	Numerator               uint8
	DenominatorPowerOfTwo   uint8
	ClocksPerClick          uint8
	ThirtySecondsPerQuarter uint8
}

// KeySignature's Key is signed, in [-7, 7].
type KeySignature struct {
	Key   int8
	Scale MusicalScale
}

type SequencerSpecific struct{ Data []byte }

func (SequenceNumber) isEvent()     {}
func (SequenceNumber) isMetaEvent() {}
func (Text) isEvent()               {}
func (Text) isMetaEvent()           {}
func (Copyright) isEvent()          {}
func (Copyright) isMetaEvent()      {}
func (SequenceName) isEvent()       {}
func (SequenceName) isMetaEvent()   {}
func (TrackName) isEvent()          {}
func (TrackName) isMetaEvent()      {}
func (InstrumentName) isEvent()     {}
func (InstrumentName) isMetaEvent() {}
func (Lyric) isEvent()              {}
func (Lyric) isMetaEvent()          {}
func (Marker) isEvent()             {}
func (Marker) isMetaEvent()         {}
func (CuePoint) isEvent()           {}
func (CuePoint) isMetaEvent()       {}
func (MidiChannelPrefix) isEvent()     {}
func (MidiChannelPrefix) isMetaEvent() {}
func (EndOfTrack) isEvent()         {}
func (EndOfTrack) isMetaEvent()     {}
func (SetTempo) isEvent()           {}
func (SetTempo) isMetaEvent()       {}
func (SmpteOffset) isEvent()        {}
func (SmpteOffset) isMetaEvent()    {}
func (TimeSignature) isEvent()      {}
func (TimeSignature) isMetaEvent()  {}
func (KeySignature) isEvent()       {}
func (KeySignature) isMetaEvent()   {}
func (SequencerSpecific) isEvent()     {}
func (SequencerSpecific) isMetaEvent() {}

// TrackEvent is one event in a track, preceded by its delta time in ticks.
type TrackEvent struct {
	Delta uint32
	Event Event
}

// Track is an ordered sequence of track events.
type Track []TrackEvent

// ReclassifyTrackNames demotes every SequenceName meta event after the
// first occurrence in the sequence-name-bearing track (the only track
// in format 0, or the first track in format 1/2) to TrackName. Decode
// always produces SequenceName for wire type 0x03; callers that care
// about the distinction run this pass afterward.
func ReclassifyTrackNames(f *File) {
	if len(f.Tracks) == 0 {
		return
	}

	seenSequenceName := false
	for i := range f.Tracks[0] {
		if sn, ok := f.Tracks[0][i].Event.(SequenceName); ok {
			if seenSequenceName {
				f.Tracks[0][i].Event = TrackName{Value: sn.Value}
			} else {
				seenSequenceName = true
			}
		}
	}

	for t := 1; t < len(f.Tracks); t++ {
		for i := range f.Tracks[t] {
			if sn, ok := f.Tracks[t][i].Event.(SequenceName); ok {
				f.Tracks[t][i].Event = TrackName{Value: sn.Value}
			}
		}
	}
}
