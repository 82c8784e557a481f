package smf

import (
	"sort"

	"github.com/rucub100/midirc/pkg/midimsg"
)

// BuildTrackFromRecording turns a sequence of timestamped messages
// into a Track: sort by timestamp, shift so the first timestamp is 0,
// convert absolute timestamps to deltas, prepend a SetTempo(500000)
// event and append EndOfTrack. division defaults to 96 PPQ when nil.
func BuildTrackFromRecording(messages []midimsg.Timestamped, division Division) Track {
	if division == nil {
		division = DefaultDivision()
	}

	sorted := append([]midimsg.Timestamped{}, messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMicros < sorted[j].TimestampMicros
	})

	var start uint64
	if len(sorted) > 0 {
		start = sorted[0].TimestampMicros
	}

	track := make(Track, 0, len(sorted)+2)
	track = append(track, TrackEvent{Delta: 0, Event: SetTempo{MicrosPerQuarterNote: DefaultTempo}})

	prev := start
	for _, m := range sorted {
		cm, ok := m.Message.(midimsg.ChannelMessage)
		if !ok {
			continue
		}
		deltaMicros := m.TimestampMicros - prev
		prev = m.TimestampMicros
		deltaTicks := Ticks(deltaMicros, DefaultTempo, division)
		track = append(track, TrackEvent{Delta: deltaTicks, Event: MidiEvent{Message: cm}})
	}

	track = append(track, TrackEvent{Delta: 0, Event: EndOfTrack{}})
	return track
}
