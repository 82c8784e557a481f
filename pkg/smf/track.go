package smf

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/rucub100/midirc/pkg/midimsg"
)

func decodeTrack(data []byte) (Track, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("smf: data too short to contain a valid MTrk chunk")
	}
	if [4]byte(data[0:4]) != trackChunkType {
		return nil, 0, fmt.Errorf("smf: invalid track chunk type, expected MTrk")
	}

	length := binary.BigEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		return nil, 0, fmt.Errorf("smf: MTrk chunk declares %d bytes but only %d are available", length, len(data)-8)
	}

	body := data[8 : 8+length]
	var track Track
	var runningStatus *byte
	pos := 0

	for pos < len(body) {
		delta, n, err := DecodeVLQ(body[pos:])
		if err != nil {
			return nil, 0, fmt.Errorf("smf: track event delta: %w", err)
		}
		pos += n

		if pos >= len(body) {
			return nil, 0, fmt.Errorf("smf: truncated track: missing event after delta time")
		}

		event, consumed, newStatus, err := decodeTrackEvent(body[pos:], runningStatus)
		if err != nil {
			return nil, 0, err
		}
		pos += consumed

		if newStatus != 0 {
			runningStatus = &newStatus
		}
		switch event.(type) {
		case MetaEvent, SysExEvent:
			runningStatus = nil
		}

		track = append(track, TrackEvent{Delta: delta, Event: event})

		if _, ok := event.(EndOfTrack); ok {
			break
		}
	}

	return track, 8 + int(length), nil
}

// decodeTrackEvent decodes one event starting at data[0], returning the
// event, the number of bytes consumed, and the running status byte to
// carry forward (0 if the event doesn't establish one).
func decodeTrackEvent(data []byte, runningStatus *byte) (Event, int, byte, error) {
	if len(data) == 0 {
		return nil, 0, 0, fmt.Errorf("smf: empty event data")
	}

	first := data[0]

	switch {
	case first < 0x80:
		if runningStatus == nil {
			return nil, 0, 0, fmt.Errorf("smf: running status not set, cannot determine event length")
		}
		need := statusDataLen(*runningStatus)
		if len(data) < need {
			return nil, 0, 0, fmt.Errorf("smf: running status channel message data is too short")
		}
		msg, err := midimsg.Decode(append([]byte{*runningStatus}, data[:need]...))
		if err != nil {
			return nil, 0, 0, err
		}
		cm, ok := msg.(midimsg.ChannelMessage)
		if !ok {
			return nil, 0, 0, fmt.Errorf("smf: running status did not decode to a channel message")
		}
		return MidiEvent{Message: cm}, need, 0, nil

	case first >= 0x80 && first <= 0xEF:
		need := statusDataLen(first)
		if len(data) < 1+need {
			return nil, 0, 0, fmt.Errorf("smf: channel message data is too short")
		}
		msg, err := midimsg.Decode(data[:1+need])
		if err != nil {
			return nil, 0, 0, err
		}
		cm := msg.(midimsg.ChannelMessage)
		return MidiEvent{Message: cm}, 1 + need, first, nil

	case first == 0xFF:
		return decodeMetaEvent(data)

	case first == 0xF0 || first == 0xF7:
		if len(data) < 2 {
			return nil, 0, 0, fmt.Errorf("smf: SysEx event data is too short")
		}
		varLen, n, err := DecodeVLQ(data[1:])
		if err != nil {
			return nil, 0, 0, fmt.Errorf("smf: SysEx length: %w", err)
		}
		total := 1 + n + int(varLen)
		if len(data) < total {
			return nil, 0, 0, fmt.Errorf("smf: SysEx event data length exceeds available data")
		}
		payload := append([]byte{}, data[1+n:total]...)
		return SysExEvent{Data: payload}, total, 0, nil

	default:
		return nil, 0, 0, fmt.Errorf("smf: invalid event status byte 0x%02X", first)
	}
}

// statusDataLen returns the number of data bytes a channel status byte takes.
func statusDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

func decodeMetaEvent(data []byte) (Event, int, byte, error) {
	if len(data) < 2 {
		return nil, 0, 0, fmt.Errorf("smf: meta event data is too short")
	}
	metaType := data[1]

	readText := func() (string, int, error) {
		varLen, n, err := DecodeVLQ(data[2:])
		if err != nil {
			return "", 0, fmt.Errorf("smf: meta event length: %w", err)
		}
		total := 2 + n + int(varLen)
		if len(data) < total {
			return "", 0, fmt.Errorf("smf: meta event data length exceeds available data")
		}
		text := data[2+n : total]
		if !utf8.Valid(text) {
			return "", 0, fmt.Errorf("smf: invalid UTF-8 in text meta event")
		}
		return string(text), total, nil
	}

	switch metaType {
	case 0x00:
		if len(data) < 5 || data[2] != 0x02 {
			return nil, 0, 0, fmt.Errorf("smf: invalid sequence number meta event")
		}
		return SequenceNumber{Number: binary.BigEndian.Uint16(data[3:5])}, 5, 0, nil
	case 0x01:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return Text{Value: s}, total, 0, nil
	case 0x02:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return Copyright{Value: s}, total, 0, nil
	case 0x03:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return SequenceName{Value: s}, total, 0, nil
	case 0x04:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return InstrumentName{Value: s}, total, 0, nil
	case 0x05:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return Lyric{Value: s}, total, 0, nil
	case 0x06:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return Marker{Value: s}, total, 0, nil
	case 0x07:
		s, total, err := readText()
		if err != nil {
			return nil, 0, 0, err
		}
		return CuePoint{Value: s}, total, 0, nil
	case 0x20:
		if len(data) < 4 || data[2] != 0x01 {
			return nil, 0, 0, fmt.Errorf("smf: invalid MIDI Channel Prefix meta event")
		}
		if data[3] > 15 {
			return nil, 0, 0, fmt.Errorf("smf: invalid MIDI Channel Prefix value: %d", data[3])
		}
		return MidiChannelPrefix{Channel: data[3]}, 4, 0, nil
	case 0x2F:
		if len(data) < 3 || data[2] != 0x00 {
			return nil, 0, 0, fmt.Errorf("smf: invalid End of Track meta event")
		}
		return EndOfTrack{}, 3, 0, nil
	case 0x51:
		if len(data) < 6 || data[2] != 0x03 {
			return nil, 0, 0, fmt.Errorf("smf: invalid Set Tempo meta event")
		}
		tempo := uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
		return SetTempo{MicrosPerQuarterNote: tempo}, 6, 0, nil
	case 0x54:
		if len(data) < 8 || data[2] != 0x05 {
			return nil, 0, 0, fmt.Errorf("smf: invalid SMPTE Offset meta event")
		}
		return SmpteOffset{
			Hour: data[3], Minute: data[4], Second: data[5],
			Frame: data[6], FractionalFrame: data[7],
		}, 8, 0, nil
	case 0x58:
		if len(data) < 7 || data[2] != 0x04 {
			return nil, 0, 0, fmt.Errorf("smf: invalid Time Signature meta event")
		}
		return TimeSignature{
			Numerator: data[3], DenominatorPowerOfTwo: data[4],
			ClocksPerClick: data[5], ThirtySecondsPerQuarter: data[6],
		}, 7, 0, nil
	case 0x59:
		if len(data) < 5 || data[2] != 0x02 {
			return nil, 0, 0, fmt.Errorf("smf: invalid Key Signature meta event")
		}
		key := int8(data[3])
		if key < -7 || key > 7 {
			return nil, 0, 0, fmt.Errorf("smf: key signature must be between -7 and 7, got %d", key)
		}
		var scale MusicalScale
		switch data[4] {
		case 0:
			scale = Major
		case 1:
			scale = Minor
		default:
			return nil, 0, 0, fmt.Errorf("smf: invalid key signature scale: %d", data[4])
		}
		return KeySignature{Key: key, Scale: scale}, 5, 0, nil
	case 0x7F:
		varLen, n, err := DecodeVLQ(data[2:])
		if err != nil {
			return nil, 0, 0, fmt.Errorf("smf: sequencer specific length: %w", err)
		}
		total := 2 + n + int(varLen)
		if len(data) < total {
			return nil, 0, 0, fmt.Errorf("smf: sequencer specific data length exceeds available data")
		}
		return SequencerSpecific{Data: append([]byte{}, data[2+n:total]...)}, total, 0, nil
	default:
		return nil, 0, 0, fmt.Errorf("smf: unsupported meta event type 0x%02X", metaType)
	}
}

// encodeTrack serializes a Track to an MTrk chunk, applying running
// status compression opportunistically between consecutive channel
// events that share a status byte.
func encodeTrack(t Track) ([]byte, error) {
	var body []byte
	var runningStatus *byte

	for i, te := range t {
		deltaBytes, err := EncodeVLQ(te.Delta)
		if err != nil {
			return nil, fmt.Errorf("smf: track event %d delta: %w", i, err)
		}
		body = append(body, deltaBytes...)

		switch ev := te.Event.(type) {
		case MidiEvent:
			wire, err := midimsg.Encode(ev.Message)
			if err != nil {
				return nil, fmt.Errorf("smf: track event %d: %w", i, err)
			}
			status := wire[0]
			if runningStatus != nil && *runningStatus == status {
				body = append(body, wire[1:]...)
			} else {
				body = append(body, wire...)
			}
			runningStatus = &status
		case SysExEvent:
			runningStatus = nil
			lenBytes, err := EncodeVLQ(uint32(len(ev.Data)))
			if err != nil {
				return nil, fmt.Errorf("smf: track event %d SysEx length: %w", i, err)
			}
			body = append(body, 0xF0)
			body = append(body, lenBytes...)
			body = append(body, ev.Data...)
		default:
			runningStatus = nil
			metaBytes, err := encodeMetaEvent(te.Event)
			if err != nil {
				return nil, fmt.Errorf("smf: track event %d: %w", i, err)
			}
			body = append(body, metaBytes...)
		}

		if _, ok := te.Event.(EndOfTrack); ok && i != len(t)-1 {
			return nil, fmt.Errorf("smf: events found after EndOfTrack")
		}
	}

	if len(t) == 0 || !isEndOfTrack(t[len(t)-1].Event) {
		eotDelta, _ := EncodeVLQ(0)
		body = append(body, eotDelta...)
		body = append(body, 0xFF, 0x2F, 0x00)
	}

	out := append([]byte{}, trackChunkType[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	return out, nil
}

func isEndOfTrack(e Event) bool {
	_, ok := e.(EndOfTrack)
	return ok
}

func encodeMetaEvent(e Event) ([]byte, error) {
	writeText := func(metaType byte, s string) []byte {
		lenBytes, _ := EncodeVLQ(uint32(len(s)))
		out := []byte{0xFF, metaType}
		out = append(out, lenBytes...)
		out = append(out, []byte(s)...)
		return out
	}

	switch ev := e.(type) {
	case SequenceNumber:
		out := []byte{0xFF, 0x00, 0x02}
		return binary.BigEndian.AppendUint16(out, ev.Number), nil
	case Text:
		return writeText(0x01, ev.Value), nil
	case Copyright:
		return writeText(0x02, ev.Value), nil
	case SequenceName:
		return writeText(0x03, ev.Value), nil
	case TrackName:
		return writeText(0x03, ev.Value), nil
	case InstrumentName:
		return writeText(0x04, ev.Value), nil
	case Lyric:
		return writeText(0x05, ev.Value), nil
	case Marker:
		return writeText(0x06, ev.Value), nil
	case CuePoint:
		return writeText(0x07, ev.Value), nil
	case MidiChannelPrefix:
		return []byte{0xFF, 0x20, 0x01, ev.Channel}, nil
	case EndOfTrack:
		return []byte{0xFF, 0x2F, 0x00}, nil
	case SetTempo:
		t := ev.MicrosPerQuarterNote
		return []byte{0xFF, 0x51, 0x03, byte(t >> 16), byte(t >> 8), byte(t)}, nil
	case SmpteOffset:
		return []byte{0xFF, 0x54, 0x05, ev.Hour, ev.Minute, ev.Second, ev.Frame, ev.FractionalFrame}, nil
	case TimeSignature:
		return []byte{0xFF, 0x58, 0x04, ev.Numerator, ev.DenominatorPowerOfTwo, ev.ClocksPerClick, ev.ThirtySecondsPerQuarter}, nil
	case KeySignature:
		return []byte{0xFF, 0x59, 0x02, byte(ev.Key), byte(ev.Scale)}, nil
	case SequencerSpecific:
		lenBytes, _ := EncodeVLQ(uint32(len(ev.Data)))
		out := []byte{0xFF, 0x7F}
		out = append(out, lenBytes...)
		out = append(out, ev.Data...)
		return out, nil
	default:
		return nil, fmt.Errorf("smf: unknown meta event %T", e)
	}
}
