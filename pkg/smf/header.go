package smf

import (
	"encoding/binary"
	"fmt"
)

var headerChunkType = [4]byte{'M', 'T', 'h', 'd'}
var trackChunkType = [4]byte{'M', 'T', 'r', 'k'}

// Format identifies how a file's tracks relate to each other.
type Format uint16

const (
	SingleMultiChannelTrack Format = 0
	MultiTrackSequence      Format = 1
	MultiSequence           Format = 2
)

// Header is the decoded MThd chunk.
type Header struct {
	Format   Format
	NumTracks uint16
	Division Division
}

// SingleMultiChannelTrackHeader returns the header for a one-track,
// format-0 file using the default division, as used when building an
// SMF from a recording.
func SingleMultiChannelTrackHeader() Header {
	return Header{Format: SingleMultiChannelTrack, NumTracks: 1, Division: DefaultDivision()}
}

// File is a complete Standard MIDI File: one header and its tracks.
type File struct {
	Header Header
	Tracks []Track
}

func decodeHeader(data []byte) (Header, int, error) {
	if len(data) < 14 {
		return Header{}, 0, fmt.Errorf("smf: data too short to contain a valid MThd chunk")
	}
	if [4]byte(data[0:4]) != headerChunkType {
		return Header{}, 0, fmt.Errorf("smf: invalid header chunk type, expected MThd")
	}

	length := binary.BigEndian.Uint32(data[4:8])
	if length != 6 {
		return Header{}, 0, fmt.Errorf("smf: invalid MThd length: %d, must be 6", length)
	}

	format := binary.BigEndian.Uint16(data[8:10])
	ntrks := binary.BigEndian.Uint16(data[10:12])
	divisionRaw := binary.BigEndian.Uint16(data[12:14])

	if format > 2 {
		return Header{}, 0, fmt.Errorf("smf: unknown format %d, must be 0, 1, or 2", format)
	}
	if ntrks == 0 {
		return Header{}, 0, fmt.Errorf("smf: ntrks must be nonzero")
	}
	if format == 0 && ntrks != 1 {
		return Header{}, 0, fmt.Errorf("smf: format 0 requires exactly one track, got %d", ntrks)
	}

	division, err := DecodeDivision(divisionRaw)
	if err != nil {
		return Header{}, 0, err
	}

	return Header{Format: Format(format), NumTracks: ntrks, Division: division}, 14, nil
}

func encodeHeader(h Header) []byte {
	out := make([]byte, 0, 14)
	out = append(out, headerChunkType[:]...)
	out = binary.BigEndian.AppendUint32(out, 6)
	out = binary.BigEndian.AppendUint16(out, uint16(h.Format))
	out = binary.BigEndian.AppendUint16(out, h.NumTracks)
	out = binary.BigEndian.AppendUint16(out, h.Division.Encode())
	return out
}
