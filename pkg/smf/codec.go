package smf

import "fmt"

// Decode parses a complete Standard MIDI File.
func Decode(data []byte) (File, error) {
	header, consumed, err := decodeHeader(data)
	if err != nil {
		return File{}, err
	}

	pos := consumed
	tracks := make([]Track, 0, header.NumTracks)
	for i := uint16(0); i < header.NumTracks; i++ {
		if pos >= len(data) {
			return File{}, fmt.Errorf("smf: expected %d tracks, found %d", header.NumTracks, i)
		}
		track, n, err := decodeTrack(data[pos:])
		if err != nil {
			return File{}, fmt.Errorf("smf: track %d: %w", i, err)
		}
		tracks = append(tracks, track)
		pos += n
	}

	return File{Header: header, Tracks: tracks}, nil
}

// Encode serializes a complete Standard MIDI File. Running status is
// applied opportunistically between consecutive channel events that
// share a status byte; the decoder accepts either form.
func Encode(f File) ([]byte, error) {
	out := encodeHeader(f.Header)
	for i, t := range f.Tracks {
		trackBytes, err := encodeTrack(t)
		if err != nil {
			return nil, fmt.Errorf("smf: track %d: %w", i, err)
		}
		out = append(out, trackBytes...)
	}
	return out, nil
}
