package midimsg

import (
	"bytes"
	"testing"
)

func TestDecode_ConcreteMessages(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Message
	}{
		{
			name: "Note On 0x92 0x30 0x60",
			in:   []byte{0x92, 0x30, 0x60},
			want: ChannelMessage{Channel: Channel3, Body: NoteOn{Note: 0x30, Velocity: 0x60}},
		},
		{
			name: "Local Control Off",
			in:   []byte{0xB0, 0x7A, 0x00},
			want: ChannelMessage{Channel: Channel1, Body: LocalControlOff{}},
		},
		{
			name: "Pitch Bend Change packs lsb|msb<<7",
			in:   []byte{0xE2, 0x7F, 0x01},
			want: ChannelMessage{Channel: Channel3, Body: PitchBendChange{Value: 0xFF}},
		},
		{
			name: "short manufacturer SysEx",
			in:   []byte{0xF0, 0x41, 0x01, 0x02},
			want: System{Message: Exclusive{
				SubID: ManufacturerIdentification{ID: []byte{0x41}},
				Data:  []byte{0x01, 0x02},
			}},
		},
		{
			name: "extended manufacturer SysEx",
			in:   []byte{0xF0, 0x00, 0x01, 0x02, 0x03},
			want: System{Message: Exclusive{
				SubID: ManufacturerIdentification{ID: []byte{0x00, 0x01, 0x02}},
				Data:  []byte{0x03},
			}},
		},
		{
			name: "system reset",
			in:   []byte{0xFF},
			want: System{Message: SystemReset{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("Decode(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty input", []byte{}},
		{"invalid status byte", []byte{0x00}},
		{"wrong data byte count", []byte{0x90, 0x30}},
		{"data byte out of range", []byte{0x90, 0x30, 0xFF}},
		{"invalid local control value", []byte{0xB0, 0x7A, 0x55}},
		{"empty sysex", []byte{0xF0}},
		{"truncated extended manufacturer id", []byte{0xF0, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.in); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEncode_RoundTripsConcreteExamples(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"Note On", []byte{0x92, 0x30, 0x60}},
		{"Local Control Off", []byte{0xB0, 0x7A, 0x00}},
		{"All Notes Off", []byte{0xB3, 0x7B, 0x00}},
		{"Pitch Bend", []byte{0xE0, 0x7F, 0x01}},
		{"short SysEx", []byte{0xF0, 0x41, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			out, err := Encode(msg)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if !bytes.Equal(out, tt.in) {
				t.Errorf("encode(decode(%v)) = %v, want %v", tt.in, out, tt.in)
			}
		})
	}
}
