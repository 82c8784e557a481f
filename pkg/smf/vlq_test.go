package smf

import (
	"bytes"
	"testing"
)

func TestVLQ_RoundTripTable(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		want  []byte
	}{
		{"zero", 0x00, []byte{0x00}},
		{"single byte max", 0x7F, []byte{0x7F}},
		{"two bytes", 0x80, []byte{0x81, 0x00}},
		{"0x2000", 0x2000, []byte{0xC0, 0x00}},
		{"two bytes max", 0x3FFF, []byte{0xFF, 0x7F}},
		{"three bytes start", 0x4000, []byte{0x81, 0x80, 0x00}},
		{"0x100000", 0x100000, []byte{0xC0, 0x80, 0x00}},
		{"0x1FFFFF", 0x1FFFFF, []byte{0xFF, 0xFF, 0x7F}},
		{"0x200000", 0x200000, []byte{0x81, 0x80, 0x80, 0x00}},
		{"0x8000000", 0x8000000, []byte{0xC0, 0x80, 0x80, 0x00}},
		{"max VLQ", 0xFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeVLQ(tt.value)
			if err != nil {
				t.Fatalf("EncodeVLQ(%#x) error: %v", tt.value, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeVLQ(%#x) = %v, want %v", tt.value, got, tt.want)
			}

			decoded, n, err := DecodeVLQ(got)
			if err != nil {
				t.Fatalf("DecodeVLQ(%v) error: %v", got, err)
			}
			if decoded != tt.value {
				t.Errorf("DecodeVLQ(%v) = %#x, want %#x", got, decoded, tt.value)
			}
			if n != len(got) {
				t.Errorf("DecodeVLQ consumed %d bytes, want %d", n, len(got))
			}
			if n < 1 || n > 4 {
				t.Errorf("VLQ length %d out of range 1..4", n)
			}
			if got[len(got)-1]&0x80 != 0 {
				t.Error("final byte must have MSB=0")
			}
			for _, b := range got[:len(got)-1] {
				if b&0x80 == 0 {
					t.Error("non-final byte must have MSB=1")
				}
			}
		})
	}
}

func TestEncodeVLQ_OverMax(t *testing.T) {
	if _, err := EncodeVLQ(0x10000000); err == nil {
		t.Error("expected error for value exceeding 0x0FFFFFFF")
	}
}

func TestDecodeVLQ_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"too long", []byte{0x81, 0x81, 0x81, 0x81, 0x00}},
		{"truncated continuation", []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeVLQ(tt.in); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
