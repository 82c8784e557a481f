package smf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_VLQRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("EncodeVLQ then DecodeVLQ recovers the original value", prop.ForAll(
		func(v uint32) bool {
			encoded, err := EncodeVLQ(v)
			if err != nil {
				return false
			}
			decoded, n, err := DecodeVLQ(encoded)
			if err != nil {
				return false
			}
			return decoded == v && n == len(encoded) && n >= 1 && n <= 4
		},
		gen.UInt32Range(0, MaxVLQ),
	))

	properties.TestingRun(t)
}

func TestProperty_DivisionRoundTripsThroughWire(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("a PPQ division survives Encode/DecodeDivision", prop.ForAll(
		func(ppq uint16) bool {
			d := TicksPerQuarterNote{PPQ: ppq & 0x7FFF}
			decoded, err := DecodeDivision(d.Encode())
			if err != nil {
				return false
			}
			return decoded == Division(d)
		},
		gen.UInt16Range(0, 0x7FFF),
	))

	properties.Property("a time code division survives Encode/DecodeDivision", prop.ForAll(
		func(fps FPS, ticksPerFrame uint8) bool {
			d := TimeCode{Fps: fps, TicksPerFrame: ticksPerFrame}
			decoded, err := DecodeDivision(d.Encode())
			if err != nil {
				return false
			}
			return decoded == Division(d)
		},
		gen.OneConstOf(Fps24, Fps25, Fps30, Fps30DropFrame),
		gen.UInt8Range(0, 0xFF),
	))

	properties.TestingRun(t)
}
