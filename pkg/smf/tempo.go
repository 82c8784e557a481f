package smf

// DefaultTempo is 500,000 microseconds per quarter note (120 BPM), the
// tempo used when constructing a new SMF from a recording.
const DefaultTempo uint32 = 500_000

// DeltaMicroseconds converts a tick delta to microseconds given a
// tempo (microseconds per quarter note) and division.
func DeltaMicroseconds(deltaTicks uint32, tempoUsPerQN uint32, division Division) uint64 {
	delta := uint64(deltaTicks)
	tempo := uint64(tempoUsPerQN)

	switch d := division.(type) {
	case TicksPerQuarterNote:
		return delta * tempo / uint64(d.PPQ)
	case TimeCode:
		ticks := uint64(d.TicksPerFrame)
		switch d.Fps {
		case Fps25:
			return delta * 1_000_000 / (25 * ticks)
		case Fps24:
			return delta * 1_000_000 / (24 * ticks)
		case Fps30:
			return delta * 100_000 / (3 * ticks)
		case Fps30DropFrame:
			return delta * 100_100 / (3 * ticks)
		}
	}
	return 0
}

// Ticks is the algebraic inverse of DeltaMicroseconds.
func Ticks(microseconds uint64, tempoUsPerQN uint32, division Division) uint32 {
	tempo := uint64(tempoUsPerQN)

	switch d := division.(type) {
	case TicksPerQuarterNote:
		return uint32(microseconds * uint64(d.PPQ) / tempo)
	case TimeCode:
		ticks := uint64(d.TicksPerFrame)
		switch d.Fps {
		case Fps25:
			return uint32(microseconds * 25 * ticks / 1_000_000)
		case Fps24:
			return uint32(microseconds * 24 * ticks / 1_000_000)
		case Fps30:
			return uint32(microseconds * 3 * ticks / 100_000)
		case Fps30DropFrame:
			return uint32(microseconds * 3 * ticks / 100_100)
		}
	}
	return 0
}
