package midimsg

// Timestamped pairs a message with a monotonic microsecond timestamp,
// used both for live recording (relative to recording start) and as
// playback input.
type Timestamped struct {
	TimestampMicros uint64
	Message         Message
}
