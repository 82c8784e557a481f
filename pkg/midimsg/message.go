package midimsg

import "reflect"

// Message is any decodable/encodable MIDI 1.0 message: a channel
// message (voice or mode) or a system message.
type Message interface {
	isMessage()
}

// ChannelMessage addresses one of 16 channels with a voice or mode body.
type ChannelMessage struct {
	Channel Channel
	Body    any // VoiceMessage or ModeMessage
}

func (ChannelMessage) isMessage() {}

// System wraps a SystemMessage as a top-level Message.
type System struct {
	Message SystemMessage
}

func (System) isMessage() {}

// Equal reports whether two messages are structurally identical. It
// exists because Message bodies hold interface values wrapping plain
// structs, for which reflect.DeepEqual is the correct comparison
// (Go's == is undefined for the []byte fields SysEx messages carry).
func Equal(a, b Message) bool {
	return reflect.DeepEqual(a, b)
}

func noteOffOf(ch Channel, note, velocity uint8) ChannelMessage {
	return ChannelMessage{Channel: ch, Body: NoteOff{Note: note, Velocity: velocity}}
}

// NewNoteOff constructs a validated Note Off channel message.
func NewNoteOff(ch Channel, note, velocity uint8) (ChannelMessage, error) {
	if err := validateDataByte(note); err != nil {
		return ChannelMessage{}, err
	}
	if err := validateDataByte(velocity); err != nil {
		return ChannelMessage{}, err
	}
	return noteOffOf(ch, note, velocity), nil
}

// NewNoteOn constructs a validated Note On channel message.
func NewNoteOn(ch Channel, note, velocity uint8) (ChannelMessage, error) {
	if err := validateDataByte(note); err != nil {
		return ChannelMessage{}, err
	}
	if err := validateDataByte(velocity); err != nil {
		return ChannelMessage{}, err
	}
	return ChannelMessage{Channel: ch, Body: NoteOn{Note: note, Velocity: velocity}}, nil
}

// NewAllNotesOff constructs the All Notes Off channel mode message for ch.
func NewAllNotesOff(ch Channel) ChannelMessage {
	return ChannelMessage{Channel: ch, Body: AllNotesOff{}}
}

// NewAllSoundOff constructs the All Sound Off channel mode message for ch.
func NewAllSoundOff(ch Channel) ChannelMessage {
	return ChannelMessage{Channel: ch, Body: AllSoundOff{}}
}
