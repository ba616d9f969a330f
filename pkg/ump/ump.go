// Package ump implements Universal MIDI Packet words: construction,
// field access, sequence iteration and bounded writing.
package ump

// MessageType is the top nibble of the first packet word
type MessageType uint8

const (
	MessageTypeUtility MessageType = 0x0
	MessageTypeSystem  MessageType = 0x1
	MessageTypeMidi1   MessageType = 0x2
	MessageTypeSysex7  MessageType = 0x3
	MessageTypeMidi2   MessageType = 0x4
	MessageTypeSysex8  MessageType = 0x5
)

// Utility message statuses
const (
	UtilityNoop        uint8 = 0x00
	UtilityJRClock     uint8 = 0x10
	UtilityJRTimestamp uint8 = 0x20
)

// Channel voice statuses shared by the MIDI 1.0 and MIDI 2.0 message types
const (
	StatusPerNoteRCC        uint8 = 0x00
	StatusPerNoteACC        uint8 = 0x10
	StatusRPN               uint8 = 0x20
	StatusNRPN              uint8 = 0x30
	StatusRelativeRPN       uint8 = 0x40
	StatusRelativeNRPN      uint8 = 0x50
	StatusPerNotePitchBend  uint8 = 0x60
	StatusNoteOff           uint8 = 0x80
	StatusNoteOn            uint8 = 0x90
	StatusPAf               uint8 = 0xA0
	StatusCC                uint8 = 0xB0
	StatusProgram           uint8 = 0xC0
	StatusCAf               uint8 = 0xD0
	StatusPitchBend         uint8 = 0xE0
	StatusPerNoteManagement uint8 = 0xF0
)

// Sysex status nibbles (bits 20-23 of the first word)
const (
	SysexInOnePacket uint8 = 0x00
	SysexStart       uint8 = 0x10
	SysexContinue    uint8 = 0x20
	SysexEnd         uint8 = 0x30
)

// ProgramBankValid is the option flag marking a MIDI 2.0 program change
// as carrying bank select values.
const ProgramBankValid uint8 = 0x01

// JRTicksPerSecond is the jitter reduction timestamp resolution
const JRTicksPerSecond = 31250

// MaxJRTimestampTicks is the largest span a single timestamp packet carries
// (two seconds).
const MaxJRTimestampTicks = 62500

// PacketWords returns the number of 32-bit words of a message type.
func PacketWords(t MessageType) int {
	switch t {
	case 0x0, 0x1, 0x2, 0x6, 0x7:
		return 1
	case 0x3, 0x4, 0x8, 0x9, 0xA:
		return 2
	case 0xB, 0xC:
		return 3
	default:
		return 4
	}
}

// Type returns the message type of a first packet word
func Type(w uint32) MessageType {
	return MessageType(w >> 28)
}

// Group returns the UMP group (0-15)
func Group(w uint32) uint8 {
	return uint8(w>>24) & 0xF
}

// StatusCode returns the status with the channel nibble cleared.
func StatusCode(w uint32) uint8 {
	return uint8(w>>16) & 0xF0
}

// StatusByte returns the full status byte including the channel nibble.
func StatusByte(w uint32) uint8 {
	return uint8(w >> 16)
}

// Channel returns the channel nibble of a channel voice message
func Channel(w uint32) uint8 {
	return uint8(w>>16) & 0xF
}

// Byte3 returns bits 8-15 of the first word
func Byte3(w uint32) uint8 {
	return uint8(w >> 8)
}

// Byte4 returns bits 0-7 of the first word
func Byte4(w uint32) uint8 {
	return uint8(w)
}

// JRTimestamp returns a jitter reduction timestamp packet.
func JRTimestamp(group uint8, ticks uint16) uint32 {
	return uint32(MessageTypeUtility)<<28 | uint32(group&0xF)<<24 |
		uint32(UtilityJRTimestamp)<<16 | uint32(ticks)
}

// JRTimestampTicks returns the ticks of a timestamp packet.
func JRTimestampTicks(w uint32) uint16 {
	return uint16(w)
}

// IsJRTimestamp reports whether w is a jitter reduction timestamp
func IsJRTimestamp(w uint32) bool {
	return Type(w) == MessageTypeUtility && StatusCode(w) == UtilityJRTimestamp
}

// SystemMessage returns a system common or realtime packet.
func SystemMessage(group, status, data1, data2 uint8) uint32 {
	return uint32(MessageTypeSystem)<<28 | uint32(group&0xF)<<24 |
		uint32(status)<<16 | uint32(data1&0x7F)<<8 | uint32(data2&0x7F)
}

// Midi1Message returns a MIDI 1.0 channel voice packet.
func Midi1Message(group, status, channel, data1, data2 uint8) uint32 {
	return uint32(MessageTypeMidi1)<<28 | uint32(group&0xF)<<24 |
		uint32(status&0xF0|channel&0xF)<<16 | uint32(data1&0x7F)<<8 | uint32(data2&0x7F)
}
