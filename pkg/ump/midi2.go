package ump

// Midi2Message returns a MIDI 2.0 channel voice packet. index1 and index2
// fill bits 8-15 and 0-7 of the first word; data is the second word.
func Midi2Message(group, status, channel, index1, index2 uint8, data uint32) (uint32, uint32) {
	w0 := uint32(MessageTypeMidi2)<<28 | uint32(group&0xF)<<24 |
		uint32(status&0xF0|channel&0xF)<<16 | uint32(index1)<<8 | uint32(index2)
	return w0, data
}

// Midi2NoteOn returns a MIDI 2.0 note on with a 16-bit velocity.
func Midi2NoteOn(group, channel, note, attributeType uint8, velocity, attribute uint16) (uint32, uint32) {
	return Midi2Message(group, StatusNoteOn, channel, note&0x7F, attributeType,
		uint32(velocity)<<16|uint32(attribute))
}

// Midi2NoteOff returns a MIDI 2.0 note off with a 16-bit velocity.
func Midi2NoteOff(group, channel, note, attributeType uint8, velocity, attribute uint16) (uint32, uint32) {
	return Midi2Message(group, StatusNoteOff, channel, note&0x7F, attributeType,
		uint32(velocity)<<16|uint32(attribute))
}

// Midi2CC returns a MIDI 2.0 control change with 32-bit data.
func Midi2CC(group, channel, index uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusCC, channel, index&0x7F, 0, data)
}

// Midi2PAf returns a MIDI 2.0 polyphonic aftertouch.
func Midi2PAf(group, channel, note uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusPAf, channel, note&0x7F, 0, data)
}

// Midi2CAf returns a MIDI 2.0 channel aftertouch.
func Midi2CAf(group, channel uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusCAf, channel, 0, 0, data)
}

// Midi2PitchBend returns a MIDI 2.0 pitch bend with 32-bit data.
func Midi2PitchBend(group, channel uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusPitchBend, channel, 0, 0, data)
}

// Midi2RPN returns a registered parameter number change.
func Midi2RPN(group, channel, bank, index uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusRPN, channel, bank&0x7F, index&0x7F, data)
}

// Midi2NRPN returns a non-registered parameter number change.
func Midi2NRPN(group, channel, bank, index uint8, data uint32) (uint32, uint32) {
	return Midi2Message(group, StatusNRPN, channel, bank&0x7F, index&0x7F, data)
}

// Midi2Program returns a program change, optionally carrying a bank.
func Midi2Program(group, channel, options, program, bankMSB, bankLSB uint8) (uint32, uint32) {
	return Midi2Message(group, StatusProgram, channel, 0, options,
		uint32(program&0x7F)<<24|uint32(bankMSB&0x7F)<<8|uint32(bankLSB&0x7F))
}

// Midi2Velocity returns the 16-bit velocity of a note packet.
func Midi2Velocity(w1 uint32) uint16 {
	return uint16(w1 >> 16)
}

// Midi2ProgramFields splits the second word of a program change.
func Midi2ProgramFields(w1 uint32) (program, bankMSB, bankLSB uint8) {
	return uint8(w1>>24) & 0x7F, uint8(w1>>8) & 0x7F, uint8(w1) & 0x7F
}
