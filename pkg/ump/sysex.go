package ump

// Sysex7PayloadSize is the number of sysex data bytes one packet carries
const Sysex7PayloadSize = 6

// Sysex7NumPackets returns how many packets a sysex payload of n bytes
// (without F0/F7) needs.
func Sysex7NumPackets(n int) int {
	if n <= Sysex7PayloadSize {
		return 1
	}
	return (n + Sysex7PayloadSize - 1) / Sysex7PayloadSize
}

// Sysex7Status returns the status of the idx'th of n packets.
func Sysex7Status(idx, n int) uint8 {
	switch {
	case n <= 1:
		return SysexInOnePacket
	case idx == 0:
		return SysexStart
	case idx == n-1:
		return SysexEnd
	default:
		return SysexContinue
	}
}

// Sysex7Packet builds one sysex7 packet from up to six data bytes.
func Sysex7Packet(group, status uint8, data []byte) (uint32, uint32) {
	if len(data) > Sysex7PayloadSize {
		data = data[:Sysex7PayloadSize]
	}
	var b [Sysex7PayloadSize]byte
	copy(b[:], data)
	w0 := uint32(MessageTypeSysex7)<<28 | uint32(group&0xF)<<24 |
		uint32(status&0xF0|uint8(len(data)))<<16 | uint32(b[0]&0x7F)<<8 | uint32(b[1]&0x7F)
	w1 := uint32(b[2]&0x7F)<<24 | uint32(b[3]&0x7F)<<16 | uint32(b[4]&0x7F)<<8 | uint32(b[5]&0x7F)
	return w0, w1
}

// Sysex7NumBytes returns the number of valid data bytes in a packet.
func Sysex7NumBytes(w0 uint32) int {
	n := int(w0>>16) & 0xF
	if n > Sysex7PayloadSize {
		n = Sysex7PayloadSize
	}
	return n
}

// Sysex7Byte returns data byte i (0-5) of a sysex7 packet.
func Sysex7Byte(w0, w1 uint32, i int) byte {
	switch i {
	case 0:
		return byte(w0 >> 8)
	case 1:
		return byte(w0)
	case 2:
		return byte(w1 >> 24)
	case 3:
		return byte(w1 >> 16)
	case 4:
		return byte(w1 >> 8)
	default:
		return byte(w1)
	}
}
