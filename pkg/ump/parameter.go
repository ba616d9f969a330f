package ump

import "math"

// Parameter change packets are single-packet sysex8 messages addressed to
// the universal non-realtime id 0x7E, device 0x7F, sub-id 0x00.
const (
	parameterHeader     uint32 = 0x500C007E
	parameterHeaderMask uint32 = 0xF0FFFFFF
	parameterSubID      uint32 = 0x7F000000
	parameterSubIDMask  uint32 = 0xFFFF0000
)

// ParameterChange is a parameter assignment carried in-band in a UMP stream
type ParameterChange struct {
	Group   uint8
	Channel uint8
	Key     uint8
	Extra   uint8
	Index   uint16
	Value   float32
}

// EncodeParameterChange returns the four words of a parameter change.
func EncodeParameterChange(p ParameterChange) [4]uint32 {
	return [4]uint32{
		parameterHeader | uint32(p.Group&0xF)<<24,
		parameterSubID | uint32(p.Channel)<<8 | uint32(p.Key),
		uint32(p.Extra)<<24 | uint32(p.Index)<<8,
		math.Float32bits(p.Value),
	}
}

// DecodeParameterChange recognizes a parameter change packet.
func DecodeParameterChange(w [4]uint32) (ParameterChange, bool) {
	if w[0]&parameterHeaderMask != parameterHeader || w[1]&parameterSubIDMask != parameterSubID {
		return ParameterChange{}, false
	}
	return ParameterChange{
		Group:   Group(w[0]),
		Channel: uint8(w[1] >> 8),
		Key:     uint8(w[1]),
		Extra:   uint8(w[2] >> 24),
		Index:   uint16(w[2] >> 8),
		Value:   math.Float32frombits(w[3]),
	}, true
}

// ParameterChange decodes the packet as a parameter change.
func (p Packet) ParameterChange() (ParameterChange, bool) {
	if p.Size != 4 {
		return ParameterChange{}, false
	}
	return DecodeParameterChange(p.Words)
}
