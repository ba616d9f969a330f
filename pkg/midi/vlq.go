package midi

import "errors"

// ErrInvalidVLQ is returned for truncated or oversized variable-length values.
var ErrInvalidVLQ = errors.New("invalid variable-length quantity")

// maxVLQBytes is the longest quantity allowed (28 bits)
const maxVLQBytes = 4

// Delta times in legacy MIDI 1.0 port buffers are variable-length
// quantities written least significant group first: each byte carries 7
// bits and the high bit marks that another byte follows. This is the
// reverse of the Standard MIDI File order.

// ReadVLQ decodes a variable-length quantity and reports the bytes consumed.
func ReadVLQ(data []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < len(data) && i < maxVLQBytes; i++ {
		b := data[i]
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrInvalidVLQ
}

// PutVLQ encodes v into dst and returns the bytes written. It returns false
// when dst is too short or v exceeds 28 bits.
func PutVLQ(dst []byte, v uint32) (int, bool) {
	if v > 0x0FFFFFFF {
		return 0, false
	}
	n := 1
	for t := v >> 7; t > 0; t >>= 7 {
		n++
	}
	if len(dst) < n {
		return 0, false
	}
	for i := 0; i < n; i++ {
		b := byte(v & 0x7F)
		if i != n-1 {
			b |= 0x80
		}
		dst[i] = b
		v >>= 7
	}
	return n, true
}
