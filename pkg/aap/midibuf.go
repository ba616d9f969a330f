package aap

import "encoding/binary"

// MIDI port buffer layouts
const (
	// Midi2HeaderSize is the byte size of the header preceding UMP words
	Midi2HeaderSize = 32
	// Midi1HeaderSize is the byte size of the legacy header (time division, length)
	Midi1HeaderSize = 8
	// Midi2Protocol is written into the first reserved header word by hosts
	Midi2Protocol uint32 = 2
)

// MidiBufferHeader precedes the UMP words of a ContentTypeMidi2 port.
type MidiBufferHeader struct {
	Length      uint32 // payload size in bytes
	TimeOptions uint32
	Reserved    [6]uint32
}

// ReadMidiBufferHeader decodes the header of a MIDI2 port region.
func ReadMidiBufferHeader(region []byte) (MidiBufferHeader, bool) {
	var h MidiBufferHeader
	if len(region) < Midi2HeaderSize {
		return h, false
	}
	h.Length = binary.NativeEndian.Uint32(region[0:])
	h.TimeOptions = binary.NativeEndian.Uint32(region[4:])
	for i := range h.Reserved {
		h.Reserved[i] = binary.NativeEndian.Uint32(region[8+i*4:])
	}
	return h, true
}

// WriteMidiBufferHeader encodes h into the head of a MIDI2 port region.
func WriteMidiBufferHeader(region []byte, h MidiBufferHeader) bool {
	if len(region) < Midi2HeaderSize {
		return false
	}
	binary.NativeEndian.PutUint32(region[0:], h.Length)
	binary.NativeEndian.PutUint32(region[4:], h.TimeOptions)
	for i, r := range h.Reserved {
		binary.NativeEndian.PutUint32(region[8+i*4:], r)
	}
	return true
}

// Midi2Payload returns the UMP words recorded in a MIDI2 region header,
// clamped to what the region can hold.
func Midi2Payload(region []byte) []uint32 {
	h, ok := ReadMidiBufferHeader(region)
	if !ok {
		return nil
	}
	words := Words(region[Midi2HeaderSize:])
	n := int(h.Length / 4)
	if n > len(words) {
		n = len(words)
	}
	return words[:n]
}

// Midi2Capacity returns every word after the header for writing.
func Midi2Capacity(region []byte) []uint32 {
	if len(region) < Midi2HeaderSize {
		return nil
	}
	return Words(region[Midi2HeaderSize:])
}

// ReadMidi1Header decodes the legacy header of a ContentTypeMidi region.
func ReadMidi1Header(region []byte) (timeDivision, length int32, ok bool) {
	if len(region) < Midi1HeaderSize {
		return 0, 0, false
	}
	timeDivision = int32(binary.NativeEndian.Uint32(region[0:]))
	length = int32(binary.NativeEndian.Uint32(region[4:]))
	return timeDivision, length, true
}

// WriteMidi1Header encodes the legacy header.
func WriteMidi1Header(region []byte, timeDivision, length int32) bool {
	if len(region) < Midi1HeaderSize {
		return false
	}
	binary.NativeEndian.PutUint32(region[0:], uint32(timeDivision))
	binary.NativeEndian.PutUint32(region[4:], uint32(length))
	return true
}

// Midi1Payload returns the event bytes recorded in a legacy region header.
func Midi1Payload(region []byte) []byte {
	_, length, ok := ReadMidi1Header(region)
	if !ok || length < 0 {
		return nil
	}
	end := Midi1HeaderSize + int(length)
	if end > len(region) {
		end = len(region)
	}
	return region[Midi1HeaderSize:end]
}
