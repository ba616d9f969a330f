package transcode

import (
	"math"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/ump"
)

// Encoder turns byte-stream events into UMP words.
type Encoder struct {
	// Protocol selects MIDI 1.0 channel voice packets or upscaled MIDI 2.0 ones.
	Protocol aap.MidiProtocol
	Group    uint8
	// Timestamps emits jitter reduction timestamps ahead of events that
	// are not at the start of the block.
	Timestamps bool

	ticks uint64
}

// NewEncoder creates an encoder for protocol.
func NewEncoder(protocol aap.MidiProtocol, timestamps bool) *Encoder {
	return &Encoder{Protocol: protocol, Timestamps: timestamps}
}

// Reset rewinds the timestamp position to the block start.
func (e *Encoder) Reset() {
	e.ticks = 0
}

// Encode writes every event of list to w and returns the number of events
// dropped for lack of space or because they cannot be represented. The list
// is sorted by offset first since timestamps only move forward.
func (e *Encoder) Encode(list *midi.EventList, sampleRate float64, w *ump.Writer) int {
	e.ticks = 0
	dropped := 0
	list.Sort()
	for i := 0; i < list.Len(); i++ {
		msg, offset := list.At(i)
		if e.Timestamps && !e.writeTimestamp(offset, sampleRate, w) {
			dropped++
			continue
		}
		if !e.EncodeMessage(msg, w) {
			dropped++
		}
	}
	return dropped
}

// writeTimestamp advances the stream position to offset. Positions are
// tracked in absolute ticks so rounding does not accumulate.
func (e *Encoder) writeTimestamp(offset int32, sampleRate float64, w *ump.Writer) bool {
	if offset <= 0 || sampleRate <= 0 {
		return true
	}
	target := uint64(math.Round(float64(offset) * ump.JRTicksPerSecond / sampleRate))
	for target > e.ticks {
		delta := target - e.ticks
		if delta > ump.MaxJRTimestampTicks {
			delta = ump.MaxJRTimestampTicks
		}
		if !w.Write32(ump.JRTimestamp(e.Group, uint16(delta))) {
			return false
		}
		e.ticks += delta
	}
	return true
}

// EncodeMessage writes one complete MIDI 1.0 message.
func (e *Encoder) EncodeMessage(msg []byte, w *ump.Writer) bool {
	if len(msg) == 0 {
		return false
	}
	status := msg[0]
	switch {
	case status == 0xF0:
		return e.encodeSysex(msg, w)
	case status == 0xF7 || status < 0x80:
		return false
	case status > 0xF0:
		return w.Write32(ump.SystemMessage(e.Group, status, dataByte(msg, 1), dataByte(msg, 2)))
	}

	d1, d2 := dataByte(msg, 1), dataByte(msg, 2)
	if e.Protocol != aap.MidiProtocol2 {
		return w.Write32(ump.Midi1Message(e.Group, status, status&0x0F, d1, d2))
	}
	return e.encodeMidi2(status, d1, d2, w)
}

func dataByte(msg []byte, i int) uint8 {
	if i < len(msg) {
		return msg[i] & 0x7F
	}
	return 0
}

// encodeMidi2 upscales by left shifts, the exact inverse of the decoder's
// narrowing divisions.
func (e *Encoder) encodeMidi2(status, d1, d2 uint8, w *ump.Writer) bool {
	g, ch := e.Group, status&0x0F
	var w0, w1 uint32
	switch status & 0xF0 {
	case 0x80:
		w0, w1 = ump.Midi2NoteOff(g, ch, d1, 0, uint16(d2)<<9, 0)
	case 0x90:
		// MIDI 2.0 note on keeps velocity 0 as a real velocity, so the
		// MIDI 1.0 note off meaning is made explicit. It decodes as 80 kk 00.
		if d2 == 0 {
			w0, w1 = ump.Midi2NoteOff(g, ch, d1, 0, 0, 0)
		} else {
			w0, w1 = ump.Midi2NoteOn(g, ch, d1, 0, uint16(d2)<<9, 0)
		}
	case 0xA0:
		w0, w1 = ump.Midi2PAf(g, ch, d1, uint32(d2)<<25)
	case 0xB0:
		w0, w1 = ump.Midi2CC(g, ch, d1, uint32(d2)<<25)
	case 0xC0:
		w0, w1 = ump.Midi2Program(g, ch, 0, d1, 0, 0)
	case 0xD0:
		w0, w1 = ump.Midi2CAf(g, ch, uint32(d1)<<25)
	case 0xE0:
		w0, w1 = ump.Midi2PitchBend(g, ch, (uint32(d2)<<7|uint32(d1))<<18)
	default:
		return false
	}
	return w.Write64(w0, w1)
}

func (e *Encoder) encodeSysex(msg []byte, w *ump.Writer) bool {
	payload := msg[1:]
	if n := len(payload); n > 0 && payload[n-1] == 0xF7 {
		payload = payload[:n-1]
	}
	packets := ump.Sysex7NumPackets(len(payload))
	if w.Remaining() < packets*2 {
		// never leave a start packet without its end
		return false
	}
	for i := 0; i < packets; i++ {
		start := i * ump.Sysex7PayloadSize
		end := start + ump.Sysex7PayloadSize
		if end > len(payload) {
			end = len(payload)
		}
		w0, w1 := ump.Sysex7Packet(e.Group, ump.Sysex7Status(i, packets), payload[start:end])
		if !w.Write64(w0, w1) {
			return false
		}
	}
	return true
}

// EncodeParameterChange writes a parameter change packet.
func EncodeParameterChange(w *ump.Writer, change ump.ParameterChange) bool {
	return w.Write128(ump.EncodeParameterChange(change))
}
