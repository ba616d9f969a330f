// Package transcode converts between Universal MIDI Packet streams and the
// byte-stream event list, in both directions, without allocating.
package transcode

import (
	"math"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/ump"
)

// ParameterSink receives parameter changes carried in a UMP stream.
type ParameterSink interface {
	SetParameter(change ump.ParameterChange)
}

// ParameterFunc adapts a function to ParameterSink.
type ParameterFunc func(change ump.ParameterChange)

// SetParameter calls f
func (f ParameterFunc) SetParameter(change ump.ParameterChange) {
	f(change)
}

// DecodeStats counts what a Decode call could not deliver
type DecodeStats struct {
	Events          int
	Dropped         int
	Unsupported     int
	TruncatedSysex  int
	ParameterEvents int
}

// Decoder turns UMP words into byte-stream events.
//
// Jitter reduction timestamps accumulate per call: each timestamp packet
// adds its ticks to the position of every following event.
type Decoder struct {
	sysex     []byte
	sysexLen  int
	inSysex   bool
	truncated bool
	ticks     uint64
}

// NewDecoder creates a decoder with a sysex scratch of scratchSize bytes.
func NewDecoder(scratchSize int) *Decoder {
	if scratchSize < 2 {
		scratchSize = aap.SysexScratchSize
	}
	return &Decoder{sysex: make([]byte, scratchSize)}
}

// Reset discards any partial sysex and the timestamp position.
func (d *Decoder) Reset() {
	d.sysexLen = 0
	d.inSysex = false
	d.truncated = false
	d.ticks = 0
}

// DecodeParameters delivers every parameter change packet in words to sink
// and returns how many were found. It runs before Decode so parameter
// values are in place before any event of the block is handled.
func (d *Decoder) DecodeParameters(words []uint32, sink ParameterSink) int {
	n := 0
	seq := ump.NewSequence(words)
	for {
		p, ok := seq.Next()
		if !ok {
			break
		}
		if p.Type() != ump.MessageTypeSysex8 {
			continue
		}
		if change, ok := p.ParameterChange(); ok {
			if sink != nil {
				sink.SetParameter(change)
			}
			n++
		}
	}
	return n
}

// Decode appends the MIDI events in words to dst. Parameter change packets
// are skipped; DecodeParameters handles them.
func (d *Decoder) Decode(words []uint32, sampleRate float64, frames int, dst *midi.EventList) DecodeStats {
	var stats DecodeStats
	d.ticks = 0
	seq := ump.NewSequence(words)

	for {
		p, ok := seq.Next()
		if !ok {
			break
		}
		w0 := p.Words[0]
		offset := d.sampleOffset(sampleRate, frames)

		switch p.Type() {
		case ump.MessageTypeUtility:
			if ump.IsJRTimestamp(w0) {
				d.ticks += uint64(ump.JRTimestampTicks(w0))
			}
			continue
		case ump.MessageTypeSystem:
			status := ump.StatusByte(w0)
			size := midi.StatusSize(status)
			d.add(&stats, dst.Add3(offset, size, status, ump.Byte3(w0)&0x7F, ump.Byte4(w0)&0x7F))
		case ump.MessageTypeMidi1:
			status := ump.StatusByte(w0)
			size := 3
			if s := status & 0xF0; s == 0xC0 || s == 0xD0 {
				size = 2
			}
			d.add(&stats, dst.Add3(offset, size, status, ump.Byte3(w0)&0x7F, ump.Byte4(w0)&0x7F))
		case ump.MessageTypeMidi2:
			d.decodeMidi2(p, offset, dst, &stats)
		case ump.MessageTypeSysex7:
			d.decodeSysex7(p, offset, dst, &stats)
		case ump.MessageTypeSysex8:
			if _, ok := p.ParameterChange(); ok {
				stats.ParameterEvents++
			} else {
				stats.Unsupported++
			}
		default:
			stats.Unsupported++
		}
	}
	return stats
}

func (d *Decoder) add(stats *DecodeStats, ok bool) {
	if ok {
		stats.Events++
	} else {
		stats.Dropped++
	}
}

func (d *Decoder) sampleOffset(sampleRate float64, frames int) int32 {
	if d.ticks == 0 || frames <= 0 {
		return 0
	}
	offset := int64(math.Round(float64(d.ticks) * sampleRate / ump.JRTicksPerSecond))
	if offset >= int64(frames) {
		offset = int64(frames) - 1
	}
	return int32(offset)
}

// Narrowing divisors from MIDI 2.0 resolution to 7 bits
const (
	velocityDivisor = 0x200
	dataDivisor     = 0x2000000
)

func (d *Decoder) decodeMidi2(p ump.Packet, offset int32, dst *midi.EventList, stats *DecodeStats) {
	w0, w1 := p.Words[0], p.Words[1]
	ch := ump.Channel(w0)
	b3 := ump.Byte3(w0) & 0x7F
	cc := func(index, value uint8) {
		d.add(stats, dst.Add3(offset, 3, 0xB0|ch, index&0x7F, value&0x7F))
	}

	switch ump.StatusCode(w0) {
	case ump.StatusNoteOff:
		vel := uint8(ump.Midi2Velocity(w1) / velocityDivisor)
		d.add(stats, dst.Add3(offset, 3, 0x80|ch, b3, vel))
	case ump.StatusNoteOn:
		v16 := ump.Midi2Velocity(w1)
		vel := uint8(v16 / velocityDivisor)
		if vel == 0 && v16 != 0 {
			vel = 1
		}
		d.add(stats, dst.Add3(offset, 3, 0x90|ch, b3, vel))
	case ump.StatusPAf:
		d.add(stats, dst.Add3(offset, 3, 0xA0|ch, b3, uint8(w1/dataDivisor)))
	case ump.StatusCC:
		cc(b3, uint8(w1/dataDivisor))
	case ump.StatusCAf:
		d.add(stats, dst.Add3(offset, 2, 0xD0|ch, uint8(w1/dataDivisor), 0))
	case ump.StatusProgram:
		program, bankMSB, bankLSB := ump.Midi2ProgramFields(w1)
		if ump.Byte4(w0)&ump.ProgramBankValid != 0 {
			cc(midi.CCBankSelect, bankMSB)
			cc(midi.CCBankSelectLSB, bankLSB)
		}
		d.add(stats, dst.Add3(offset, 2, 0xC0|ch, program, 0))
	case ump.StatusPitchBend:
		d.add(stats, dst.Add3(offset, 3, 0xE0|ch, uint8(w1>>18)&0x7F, uint8(w1>>25)&0x7F))
	case ump.StatusRPN, ump.StatusNRPN:
		msb, lsb := midi.CCRPNMSB, midi.CCRPNLSB
		if ump.StatusCode(w0) == ump.StatusNRPN {
			msb, lsb = midi.CCNRPNMSB, midi.CCNRPNLSB
		}
		cc(msb, b3)
		cc(lsb, ump.Byte4(w0)&0x7F)
		cc(midi.CCDataEntry, uint8(w1>>25))
		cc(midi.CCDataEntryLSB, uint8(w1>>18))
	default:
		stats.Unsupported++
	}
}

func (d *Decoder) decodeSysex7(p ump.Packet, offset int32, dst *midi.EventList, stats *DecodeStats) {
	w0, w1 := p.Words[0], p.Words[1]
	status := ump.StatusCode(w0)

	switch status {
	case ump.SysexInOnePacket, ump.SysexStart:
		d.sysex[0] = 0xF0
		d.sysexLen = 1
		d.inSysex = true
		d.truncated = false
	case ump.SysexContinue, ump.SysexEnd:
		if !d.inSysex {
			// continuation without a start packet
			stats.Dropped++
			return
		}
	}

	n := ump.Sysex7NumBytes(w0)
	for i := 0; i < n; i++ {
		// keep one byte for the terminating F7
		if d.sysexLen >= len(d.sysex)-1 {
			d.truncated = true
			break
		}
		d.sysex[d.sysexLen] = ump.Sysex7Byte(w0, w1, i) & 0x7F
		d.sysexLen++
	}

	if status == ump.SysexInOnePacket || status == ump.SysexEnd {
		d.sysex[d.sysexLen] = 0xF7
		d.sysexLen++
		if d.truncated {
			stats.TruncatedSysex++
		}
		d.add(stats, dst.Add(offset, d.sysex[:d.sysexLen]))
		d.sysexLen = 0
		d.inSysex = false
	}
}
