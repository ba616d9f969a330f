package transcode

import (
	"testing"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/ump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func channelEvents() *midi.EventList {
	l := midi.NewEventList(32, 256)
	l.Add(0, gomidi.NoteOn(0, 60, 100))
	l.Add(0, gomidi.ControlChange(1, midi.CCVolume, 90))
	l.Add(0, gomidi.ProgramChange(2, 17))
	l.Add(0, gomidi.PolyAfterTouch(3, 61, 44))
	l.Add(0, gomidi.AfterTouch(4, 33))
	l.Add(0, gomidi.Pitchbend(5, 1000))
	l.Add(0, gomidi.NoteOffVelocity(0, 60, 64))
	return l
}

func roundTrip(t *testing.T, protocol aap.MidiProtocol, src *midi.EventList) *midi.EventList {
	t.Helper()
	buf := make([]uint32, 256)
	w := ump.NewWriter(buf)
	dropped := NewEncoder(protocol, true).Encode(src, 48000, &w)
	require.Equal(t, 0, dropped)

	dst := midi.NewEventList(64, aap.SysexScratchSize*2)
	stats := NewDecoder(aap.SysexScratchSize).Decode(w.Words(), 48000, 1024, dst)
	require.Equal(t, 0, stats.Dropped)
	return dst
}

func assertSameEvents(t *testing.T, want, got *midi.EventList) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		wm, wo := want.At(i)
		gm, gotOffset := got.At(i)
		assert.Equal(t, wm, gm, "event %d", i)
		assert.Equal(t, wo, gotOffset, "event %d", i)
	}
}

func TestRoundTripMidi1Protocol(t *testing.T) {
	src := channelEvents()
	assertSameEvents(t, src, roundTrip(t, aap.MidiProtocol1, src))
}

func TestRoundTripMidi2Protocol(t *testing.T) {
	src := channelEvents()
	assertSameEvents(t, src, roundTrip(t, aap.MidiProtocol2, src))
}

func TestRoundTripTimestamps(t *testing.T) {
	// 192 samples at 48kHz is exactly 125 ticks
	src := midi.NewEventList(8, 64)
	src.Add(0, gomidi.NoteOn(0, 60, 100))
	src.Add(192, gomidi.NoteOn(0, 64, 100))
	src.Add(384, gomidi.NoteOffVelocity(0, 60, 0))
	src.Add(384, gomidi.NoteOffVelocity(0, 64, 0))
	assertSameEvents(t, src, roundTrip(t, aap.MidiProtocol1, src))
}

func TestEncodeSortsByOffset(t *testing.T) {
	src := midi.NewEventList(8, 64)
	src.Add(384, gomidi.NoteOffVelocity(0, 60, 0))
	src.Add(192, gomidi.NoteOn(0, 60, 100))

	dst := roundTrip(t, aap.MidiProtocol2, src)
	require.Equal(t, 2, dst.Len())
	msg, offset := dst.At(0)
	assert.Equal(t, gomidi.NoteOn(0, 60, 100), msg)
	assert.Equal(t, int32(192), offset)
	msg, offset = dst.At(1)
	assert.Equal(t, gomidi.NoteOffVelocity(0, 60, 0), msg)
	assert.Equal(t, int32(384), offset)
}

func TestNoteOnZeroVelocity(t *testing.T) {
	src := midi.NewEventList(2, 16)
	src.Add(0, gomidi.Message{0x90, 60, 0})

	// MIDI 1.0 packets carry the bytes unchanged
	assertSameEvents(t, src, roundTrip(t, aap.MidiProtocol1, src))

	// MIDI 2.0 has no velocity 0 note off, so it becomes an explicit one
	dst := roundTrip(t, aap.MidiProtocol2, src)
	require.Equal(t, 1, dst.Len())
	msg, _ := dst.At(0)
	assert.Equal(t, gomidi.Message{0x80, 60, 0}, msg)
}

func TestTimestampsSplitLongDelays(t *testing.T) {
	src := midi.NewEventList(2, 16)
	// three seconds at 31250 Hz needs two timestamp packets
	src.Add(93750, gomidi.NoteOn(0, 60, 100))

	w := ump.NewWriter(make([]uint32, 16))
	NewEncoder(aap.MidiProtocol1, true).Encode(src, ump.JRTicksPerSecond, &w)
	words := w.Words()
	require.Len(t, words, 3)
	assert.Equal(t, uint16(62500), ump.JRTimestampTicks(words[0]))
	assert.Equal(t, uint16(31250), ump.JRTimestampTicks(words[1]))

	dst := midi.NewEventList(2, 16)
	NewDecoder(0).Decode(words, ump.JRTicksPerSecond, 100000, dst)
	_, offset := dst.At(0)
	assert.Equal(t, int32(93750), offset)
}

func TestDecodeClampsOffsetToBlock(t *testing.T) {
	words := []uint32{ump.JRTimestamp(0, 31250), ump.Midi1Message(0, ump.StatusNoteOn, 0, 60, 100)}
	dst := midi.NewEventList(2, 16)
	NewDecoder(0).Decode(words, 48000, 256, dst)
	_, offset := dst.At(0)
	assert.Equal(t, int32(255), offset)
}

func TestParameterChangeRouting(t *testing.T) {
	p := ump.EncodeParameterChange(ump.ParameterChange{Index: 5, Value: 0.75})
	words := []uint32{
		ump.Midi1Message(0, ump.StatusNoteOn, 0, 60, 100),
		p[0], p[1], p[2], p[3],
	}

	var got []ump.ParameterChange
	d := NewDecoder(0)
	n := d.DecodeParameters(words, ParameterFunc(func(c ump.ParameterChange) {
		got = append(got, c)
	}))
	require.Equal(t, 1, n)
	assert.Equal(t, uint16(5), got[0].Index)
	assert.Equal(t, float32(0.75), got[0].Value)

	dst := midi.NewEventList(8, 64)
	stats := d.Decode(words, 48000, 256, dst)
	assert.Equal(t, 1, dst.Len())
	assert.Equal(t, 1, stats.ParameterEvents)
	msg, _ := dst.At(0)
	assert.Equal(t, byte(0x90), msg[0])
}

func TestSysexAcrossPackets(t *testing.T) {
	sysex := []byte{0xF0}
	for i := 0; i < 18; i++ {
		sysex = append(sysex, byte(i))
	}
	sysex = append(sysex, 0xF7)

	w := ump.NewWriter(make([]uint32, 16))
	require.True(t, NewEncoder(aap.MidiProtocol1, false).EncodeMessage(sysex, &w))
	words := w.Words()
	require.Len(t, words, 6)
	assert.Equal(t, ump.SysexStart, ump.StatusCode(words[0]))
	assert.Equal(t, ump.SysexContinue, ump.StatusCode(words[2]))
	assert.Equal(t, ump.SysexEnd, ump.StatusCode(words[4]))

	dst := midi.NewEventList(4, 64)
	NewDecoder(0).Decode(words, 48000, 256, dst)
	require.Equal(t, 1, dst.Len())
	msg, _ := dst.At(0)
	assert.Equal(t, gomidi.Message(sysex), msg)
}

func TestSysexAcrossBlocks(t *testing.T) {
	w0, w1 := ump.Sysex7Packet(0, ump.SysexStart, []byte{1, 2, 3, 4, 5, 6})
	e0, e1 := ump.Sysex7Packet(0, ump.SysexEnd, []byte{7})

	d := NewDecoder(0)
	dst := midi.NewEventList(4, 64)
	d.Decode([]uint32{w0, w1}, 48000, 256, dst)
	assert.Equal(t, 0, dst.Len())
	d.Decode([]uint32{e0, e1}, 48000, 256, dst)
	require.Equal(t, 1, dst.Len())
	msg, _ := dst.At(0)
	assert.Equal(t, gomidi.Message{0xF0, 1, 2, 3, 4, 5, 6, 7, 0xF7}, msg)
}

func TestSysexOverflowTruncates(t *testing.T) {
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i & 0x7F)
	}
	sysex := append(append([]byte{0xF0}, payload...), 0xF7)

	w := ump.NewWriter(make([]uint32, 2*ump.Sysex7NumPackets(len(payload))))
	require.True(t, NewEncoder(aap.MidiProtocol1, false).EncodeMessage(sysex, &w))

	dst := midi.NewEventList(4, 2*aap.SysexScratchSize)
	stats := NewDecoder(aap.SysexScratchSize).Decode(w.Words(), 48000, 256, dst)
	assert.Equal(t, 1, stats.TruncatedSysex)
	require.Equal(t, 1, dst.Len())
	msg, _ := dst.At(0)
	assert.Len(t, msg, aap.SysexScratchSize)
	assert.Equal(t, byte(0xF0), msg[0])
	assert.Equal(t, byte(0xF7), msg[len(msg)-1])
}

func TestSysexContinueWithoutStart(t *testing.T) {
	w0, w1 := ump.Sysex7Packet(0, ump.SysexEnd, []byte{1})
	dst := midi.NewEventList(4, 64)
	stats := NewDecoder(0).Decode([]uint32{w0, w1}, 48000, 256, dst)
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 1, stats.Dropped)
}

func TestMidi2Narrowing(t *testing.T) {
	var words []uint32
	add := func(w0, w1 uint32) { words = append(words, w0, w1) }
	add(ump.Midi2NoteOn(0, 1, 60, 0, 0xFFFF, 0))
	add(ump.Midi2NoteOn(0, 1, 61, 0, 0x0100, 0))
	add(ump.Midi2CC(0, 1, 7, 0xFFFFFFFF))
	add(ump.Midi2Program(0, 1, ump.ProgramBankValid, 5, 2, 3))
	add(ump.Midi2RPN(0, 1, 0, 1, 0x80000000))
	add(ump.Midi2NRPN(0, 1, 3, 4, 0))
	add(ump.Midi2PitchBend(0, 1, 0x80000000))

	dst := midi.NewEventList(32, 128)
	stats := NewDecoder(0).Decode(words, 48000, 256, dst)
	require.Equal(t, 0, stats.Dropped)

	var got [][]byte
	for i := 0; i < dst.Len(); i++ {
		msg, _ := dst.At(i)
		got = append(got, []byte(msg))
	}
	assert.Equal(t, [][]byte{
		{0x91, 60, 127},
		{0x91, 61, 1}, // non-zero velocity never narrows to a note off
		{0xB1, 7, 127},
		{0xB1, 0, 2},
		{0xB1, 32, 3},
		{0xC1, 5},
		{0xB1, 101, 0},
		{0xB1, 100, 1},
		{0xB1, 6, 64},
		{0xB1, 38, 0},
		{0xB1, 99, 3},
		{0xB1, 98, 4},
		{0xB1, 6, 0},
		{0xB1, 38, 0},
		{0xE1, 0, 64},
	}, got)
}

func TestSystemMessages(t *testing.T) {
	src := midi.NewEventList(4, 16)
	src.Add(0, []byte{0xF8})
	src.Add(0, []byte{0xF2, 0x10, 0x20})
	src.Add(0, []byte{0xF3, 0x05})
	assertSameEvents(t, src, roundTrip(t, aap.MidiProtocol2, src))
}

func TestEncodeDropsWhenFull(t *testing.T) {
	src := channelEvents()
	w := ump.NewWriter(make([]uint32, 2))
	dropped := NewEncoder(aap.MidiProtocol1, false).Encode(src, 48000, &w)
	assert.Equal(t, src.Len()-2, dropped)

	big := make([]byte, 20)
	big[0] = 0xF0
	big[19] = 0xF7
	w = ump.NewWriter(make([]uint32, 4))
	assert.False(t, NewEncoder(aap.MidiProtocol1, false).EncodeMessage(big, &w))
	assert.Equal(t, 0, w.Len())
}
