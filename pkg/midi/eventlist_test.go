package midi

import (
	"testing"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestEventListAdd(t *testing.T) {
	l := NewEventList(4, 16)
	assert.True(t, l.IsEmpty())

	require.True(t, l.Add(10, gomidi.NoteOn(0, 60, 100)))
	require.True(t, l.AddStatus(20, 0x90, []byte{62, 90}))
	require.True(t, l.Add3(30, 2, 0xC0, 5, 0))

	assert.Equal(t, 3, l.Len())
	msg, offset := l.At(1)
	assert.Equal(t, gomidi.Message{0x90, 62, 90}, msg)
	assert.Equal(t, int32(20), offset)

	msg, _ = l.At(2)
	assert.Equal(t, gomidi.Message{0xC0, 5}, msg)

	e, ok := l.Event(0)
	require.True(t, ok)
	assert.Equal(t, EventTypeNoteOn, e.Type())
}

func TestEventListCapacity(t *testing.T) {
	l := NewEventList(2, 4)
	assert.True(t, l.Add(0, []byte{0x90, 60, 100}))
	assert.False(t, l.Add(0, []byte{0x80, 60, 0}), "byte capacity")
	assert.True(t, l.Add(0, []byte{0xF8}))
	assert.False(t, l.Add(0, []byte{0xF8}), "event capacity")
	assert.Equal(t, 2, l.Dropped())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Dropped())
	assert.True(t, l.Add(0, []byte{0x80, 60, 0}))
}

func TestEventListSortAndIterate(t *testing.T) {
	l := NewEventList(8, 64)
	l.Add(300, []byte{0x90, 62, 1})
	l.Add(100, []byte{0x90, 60, 1})
	l.Add(200, []byte{0x90, 61, 1})
	l.Add(100, []byte{0x80, 60, 0})
	l.Sort()

	it := l.Iterator()
	var offsets []int32
	var keys []byte
	for {
		msg, offset, ok := it.Next()
		if !ok {
			break
		}
		offsets = append(offsets, offset)
		keys = append(keys, msg[1])
	}
	assert.Equal(t, []int32{100, 100, 200, 300}, offsets)
	assert.Equal(t, []byte{60, 60, 61, 62}, keys)
}

func TestVLQ(t *testing.T) {
	tests := []struct {
		value uint32
		bytes []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x01}},
		{0x1234, []byte{0xB4, 0x24}},
		{0x2000, []byte{0x80, 0x40}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		buf := make([]byte, 4)
		n, ok := PutVLQ(buf, tt.value)
		require.True(t, ok)
		assert.Equal(t, tt.bytes, buf[:n])

		v, read, err := ReadVLQ(tt.bytes)
		require.NoError(t, err)
		assert.Equal(t, tt.value, v)
		assert.Equal(t, len(tt.bytes), read)
	}

	_, _, err := ReadVLQ([]byte{0x81})
	assert.ErrorIs(t, err, ErrInvalidVLQ)
	_, _, err = ReadVLQ([]byte{0x81, 0x81, 0x81, 0x81, 0x01})
	assert.ErrorIs(t, err, ErrInvalidVLQ)
	_, ok := PutVLQ(make([]byte, 1), 0x80)
	assert.False(t, ok)
}

func TestEventSize(t *testing.T) {
	tests := []struct {
		data []byte
		size int
	}{
		{[]byte{0x90, 1, 2}, 3},
		{[]byte{0xC3, 1}, 2},
		{[]byte{0xD0, 1}, 2},
		{[]byte{0xF1, 1}, 2},
		{[]byte{0xF2, 1, 2}, 3},
		{[]byte{0xF3, 1}, 2},
		{[]byte{0xF6}, 1},
		{[]byte{0xF8}, 1},
		{[]byte{0xFE}, 1},
		{[]byte{0xF0, 1, 2, 0xF7, 0x90}, 4},
		{[]byte{0xF0, 1, 2}, -1},
		{[]byte{0xF0, 1, 0xF8, 2, 0xF7}, 5},
		{[]byte{0xF0, 1, 2, 0x90, 60, 100, 0xF7}, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.size, EventSize(tt.data), "% x", tt.data)
	}
}

func writeStream(t *testing.T, timeDivision int32, body []byte) []byte {
	t.Helper()
	region := make([]byte, aap.Midi1HeaderSize+len(body)+8)
	require.True(t, aap.WriteMidi1Header(region, timeDivision, int32(len(body))))
	copy(region[aap.Midi1HeaderSize:], body)
	return region
}

func TestStreamDecodeRunningStatus(t *testing.T) {
	region := writeStream(t, 480, []byte{
		0x00, 0x90, 60, 100,
		0x00, 62, 100, // running status
		0x00, 0xF8, // realtime keeps running status
		0x00, 64, 100,
		0x00, 0xF0, 0x7E, 0x01, 0xF7,
	})
	l := NewEventList(16, 64)
	skipped := NewStreamDecoder().Decode(region, 48000, 256, l)
	assert.Equal(t, 0, skipped)
	require.Equal(t, 5, l.Len())

	msg, _ := l.At(1)
	assert.Equal(t, gomidi.Message{0x90, 62, 100}, msg)
	msg, _ = l.At(3)
	assert.Equal(t, gomidi.Message{0x90, 64, 100}, msg)
	msg, _ = l.At(4)
	assert.Equal(t, gomidi.Message{0xF0, 0x7E, 0x01, 0xF7}, msg)
}

func TestStreamDecodeTiming(t *testing.T) {
	// 480 ticks per quarter at 120 BPM is 960 ticks per second;
	// 96 ticks is 0.1s, 4800 samples at 48kHz.
	region := writeStream(t, 480, []byte{0x60, 0x90, 60, 100})
	l := NewEventList(4, 16)
	NewStreamDecoder().Decode(region, 48000, 8192, l)
	require.Equal(t, 1, l.Len())
	_, offset := l.At(0)
	assert.Equal(t, int32(4800), offset)

	// negative division counts ticks per second; offsets clamp to the block
	region = writeStream(t, -1000, []byte{0x80, 0x01, 0x90, 60, 100})
	l.Clear()
	NewStreamDecoder().Decode(region, 48000, 256, l)
	_, offset = l.At(0)
	assert.Equal(t, int32(255), offset)
}

func TestStreamDecodeMalformed(t *testing.T) {
	noteOn, noteOff := gomidi.Message{0x90, 60, 100}, gomidi.Message{0x80, 60, 0}
	tests := []struct {
		name    string
		td      int32
		body    []byte
		skipped int
		want    []gomidi.Message
		offsets []int32
	}{
		{
			name:    "trailing unterminated sysex",
			body:    []byte{0x00, 0x90, 60, 100, 0x00, 0xF0, 0x01, 0x02},
			skipped: 1,
			want:    []gomidi.Message{noteOn},
			offsets: []int32{0},
		},
		{
			name:    "unterminated sysex before notes",
			body:    []byte{0x00, 0xF0, 0x01, 0x02, 0x00, 0x90, 60, 100, 0x00, 0x80, 60, 0},
			skipped: 1,
			want:    []gomidi.Message{noteOn, noteOff},
			offsets: []int32{0, 0},
		},
		{
			name:    "data byte without status",
			td:      480,
			body:    []byte{0x00, 60, 0x60, 0x90, 60, 100},
			skipped: 1,
			want:    []gomidi.Message{noteOn},
			offsets: []int32{4800},
		},
		{
			name:    "oversized delta",
			body:    []byte{0x81, 0x81, 0x81, 0x81, 0x01, 0x00, 0x90, 60, 100, 0x00, 0x80, 60, 0},
			skipped: 1,
			want:    []gomidi.Message{noteOn, noteOff},
			offsets: []int32{0, 0},
		},
		{
			name:    "truncated final event",
			body:    []byte{0x00, 0x90, 60, 100, 0x00, 0x80, 60},
			skipped: 1,
			want:    []gomidi.Message{noteOn},
			offsets: []int32{0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEventList(16, 64)
			skipped := NewStreamDecoder().Decode(writeStream(t, tt.td, tt.body), 48000, 8192, l)
			assert.Equal(t, tt.skipped, skipped)
			require.Equal(t, len(tt.want), l.Len())
			for i := range tt.want {
				msg, offset := l.At(i)
				assert.Equal(t, tt.want[i], msg)
				assert.Equal(t, tt.offsets[i], offset)
			}
		})
	}
}

func TestStreamEncodeLayout(t *testing.T) {
	src := NewEventList(4, 16)
	// 0.2s at 960 ticks per second is 192 ticks, low group first
	src.Add(9600, gomidi.NoteOn(0, 60, 100))

	region := make([]byte, 32)
	require.Zero(t, EncodeStream(region, src, DefaultHostTimeDivision, aap.DefaultTempo, 48000))
	_, length, ok := aap.ReadMidi1Header(region)
	require.True(t, ok)
	assert.Equal(t, []byte{0xC0, 0x01, 0x90, 60, 100}, aap.Midi1Payload(region)[:length])
}

func TestStreamEncodeSortsEvents(t *testing.T) {
	src := NewEventList(4, 16)
	src.Add(200, gomidi.NoteOff(0, 60))
	src.Add(50, gomidi.NoteOn(0, 60, 100))

	region := make([]byte, 64)
	require.Zero(t, EncodeStream(region, src, DefaultHostTimeDivision, aap.DefaultTempo, 48000))

	dst := NewEventList(4, 16)
	NewStreamDecoder().Decode(region, 48000, 512, dst)
	require.Equal(t, 2, dst.Len())
	msg, offset := dst.At(0)
	assert.Equal(t, gomidi.Message{0x90, 60, 100}, msg)
	assert.Equal(t, int32(50), offset)
	msg, offset = dst.At(1)
	assert.Equal(t, gomidi.Message{0x80, 60, 0}, msg)
	assert.Equal(t, int32(200), offset)
}

func TestStreamEncodeDecode(t *testing.T) {
	src := NewEventList(8, 64)
	src.Add(0, gomidi.NoteOn(1, 60, 100))
	src.Add(100, gomidi.ControlChange(1, 7, 64))
	src.Add(200, gomidi.NoteOffVelocity(1, 60, 0))

	region := make([]byte, 128)
	dropped := EncodeStream(region, src, DefaultHostTimeDivision, aap.DefaultTempo, 48000)
	assert.Equal(t, 0, dropped)

	div, _, _ := aap.ReadMidi1Header(region)
	assert.Equal(t, DefaultHostTimeDivision, div)

	dst := NewEventList(8, 64)
	NewStreamDecoder().Decode(region, 48000, 512, dst)
	require.Equal(t, 3, dst.Len())
	for i := 0; i < 3; i++ {
		want, wantOffset := src.At(i)
		got, gotOffset := dst.At(i)
		assert.Equal(t, want, got)
		assert.Equal(t, wantOffset, gotOffset)
	}
}
