package midi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOnEvent{
		BaseEvent: BaseEvent{
			EventChannel: 0,
			Offset:       100,
		},
		NoteNumber: 60, // Middle C
		Velocity:   64,
	}

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}

	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	events := []Event{
		NoteOnEvent{BaseEvent: BaseEvent{EventChannel: 2, Offset: 10}, NoteNumber: 60, Velocity: 100},
		NoteOffEvent{BaseEvent: BaseEvent{EventChannel: 2, Offset: 20}, NoteNumber: 60, Velocity: 30},
		ControlChangeEvent{BaseEvent: BaseEvent{EventChannel: 15, Offset: 30}, Controller: CCSustain, Value: 127},
		ProgramChangeEvent{BaseEvent: BaseEvent{EventChannel: 1, Offset: 40}, Program: 12},
		PolyPressureEvent{BaseEvent: BaseEvent{EventChannel: 3, Offset: 50}, NoteNumber: 64, Pressure: 90},
		ChannelPressureEvent{BaseEvent: BaseEvent{EventChannel: 4, Offset: 60}, Pressure: 70},
		PitchBendEvent{BaseEvent: BaseEvent{EventChannel: 5, Offset: 70}, Value: -1234},
	}

	for _, e := range events {
		parsed, ok := Parse(e.Message(), e.SampleOffset())
		require.True(t, ok, e.String())
		assert.Equal(t, e, parsed)
	}
}

func TestParseNoteOnZeroVelocity(t *testing.T) {
	e, ok := Parse(gomidi.Message{0x91, 60, 0}, 5)
	require.True(t, ok)
	assert.Equal(t, EventTypeNoteOff, e.Type())
	assert.Equal(t, uint8(1), e.Channel())
}

func TestParseSystem(t *testing.T) {
	e, ok := Parse(gomidi.Message{0xF0, 0x7E, 0x01, 0xF7}, 0)
	require.True(t, ok)
	assert.Equal(t, EventTypeSystemExclusive, e.Type())

	e, ok = Parse(gomidi.Message{0xF8}, 0)
	require.True(t, ok)
	assert.Equal(t, EventTypeClock, e.Type())

	_, ok = Parse(nil, 0)
	assert.False(t, ok)
}

func TestPitchBendEvent(t *testing.T) {
	tests := []struct {
		value      int16
		normalized float64
	}{
		{0, 0.0},
		{-8192, -1.0},
		{4096, 0.5},
		{-4096, -0.5},
	}

	for _, tt := range tests {
		event := PitchBendEvent{Value: tt.value}
		if diff := math.Abs(event.NormalizedValue() - tt.normalized); diff > 0.01 {
			t.Errorf("For value %d, expected normalized %f, got %f", tt.value, tt.normalized, event.NormalizedValue())
		}
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		note uint8
		freq float64
	}{
		{69, 440.0},  // A4
		{60, 261.63}, // Middle C (C4)
		{57, 220.0},  // A3
		{81, 880.0},  // A5
	}

	for _, tt := range tests {
		freq := NoteToFrequency(tt.note, 440.0)
		if diff := math.Abs(freq - tt.freq); diff > 0.1 {
			t.Errorf("For note %d, expected frequency %f, got %f", tt.note, tt.freq, freq)
		}
	}
}

func TestNoteNumberToName(t *testing.T) {
	tests := []struct {
		note uint8
		name string
	}{
		{60, "C4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{61, "C#4"},
	}

	for _, tt := range tests {
		if name := NoteNumberToName(tt.note); name != tt.name {
			t.Errorf("For note %d, expected name %s, got %s", tt.note, tt.name, name)
		}
	}
}
