// Package midi holds the byte-stream MIDI 1.0 side of the bridge: the
// native event list, typed event views and the legacy port codec.
package midi

import (
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
	EventTypeSystemExclusive
	EventTypeClock
	EventTypeStart
	EventTypeStop
	EventTypeContinue
	EventTypeReset
	EventTypeActiveSensing
)

type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	Message() gomidi.Message
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) Message() gomidi.Message {
	return gomidi.NoteOn(e.EventChannel, e.NoteNumber, e.Velocity)
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) Message() gomidi.Message {
	return gomidi.NoteOffVelocity(e.EventChannel, e.NoteNumber, e.Velocity)
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) Message() gomidi.Message {
	return gomidi.ControlChange(e.EventChannel, e.Controller, e.Value)
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

const (
	CCBankSelect     uint8 = 0
	CCModWheel       uint8 = 1
	CCBreath         uint8 = 2
	CCFoot           uint8 = 4
	CCPortamentoTime uint8 = 5
	CCDataEntry      uint8 = 6
	CCVolume         uint8 = 7
	CCBalance        uint8 = 8
	CCPan            uint8 = 10
	CCExpression     uint8 = 11
	CCBankSelectLSB  uint8 = 32
	CCDataEntryLSB   uint8 = 38
	CCSustain        uint8 = 64
	CCPortamento     uint8 = 65
	CCSostenuto      uint8 = 66
	CCSoft           uint8 = 67
	CCLegato         uint8 = 68
	CCHold2          uint8 = 69
	CCNRPNLSB        uint8 = 98
	CCNRPNMSB        uint8 = 99
	CCRPNLSB         uint8 = 100
	CCRPNMSB         uint8 = 101
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCLocalControl   uint8 = 122
	CCAllNotesOff    uint8 = 123
)

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

func (e PitchBendEvent) Type() EventType {
	return EventTypePitchBend
}

func (e PitchBendEvent) Message() gomidi.Message {
	return gomidi.Pitchbend(e.EventChannel, e.Value)
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
		e.EventChannel, e.Value, e.Offset)
}

func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

type PolyPressureEvent struct {
	BaseEvent
	NoteNumber uint8
	Pressure   uint8
}

func (e PolyPressureEvent) Type() EventType {
	return EventTypePolyPressure
}

func (e PolyPressureEvent) Message() gomidi.Message {
	return gomidi.PolyAfterTouch(e.EventChannel, e.NoteNumber, e.Pressure)
}

func (e PolyPressureEvent) String() string {
	return fmt.Sprintf("PolyPressure{ch:%d, note:%d, pressure:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Pressure, e.Offset)
}

type ChannelPressureEvent struct {
	BaseEvent
	Pressure uint8
}

func (e ChannelPressureEvent) Type() EventType {
	return EventTypeChannelPressure
}

func (e ChannelPressureEvent) Message() gomidi.Message {
	return gomidi.AfterTouch(e.EventChannel, e.Pressure)
}

func (e ChannelPressureEvent) String() string {
	return fmt.Sprintf("ChannelPressure{ch:%d, pressure:%d, offset:%d}",
		e.EventChannel, e.Pressure, e.Offset)
}

type ProgramChangeEvent struct {
	BaseEvent
	Program uint8
}

func (e ProgramChangeEvent) Type() EventType {
	return EventTypeProgramChange
}

func (e ProgramChangeEvent) Message() gomidi.Message {
	return gomidi.ProgramChange(e.EventChannel, e.Program)
}

func (e ProgramChangeEvent) String() string {
	return fmt.Sprintf("ProgramChange{ch:%d, prog:%d, offset:%d}",
		e.EventChannel, e.Program, e.Offset)
}

// SysExEvent carries a complete system exclusive message including F0 and F7.
type SysExEvent struct {
	BaseEvent
	Data []byte
}

func (e SysExEvent) Type() EventType {
	return EventTypeSystemExclusive
}

func (e SysExEvent) Message() gomidi.Message {
	return gomidi.Message(e.Data)
}

func (e SysExEvent) String() string {
	return fmt.Sprintf("SysEx{len:%d, offset:%d}", len(e.Data), e.Offset)
}

// RealtimeEvent covers clock, start, stop, continue, reset and active sensing.
type RealtimeEvent struct {
	BaseEvent
	Status uint8
}

func (e RealtimeEvent) Type() EventType {
	switch e.Status {
	case 0xF8:
		return EventTypeClock
	case 0xFA:
		return EventTypeStart
	case 0xFB:
		return EventTypeContinue
	case 0xFC:
		return EventTypeStop
	case 0xFE:
		return EventTypeActiveSensing
	default:
		return EventTypeReset
	}
}

func (e RealtimeEvent) Message() gomidi.Message {
	return gomidi.Message{e.Status}
}

func (e RealtimeEvent) String() string {
	return fmt.Sprintf("Realtime{status:%#x, offset:%d}", e.Status, e.Offset)
}

// Parse converts a raw message into a typed event. The returned SysExEvent
// aliases msg.
func Parse(msg gomidi.Message, offset int32) (Event, bool) {
	if len(msg) == 0 {
		return nil, false
	}
	status := msg[0]
	ch := status & 0x0F
	base := BaseEvent{EventChannel: ch, Offset: offset}
	data := func(i int) uint8 {
		if i < len(msg) {
			return msg[i] & 0x7F
		}
		return 0
	}

	switch status & 0xF0 {
	case 0x80:
		return NoteOffEvent{BaseEvent: base, NoteNumber: data(1), Velocity: data(2)}, true
	case 0x90:
		if data(2) == 0 {
			return NoteOffEvent{BaseEvent: base, NoteNumber: data(1)}, true
		}
		return NoteOnEvent{BaseEvent: base, NoteNumber: data(1), Velocity: data(2)}, true
	case 0xA0:
		return PolyPressureEvent{BaseEvent: base, NoteNumber: data(1), Pressure: data(2)}, true
	case 0xB0:
		return ControlChangeEvent{BaseEvent: base, Controller: data(1), Value: data(2)}, true
	case 0xC0:
		return ProgramChangeEvent{BaseEvent: base, Program: data(1)}, true
	case 0xD0:
		return ChannelPressureEvent{BaseEvent: base, Pressure: data(1)}, true
	case 0xE0:
		v := int16(uint16(data(2))<<7|uint16(data(1))) - 8192
		return PitchBendEvent{BaseEvent: base, Value: v}, true
	}

	switch {
	case status == 0xF0:
		return SysExEvent{BaseEvent: BaseEvent{Offset: offset}, Data: msg}, true
	case status >= 0xF8:
		return RealtimeEvent{BaseEvent: BaseEvent{Offset: offset}, Status: status}, true
	}
	return nil, false
}

func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Pow(2, (float64(note)-69.0)/12.0)
}

func NoteNumberToName(note uint8) string {
	noteNames := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	noteName := noteNames[note%12]
	return fmt.Sprintf("%s%d", noteName, octave)
}
