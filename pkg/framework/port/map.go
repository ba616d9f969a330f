// Package port maps the flat, indexed ports of a plugin buffer onto the
// channels and event streams of a native processor.
package port

import (
	"fmt"
	"slices"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
)

// Layout is the native side of the mapping.
type Layout struct {
	Inputs       int
	Outputs      int
	MainInputs   int
	MainOutputs  int
	AcceptsMidi  bool
	ProducesMidi bool
	// Midi2 selects UMP content for MIDI ports built positionally.
	Midi2 bool
	// Parameters is the number of leading parameter ports in positional
	// layouts. It is zero when parameters travel in-band on the MIDI port.
	Parameters int
	// ParameterEvents requires a MIDI input port for parameter changes
	// even when the processor takes no MIDI.
	ParameterEvents bool
}

// FromBuses derives a layout from a bus configuration. Without multiBus
// only the main audio buses count.
func FromBuses(c *bus.Configuration, multiBus bool) Layout {
	return Layout{
		Inputs:       c.ChannelCount(bus.DirectionInput, !multiBus),
		Outputs:      c.ChannelCount(bus.DirectionOutput, !multiBus),
		MainInputs:   c.ChannelCount(bus.DirectionInput, true),
		MainOutputs:  c.ChannelCount(bus.DirectionOutput, true),
		AcceptsMidi:  c.HasEventBus(bus.DirectionInput),
		ProducesMidi: c.HasEventBus(bus.DirectionOutput),
	}
}

// Validate checks the layout against the fixed topology of the plugin ABI:
// a processor with audio inputs must have as many main inputs as outputs.
func (l Layout) Validate() error {
	in, out := l.MainInputs, l.MainOutputs
	if in == 0 && out == 0 {
		in, out = l.Inputs, l.Outputs
	}
	if in > 0 && in != out {
		return fmt.Errorf("%d input channels, %d output channels: %w", in, out, aap.ErrChannelInOutNumMismatch)
	}
	return nil
}

// Kind says what a port is bound to.
type Kind int

const (
	KindUnmapped Kind = iota
	KindAudioIn
	KindAudioOut
	KindMidiIn
	KindMidiOut
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindAudioIn:
		return "audio-in"
	case KindAudioOut:
		return "audio-out"
	case KindMidiIn:
		return "midi-in"
	case KindMidiOut:
		return "midi-out"
	case KindParameter:
		return "parameter"
	default:
		return "unmapped"
	}
}

// Entry binds one plugin port. Index is the native channel for audio ports
// and the parameter index for parameter ports.
type Entry struct {
	Kind    Kind
	Index   int
	Content aap.ContentType
}

// Map is a bidirectional association between plugin port indices and
// native channels. It is rebuilt on every prepare.
type Map struct {
	Entries []Entry
	// Inputs and Outputs map native channels to plugin ports.
	Inputs  []int
	Outputs []int
	// ParameterPorts maps parameter indices to plugin ports.
	ParameterPorts []int

	MidiIn         int
	MidiOut        int
	MidiInContent  aap.ContentType
	MidiOutContent aap.ContentType

	Unmapped []int
}

func newMap(numPorts int, l Layout) *Map {
	m := &Map{
		Entries: make([]Entry, numPorts),
		Inputs:  make([]int, l.Inputs),
		Outputs: make([]int, l.Outputs),
		MidiIn:  -1,
		MidiOut: -1,
	}
	for i := range m.Inputs {
		m.Inputs[i] = -1
	}
	for i := range m.Outputs {
		m.Outputs[i] = -1
	}
	return m
}

// Build maps declared ports onto layout. Audio ports take native channels
// in declaration order, the first MIDI port in each direction becomes the
// MIDI input or output, and undefined inputs become parameter ports in
// order. Ports that fit nowhere are recorded in Unmapped and logged.
func Build(ports []aap.PortInfo, l Layout) *Map {
	m := newMap(len(ports), l)
	in, out := 0, 0

	for i, p := range ports {
		e := Entry{Content: p.Content}
		switch {
		case p.Content == aap.ContentTypeAudio && p.Direction == aap.PortDirectionInput:
			if in < l.Inputs {
				e.Kind, e.Index = KindAudioIn, in
				m.Inputs[in] = i
				in++
			}
		case p.Content == aap.ContentTypeAudio:
			if out < l.Outputs {
				e.Kind, e.Index = KindAudioOut, out
				m.Outputs[out] = i
				out++
			}
		case p.Content.IsMidi() && p.Direction == aap.PortDirectionInput:
			if m.MidiIn < 0 {
				e.Kind = KindMidiIn
				m.MidiIn, m.MidiInContent = i, p.Content
			}
		case p.Content.IsMidi():
			if m.MidiOut < 0 {
				e.Kind = KindMidiOut
				m.MidiOut, m.MidiOutContent = i, p.Content
			}
		case p.IsControl():
			e.Kind, e.Index = KindParameter, len(m.ParameterPorts)
			m.ParameterPorts = append(m.ParameterPorts, i)
		}
		m.Entries[i] = e
		if e.Kind == KindUnmapped {
			m.Unmapped = append(m.Unmapped, i)
		}
	}

	if len(m.Unmapped) > 0 {
		debug.Default().WithField("component", "port").
			Warn("%d of %d ports unmapped: %v", len(m.Unmapped), len(ports), m.Unmapped)
	}
	if in < l.Inputs || out < l.Outputs {
		debug.Default().WithField("component", "port").
			Warn("ports cover %d/%d input and %d/%d output channels", in, l.Inputs, out, l.Outputs)
	}
	return m
}

// Ports lists the ports a positional layout implies: parameter ports,
// audio outputs, audio inputs, then MIDI in and MIDI out.
func Ports(l Layout) []aap.PortInfo {
	midi := aap.ContentTypeMidi
	if l.Midi2 {
		midi = aap.ContentTypeMidi2
	}
	var ports []aap.PortInfo
	add := func(name string, dir aap.PortDirection, content aap.ContentType) {
		ports = append(ports, aap.PortInfo{Index: int32(len(ports)), Name: name, Direction: dir, Content: content})
	}
	for i := 0; i < l.Parameters; i++ {
		add(fmt.Sprintf("Parameter %d", i), aap.PortDirectionInput, aap.ContentTypeUndefined)
	}
	for i := 0; i < l.Outputs; i++ {
		add(fmt.Sprintf("Audio Out %d", i), aap.PortDirectionOutput, aap.ContentTypeAudio)
	}
	for i := 0; i < l.Inputs; i++ {
		add(fmt.Sprintf("Audio In %d", i), aap.PortDirectionInput, aap.ContentTypeAudio)
	}
	if l.AcceptsMidi || l.ParameterEvents {
		add("MIDI In", aap.PortDirectionInput, midi)
	}
	if l.ProducesMidi {
		add("MIDI Out", aap.PortDirectionOutput, midi)
	}
	return ports
}

// Positional builds the map used when a plugin declares no ports.
func Positional(l Layout) *Map {
	return Build(Ports(l), l)
}

// NumPorts returns the number of plugin ports covered by the map.
func (m *Map) NumPorts() int {
	return len(m.Entries)
}

// Entry returns the binding of port, or an unmapped entry when port is out
// of range.
func (m *Map) Entry(port int) Entry {
	if port < 0 || port >= len(m.Entries) {
		return Entry{}
	}
	return m.Entries[port]
}

// HasMidi reports whether either MIDI port is mapped.
func (m *Map) HasMidi() bool {
	return m.MidiIn >= 0 || m.MidiOut >= 0
}

// Equal reports whether two maps bind every port identically.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	return slices.Equal(m.Entries, o.Entries) &&
		slices.Equal(m.Inputs, o.Inputs) &&
		slices.Equal(m.Outputs, o.Outputs) &&
		slices.Equal(m.ParameterPorts, o.ParameterPorts) &&
		m.MidiIn == o.MidiIn && m.MidiOut == o.MidiOut &&
		m.MidiInContent == o.MidiInContent && m.MidiOutContent == o.MidiOutContent
}
