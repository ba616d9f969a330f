package port

import (
	"errors"
	"testing"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portsOf(specs ...aap.PortInfo) []aap.PortInfo {
	for i := range specs {
		specs[i].Index = int32(i)
	}
	return specs
}

func in(c aap.ContentType) aap.PortInfo {
	return aap.PortInfo{Direction: aap.PortDirectionInput, Content: c}
}

func out(c aap.ContentType) aap.PortInfo {
	return aap.PortInfo{Direction: aap.PortDirectionOutput, Content: c}
}

func TestBuildFromMetadata(t *testing.T) {
	ports := portsOf(
		in(aap.ContentTypeAudio),
		in(aap.ContentTypeAudio),
		out(aap.ContentTypeAudio),
		out(aap.ContentTypeAudio),
		in(aap.ContentTypeMidi2),
		out(aap.ContentTypeMidi2),
		in(aap.ContentTypeUndefined),
		in(aap.ContentTypeUndefined),
	)
	l := Layout{Inputs: 2, Outputs: 2, AcceptsMidi: true, ProducesMidi: true}
	m := Build(ports, l)

	assert.Equal(t, []int{0, 1}, m.Inputs)
	assert.Equal(t, []int{2, 3}, m.Outputs)
	assert.Equal(t, 4, m.MidiIn)
	assert.Equal(t, 5, m.MidiOut)
	assert.Equal(t, aap.ContentTypeMidi2, m.MidiInContent)
	assert.Equal(t, []int{6, 7}, m.ParameterPorts)
	assert.Empty(t, m.Unmapped)

	assert.Equal(t, Entry{Kind: KindAudioOut, Index: 1, Content: aap.ContentTypeAudio}, m.Entry(3))
	assert.Equal(t, Entry{Kind: KindParameter, Index: 1}, m.Entry(7))
	assert.Equal(t, KindUnmapped, m.Entry(99).Kind)
}

func TestBuildRecordsUnmappedPorts(t *testing.T) {
	ports := portsOf(
		out(aap.ContentTypeAudio),
		out(aap.ContentTypeAudio),
		out(aap.ContentTypeAudio),
		in(aap.ContentTypeMidi),
		in(aap.ContentTypeMidi),
		out(aap.ContentTypeUndefined),
	)
	m := Build(ports, Layout{Outputs: 2, AcceptsMidi: true})

	assert.Equal(t, []int{0, 1}, m.Outputs)
	assert.Equal(t, 3, m.MidiIn)
	assert.Equal(t, -1, m.MidiOut)
	assert.Equal(t, []int{2, 4, 5}, m.Unmapped)
}

func TestBuildMissingChannels(t *testing.T) {
	m := Build(portsOf(out(aap.ContentTypeAudio)), Layout{Outputs: 2})
	assert.Equal(t, []int{0, -1}, m.Outputs)
}

func TestPositional(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		inputs  []int
		outputs []int
		params  []int
		midiIn  int
		midiOut int
	}{
		{
			name:    "stereo effect",
			layout:  Layout{Inputs: 2, Outputs: 2},
			inputs:  []int{2, 3},
			outputs: []int{0, 1},
			midiIn:  -1,
			midiOut: -1,
		},
		{
			name:    "instrument",
			layout:  Layout{Outputs: 2, AcceptsMidi: true},
			inputs:  []int{},
			outputs: []int{0, 1},
			midiIn:  2,
			midiOut: -1,
		},
		{
			name:    "legacy parameters first",
			layout:  Layout{Inputs: 1, Outputs: 1, AcceptsMidi: true, ProducesMidi: true, Parameters: 3},
			inputs:  []int{4},
			outputs: []int{3},
			params:  []int{0, 1, 2},
			midiIn:  5,
			midiOut: 6,
		},
		{
			name:    "parameters in band",
			layout:  Layout{Inputs: 2, Outputs: 2, Midi2: true, ParameterEvents: true},
			inputs:  []int{2, 3},
			outputs: []int{0, 1},
			midiIn:  4,
			midiOut: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Positional(tt.layout)
			assert.Equal(t, tt.inputs, m.Inputs)
			assert.Equal(t, tt.outputs, m.Outputs)
			if tt.params == nil {
				assert.Empty(t, m.ParameterPorts)
			} else {
				assert.Equal(t, tt.params, m.ParameterPorts)
			}
			assert.Equal(t, tt.midiIn, m.MidiIn)
			assert.Equal(t, tt.midiOut, m.MidiOut)
			assert.Empty(t, m.Unmapped)
		})
	}
}

func TestPortsContent(t *testing.T) {
	ports := Ports(Layout{Outputs: 1, AcceptsMidi: true, Midi2: true})
	require.Len(t, ports, 2)
	assert.Equal(t, aap.ContentTypeMidi2, ports[1].Content)
	assert.Equal(t, int32(1), ports[1].Index)

	ports = Ports(Layout{Outputs: 1, AcceptsMidi: true})
	assert.Equal(t, aap.ContentTypeMidi, ports[1].Content)
}

func TestNoMidiPorts(t *testing.T) {
	m := Positional(Layout{Inputs: 2, Outputs: 2})
	assert.False(t, m.HasMidi())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{"matched", Layout{Inputs: 2, Outputs: 2}, false},
		{"instrument", Layout{Outputs: 2}, false},
		{"mismatch", Layout{Inputs: 1, Outputs: 2}, true},
		{"sidechain on main bus", Layout{Inputs: 4, Outputs: 2, MainInputs: 2, MainOutputs: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, aap.ErrChannelInOutNumMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromBuses(t *testing.T) {
	c := bus.NewEffectStereoSidechain()
	c.SetActive(bus.MediaTypeAudio, bus.DirectionInput, 1, true)

	l := FromBuses(c, false)
	assert.Equal(t, 2, l.Inputs)

	l = FromBuses(c, true)
	assert.Equal(t, 4, l.Inputs)
	assert.Equal(t, 2, l.MainInputs)
	assert.NoError(t, l.Validate())

	l = FromBuses(bus.NewInstrument(), false)
	assert.True(t, l.AcceptsMidi)
	assert.False(t, l.ProducesMidi)
}

func TestEqual(t *testing.T) {
	l := Layout{Inputs: 2, Outputs: 2, AcceptsMidi: true}
	a, b := Positional(l), Positional(l)
	assert.True(t, a.Equal(b))

	c := Positional(Layout{Inputs: 1, Outputs: 1})
	assert.False(t, a.Equal(c))

	var nilMap *Map
	assert.False(t, a.Equal(nilMap))
	assert.True(t, nilMap.Equal(nil))
}
