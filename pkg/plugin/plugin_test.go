package plugin

import (
	"errors"
	"testing"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	fw "github.com/justyntemme/aapgo/pkg/framework/plugin"
	"github.com/justyntemme/aapgo/pkg/framework/process"
	"github.com/justyntemme/aapgo/pkg/framework/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// newGain is a stereo effect scaling its input by the Gain parameter.
func newGain() fw.Processor {
	p := fw.NewBaseProcessor(bus.NewEffectStereo())
	p.Parameters().Add(param.New(0, "Gain").Default(1).Build())
	p.OnProcess(func(ctx *process.Context) {
		g := float32(ctx.Param(0))
		ctx.ProcessChannels(func(_ int, in, out []float32) {
			for i := range out {
				out[i] = in[i] * g
			}
		})
	})
	return p
}

// newThru copies every incoming MIDI event to its output.
func newThru() fw.Processor {
	return fw.NewSimpleProcessor(bus.NewMidiEffect(), func(ctx *process.Context) {
		ctx.ForEachEvent(func(msg gomidi.Message, offset int32) {
			ctx.Emit(offset, msg)
		})
	})
}

// programProc is a gain processor with programs that set the gain.
type programProc struct {
	*fw.BaseProcessor
	programs []string
	gains    []float64
	current  int
}

func newProgramProc() fw.Processor {
	p := &programProc{
		BaseProcessor: newGain().(*fw.BaseProcessor),
		programs:      []string{"Unity", "Half", "Mute"},
		gains:         []float64{1, 0.5, 0},
	}
	return p
}

func (p *programProc) NumPrograms() int    { return len(p.programs) }
func (p *programProc) CurrentProgram() int { return p.current }

func (p *programProc) SetCurrentProgram(i int) {
	p.current = i
	p.Parameters().Get(0).SetValue(p.gains[i])
}

func (p *programProc) ProgramName(i int) string { return p.programs[i] }

var _ state.Programs = (*programProc)(nil)

func register(t *testing.T, id string, ctor fw.Constructor, caps Capabilities) *Registration {
	t.Helper()
	r, err := Register(id, fw.Info{Name: id, Vendor: "aapgo", Version: "1.0.0", Category: "Effect"}, ctor, caps)
	require.NoError(t, err)
	t.Cleanup(func() { Unregister(id) })
	return r
}

func TestRegister(t *testing.T) {
	register(t, "test.register", newGain, 0)

	_, err := Register("test.register", fw.Info{}, newGain, 0)
	assert.Error(t, err, "duplicate id")

	_, err = Register("test.other", fw.Info{ID: "test.mismatch"}, newGain, 0)
	assert.Error(t, err)

	_, err = Register("test.nil", fw.Info{}, nil, 0)
	assert.Error(t, err)

	_, err = Register("bad id", fw.Info{}, newGain, 0)
	assert.Error(t, err)

	r, ok := Lookup("test.register")
	require.True(t, ok)
	assert.Equal(t, "test.register", r.Info.ID)

	Unregister("test.register")
	_, ok = Lookup("test.register")
	assert.False(t, ok)
}

func TestRegisteredOrder(t *testing.T) {
	register(t, "test.order.b", newGain, 0)
	register(t, "test.order.a", newGain, 0)

	var ids []string
	for _, r := range Registered() {
		if r.ID == "test.order.a" || r.ID == "test.order.b" {
			ids = append(ids, r.ID)
		}
	}
	assert.Equal(t, []string{"test.order.b", "test.order.a"}, ids)
}

func TestCapabilitiesString(t *testing.T) {
	assert.Equal(t, "none", Capabilities(0).String())
	assert.Equal(t, "midi2|multi-bus", (CapMidi2 | CapMultiBus).String())
	assert.True(t, (CapMidi2 | CapHostedParameters).Has(CapHostedParameters))
	assert.False(t, CapMidi2.Has(CapMidi2|CapMultiBus))
}

func TestPluginInformation(t *testing.T) {
	tests := []struct {
		name       string
		ctor       fw.Constructor
		caps       Capabilities
		ports      []aap.ContentType
		extensions []aap.ExtensionID
	}{
		{
			name: "parameter ports",
			ctor: newGain,
			ports: []aap.ContentType{
				aap.ContentTypeUndefined,
				aap.ContentTypeAudio, aap.ContentTypeAudio,
				aap.ContentTypeAudio, aap.ContentTypeAudio,
			},
			extensions: []aap.ExtensionID{aap.ExtensionPluginInfo, aap.ExtensionState, aap.ExtensionParameters},
		},
		{
			name: "hosted parameters",
			ctor: newGain,
			caps: CapHostedParameters | CapMidi2,
			ports: []aap.ContentType{
				aap.ContentTypeAudio, aap.ContentTypeAudio,
				aap.ContentTypeAudio, aap.ContentTypeAudio,
				aap.ContentTypeMidi2,
			},
			extensions: []aap.ExtensionID{aap.ExtensionPluginInfo, aap.ExtensionState, aap.ExtensionParameters, aap.ExtensionMidi},
		},
		{
			name:       "midi effect",
			ctor:       newThru,
			ports:      []aap.ContentType{aap.ContentTypeMidi, aap.ContentTypeMidi},
			extensions: []aap.ExtensionID{aap.ExtensionPluginInfo, aap.ExtensionState},
		},
		{
			name: "programs",
			ctor: newProgramProc,
			ports: []aap.ContentType{
				aap.ContentTypeUndefined,
				aap.ContentTypeAudio, aap.ContentTypeAudio,
				aap.ContentTypeAudio, aap.ContentTypeAudio,
			},
			extensions: []aap.ExtensionID{aap.ExtensionPluginInfo, aap.ExtensionState, aap.ExtensionPresets, aap.ExtensionParameters},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := register(t, "test.info", tt.ctor, tt.caps)
			info := r.PluginInformation()
			assert.Same(t, info, r.PluginInformation())

			var contents []aap.ContentType
			for _, p := range info.Ports {
				contents = append(contents, p.Content)
			}
			assert.Equal(t, tt.ports, contents)

			for _, id := range tt.extensions {
				assert.True(t, info.HasExtension(id), id.URI())
			}
			assert.Len(t, info.Extensions, len(tt.extensions))
		})
	}
}

func TestDeclaredPorts(t *testing.T) {
	r := register(t, "test.declared", newGain, CapHostedParameters).WithPorts(
		aap.PortInfo{Index: 0, Name: "L In", Direction: aap.PortDirectionInput, Content: aap.ContentTypeAudio},
		aap.PortInfo{Index: 1, Name: "R In", Direction: aap.PortDirectionInput, Content: aap.ContentTypeAudio},
		aap.PortInfo{Index: 2, Name: "L Out", Direction: aap.PortDirectionOutput, Content: aap.ContentTypeAudio},
		aap.PortInfo{Index: 3, Name: "R Out", Direction: aap.PortDirectionOutput, Content: aap.ContentTypeAudio},
		aap.PortInfo{Index: 4, Name: "Events", Direction: aap.PortDirectionInput, Content: aap.ContentTypeMidi2},
	)
	assert.Equal(t, "L In", r.PluginInformation().Ports[0].Name)

	w := instantiate(t, "test.declared")
	buf := aap.AllocateBuffers(r.Ports, 8)
	require.NoError(t, w.Prepare(buf))
	assert.Equal(t, []int{0, 1}, w.PortMap().Inputs)
	assert.Equal(t, []int{2, 3}, w.PortMap().Outputs)
	assert.Equal(t, 4, w.PortMap().MidiIn)
}

func TestInstantiate(t *testing.T) {
	register(t, "test.instantiate", newGain, 0)
	f := Factory()

	_, err := f.Instantiate("test.missing", 48000, nil)
	assert.Error(t, err)

	_, err = f.Instantiate("test.instantiate", 0, nil)
	assert.Error(t, err)

	before := NumInstances()
	p, err := f.Instantiate("test.instantiate", 48000, &aap.HostInfo{Name: "test"})
	require.NoError(t, err)
	w := p.(*Wrapper)
	assert.Equal(t, before+1, NumInstances())

	got, ok := Instance(w.ID())
	require.True(t, ok)
	assert.Same(t, w, got)

	f.Release(p)
	assert.Equal(t, before, NumInstances())
	_, ok = Instance(w.ID())
	assert.False(t, ok)

	_, ok = Instance("not-an-id")
	assert.False(t, ok)
}

func TestInstantiatePanic(t *testing.T) {
	register(t, "test.panic", func() fw.Processor { panic("boom") }, 0)
	_, err := Factory().Instantiate("test.panic", 48000, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	register(t, "test.nilproc", func() fw.Processor { return nil }, 0)
	_, err = Factory().Instantiate("test.nilproc", 48000, nil)
	assert.Error(t, err)
}

func instantiate(t *testing.T, id string) *Wrapper {
	t.Helper()
	p, err := Factory().Instantiate(id, 48000, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Factory().Release(p) })
	return p.(*Wrapper)
}

func TestExtensions(t *testing.T) {
	register(t, "test.ext", newProgramProc, CapMidi2)
	w := instantiate(t, "test.ext")

	info, ok := aap.GetExtension[aap.PluginInfoExtension](w, aap.ExtensionPluginInfo)
	require.True(t, ok)
	assert.Equal(t, "test.ext", info.PluginInfo().PluginID)

	params, ok := aap.GetExtension[aap.ParametersExtension](w, aap.ExtensionParameters)
	require.True(t, ok)
	assert.Equal(t, 1, params.ParameterCount())

	m, ok := aap.GetExtension[aap.MidiExtension](w, aap.ExtensionMidi)
	require.True(t, ok)
	assert.Equal(t, aap.MidiProtocol2, m.Protocol())

	_, ok = aap.GetExtension[aap.StateExtension](w, aap.ExtensionState)
	assert.True(t, ok)
	_, ok = aap.GetExtension[aap.PresetsExtension](w, aap.ExtensionPresets)
	assert.True(t, ok)

	assert.Nil(t, w.Extension(aap.ExtensionGui))
	_, ok = aap.GetExtension[aap.StateExtension](w, aap.ExtensionParameters)
	assert.False(t, ok, "wrong extension type")
}

func TestStateExtension(t *testing.T) {
	register(t, "test.state", newGain, 0)
	src := instantiate(t, "test.state")
	src.Parameters().Set(0, 0.25)

	ext, _ := aap.GetExtension[aap.StateExtension](src, aap.ExtensionState)
	size := ext.StateSize()
	data := ext.State(nil)
	assert.Equal(t, size, len(data))

	dst := instantiate(t, "test.state")
	dstExt, _ := aap.GetExtension[aap.StateExtension](dst, aap.ExtensionState)
	require.NoError(t, dstExt.SetState(data))
	assert.Equal(t, 0.25, dst.Parameters().Value(0))

	err := dstExt.SetState([]byte("garbage"))
	require.Error(t, err)
	assert.Equal(t, err, dst.LastError())
}

func TestPresetsExtension(t *testing.T) {
	register(t, "test.presets", newProgramProc, 0)
	w := instantiate(t, "test.presets")
	presets, ok := aap.GetExtension[aap.PresetsExtension](w, aap.ExtensionPresets)
	require.True(t, ok)

	assert.Equal(t, 3, presets.PresetCount())
	p, err := presets.Preset(1, true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.ID)
	assert.Equal(t, "Half", p.Name)
	assert.NotEmpty(t, p.Data)
	assert.Equal(t, 0, presets.PresetIndex(), "current program restored")

	require.NoError(t, presets.SetPresetIndex(2))
	assert.Equal(t, 2, presets.PresetIndex())
	assert.Equal(t, 0.0, w.Parameters().Value(0))

	assert.Error(t, presets.SetPresetIndex(3))
	_, err = presets.Preset(-1, false)
	assert.Error(t, err)
}

func TestPerInstanceErrors(t *testing.T) {
	register(t, "test.errors", newGain, 0)
	a := instantiate(t, "test.errors")
	b := instantiate(t, "test.errors")

	assert.True(t, errors.Is(a.Process(nil, 8, 0), aap.ErrNotPrepared))
	assert.Equal(t, aap.ErrNotPrepared, a.LastError())
	assert.NoError(t, b.LastError())

	a.ClearError()
	assert.NoError(t, a.LastError())
}
