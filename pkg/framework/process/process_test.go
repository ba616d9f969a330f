package process

import (
	"testing"

	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func channels(n, frames int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

func TestContextParams(t *testing.T) {
	r := param.NewRegistry()
	require.NoError(t, r.Add(param.New(1, "Cutoff").Range(20, 20000).Default(20000).Build()))
	ctx := NewContext(64, r)

	assert.Equal(t, 1.0, ctx.Param(1))
	assert.Equal(t, 20000.0, ctx.ParamPlain(1))
	assert.Zero(t, ctx.Param(2))

	assert.Zero(t, NewContext(64, nil).Param(1))
}

func TestContextBuffers(t *testing.T) {
	ctx := NewContext(128, nil)
	ctx.Input = channels(2, 64)
	ctx.Output = channels(2, 64)
	assert.Equal(t, 64, ctx.NumSamples())
	assert.Len(t, ctx.WorkBuffer(), 64)

	ctx.Frames = 32
	assert.Len(t, ctx.TempBuffer(), 32)

	ctx.Input[0][3] = 0.5
	ctx.PassThrough()
	assert.Equal(t, float32(0.5), ctx.Output[0][3])
	ctx.Clear()
	assert.Zero(t, ctx.Output[0][3])
}

func TestContextEvents(t *testing.T) {
	ctx := NewContext(512, nil)
	assert.False(t, ctx.HasInputEvents())

	ctx.Events = midi.NewEventList(8, 64)
	ctx.OutEvents = midi.NewEventList(8, 64)
	ctx.Events.Add(50, gomidi.NoteOn(0, 60, 100))
	ctx.Events.Add(150, gomidi.NoteOn(0, 61, 100))
	ctx.Events.Add(250, gomidi.NoteOn(0, 62, 100))
	assert.True(t, ctx.HasInputEvents())

	var offsets []int32
	ctx.EventsInRange(100, 300, func(msg gomidi.Message, offset int32) {
		offsets = append(offsets, offset)
	})
	assert.Equal(t, []int32{150, 250}, offsets)

	assert.True(t, ctx.Emit(10, gomidi.ControlChange(0, midi.CCVolume, 100)))
	assert.Equal(t, 1, ctx.OutEvents.Len())

	ctx.ClearEvents()
	assert.False(t, ctx.HasInputEvents())
	assert.Zero(t, ctx.OutEvents.Len())
}

func TestEmitWithoutOutputList(t *testing.T) {
	ctx := NewContext(16, nil)
	assert.False(t, ctx.Emit(0, gomidi.NoteOn(0, 60, 1)))
}

func TestPlayHead(t *testing.T) {
	p := NewPlayHead(0)
	assert.Equal(t, 120.0, p.BPM)

	p.Playing = true
	p.Advance(24000, 48000)
	p.Advance(24000, 48000)
	assert.Equal(t, int64(48000), p.TimeInSamples)
	assert.Equal(t, 1.0, p.TimeInSeconds)
	assert.Equal(t, 2.0, p.PPQPosition)

	p.Reset()
	assert.False(t, p.Playing)
	assert.Zero(t, p.TimeInSamples)
	assert.Equal(t, 120.0, p.BPM)
}

func TestHelpers(t *testing.T) {
	ctx := NewContext(8, nil)
	ctx.Input = channels(3, 8)
	ctx.Output = channels(2, 8)
	assert.Equal(t, 2, ctx.GetNumChannels())

	var seen []int
	ctx.ProcessChannels(func(ch int, in, out []float32) { seen = append(seen, ch) })
	assert.Equal(t, []int{0, 1}, seen)

	n := 0
	ctx.ProcessMono(func(in, out []float32) { n++ })
	assert.Equal(t, 1, n)

	ctx.Input = nil
	ctx.Frames = 4
	ctx.ProcessOutputs(func(ch int, out []float32) {
		assert.Len(t, out, 4)
		out[0] = 1
	})
	assert.Equal(t, float32(1), ctx.Output[1][0])
}

func TestMultiBusContext(t *testing.T) {
	cfg := bus.NewEffectStereoSidechain()
	ctx := NewContext(16, nil)
	ctx.Input = channels(4, 16)
	ctx.Output = channels(2, 16)

	m := NewMultiBusContext(ctx, cfg)
	assert.Same(t, m, ctx.Buses)
	assert.Len(t, m.GetMainInput(), 2)
	assert.Nil(t, m.GetSidechainInput(), "aux bus starts inactive")

	cfg.SetActive(bus.MediaTypeAudio, bus.DirectionInput, 1, true)
	m = NewMultiBusContext(ctx, cfg)
	require.Equal(t, 2, m.NumInputBuses())
	side := m.GetSidechainInput()
	require.Len(t, side, 2)
	ctx.Input[2][0] = 0.25
	assert.Equal(t, float32(0.25), side[0][0])

	called := false
	m.ProcessWithSidechain(func(main, sc, out [][]float32) {
		called = true
		assert.Len(t, sc, 2)
	})
	assert.True(t, called)

	ctx.Output[1][5] = 1
	m.ClearAllOutputs()
	assert.Zero(t, ctx.Output[1][5])

	ctx.Input = channels(4, 16)
	m.Bind()
	assert.Zero(t, m.GetInputBus(1)[0][0])
	assert.Nil(t, m.GetOutputBus(3))
}
