package host

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	fw "github.com/justyntemme/aapgo/pkg/framework/plugin"
	"github.com/justyntemme/aapgo/pkg/framework/port"
	"github.com/justyntemme/aapgo/pkg/framework/process"
	"github.com/justyntemme/aapgo/pkg/framework/state"
	"github.com/justyntemme/aapgo/pkg/metric"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/transcode"
	"github.com/justyntemme/aapgo/pkg/ump"
	"github.com/rs/xid"
)

// Instance is a hosted plugin presented as a native processor.
//
// PrepareToPlay, ReleaseResources, Dispose and the program and state
// methods belong to the control thread; ProcessBlock to the audio thread.
type Instance struct {
	id         xid.ID
	desc       PluginDescription
	factory    aap.Factory
	plugin     aap.Plugin
	opts       Options
	sampleRate float64
	log        *debug.Logger
	errLog     *debug.RateLimiter
	perf       *debug.PerfGuard
	meter      *metric.Meter

	buses   *bus.Configuration
	pmap    *port.Map
	params  []*HostedParameter
	inBand  bool
	state   aap.StateExtension
	presets aap.PresetsExtension

	regions  [][]byte
	mapped   []bool
	buffers  *aap.Buffers
	maxBlock int
	active   atomic.Bool
	disposed bool

	encoder *transcode.Encoder
	decoder *transcode.Decoder
	stream  *midi.StreamDecoder
	writer  ump.Writer
}

func newInstance(desc PluginDescription, factory aap.Factory, p aap.Plugin, sampleRate float64, opts Options) *Instance {
	i := &Instance{
		id:         xid.New(),
		desc:       desc,
		factory:    factory,
		plugin:     p,
		opts:       opts,
		sampleRate: sampleRate,
		errLog:     debug.NewRateLimiter(debug.DefaultPerfWarnings),
		meter:      metric.For("host/" + desc.Identifier),
		decoder:    transcode.NewDecoder(opts.SysexScratchSize),
		stream:     midi.NewStreamDecoder(),
	}
	i.log = debug.Default().WithField("plugin", desc.Identifier).WithField("instance", i.id.String())
	i.perf = debug.NewPerfGuard(desc.Identifier, opts.PerfThreshold, opts.PerfWarnings, i.log)
	i.stream.DefaultTimeDivision = opts.TimeDivision

	i.buses = busesOf(desc)
	i.pmap = port.Build(desc.Info.Ports, port.Layout{
		Inputs:       desc.NumInputChannels,
		Outputs:      desc.NumOutputChannels,
		MainInputs:   desc.NumInputChannels,
		MainOutputs:  desc.NumOutputChannels,
		AcceptsMidi:  desc.AcceptsMidi,
		ProducesMidi: desc.ProducesMidi,
	})
	i.params = hostedParameters(desc.Info)
	i.inBand = len(i.params) > 0 && i.params[0].Port < 0 &&
		i.pmap.MidiIn >= 0 && i.pmap.MidiInContent == aap.ContentTypeMidi2
	if len(i.params) > 0 && i.params[0].Port < 0 && !i.inBand {
		i.log.Warn("%d parameters have neither control ports nor a MIDI2 input", len(i.params))
	}

	i.state, _ = aap.GetExtension[aap.StateExtension](p, aap.ExtensionState)
	i.presets, _ = aap.GetExtension[aap.PresetsExtension](p, aap.ExtensionPresets)
	protocol := aap.MidiProtocol1
	if m, ok := aap.GetExtension[aap.MidiExtension](p, aap.ExtensionMidi); ok {
		protocol = m.Protocol()
	}
	i.encoder = transcode.NewEncoder(protocol, true)

	i.meter.Instances.Add(1)
	i.log.Debug("created: %d in, %d out, %d parameters, midi in %v, midi out %v",
		desc.NumInputChannels, desc.NumOutputChannels, len(i.params), desc.AcceptsMidi, desc.ProducesMidi)
	return i
}

// busesOf lays the plugin ports out as one main bus per direction.
func busesOf(desc PluginDescription) *bus.Configuration {
	b := bus.NewBuilder()
	if desc.NumInputChannels > 0 {
		b.WithAudioInput("Input", int32(desc.NumInputChannels))
	}
	if desc.NumOutputChannels > 0 {
		b.WithAudioOutput("Output", int32(desc.NumOutputChannels))
	}
	if desc.AcceptsMidi {
		b.WithEventInput("MIDI In")
	}
	if desc.ProducesMidi {
		b.WithEventOutput("MIDI Out")
	}
	cfg, err := b.Build()
	if err != nil {
		// A plugin without outputs still needs a configuration to report.
		return &bus.Configuration{}
	}
	return cfg
}

// ID returns the instance id used in logs.
func (i *Instance) ID() string {
	return i.id.String()
}

// Description returns the description the instance was created from.
func (i *Instance) Description() PluginDescription {
	return i.desc
}

// Plugin returns the hosted plugin.
func (i *Instance) Plugin() aap.Plugin {
	return i.plugin
}

// Parameters returns the hosted parameters in index order.
func (i *Instance) Parameters() []*HostedParameter {
	return i.params
}

// Perf returns the block timing statistics.
func (i *Instance) Perf() debug.Measurement {
	return i.perf.Stats()
}

// Buses implements fw.Processor.
func (i *Instance) Buses() *bus.Configuration {
	return i.buses
}

// AcceptsMidi reports whether the plugin has a MIDI input port.
func (i *Instance) AcceptsMidi() bool {
	return i.desc.AcceptsMidi
}

// ProducesMidi reports whether the plugin has a MIDI output port.
func (i *Instance) ProducesMidi() bool {
	return i.desc.ProducesMidi
}

// PrepareToPlay allocates one buffer per port, prepares the plugin, pushes
// every parameter value and activates it.
func (i *Instance) PrepareToPlay(sampleRate float64, maxBlockSize int) error {
	if i.disposed {
		return fmt.Errorf("prepare %s: %w", i.desc.Identifier, aap.ErrNotPrepared)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("prepare %s: block size %d: %w", i.desc.Identifier, maxBlockSize, aap.ErrInvalidBuffer)
	}
	if sampleRate != i.sampleRate {
		i.log.Warn("sample rate %v requested, instance runs at %v", sampleRate, i.sampleRate)
	}
	i.ReleaseResources()

	if maxBlockSize != i.maxBlock {
		if err := i.allocate(maxBlockSize); err != nil {
			return err
		}
	}
	if err := i.plugin.Prepare(i.buffers); err != nil {
		return fmt.Errorf("prepare %s: %w", i.desc.Identifier, err)
	}
	for _, p := range i.params {
		p.markDirty()
	}
	if err := i.plugin.Activate(); err != nil {
		return fmt.Errorf("activate %s: %w", i.desc.Identifier, err)
	}
	i.active.Store(true)
	i.perf.Reset()
	return nil
}

func (i *Instance) allocate(frames int) error {
	i.free()
	ports := i.desc.Info.Ports
	i.regions = make([][]byte, len(ports))
	i.mapped = make([]bool, len(ports))
	for n, p := range ports {
		size := aap.PortBufferSize(p, frames)
		region, mapped, err := allocRegion(size, i.opts.SharedMemory)
		if err != nil {
			i.log.Warn("port %d: shared buffer unavailable, using process memory: %v", n, err)
			region, mapped = make([]byte, size), false
		}
		i.regions[n], i.mapped[n] = region, mapped
		switch p.Content {
		case aap.ContentTypeMidi2:
			aap.WriteMidiBufferHeader(region, aap.MidiBufferHeader{Reserved: [6]uint32{aap.Midi2Protocol}})
		case aap.ContentTypeMidi:
			aap.WriteMidi1Header(region, i.opts.TimeDivision, 0)
		}
	}
	i.buffers = aap.NewBuffers(i.regions, frames)
	i.maxBlock = frames
	return nil
}

func (i *Instance) free() {
	var errs []error
	for n, region := range i.regions {
		if i.mapped[n] {
			errs = append(errs, freeRegion(region))
		}
	}
	if err := errors.Join(errs...); err != nil {
		i.log.Error("unmap port buffers: %v", err)
	}
	i.regions, i.mapped, i.buffers, i.maxBlock = nil, nil, nil, 0
}

// ProcessBlock runs one block through the plugin.
func (i *Instance) ProcessBlock(ctx *process.Context) {
	if !i.active.Load() {
		ctx.Clear()
		return
	}
	start := i.perf.Begin()
	frames := min(ctx.NumSamples(), i.maxBlock)

	i.writeInputs(ctx, frames)
	i.writeControls()
	i.encodeMidi(ctx)

	if err := i.plugin.Process(i.buffers, frames, int64(i.opts.ProcessTimeout)); err != nil {
		if errors.Is(err, aap.ErrTimeout) {
			i.meter.Timeouts.Add(1)
		}
		if i.errLog.Allow() {
			i.log.Error("process: %v", err)
		}
	}

	i.decodeMidi(ctx, frames)
	i.readOutputs(ctx, frames)

	if i.perf.End(start) {
		i.meter.PerfWarnings.Add(1)
	}
	i.meter.Block(frames)
}

func (i *Instance) writeInputs(ctx *process.Context, frames int) {
	for ch, p := range i.pmap.Inputs {
		if p < 0 {
			continue
		}
		dst := aap.AudioPort(i.buffers, p, frames)
		if ch < len(ctx.Input) {
			n := copy(dst, ctx.Input[ch])
			clear(dst[n:])
		} else {
			clear(dst)
		}
	}
}

func (i *Instance) writeControls() {
	if i.inBand {
		return
	}
	for _, p := range i.params {
		if p.Port < 0 {
			continue
		}
		if v, ok := p.take(); ok {
			aap.Float32s(i.buffers.Port(p.Port))[0] = float32(v)
		}
	}
}

// encodeMidi fills the MIDI-in port: pending in-band parameter changes
// first, then the block's events.
func (i *Instance) encodeMidi(ctx *process.Context) {
	if i.pmap.MidiIn < 0 {
		return
	}
	region := i.buffers.Port(i.pmap.MidiIn)

	switch i.pmap.MidiInContent {
	case aap.ContentTypeMidi2:
		i.writer.Reset(aap.Midi2Capacity(region))
		if i.inBand {
			i.flushParameters()
		}
		if ctx.Events != nil {
			if dropped := i.encoder.Encode(ctx.Events, i.sampleRate, &i.writer); dropped > 0 {
				i.meter.Dropped.Add(int64(dropped))
			}
			i.meter.MidiIn.Add(int64(ctx.Events.Len()))
		}
		aap.WriteMidiBufferHeader(region, aap.MidiBufferHeader{
			Length:   uint32(i.writer.ByteLen()),
			Reserved: [6]uint32{aap.Midi2Protocol},
		})
	case aap.ContentTypeMidi:
		if ctx.Events == nil {
			aap.WriteMidi1Header(region, i.opts.TimeDivision, 0)
			return
		}
		tempo := ctx.PlayHead.BPM
		if tempo <= 0 {
			tempo = aap.DefaultTempo
		}
		if dropped := midi.EncodeStream(region, ctx.Events, i.opts.TimeDivision, tempo, i.sampleRate); dropped > 0 {
			i.meter.Dropped.Add(int64(dropped))
		}
		i.meter.MidiIn.Add(int64(ctx.Events.Len()))
	}
}

func (i *Instance) flushParameters() {
	for _, p := range i.params {
		v, ok := p.take()
		if !ok {
			continue
		}
		change := ump.ParameterChange{Index: uint16(p.Info.ID), Value: float32(v)}
		if !transcode.EncodeParameterChange(&i.writer, change) {
			p.markDirty()
			i.meter.Dropped.Add(1)
		}
	}
}

func (i *Instance) decodeMidi(ctx *process.Context, frames int) {
	if i.pmap.MidiOut < 0 || ctx.OutEvents == nil {
		return
	}
	ctx.OutEvents.Clear()
	region := i.buffers.Port(i.pmap.MidiOut)

	switch i.pmap.MidiOutContent {
	case aap.ContentTypeMidi2:
		stats := i.decoder.Decode(aap.Midi2Payload(region), i.sampleRate, frames, ctx.OutEvents)
		if lost := stats.Dropped + stats.TruncatedSysex; lost > 0 {
			i.meter.Dropped.Add(int64(lost))
		}
	case aap.ContentTypeMidi:
		if skipped := i.stream.Decode(region, i.sampleRate, frames, ctx.OutEvents); skipped > 0 {
			i.meter.Dropped.Add(int64(skipped))
		}
	}
	i.meter.MidiOut.Add(int64(ctx.OutEvents.Len()))
}

// readOutputs copies the output ports into the context. Frames of the
// block beyond what the plugin rendered are zeroed.
func (i *Instance) readOutputs(ctx *process.Context, frames int) {
	block := ctx.NumSamples()
	for ch := range ctx.Output {
		out := ctx.Output[ch][:min(block, len(ctx.Output[ch]))]
		n := 0
		if ch < len(i.pmap.Outputs) && i.pmap.Outputs[ch] >= 0 {
			n = copy(out, aap.AudioPort(i.buffers, i.pmap.Outputs[ch], frames))
		}
		clear(out[n:])
	}
}

// ReleaseResources deactivates the plugin. Buffers stay allocated until
// the next PrepareToPlay with another block size or Dispose.
func (i *Instance) ReleaseResources() {
	if !i.active.CompareAndSwap(true, false) {
		return
	}
	if err := i.plugin.Deactivate(); err != nil {
		i.log.Error("deactivate: %v", err)
	}
}

// Dispose releases the plugin through its factory and frees the buffers.
func (i *Instance) Dispose() {
	if i.disposed {
		return
	}
	i.ReleaseResources()
	i.factory.Release(i.plugin)
	i.free()
	i.disposed = true
	i.meter.Instances.Add(-1)
	i.log.Debug("disposed, %v", i.perf.Stats())
}

// NumPrograms returns the number of plugin presets.
func (i *Instance) NumPrograms() int {
	if i.presets == nil {
		return 0
	}
	return i.presets.PresetCount()
}

// CurrentProgram returns the selected preset.
func (i *Instance) CurrentProgram() int {
	if i.presets == nil {
		return 0
	}
	return i.presets.PresetIndex()
}

// SetCurrentProgram selects a preset.
func (i *Instance) SetCurrentProgram(index int) {
	if i.presets == nil {
		return
	}
	if err := i.presets.SetPresetIndex(index); err != nil {
		i.log.Warn("select program %d: %v", index, err)
	}
}

// ProgramName returns the name of a preset, or "" when there is none.
func (i *Instance) ProgramName(index int) string {
	if i.presets == nil {
		return ""
	}
	p, err := i.presets.Preset(index, false)
	if err != nil {
		return ""
	}
	return p.Name
}

// GetStateInformation appends the plugin state to dst.
func (i *Instance) GetStateInformation(dst []byte) []byte {
	if i.state == nil {
		return dst
	}
	return append(dst, i.state.State(nil)...)
}

// SetStateInformation restores a state captured by GetStateInformation.
func (i *Instance) SetStateInformation(data []byte) error {
	if i.state == nil {
		return fmt.Errorf("%s has no state extension", i.desc.Identifier)
	}
	return i.state.SetState(data)
}

// NumParameters implements param.LegacySource.
func (i *Instance) NumParameters() int {
	return len(i.params)
}

// ParameterName implements param.LegacySource.
func (i *Instance) ParameterName(index int) string {
	return i.params[index].Name()
}

// ParameterValue implements param.LegacySource.
func (i *Instance) ParameterValue(index int) float64 {
	return i.params[index].Value()
}

// SetParameterValue implements param.LegacySource.
func (i *Instance) SetParameterValue(index int, value float64) {
	i.params[index].Set(value)
}

var (
	_ fw.Processor       = (*Instance)(nil)
	_ state.Holder       = (*Instance)(nil)
	_ state.Programs     = (*Instance)(nil)
	_ param.LegacySource = (*Instance)(nil)
)
