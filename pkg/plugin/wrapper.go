package plugin

import (
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	fw "github.com/justyntemme/aapgo/pkg/framework/plugin"
	"github.com/justyntemme/aapgo/pkg/framework/port"
	"github.com/justyntemme/aapgo/pkg/framework/process"
	"github.com/justyntemme/aapgo/pkg/framework/rt"
	"github.com/justyntemme/aapgo/pkg/framework/state"
	"github.com/justyntemme/aapgo/pkg/metric"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/transcode"
	"github.com/justyntemme/aapgo/pkg/ump"
	"github.com/rs/xid"
)

type lifecycle int32

const (
	stateUnprepared lifecycle = iota
	statePrepared
	stateActive
	stateReleased
)

func (s lifecycle) String() string {
	switch s {
	case stateUnprepared:
		return "unprepared"
	case statePrepared:
		return "prepared"
	case stateActive:
		return "active"
	default:
		return "released"
	}
}

// errorLogLimit bounds the errors an instance logs from the audio thread.
const errorLogLimit = 20

// Wrapper exposes one native processor instance as an aap.Plugin.
//
// Control calls (Prepare, Activate, Deactivate, state and preset changes)
// take an rt.SpinLock. Process only tries the lock and renders silence for
// the block when a control call holds it.
type Wrapper struct {
	id   xid.ID
	reg  *Registration
	caps Capabilities
	proc fw.Processor
	host aap.HostInfo
	log  *debug.Logger

	sampleRate float64
	lock       rt.SpinLock
	lifecycle  atomic.Int32
	lastErr    atomic.Value // *errBox
	errLog     *debug.RateLimiter
	meter      *metric.Meter

	params     *param.Table
	holder     state.Holder
	blob       state.Blob
	presets    *state.Presets
	extensions map[aap.ExtensionID]any

	// Rebuilt by Prepare.
	layout      port.Layout
	pmap        *port.Map
	published   atomic.Pointer[port.Map]
	bufferPorts int
	frames      int
	channels [][]float32
	ctx      *process.Context
	inEvents *midi.EventList
	outEvent *midi.EventList
	decoder  *transcode.Decoder
	encoder  *transcode.Encoder
	stream   *midi.StreamDecoder
	writer   ump.Writer
	cached   []float32
}

func newWrapper(r *Registration, proc fw.Processor, sampleRate float64, host *aap.HostInfo) *Wrapper {
	w := &Wrapper{
		id:         xid.New(),
		reg:        r,
		caps:       r.Caps,
		proc:       proc,
		sampleRate: sampleRate,
		errLog:     debug.NewRateLimiter(errorLogLimit),
		meter:      metric.For(r.ID),
		params:     param.Flatten(proc, aap.MaxParameterNameLength),
	}
	if host != nil {
		w.host = *host
	}
	w.log = debug.Default().WithField("plugin", r.ID).WithField("instance", w.id.String())
	w.lastErr.Store(noError)
	w.buildExtensions()
	w.meter.Instances.Add(1)
	w.log.Debug("instantiated at %v Hz, capabilities %v, %d parameters (%v)",
		sampleRate, w.caps, w.params.ParameterCount(), w.params.Strategy())
	return w
}

// buildExtensions resolves the extension lookup once per instance.
func (w *Wrapper) buildExtensions() {
	w.extensions = make(map[aap.ExtensionID]any)
	if h, ok := w.proc.(fw.StateHolder); ok {
		w.holder = h
	}
	for _, id := range extensionsOf(w.proc, w.params, w.caps) {
		switch id {
		case aap.ExtensionPluginInfo:
			w.extensions[id] = aap.PluginInfoExtension(w)
		case aap.ExtensionState:
			w.extensions[id] = aap.StateExtension(stateExtension{w})
		case aap.ExtensionPresets:
			w.presets = state.NewPresets(w.proc.(fw.ProgramHolder), w.holder, &w.lock)
			w.extensions[id] = aap.PresetsExtension(w.presets)
		case aap.ExtensionParameters:
			w.extensions[id] = aap.ParametersExtension(w.params)
		case aap.ExtensionMidi:
			w.extensions[id] = aap.MidiExtension(w)
		}
	}
}

// ID returns the instance id used in logs.
func (w *Wrapper) ID() string {
	return w.id.String()
}

// Processor returns the wrapped processor.
func (w *Wrapper) Processor() fw.Processor {
	return w.proc
}

// Parameters returns the flattened parameter table.
func (w *Wrapper) Parameters() *param.Table {
	return w.params
}

// PortMap returns the map built by the last Prepare, or nil.
func (w *Wrapper) PortMap() *port.Map {
	return w.pmap
}

// Extension returns the extension registered under id, or nil.
func (w *Wrapper) Extension(id aap.ExtensionID) any {
	return w.extensions[id]
}

// PluginInfo implements aap.PluginInfoExtension.
func (w *Wrapper) PluginInfo() *aap.PluginInformation {
	return w.reg.PluginInformation()
}

// Protocol implements aap.MidiExtension.
func (w *Wrapper) Protocol() aap.MidiProtocol {
	if w.caps.Has(CapMidi2) {
		return aap.MidiProtocol2
	}
	return aap.MidiProtocol1
}

type errBox struct{ err error }

var (
	noError    = &errBox{}
	codeErrors = map[aap.Error]*errBox{
		aap.ErrInvalidBuffer:           {aap.ErrInvalidBuffer},
		aap.ErrProcessBufferAltered:    {aap.ErrProcessBufferAltered},
		aap.ErrChannelInOutNumMismatch: {aap.ErrChannelInOutNumMismatch},
		aap.ErrTimeout:                 {aap.ErrTimeout},
		aap.ErrNotPrepared:             {aap.ErrNotPrepared},
	}
)

// setError records err as the last error of the instance. Bare error codes
// use preallocated boxes so the audio thread can record them.
func (w *Wrapper) setError(err error) {
	if code, ok := err.(aap.Error); ok {
		if box, ok := codeErrors[code]; ok {
			w.lastErr.Store(box)
			return
		}
	}
	w.lastErr.Store(&errBox{err})
}

// LastError returns the last error recorded by this instance, or nil.
func (w *Wrapper) LastError() error {
	return w.lastErr.Load().(*errBox).err
}

// ClearError forgets the last error.
func (w *Wrapper) ClearError() {
	w.lastErr.Store(noError)
}

func (w *Wrapper) state() lifecycle {
	return lifecycle(w.lifecycle.Load())
}

// Prepare validates the processor topology against buffer, builds the port
// map and allocates everything Process needs. Preparing again with an
// equivalent buffer leaves the instance unchanged.
func (w *Wrapper) Prepare(buffer aap.Buffer) (err error) {
	defer recoverPanic("prepare", &err)
	defer func() {
		if err != nil {
			w.setError(err)
		}
	}()

	if w.state() == stateReleased {
		return fmt.Errorf("prepare after release: %w", aap.ErrNotPrepared)
	}
	if buffer == nil {
		return fmt.Errorf("prepare: nil buffer: %w", aap.ErrInvalidBuffer)
	}
	layout := w.reg.layout(w.proc, w.params)
	if err := layout.Validate(); err != nil {
		return err
	}
	var pmap *port.Map
	if len(w.reg.Ports) > 0 {
		pmap = port.Build(w.reg.Ports, layout)
	} else {
		pmap = port.Positional(layout)
	}
	frames := buffer.NumFrames()
	if frames <= 0 {
		return fmt.Errorf("prepare: %d frames: %w", frames, aap.ErrInvalidBuffer)
	}
	if err := checkBuffer(buffer, pmap, frames); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	w.bufferPorts = buffer.NumPorts()
	if w.state() != stateUnprepared && frames == w.frames && pmap.Equal(w.pmap) {
		return nil
	}

	w.layout = layout
	w.pmap = pmap
	w.published.Store(pmap)
	w.frames = frames
	w.allocate()

	if err := w.proc.PrepareToPlay(w.sampleRate, frames); err != nil {
		w.lifecycle.Store(int32(stateUnprepared))
		return fmt.Errorf("prepare to play: %w", err)
	}
	if w.state() == stateUnprepared {
		w.lifecycle.Store(int32(statePrepared))
	}
	w.log.Debug("prepared %d frames: %d in, %d out, midi in %d, midi out %d, %d parameter ports",
		frames, layout.Inputs, layout.Outputs, pmap.MidiIn, pmap.MidiOut, len(pmap.ParameterPorts))
	return nil
}

func (w *Wrapper) allocate() {
	l := w.layout
	n := max(l.Inputs, l.Outputs)
	w.channels = make([][]float32, n)
	for i := range w.channels {
		w.channels[i] = make([]float32, w.frames)
	}

	var registry *param.Registry
	if rs, ok := w.proc.(param.RegistrySource); ok {
		registry = rs.GetParameters()
	}
	playing := w.ctx != nil && w.ctx.PlayHead.Playing
	w.ctx = process.NewContext(w.frames, registry)
	w.ctx.SampleRate = w.sampleRate
	w.ctx.Input = make([][]float32, l.Inputs)
	w.ctx.Output = make([][]float32, l.Outputs)
	w.bindChannels(w.frames)
	w.ctx.PlayHead.Playing = playing
	if w.caps.Has(CapMultiBus) {
		process.NewMultiBusContext(w.ctx, w.proc.Buses())
	}

	w.inEvents = midi.NewEventList(aap.MidiBufferSize/4, aap.MidiBufferSize+aap.SysexScratchSize)
	w.outEvent = midi.NewEventList(aap.MidiBufferSize/4, aap.MidiBufferSize)
	if l.AcceptsMidi {
		w.ctx.Events = w.inEvents
	}
	if l.ProducesMidi {
		w.ctx.OutEvents = w.outEvent
	}
	w.decoder = transcode.NewDecoder(aap.SysexScratchSize)
	w.encoder = transcode.NewEncoder(w.Protocol(), true)
	w.stream = midi.NewStreamDecoder()

	w.cached = make([]float32, len(w.pmap.ParameterPorts))
	for i := range w.cached {
		w.cached[i] = float32(w.params.Value(int32(i)))
	}
}

// bindChannels points the context channel views at the first frames
// samples of the channel buffers. Inputs and outputs share buffers, so
// processors work in place.
func (w *Wrapper) bindChannels(frames int) {
	for i := range w.ctx.Input {
		w.ctx.Input[i] = w.channels[i][:frames]
	}
	for i := range w.ctx.Output {
		w.ctx.Output[i] = w.channels[i][:frames]
	}
	w.ctx.Frames = frames
	if w.ctx.Buses != nil {
		w.ctx.Buses.Bind()
	}
}

// Activate starts the play head.
func (w *Wrapper) Activate() error {
	switch w.state() {
	case stateActive:
		return nil
	case statePrepared:
	default:
		err := fmt.Errorf("activate while %v: %w", w.state(), aap.ErrNotPrepared)
		w.setError(err)
		return err
	}
	w.lock.Lock()
	w.ctx.PlayHead.Playing = true
	w.lifecycle.Store(int32(stateActive))
	w.lock.Unlock()
	return nil
}

// Deactivate stops the play head.
func (w *Wrapper) Deactivate() error {
	switch w.state() {
	case statePrepared:
		return nil
	case stateActive:
	default:
		err := fmt.Errorf("deactivate while %v: %w", w.state(), aap.ErrNotPrepared)
		w.setError(err)
		return err
	}
	w.lock.Lock()
	w.ctx.PlayHead.Playing = false
	w.lifecycle.Store(int32(statePrepared))
	w.lock.Unlock()
	return nil
}

func (w *Wrapper) release() {
	if w.state() == stateReleased {
		return
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.state() != stateUnprepared {
		w.proc.ReleaseResources()
	}
	w.blob.Release()
	if w.presets != nil {
		w.presets.Release()
	}
	w.lifecycle.Store(int32(stateReleased))
	w.meter.Instances.Add(-1)
	w.log.Debug("released")
}

type stateExtension struct {
	w *Wrapper
}

func (s stateExtension) StateSize() int {
	s.w.lock.Lock()
	defer s.w.lock.Unlock()
	return len(s.w.blob.Capture(s.w.holder))
}

func (s stateExtension) State(dst []byte) []byte {
	s.w.lock.Lock()
	defer s.w.lock.Unlock()
	data := s.w.blob.Capture(s.w.holder)
	return append(dst[:0], data...)
}

func (s stateExtension) SetState(data []byte) error {
	if s.w.state() == stateReleased {
		return fmt.Errorf("set state after release: %w", aap.ErrNotPrepared)
	}
	s.w.lock.Lock()
	err := s.w.holder.SetStateInformation(data)
	s.w.lock.Unlock()
	if err != nil {
		err = fmt.Errorf("set state: %w", err)
		s.w.setError(err)
	}
	return err
}

// SetParameter applies an in-band parameter change. It implements
// transcode.ParameterSink.
func (w *Wrapper) SetParameter(change ump.ParameterChange) {
	if !w.params.Set(int32(change.Index), float64(change.Value)) && w.errLog.Allow() {
		w.log.Warn("parameter change for unknown index %d", change.Index)
	}
}
