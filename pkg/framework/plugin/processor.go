// Package plugin defines the native processor contract and a base
// implementation that removes the boilerplate from simple processors.
package plugin

import (
	"bytes"

	"github.com/justyntemme/aapgo/pkg/framework/bus"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	"github.com/justyntemme/aapgo/pkg/framework/process"
	"github.com/justyntemme/aapgo/pkg/framework/state"
)

// Processor is a native audio processor.
//
// PrepareToPlay and ReleaseResources are called from a control thread.
// ProcessBlock runs on the audio thread and must not allocate or block.
type Processor interface {
	Buses() *bus.Configuration
	AcceptsMidi() bool
	ProducesMidi() bool
	PrepareToPlay(sampleRate float64, maxBlockSize int) error
	ProcessBlock(ctx *process.Context)
	ReleaseResources()
}

// StateHolder is implemented by processors that persist their state.
type StateHolder = state.Holder

// ProgramHolder is implemented by processors with programs.
type ProgramHolder = state.Programs

// LatencyReporter is implemented by processors that delay their output.
type LatencyReporter interface {
	LatencySamples() int
}

// Constructor creates a processor for one plugin instance.
type Constructor func() Processor

// BaseProcessor provides common functionality for audio processors: a
// parameter registry, a bus configuration and state persistence.
type BaseProcessor struct {
	params     *param.Registry
	buses      *bus.Configuration
	state      *state.Manager
	sampleRate float64
	blockSize  int

	// Optional callbacks for customization
	onPrepare func(sampleRate float64, maxBlockSize int) error
	onRelease func()
	process   func(ctx *process.Context)
}

// NewBaseProcessor creates a new base processor with the given bus configuration
func NewBaseProcessor(buses *bus.Configuration) *BaseProcessor {
	if buses == nil {
		buses = bus.NewStereoConfiguration()
	}
	params := param.NewRegistry()
	return &BaseProcessor{
		params: params,
		buses:  buses,
		state:  state.NewManager(params),
	}
}

// Buses implements Processor
func (b *BaseProcessor) Buses() *bus.Configuration {
	return b.buses
}

// AcceptsMidi reports whether the configuration has an event input.
func (b *BaseProcessor) AcceptsMidi() bool {
	return b.buses.HasEventBus(bus.DirectionInput)
}

// ProducesMidi reports whether the configuration has an event output.
func (b *BaseProcessor) ProducesMidi() bool {
	return b.buses.HasEventBus(bus.DirectionOutput)
}

// PrepareToPlay implements Processor
func (b *BaseProcessor) PrepareToPlay(sampleRate float64, maxBlockSize int) error {
	b.sampleRate = sampleRate
	b.blockSize = maxBlockSize
	if b.onPrepare != nil {
		return b.onPrepare(sampleRate, maxBlockSize)
	}
	return nil
}

// ProcessBlock runs the function set with OnProcess, or clears the output.
func (b *BaseProcessor) ProcessBlock(ctx *process.Context) {
	if b.process == nil {
		ctx.Clear()
		return
	}
	b.process(ctx)
}

// ReleaseResources implements Processor
func (b *BaseProcessor) ReleaseResources() {
	if b.onRelease != nil {
		b.onRelease()
	}
}

// GetParameters returns the parameter registry. It makes BaseProcessor a
// param.RegistrySource.
func (b *BaseProcessor) GetParameters() *param.Registry {
	return b.params
}

// Parameters returns the parameter registry for adding parameters
func (b *BaseProcessor) Parameters() *param.Registry {
	return b.params
}

// State returns the state manager for registering custom state.
func (b *BaseProcessor) State() *state.Manager {
	return b.state
}

// GetStateInformation appends the serialized parameters and custom state.
func (b *BaseProcessor) GetStateInformation(dst []byte) []byte {
	out, err := b.state.AppendState(dst)
	if err != nil {
		debug.Default().WithField("component", "processor").Error("save state: %v", err)
		return dst
	}
	return out
}

// SetStateInformation restores what GetStateInformation produced.
func (b *BaseProcessor) SetStateInformation(data []byte) error {
	return b.state.Load(bytes.NewReader(data))
}

// SampleRate returns the current sample rate
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the block size given to PrepareToPlay.
func (b *BaseProcessor) MaxBlockSize() int {
	return b.blockSize
}

// OnPrepare sets a callback for PrepareToPlay
func (b *BaseProcessor) OnPrepare(fn func(sampleRate float64, maxBlockSize int) error) {
	b.onPrepare = fn
}

// OnRelease sets a callback for ReleaseResources
func (b *BaseProcessor) OnRelease(fn func()) {
	b.onRelease = fn
}

// OnProcess sets the block function used by ProcessBlock.
func (b *BaseProcessor) OnProcess(fn func(ctx *process.Context)) {
	b.process = fn
}

// NewSimpleProcessor creates a processor with just a process function
func NewSimpleProcessor(buses *bus.Configuration, fn func(ctx *process.Context)) *BaseProcessor {
	b := NewBaseProcessor(buses)
	b.OnProcess(fn)
	return b
}
