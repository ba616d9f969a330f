// Package process provides the per-block context handed to a native
// processor: audio channels, MIDI events and transport position.
package process

import (
	"github.com/justyntemme/aapgo/pkg/framework/param"
	"github.com/justyntemme/aapgo/pkg/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Context provides a clean API for audio processing with zero allocations
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64
	// Frames is the length of the current block. Zero means the length of
	// the first channel.
	Frames int

	// Events holds the incoming MIDI of the block; OutEvents collects what
	// the processor emits. Either may be nil.
	Events    *midi.EventList
	OutEvents *midi.EventList

	PlayHead PlayHead

	// Buses splits the channels per bus when the processor is hosted with
	// every bus mapped. It is nil otherwise.
	Buses *MultiBusContext

	// Pre-allocated work buffers
	workBuffer []float32
	tempBuffer []float32

	params *param.Registry
}

// NewContext creates a new process context with pre-allocated buffers.
// params may be nil.
func NewContext(maxBlockSize int, params *param.Registry) *Context {
	return &Context{
		workBuffer: make([]float32, maxBlockSize),
		tempBuffer: make([]float32, maxBlockSize),
		params:     params,
		PlayHead:   NewPlayHead(0),
	}
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	if c.params == nil {
		return 0
	}
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if c.params == nil {
		return 0
	}
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if c.Frames > 0 {
		return c.Frames
	}
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:min(c.NumSamples(), len(c.workBuffer))]
}

// TempBuffer returns a slice of the pre-allocated temp buffer
// sized to the current block size - no allocation!
func (c *Context) TempBuffer() []float32 {
	return c.tempBuffer[:min(c.NumSamples(), len(c.tempBuffer))]
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	for ch := 0; ch < c.GetNumChannels(); ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}

// HasInputEvents reports whether the block carries MIDI.
func (c *Context) HasInputEvents() bool {
	return c.Events != nil && !c.Events.IsEmpty()
}

// ForEachEvent calls fn for every incoming event in order.
func (c *Context) ForEachEvent(fn func(msg gomidi.Message, offset int32)) {
	if c.Events == nil {
		return
	}
	for i := 0; i < c.Events.Len(); i++ {
		msg, offset := c.Events.At(i)
		fn(msg, offset)
	}
}

// EventsInRange calls fn for incoming events with from <= offset < to.
// Processors that render in slices between events use it to stay sample
// accurate.
func (c *Context) EventsInRange(from, to int32, fn func(msg gomidi.Message, offset int32)) {
	c.ForEachEvent(func(msg gomidi.Message, offset int32) {
		if offset >= from && offset < to {
			fn(msg, offset)
		}
	})
}

// Emit appends an outgoing event and reports whether it fit.
func (c *Context) Emit(offset int32, msg gomidi.Message) bool {
	if c.OutEvents == nil {
		return false
	}
	return c.OutEvents.Add(offset, msg)
}

// ClearEvents empties both event lists.
func (c *Context) ClearEvents() {
	if c.Events != nil {
		c.Events.Clear()
	}
	if c.OutEvents != nil {
		c.OutEvents.Clear()
	}
}
