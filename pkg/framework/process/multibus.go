package process

import (
	"github.com/justyntemme/aapgo/pkg/framework/bus"
)

// BusBuffers represents audio buffers for a single bus
type BusBuffers struct {
	Channels [][]float32
	BusInfo  bus.Info
}

// MultiBusContext views the flat channel lists of a Context per bus. Bus
// channels are consecutive in the flat lists, main bus first, in the
// order of the bus configuration.
type MultiBusContext struct {
	*Context

	InputBuses  []BusBuffers
	OutputBuses []BusBuffers
}

// NewMultiBusContext creates views for the buses of config. Only active
// buses take channels.
func NewMultiBusContext(ctx *Context, config *bus.Configuration) *MultiBusContext {
	m := &MultiBusContext{Context: ctx}
	for _, info := range config.AudioBuses(bus.DirectionInput, false) {
		m.InputBuses = append(m.InputBuses, BusBuffers{BusInfo: info})
	}
	for _, info := range config.AudioBuses(bus.DirectionOutput, false) {
		m.OutputBuses = append(m.OutputBuses, BusBuffers{BusInfo: info})
	}
	ctx.Buses = m
	m.Bind()
	return m
}

// Bind points the bus views at the current channel lists. Call it after
// replacing Input or Output; slicing does not allocate.
func (m *MultiBusContext) Bind() {
	bind(m.InputBuses, m.Input)
	bind(m.OutputBuses, m.Output)
}

func bind(buses []BusBuffers, channels [][]float32) {
	pos := 0
	for i := range buses {
		n := int(buses[i].BusInfo.ChannelCount)
		if !buses[i].BusInfo.IsActive || pos >= len(channels) {
			buses[i].Channels = nil
			continue
		}
		end := min(pos+n, len(channels))
		buses[i].Channels = channels[pos:end]
		pos = end
	}
}

// GetMainInput returns the main input bus buffers
func (m *MultiBusContext) GetMainInput() [][]float32 {
	return mainBus(m.InputBuses)
}

// GetMainOutput returns the main output bus buffers
func (m *MultiBusContext) GetMainOutput() [][]float32 {
	return mainBus(m.OutputBuses)
}

func mainBus(buses []BusBuffers) [][]float32 {
	for _, b := range buses {
		if b.BusInfo.BusType == bus.TypeMain {
			return b.Channels
		}
	}
	return nil
}

// GetSidechainInput returns the sidechain (first aux) input if available
func (m *MultiBusContext) GetSidechainInput() [][]float32 {
	for _, b := range m.InputBuses {
		if b.BusInfo.BusType == bus.TypeAux && b.Channels != nil {
			return b.Channels
		}
	}
	return nil
}

// GetInputBus returns a specific input bus by index
func (m *MultiBusContext) GetInputBus(index int) [][]float32 {
	if index >= 0 && index < len(m.InputBuses) {
		return m.InputBuses[index].Channels
	}
	return nil
}

// GetOutputBus returns a specific output bus by index
func (m *MultiBusContext) GetOutputBus(index int) [][]float32 {
	if index >= 0 && index < len(m.OutputBuses) {
		return m.OutputBuses[index].Channels
	}
	return nil
}

// NumInputBuses returns the number of input buses
func (m *MultiBusContext) NumInputBuses() int {
	return len(m.InputBuses)
}

// NumOutputBuses returns the number of output buses
func (m *MultiBusContext) NumOutputBuses() int {
	return len(m.OutputBuses)
}

// ProcessWithSidechain processes main I/O with sidechain. The sidechain is
// nil when the aux bus is inactive.
func (m *MultiBusContext) ProcessWithSidechain(fn func(main, sidechain, output [][]float32)) {
	mainIn := m.GetMainInput()
	mainOut := m.GetMainOutput()
	if mainIn != nil && mainOut != nil {
		fn(mainIn, m.GetSidechainInput(), mainOut)
	}
}

// ClearAllOutputs clears all output buses
func (m *MultiBusContext) ClearAllOutputs() {
	for _, b := range m.OutputBuses {
		for ch := range b.Channels {
			clear(b.Channels[ch])
		}
	}
}
