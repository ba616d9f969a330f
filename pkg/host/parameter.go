package host

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/aapgo/pkg/aap"
)

// HostedParameter is one parameter of a hosted plugin. Values are
// normalized. Set is safe from any goroutine; the audio thread picks up
// changed values at the start of the next block.
type HostedParameter struct {
	Info aap.ParameterInfo
	// Port is the control port carrying the value, or -1 when changes are
	// sent in-band on the MIDI input.
	Port int

	bits  atomic.Uint64
	dirty atomic.Bool
}

func newHostedParameter(info aap.ParameterInfo, port int) *HostedParameter {
	p := &HostedParameter{Info: info, Port: port}
	p.bits.Store(math.Float64bits(info.Default))
	p.dirty.Store(true)
	return p
}

// Name returns the parameter name.
func (p *HostedParameter) Name() string {
	return p.Info.Name
}

// Value returns the current normalized value.
func (p *HostedParameter) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set assigns a normalized value and queues it for the plugin.
func (p *HostedParameter) Set(v float64) {
	v = max(0, min(1, v))
	p.bits.Store(math.Float64bits(v))
	p.dirty.Store(true)
}

// take returns the value and whether it changed since the last take.
func (p *HostedParameter) take() (float64, bool) {
	if !p.dirty.Swap(false) {
		return 0, false
	}
	return p.Value(), true
}

func (p *HostedParameter) markDirty() {
	p.dirty.Store(true)
}

// hostedParameters derives the parameters of a plugin. Control input ports
// come first, one parameter each, described by the declared parameter at
// the same index when present. Without control ports, declared parameters
// are sent in-band.
func hostedParameters(info *aap.PluginInformation) []*HostedParameter {
	var params []*HostedParameter
	for i, p := range info.Ports {
		if !p.IsControl() {
			continue
		}
		n := len(params)
		pi := aap.ParameterInfo{ID: int32(n), Name: p.Name, Max: 1}
		if n < len(info.Parameters) {
			pi = info.Parameters[n]
		}
		params = append(params, newHostedParameter(pi, i))
	}
	if len(params) > 0 {
		return params
	}
	for _, pi := range info.Parameters {
		params = append(params, newHostedParameter(pi, -1))
	}
	return params
}
