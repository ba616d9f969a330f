// Package plugin exposes native processors as plugins: a process-wide
// registry of processor constructors, a factory over it, and the wrapper
// that translates plugin buffers into native process calls.
package plugin

import (
	"fmt"
	"strings"
	"sync"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/param"
	fw "github.com/justyntemme/aapgo/pkg/framework/plugin"
	"github.com/justyntemme/aapgo/pkg/framework/port"
)

// Capabilities select wrapper behavior per registered processor.
type Capabilities uint32

const (
	// CapMidi2 exposes MIDI ports as UMP instead of MIDI 1.0 byte streams.
	CapMidi2 Capabilities = 1 << iota
	// CapHostedParameters receives parameter changes in-band on the MIDI
	// input instead of through leading parameter ports.
	CapHostedParameters
	// CapMultiBus maps every active audio bus instead of the main buses only.
	CapMultiBus
)

// Has reports whether every flag in f is set.
func (c Capabilities) Has(f Capabilities) bool {
	return c&f == f
}

func (c Capabilities) String() string {
	var names []string
	if c.Has(CapMidi2) {
		names = append(names, "midi2")
	}
	if c.Has(CapHostedParameters) {
		names = append(names, "hosted-parameters")
	}
	if c.Has(CapMultiBus) {
		names = append(names, "multi-bus")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Registration is one registered processor.
type Registration struct {
	ID   string
	Info fw.Info
	New  fw.Constructor
	Caps Capabilities
	// Ports, when set, is the declared port list. Otherwise ports are laid
	// out positionally from the processor buses.
	Ports []aap.PortInfo

	once sync.Once
	info *aap.PluginInformation
}

var registry = struct {
	sync.RWMutex
	m     map[string]*Registration
	order []string
}{m: make(map[string]*Registration)}

// Register makes a processor available to Factory under id.
func Register(id string, info fw.Info, ctor fw.Constructor, caps Capabilities) (*Registration, error) {
	if info.ID == "" {
		info.ID = id
	}
	if info.ID != id {
		return nil, fmt.Errorf("register %q: info carries id %q", id, info.ID)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("register %q: %w", id, err)
	}
	if ctor == nil {
		return nil, fmt.Errorf("register %q: nil constructor", id)
	}

	registry.Lock()
	defer registry.Unlock()
	if _, exists := registry.m[id]; exists {
		return nil, fmt.Errorf("register %q: already registered", id)
	}
	r := &Registration{ID: id, Info: info, New: ctor, Caps: caps}
	registry.m[id] = r
	registry.order = append(registry.order, id)
	return r, nil
}

// MustRegister is like Register but panics on error. It suits package
// init functions.
func MustRegister(id string, info fw.Info, ctor fw.Constructor, caps Capabilities) *Registration {
	r, err := Register(id, info, ctor, caps)
	if err != nil {
		panic(err)
	}
	return r
}

// Unregister removes id from the registry.
func Unregister(id string) {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.m[id]; !ok {
		return
	}
	delete(registry.m, id)
	for i, o := range registry.order {
		if o == id {
			registry.order = append(registry.order[:i], registry.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the registration of id.
func Lookup(id string) (*Registration, bool) {
	registry.RLock()
	defer registry.RUnlock()
	r, ok := registry.m[id]
	return r, ok
}

// Registered returns every registration in registration order.
func Registered() []*Registration {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]*Registration, 0, len(registry.order))
	for _, id := range registry.order {
		out = append(out, registry.m[id])
	}
	return out
}

// WithPorts declares the port list and returns r.
func (r *Registration) WithPorts(ports ...aap.PortInfo) *Registration {
	r.Ports = ports
	return r
}

// layout derives the port layout of p under the registration capabilities.
func (r *Registration) layout(p fw.Processor, params *param.Table) port.Layout {
	l := port.FromBuses(p.Buses(), r.Caps.Has(CapMultiBus))
	l.AcceptsMidi = p.AcceptsMidi()
	l.ProducesMidi = p.ProducesMidi()
	l.Midi2 = r.Caps.Has(CapMidi2)
	if r.Caps.Has(CapHostedParameters) {
		l.ParameterEvents = params.ParameterCount() > 0
	} else {
		l.Parameters = params.ParameterCount()
	}
	return l
}

func (r *Registration) ports(l port.Layout) []aap.PortInfo {
	if len(r.Ports) > 0 {
		return r.Ports
	}
	return port.Ports(l)
}

// PluginInformation describes the registered plugin. It instantiates the
// processor once to read its buses, parameters and extensions.
func (r *Registration) PluginInformation() *aap.PluginInformation {
	r.once.Do(func() {
		p := r.New()
		params := param.Flatten(p, aap.MaxParameterNameLength)
		l := r.layout(p, params)
		info := &aap.PluginInformation{
			PluginID:     r.ID,
			DisplayName:  r.Info.Name,
			Manufacturer: r.Info.Vendor,
			Version:      r.Info.Version,
			PackageName:  r.Info.Vendor,
			Category:     r.Info.Category,
			Ports:        r.ports(l),
			Parameters:   params.Infos(),
		}
		for _, id := range extensionsOf(p, params, r.Caps) {
			info.Extensions = append(info.Extensions, id.URI())
		}
		r.info = info
	})
	return r.info
}

// extensionsOf lists the extensions a wrapper around p provides.
func extensionsOf(p fw.Processor, params *param.Table, caps Capabilities) []aap.ExtensionID {
	ids := []aap.ExtensionID{aap.ExtensionPluginInfo}
	if _, ok := p.(fw.StateHolder); ok {
		ids = append(ids, aap.ExtensionState)
	}
	if _, ok := p.(fw.ProgramHolder); ok {
		ids = append(ids, aap.ExtensionPresets)
	}
	if params.ParameterCount() > 0 {
		ids = append(ids, aap.ExtensionParameters)
	}
	if caps.Has(CapMidi2) {
		ids = append(ids, aap.ExtensionMidi)
	}
	return ids
}
