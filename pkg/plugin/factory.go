package plugin

import (
	"fmt"
	"sync"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/rs/xid"
)

type factory struct{}

// Factory returns the factory over the process-wide registry.
func Factory() aap.Factory {
	return factory{}
}

// Instantiate creates a wrapper around a new processor registered as pluginID.
func (factory) Instantiate(pluginID string, sampleRate int, host *aap.HostInfo) (p aap.Plugin, err error) {
	defer recoverPanic("instantiate "+pluginID, &err)

	r, ok := Lookup(pluginID)
	if !ok {
		return nil, fmt.Errorf("plugin %q is not registered", pluginID)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("instantiate %q: invalid sample rate %d", pluginID, sampleRate)
	}
	proc := r.New()
	if proc == nil {
		return nil, fmt.Errorf("instantiate %q: constructor returned nil", pluginID)
	}
	w := newWrapper(r, proc, float64(sampleRate), host)
	trackInstance(w)
	return w, nil
}

// Release releases a wrapper created by Instantiate.
func (factory) Release(p aap.Plugin) {
	w, ok := p.(*Wrapper)
	if !ok || w == nil {
		return
	}
	w.release()
	untrackInstance(w.id)
}

var instances = struct {
	sync.RWMutex
	m map[xid.ID]*Wrapper
}{m: make(map[xid.ID]*Wrapper)}

func trackInstance(w *Wrapper) {
	instances.Lock()
	defer instances.Unlock()
	instances.m[w.id] = w
}

func untrackInstance(id xid.ID) {
	instances.Lock()
	defer instances.Unlock()
	delete(instances.m, id)
}

// Instance returns the live wrapper with the given id.
func Instance(id string) (*Wrapper, bool) {
	parsed, err := xid.FromString(id)
	if err != nil {
		return nil, false
	}
	instances.RLock()
	defer instances.RUnlock()
	w, ok := instances.m[parsed]
	return w, ok
}

// NumInstances returns the number of live wrappers.
func NumInstances() int {
	instances.RLock()
	defer instances.RUnlock()
	return len(instances.m)
}

// recoverPanic turns a panic in a control call into an error.
func recoverPanic(operation string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: panic: %v", operation, r)
	}
}
