// Package metric publishes per-plugin processing counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
)

const componentsLabel = "aapgo.plugins"

// Counter names
const (
	InstanceCounter    = "Instances"
	BlockCounter       = "Blocks"
	FrameCounter       = "Frames"
	MidiInCounter      = "MidiIn"
	MidiOutCounter     = "MidiOut"
	DroppedCounter     = "Dropped"
	PerfWarningCounter = "PerfWarnings"
	TimeoutCounter     = "Timeouts"
	SilencedCounter    = "Silenced"
)

var counters = []string{
	InstanceCounter,
	BlockCounter,
	FrameCounter,
	MidiInCounter,
	MidiOutCounter,
	DroppedCounter,
	PerfWarningCounter,
	TimeoutCounter,
	SilencedCounter,
}

// Meter holds the counters of one component. Every instance of the same
// component shares a meter; updates are atomic and safe on the audio thread.
type Meter struct {
	Instances    *expvar.Int
	Blocks       *expvar.Int
	Frames       *expvar.Int
	MidiIn       *expvar.Int
	MidiOut      *expvar.Int
	Dropped      *expvar.Int
	PerfWarnings *expvar.Int
	Timeouts     *expvar.Int
	// Silenced counts blocks skipped because a control call held the lock.
	Silenced *expvar.Int
}

var components = struct {
	sync.Mutex
	m map[string]*Meter
}{m: make(map[string]*Meter)}

// For returns the meter of component, creating and publishing it on
// first use.
func For(component string) *Meter {
	components.Lock()
	defer components.Unlock()
	if m, ok := components.m[component]; ok {
		return m
	}
	m := &Meter{
		Instances:    newInt(component, InstanceCounter),
		Blocks:       newInt(component, BlockCounter),
		Frames:       newInt(component, FrameCounter),
		MidiIn:       newInt(component, MidiInCounter),
		MidiOut:      newInt(component, MidiOutCounter),
		Dropped:      newInt(component, DroppedCounter),
		PerfWarnings: newInt(component, PerfWarningCounter),
		Timeouts:     newInt(component, TimeoutCounter),
		Silenced:     newInt(component, SilencedCounter),
	}
	components.m[component] = m
	return m
}

func newInt(component, counter string) *expvar.Int {
	k := key(component, counter)
	if v, ok := expvar.Get(k).(*expvar.Int); ok {
		return v
	}
	return expvar.NewInt(k)
}

// Block records one processed block of frames.
func (m *Meter) Block(frames int) {
	m.Blocks.Add(1)
	m.Frames.Add(int64(frames))
}

// Get returns the counter values of component.
func Get(component string) map[string]string {
	out := make(map[string]string)
	for _, counter := range counters {
		if v := expvar.Get(key(component, counter)); v != nil {
			out[counter] = v.String()
		}
	}
	return out
}

// GetAll returns counters for all metered components.
func GetAll() map[string]map[string]string {
	components.Lock()
	names := make([]string, 0, len(components.m))
	for name := range components.m {
		names = append(names, name)
	}
	components.Unlock()

	sort.Strings(names)
	out := make(map[string]map[string]string, len(names))
	for _, name := range names {
		out[name] = Get(name)
	}
	return out
}

func key(component, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, component, counter)
}
