// Package host loads plugins through the plugin ABI and presents each
// instance as a native processor.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/plugin"
)

var (
	// ErrClosed is returned for calls on a closed format.
	ErrClosed = errors.New("host: format closed")
	// ErrUnknownPlugin is returned for descriptions the format did not scan.
	ErrUnknownPlugin = errors.New("host: unknown plugin")
	// ErrNoFactory is returned for plugins whose library is not loaded.
	ErrNoFactory = errors.New("host: no factory for plugin library")
)

// InProcess is the file of plugins registered in this process.
const InProcess = "(in-process)"

// HostName is reported to plugins at instantiation.
const HostName = "aapgo"

// Options configure a Format.
type Options struct {
	// MetadataPaths are directories searched for *.xml plugin metadata.
	MetadataPaths []string
	// SharedMemory maps port buffers with mmap where available.
	SharedMemory bool
	// PerfThreshold and PerfWarnings configure the block timing guard.
	PerfThreshold time.Duration
	PerfWarnings  int
	// ProcessTimeout is handed to every process call. Zero disables it.
	ProcessTimeout time.Duration
	// TimeDivision is written into MIDI 1.0 input streams.
	TimeDivision int32
	// SysexScratchSize bounds sysex reassembled from MIDI 2.0 output.
	SysexScratchSize int
}

// DefaultOptions returns options with the default perf guard.
func DefaultOptions() Options {
	return Options{
		PerfThreshold:    debug.DefaultPerfThreshold,
		PerfWarnings:     debug.DefaultPerfWarnings,
		TimeDivision:     midi.DefaultHostTimeDivision,
		SysexScratchSize: aap.SysexScratchSize,
	}
}

type entry struct {
	desc    PluginDescription
	factory aap.Factory
}

// Format enumerates plugins and creates instances of them. Creation
// callbacks run on the format's message loop, a single goroutine that
// serializes them.
type Format struct {
	opts Options
	log  *debug.Logger

	mu        sync.RWMutex
	libraries map[string]aap.Factory
	entries   map[string]entry
	order     []string
	closed    bool

	messages chan func()
	done     chan struct{}
	loop     sync.WaitGroup
	pending  sync.WaitGroup
}

// NewFormat starts a format and its message loop. Call Close to stop it.
func NewFormat(opts Options) *Format {
	if opts.PerfThreshold <= 0 {
		opts.PerfThreshold = debug.DefaultPerfThreshold
	}
	if opts.PerfWarnings <= 0 {
		opts.PerfWarnings = debug.DefaultPerfWarnings
	}
	if opts.TimeDivision == 0 {
		opts.TimeDivision = midi.DefaultHostTimeDivision
	}
	if opts.SysexScratchSize <= 0 {
		opts.SysexScratchSize = aap.SysexScratchSize
	}
	f := &Format{
		opts:      opts,
		log:       debug.Default().WithField("component", "host"),
		libraries: make(map[string]aap.Factory),
		entries:   make(map[string]entry),
		messages:  make(chan func(), 16),
		done:      make(chan struct{}),
	}
	f.loop.Add(1)
	go f.run()
	return f
}

func (f *Format) run() {
	defer f.loop.Done()
	for {
		select {
		case fn := <-f.messages:
			fn()
		case <-f.done:
			for {
				select {
				case fn := <-f.messages:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Post runs fn on the message loop. It reports false when the format is
// closed.
func (f *Format) Post(fn func()) bool {
	select {
	case <-f.done:
		return false
	default:
	}
	select {
	case f.messages <- fn:
		return true
	case <-f.done:
		return false
	}
}

// Close waits for pending creations, drains the message loop and stops it.
func (f *Format) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	f.pending.Wait()
	close(f.done)
	f.loop.Wait()
	return nil
}

// AddLibrary binds the library named in plugin metadata to a factory.
func (f *Format) AddLibrary(library string, factory aap.Factory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries[library] = factory
}

// Scan rebuilds the plugin list from the in-process registry and the
// metadata paths. Unreadable metadata files are skipped and reported
// together.
func (f *Format) Scan() error {
	var found []entry
	for _, r := range plugin.Registered() {
		found = append(found, entry{Describe(r.PluginInformation(), InProcess), plugin.Factory()})
	}

	var errs []error
	for _, dir := range f.opts.MetadataPaths {
		files, err := filepath.Glob(filepath.Join(dir, "*.xml"))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, file := range files {
			infos, err := readMetadata(file)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, info := range infos {
				found = append(found, entry{desc: Describe(info, file)})
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]entry, len(found))
	f.order = f.order[:0]
	for _, e := range found {
		id := e.desc.Identifier
		if _, dup := f.entries[id]; dup {
			f.log.Debug("skipping duplicate plugin %s from %s", id, e.desc.File)
			continue
		}
		if e.factory == nil {
			e.factory = f.libraries[e.desc.Info.Library]
		}
		f.entries[id] = e
		f.order = append(f.order, id)
	}
	f.log.Debug("scanned %d plugins", len(f.order))
	return errors.Join(errs...)
}

func readMetadata(file string) ([]*aap.PluginInformation, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	pkg := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	infos, err := aap.ParseMetadata(fh, pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return infos, nil
}

// Descriptions returns the scanned plugins in scan order.
func (f *Format) Descriptions() []PluginDescription {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]PluginDescription, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.entries[id].desc)
	}
	return out
}

// Find returns the description of plugin id.
func (f *Format) Find(id string) (PluginDescription, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[id]
	return e.desc, ok
}

// CreateInstance connects to the plugin on a new goroutine and posts
// callback to the message loop with the result. Cancelling ctx before the
// connection is made fails the creation.
func (f *Format) CreateInstance(ctx context.Context, desc PluginDescription, sampleRate int, callback func(*Instance, error)) {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		callback(nil, ErrClosed)
		return
	}
	f.pending.Add(1)
	f.mu.RUnlock()

	go func() {
		defer f.pending.Done()
		var (
			inst *Instance
			err  error
		)
		if err = ctx.Err(); err == nil {
			inst, err = f.CreateInstanceSync(desc, sampleRate)
		}
		if !f.Post(func() { callback(inst, err) }) {
			if inst != nil {
				inst.Dispose()
			}
			callback(nil, ErrClosed)
		}
	}()
}

// CreateInstanceSync instantiates the plugin on the calling goroutine.
func (f *Format) CreateInstanceSync(desc PluginDescription, sampleRate int) (*Instance, error) {
	f.mu.RLock()
	e, ok := f.entries[desc.Identifier]
	ids := make([]string, len(f.order))
	copy(ids, f.order)
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, desc.Identifier)
	}
	if e.factory == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoFactory, desc.Identifier, e.desc.Info.Library)
	}
	p, err := e.factory.Instantiate(desc.Identifier, sampleRate, &aap.HostInfo{Name: HostName, PluginList: ids})
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", desc.Identifier, err)
	}
	return newInstance(e.desc, e.factory, p, float64(sampleRate), f.opts), nil
}
