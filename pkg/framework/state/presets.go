package state

import (
	"fmt"
	"sync"

	"github.com/justyntemme/aapgo/pkg/aap"
)

// Programs is a processor with selectable programs.
type Programs interface {
	NumPrograms() int
	CurrentProgram() int
	SetCurrentProgram(index int)
	ProgramName(index int) string
}

// Presets exposes the programs of a processor as plugin presets. The
// preset id is the program index.
//
// Calls that switch programs or serialize state run under lock so they do
// not overlap a processing block.
type Presets struct {
	programs Programs
	state    Holder
	lock     sync.Locker
	blob     Blob
}

// NewPresets creates a presets view over programs. State may be nil, in
// which case presets carry no data. A nil lock is replaced by a no-op.
func NewPresets(programs Programs, state Holder, lock sync.Locker) *Presets {
	if lock == nil {
		lock = noLock{}
	}
	return &Presets{programs: programs, state: state, lock: lock}
}

// PresetCount returns the number of programs.
func (p *Presets) PresetCount() int {
	return p.programs.NumPrograms()
}

// Preset describes program index. With withData the program is selected,
// its state serialized, and the previous program restored.
func (p *Presets) Preset(index int, withData bool) (aap.Preset, error) {
	if index < 0 || index >= p.programs.NumPrograms() {
		return aap.Preset{}, fmt.Errorf("preset %d out of range [0, %d)", index, p.programs.NumPrograms())
	}
	preset := aap.Preset{ID: int32(index), Name: p.programs.ProgramName(index)}
	if !withData || p.state == nil {
		return preset, nil
	}

	p.lock.Lock()
	current := p.programs.CurrentProgram()
	if current != index {
		p.programs.SetCurrentProgram(index)
	}
	data := p.blob.Capture(p.state)
	preset.Data = append([]byte(nil), data...)
	if current != index {
		p.programs.SetCurrentProgram(current)
	}
	p.lock.Unlock()
	return preset, nil
}

// PresetIndex returns the current program.
func (p *Presets) PresetIndex() int {
	return p.programs.CurrentProgram()
}

// SetPresetIndex selects program index.
func (p *Presets) SetPresetIndex(index int) error {
	if index < 0 || index >= p.programs.NumPrograms() {
		return fmt.Errorf("preset %d out of range [0, %d)", index, p.programs.NumPrograms())
	}
	p.lock.Lock()
	p.programs.SetCurrentProgram(index)
	p.lock.Unlock()
	return nil
}

// Find returns the index of the first program called name, or -1.
func (p *Presets) Find(name string) int {
	for i, n := 0, p.programs.NumPrograms(); i < n; i++ {
		if p.programs.ProgramName(i) == name {
			return i
		}
	}
	return -1
}

// Release drops the serialization buffer.
func (p *Presets) Release() {
	p.blob.Release()
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}
