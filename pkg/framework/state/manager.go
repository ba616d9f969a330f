// Package state serializes processor state and exposes programs and state
// blobs the way a plugin instance hands them to its host.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/aapgo/pkg/framework/param"
)

const magic = "AAPGO\x00"

// ErrInvalidFormat is returned when a blob does not start with the state header.
var ErrInvalidFormat = errors.New("invalid state format")

// Manager handles processor state saving and loading
type Manager struct {
	version  uint32
	registry *param.Registry
	save     CustomSaveFunc
	load     CustomLoadFunc
}

// CustomSaveFunc writes state beyond parameter values
type CustomSaveFunc func(w io.Writer) error

// CustomLoadFunc reads what the matching CustomSaveFunc wrote
type CustomLoadFunc func(r io.Reader) error

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  1,
		registry: registry,
	}
}

// SetCustomState sets the functions for saving and loading custom state.
func (m *Manager) SetCustomState(save CustomSaveFunc, load CustomLoadFunc) {
	m.save = save
	m.load = load
}

// Save writes the processor state to a writer
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	params := m.registry.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if m.save == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	var custom bytes.Buffer
	if err := m.save(&custom); err != nil {
		return fmt.Errorf("custom state: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(custom.Len())); err != nil {
		return err
	}
	_, err := w.Write(custom.Bytes())
	return err
}

// Load reads the processor state from a reader. Values of unknown
// parameters are skipped.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != magic {
		return ErrInvalidFormat
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("state version %d is newer than supported version %d", version, m.version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return err
		}
		if p := m.registry.Get(id); p != nil {
			p.SetValueNotifying(value)
		}
	}

	var customLen uint32
	if err := binary.Read(r, binary.LittleEndian, &customLen); err != nil {
		return err
	}
	if customLen == 0 {
		return nil
	}
	custom := io.LimitReader(r, int64(customLen))
	if m.load == nil {
		_, err := io.Copy(io.Discard, custom)
		return err
	}
	if err := m.load(custom); err != nil {
		return fmt.Errorf("custom state: %w", err)
	}
	return nil
}

// AppendState appends the serialized state to dst.
func (m *Manager) AppendState(dst []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if err := m.Save(buf); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

// Restore loads state from data.
func (m *Manager) Restore(data []byte) error {
	return m.Load(bytes.NewReader(data))
}
