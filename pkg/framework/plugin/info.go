package plugin

import (
	"errors"
	"hash/fnv"
	"strings"
)

// Info contains plugin metadata
type Info struct {
	ID       string // Unique plugin identifier (e.g., "com.example.myplugin")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Effect", "Instrument")
}

// UID derives a stable numeric id from the string ID with 32-bit FNV-1a.
func (i Info) UID() int32 {
	return HashID(i.ID)
}

// HashID returns the 32-bit FNV-1a hash of id.
func HashID(id string) int32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int32(h.Sum32())
}

// Validate checks that the info can identify a plugin.
func (i Info) Validate() error {
	if i.ID == "" {
		return errors.New("plugin ID must not be empty")
	}
	if strings.ContainsAny(i.ID, " \t\n") {
		return errors.New("plugin ID must not contain whitespace")
	}
	return nil
}

// IsInstrument reports whether the category names an instrument.
func (i Info) IsInstrument() bool {
	return strings.Contains(i.Category, "Instrument") || strings.Contains(i.Category, "Synth")
}
