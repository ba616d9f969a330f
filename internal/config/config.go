// Package config loads the settings shared by the aapgo command and the
// host-side wrapper.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Log level: debug, info, warn, error or off
	LogLevel string `yaml:"log_level"`

	// Tempo assumed when no transport is available
	Tempo float64 `yaml:"tempo"`

	Midi MidiConfig `yaml:"midi"`
	Perf PerfConfig `yaml:"perf"`
	Host HostConfig `yaml:"host"`
}

// MidiConfig holds the host-side MIDI port settings
type MidiConfig struct {
	// Ticks per quarter note of MIDI 1.0 streams sent to plugins
	HostTimeDivision int32 `yaml:"host_time_division"`
	// Largest sysex message reassembled from MIDI 2.0 output
	SysexScratchSize int `yaml:"sysex_scratch_size"`
}

// PerfConfig controls the per-block time guard
type PerfConfig struct {
	Threshold Duration `yaml:"threshold"`
	Warnings  int      `yaml:"warnings"`
}

// Duration is a time.Duration written as a string such as "10ms"
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// HostConfig holds host-side settings
type HostConfig struct {
	// Directories searched for plugin metadata files
	MetadataPaths []string `yaml:"metadata_paths,omitempty"`
	// Allocate port buffers as shared memory
	SharedMemory bool `yaml:"shared_memory"`
	// Deadline of one process call, zero for none
	ProcessTimeout Duration `yaml:"process_timeout"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Tempo:    120,
		Midi: MidiConfig{
			HostTimeDivision: 480,
			SysexScratchSize: 4096,
		},
		Perf: PerfConfig{
			Threshold: Duration(debug.DefaultPerfThreshold),
			Warnings:  debug.DefaultPerfWarnings,
		},
		Host: HostConfig{
			SharedMemory: true,
		},
	}
}

// Load reads configuration from path. Settings missing from the file keep
// their defaults; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Tempo <= 0 {
		return fmt.Errorf("tempo must be positive, got %v", c.Tempo)
	}
	if c.Midi.SysexScratchSize < 2 {
		return fmt.Errorf("sysex scratch size must be at least 2, got %d", c.Midi.SysexScratchSize)
	}
	if c.Midi.HostTimeDivision == 0 {
		return fmt.Errorf("host time division must not be zero")
	}
	if c.Host.ProcessTimeout < 0 {
		return fmt.Errorf("process timeout must not be negative, got %v", time.Duration(c.Host.ProcessTimeout))
	}
	return nil
}

// ApplyLogging sets the level of the default logger.
func (c *Config) ApplyLogging() error {
	level, err := debug.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	debug.SetLevel(level)
	return nil
}
