// Package aap models the Android Audio Plugin ABI: port-indexed buffers,
// plugin factories, plugin instances and their extensions.
package aap

import "strings"

// PortDirection is the direction of a plugin port
type PortDirection int32

const (
	// PortDirectionInput carries data from the host into the plugin
	PortDirectionInput PortDirection = 0
	// PortDirectionOutput carries data from the plugin back to the host
	PortDirectionOutput PortDirection = 1
)

func (d PortDirection) String() string {
	if d == PortDirectionOutput {
		return "output"
	}
	return "input"
}

// ContentType describes what a port buffer contains
type ContentType int32

const (
	// ContentTypeUndefined ports carry control values (one float per frame).
	ContentTypeUndefined ContentType = 0
	// ContentTypeAudio ports carry float32 samples
	ContentTypeAudio ContentType = 1
	// ContentTypeMidi ports carry a length-prefixed MIDI 1.0 byte stream
	ContentTypeMidi ContentType = 2
	// ContentTypeMidi2 ports carry a header followed by Universal MIDI Packets
	ContentTypeMidi2 ContentType = 3
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeAudio:
		return "audio"
	case ContentTypeMidi:
		return "midi"
	case ContentTypeMidi2:
		return "midi2"
	default:
		return "other"
	}
}

// IsMidi reports whether the port carries either MIDI representation.
func (c ContentType) IsMidi() bool {
	return c == ContentTypeMidi || c == ContentTypeMidi2
}

// ParseContentType maps the metadata attribute value to a ContentType.
func ParseContentType(s string) ContentType {
	switch strings.ToLower(s) {
	case "audio":
		return ContentTypeAudio
	case "midi":
		return ContentTypeMidi
	case "midi2":
		return ContentTypeMidi2
	default:
		return ContentTypeUndefined
	}
}

// ParsePortDirection maps the metadata attribute value to a PortDirection.
func ParsePortDirection(s string) PortDirection {
	if strings.EqualFold(s, "output") {
		return PortDirectionOutput
	}
	return PortDirectionInput
}

// PortInfo describes one plugin port
type PortInfo struct {
	Index     int32
	Name      string
	Direction PortDirection
	Content   ContentType
}

// IsControl reports whether the port is an input carrying parameter values.
func (p PortInfo) IsControl() bool {
	return p.Direction == PortDirectionInput && p.Content == ContentTypeUndefined
}

// HostInfo is handed to a factory when a plugin is instantiated
type HostInfo struct {
	Name       string
	PluginList []string
}

// Default values shared by both sides of the bridge
const (
	// DefaultTempo is assumed when no transport information is available
	DefaultTempo = 120.0
	// MaxParameterNameLength bounds parameter names exported over the ABI
	MaxParameterNameLength = 256
	// SysexScratchSize bounds one reassembled system exclusive message
	SysexScratchSize = 4096
)
