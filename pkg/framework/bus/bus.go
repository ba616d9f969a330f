// Package bus describes the audio and event buses of a native processor.
package bus

// MediaType represents the type of bus
type MediaType int32

const (
	// MediaTypeAudio represents audio bus type
	MediaTypeAudio MediaType = 0
	// MediaTypeEvent represents event/MIDI bus type
	MediaTypeEvent MediaType = 1
)

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

// Type represents the bus type
type Type int32

const (
	// TypeMain represents main bus
	TypeMain Type = 0
	// TypeAux represents auxiliary bus
	TypeAux Type = 1
)

// Info contains bus configuration
type Info struct {
	MediaType    MediaType
	Direction    Direction
	ChannelCount int32
	Name         string
	BusType      Type
	IsActive     bool
}

// Configuration manages audio and event buses
type Configuration struct {
	audioBuses []Info
	eventBuses []Info
}

// NewStereoConfiguration creates a standard stereo I/O configuration
func NewStereoConfiguration() *Configuration {
	return NewEffectStereo()
}

// GetBusCount returns the number of buses for a given type and direction
func (c *Configuration) GetBusCount(mediaType MediaType, direction Direction) int32 {
	count := int32(0)
	for _, bus := range c.buses(mediaType) {
		if bus.Direction == direction {
			count++
		}
	}
	return count
}

// GetBusInfo returns information about a specific bus
func (c *Configuration) GetBusInfo(mediaType MediaType, direction Direction, index int32) *Info {
	buses := c.buses(mediaType)
	busIndex := int32(0)
	for i := range buses {
		if buses[i].Direction == direction {
			if busIndex == index {
				return &buses[i]
			}
			busIndex++
		}
	}
	return nil
}

func (c *Configuration) buses(mediaType MediaType) []Info {
	if mediaType == MediaTypeEvent {
		return c.eventBuses
	}
	return c.audioBuses
}

// AudioBuses returns the active audio buses in direction, main bus first.
// With mainOnly only the first active main bus is returned.
func (c *Configuration) AudioBuses(direction Direction, mainOnly bool) []Info {
	var out []Info
	for _, b := range c.audioBuses {
		if b.Direction != direction || !b.IsActive {
			continue
		}
		if b.BusType == TypeMain && len(out) == 0 {
			out = append(out, b)
			if mainOnly {
				return out
			}
			continue
		}
		if !mainOnly {
			out = append(out, b)
		}
	}
	return out
}

// ChannelCount returns the number of channels on the active audio buses
// in direction.
func (c *Configuration) ChannelCount(direction Direction, mainOnly bool) int {
	n := 0
	for _, b := range c.AudioBuses(direction, mainOnly) {
		n += int(b.ChannelCount)
	}
	return n
}

// HasEventBus reports whether an active event bus exists in direction.
func (c *Configuration) HasEventBus(direction Direction) bool {
	for _, b := range c.eventBuses {
		if b.Direction == direction && b.IsActive {
			return true
		}
	}
	return false
}

// AddEventBus adds an event bus (for MIDI input or output)
func (c *Configuration) AddEventBus(direction Direction, name string) {
	c.eventBuses = append(c.eventBuses, Info{
		MediaType:    MediaTypeEvent,
		Direction:    direction,
		ChannelCount: 1,
		Name:         name,
		BusType:      TypeMain,
		IsActive:     true,
	})
}

// SetActive activates or deactivates a bus. It reports whether the bus
// exists.
func (c *Configuration) SetActive(mediaType MediaType, direction Direction, index int32, active bool) bool {
	info := c.GetBusInfo(mediaType, direction, index)
	if info == nil {
		return false
	}
	info.IsActive = active
	return true
}
