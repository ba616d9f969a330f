package bus

import (
	"fmt"
)

// MaxChannels is the largest channel count accepted for one bus.
const MaxChannels = 32

// Builder provides a fluent API for building bus configurations
type Builder struct {
	config *Configuration
	errors []error
}

// NewBuilder creates a new bus configuration builder
func NewBuilder() *Builder {
	return &Builder{config: &Configuration{}}
}

func (b *Builder) audio(direction Direction, busType Type, name string, channels int32) *Builder {
	b.config.audioBuses = append(b.config.audioBuses, Info{
		MediaType:    MediaTypeAudio,
		Direction:    direction,
		ChannelCount: channels,
		Name:         name,
		BusType:      busType,
		IsActive:     busType == TypeMain,
	})
	return b
}

// WithAudioInput adds an audio input bus
func (b *Builder) WithAudioInput(name string, channels int32) *Builder {
	return b.audio(DirectionInput, TypeMain, name, channels)
}

// WithAudioOutput adds an audio output bus
func (b *Builder) WithAudioOutput(name string, channels int32) *Builder {
	return b.audio(DirectionOutput, TypeMain, name, channels)
}

// WithAuxInput adds an auxiliary audio input bus (e.g., sidechain).
// Aux buses start inactive.
func (b *Builder) WithAuxInput(name string, channels int32) *Builder {
	return b.audio(DirectionInput, TypeAux, name, channels)
}

// WithAuxOutput adds an auxiliary audio output bus
func (b *Builder) WithAuxOutput(name string, channels int32) *Builder {
	return b.audio(DirectionOutput, TypeAux, name, channels)
}

// WithEventInput adds an event (MIDI) input bus
func (b *Builder) WithEventInput(name string) *Builder {
	b.config.AddEventBus(DirectionInput, name)
	return b
}

// WithEventOutput adds an event (MIDI) output bus
func (b *Builder) WithEventOutput(name string) *Builder {
	b.config.AddEventBus(DirectionOutput, name)
	return b
}

// WithStereoInput is a convenience method for adding stereo input
func (b *Builder) WithStereoInput(name string) *Builder {
	return b.WithAudioInput(name, 2)
}

// WithStereoOutput is a convenience method for adding stereo output
func (b *Builder) WithStereoOutput(name string) *Builder {
	return b.WithAudioOutput(name, 2)
}

// WithMonoInput is a convenience method for adding mono input
func (b *Builder) WithMonoInput(name string) *Builder {
	return b.WithAudioInput(name, 1)
}

// WithMonoOutput is a convenience method for adding mono output
func (b *Builder) WithMonoOutput(name string) *Builder {
	return b.WithAudioOutput(name, 1)
}

// WithSidechain adds a sidechain input bus (auxiliary stereo input)
func (b *Builder) WithSidechain(name string) *Builder {
	return b.WithAuxInput(name, 2)
}

// SetBusActive sets a specific bus as active/inactive
func (b *Builder) SetBusActive(mediaType MediaType, direction Direction, index int32, active bool) *Builder {
	if !b.config.SetActive(mediaType, direction, index, active) {
		b.errors = append(b.errors, fmt.Errorf("bus not found: mediaType=%d, direction=%d, index=%d", mediaType, direction, index))
	}
	return b
}

// Validate checks if the configuration is valid
func (b *Builder) Validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("builder errors: %v", b.errors)
	}

	// MIDI effects may only have an event output
	if b.config.ChannelCount(DirectionOutput, true) == 0 && !b.config.HasEventBus(DirectionOutput) {
		return fmt.Errorf("configuration must have at least one main output bus (audio or event)")
	}

	for _, bus := range b.config.audioBuses {
		if bus.ChannelCount <= 0 {
			return fmt.Errorf("invalid channel count %d for bus %s", bus.ChannelCount, bus.Name)
		}
		if bus.ChannelCount > MaxChannels {
			return fmt.Errorf("channel count %d exceeds maximum of %d for bus %s", bus.ChannelCount, MaxChannels, bus.Name)
		}
	}

	return nil
}

// Build returns the built configuration or an error
func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// MustBuild returns the built configuration or panics on error
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
