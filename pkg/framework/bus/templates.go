package bus

// NewEffectStereo creates a standard stereo effect configuration (1 stereo in, 1 stereo out)
func NewEffectStereo() *Configuration {
	return NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		MustBuild()
}

// NewEffectMono creates a mono effect configuration (1 mono in, 1 mono out)
func NewEffectMono() *Configuration {
	return NewBuilder().
		WithMonoInput("Mono In").
		WithMonoOutput("Mono Out").
		MustBuild()
}

// NewEffectStereoSidechain creates a stereo effect with sidechain input
// Main: stereo in/out, Aux: stereo sidechain in
func NewEffectStereoSidechain() *Configuration {
	return NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		WithSidechain("Sidechain In").
		MustBuild()
}

// NewInstrument creates an instrument configuration: MIDI in, stereo out,
// no audio input.
func NewInstrument() *Configuration {
	return NewBuilder().
		WithEventInput("MIDI In").
		WithStereoOutput("Stereo Out").
		MustBuild()
}

// NewMidiEffect creates a MIDI effect configuration with event buses only.
func NewMidiEffect() *Configuration {
	return NewBuilder().
		WithEventInput("MIDI In").
		WithEventOutput("MIDI Out").
		MustBuild()
}
