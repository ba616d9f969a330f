package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:           id,
			Name:         name,
			Min:          0,
			Max:          1,
			DefaultValue: 0,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	b.param.DefaultValue = b.param.Normalize(value)
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps sets the number of discrete steps
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Values names the discrete values of the parameter, spread evenly over
// its range.
func (b *Builder) Values(names ...string) *Builder {
	b.param.Values = names
	if len(names) > 1 {
		b.param.StepCount = int32(len(names) - 1)
	}
	b.param.Flags |= IsList
	return b
}

// Toggle creates a boolean parameter
func (b *Builder) Toggle() *Builder {
	b.param.Min = 0
	b.param.Max = 1
	b.param.DefaultValue = 0
	return b.Values("Off", "On").Formatter(OnOffFormatter, OnOffParser)
}

// ReadOnly marks an output parameter such as a meter. Hosts can read it
// but not set it.
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags |= IsReadOnly
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter
func (b *Builder) Build() *Parameter {
	// Initialize with default value
	b.param.SetValue(b.param.DefaultValue)
	return b.param
}
