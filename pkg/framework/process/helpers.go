package process

// ProcessChannels processes all available channels with the given function
func (ctx *Context) ProcessChannels(fn func(ch int, input, output []float32)) {
	for ch := 0; ch < ctx.GetNumChannels(); ch++ {
		fn(ch, ctx.Input[ch], ctx.Output[ch])
	}
}

// ProcessMono processes only the first channel
func (ctx *Context) ProcessMono(fn func(input, output []float32)) {
	if ctx.NumInputChannels() > 0 && ctx.NumOutputChannels() > 0 {
		fn(ctx.Input[0], ctx.Output[0])
	}
}

// ProcessOutputs calls fn for every output channel. Instruments, which
// have no inputs, render through it.
func (ctx *Context) ProcessOutputs(fn func(ch int, output []float32)) {
	for ch, out := range ctx.Output {
		fn(ch, out[:min(len(out), ctx.NumSamples())])
	}
}

// GetNumChannels returns the minimum of input and output channels
func (ctx *Context) GetNumChannels() int {
	return min(ctx.NumInputChannels(), ctx.NumOutputChannels())
}
