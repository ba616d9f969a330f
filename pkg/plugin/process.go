package plugin

import (
	"time"

	"github.com/justyntemme/aapgo/pkg/aap"
	"github.com/justyntemme/aapgo/pkg/framework/port"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/transcode"
)

// checkBuffer verifies that buffer holds every port of m with regions large
// enough for frames. It returns a bare code so the audio thread can use it.
func checkBuffer(buffer aap.Buffer, m *port.Map, frames int) error {
	if buffer == nil || buffer.NumPorts() < m.NumPorts() {
		return aap.ErrInvalidBuffer
	}
	for i, e := range m.Entries {
		need := 0
		switch e.Kind {
		case port.KindAudioIn, port.KindAudioOut:
			need = frames * 4
		case port.KindParameter:
			need = 4
		case port.KindMidiIn, port.KindMidiOut:
			need = aap.Midi1HeaderSize
			if e.Content == aap.ContentTypeMidi2 {
				need = aap.Midi2HeaderSize
			}
		}
		if len(buffer.Port(i)) < need {
			return aap.ErrInvalidBuffer
		}
	}
	return nil
}

// Process runs one block. It never blocks: when a control call holds the
// instance lock the block renders silence.
func (w *Wrapper) Process(buffer aap.Buffer, frameCount int, timeoutNanos int64) error {
	start := time.Now()

	switch w.state() {
	case statePrepared, stateActive:
	default:
		return w.fail(aap.ErrNotPrepared)
	}
	if buffer == nil {
		return w.fail(aap.ErrInvalidBuffer)
	}

	if !w.lock.TryLock() {
		w.silence(buffer, frameCount)
		w.meter.Silenced.Add(1)
		return nil
	}
	defer w.lock.Unlock()
	// a release may complete between the state check above and TryLock
	switch w.state() {
	case statePrepared, stateActive:
	default:
		w.silence(buffer, frameCount)
		return w.fail(aap.ErrNotPrepared)
	}

	frames := w.clampFrames(buffer, frameCount)
	if buffer.NumPorts() != w.bufferPorts {
		return w.fail(aap.ErrProcessBufferAltered)
	}
	if err := checkBuffer(buffer, w.pmap, frames); err != nil {
		return w.fail(aap.ErrInvalidBuffer)
	}

	w.bindChannels(frames)
	w.readInputs(buffer, frames)
	w.readParameterPorts(buffer)
	w.decodeMidi(buffer, frames)

	if expired(start, timeoutNanos) {
		w.silenceLocked(buffer, frames)
		w.meter.Timeouts.Add(1)
		return w.fail(aap.ErrTimeout)
	}

	if w.ctx.OutEvents != nil {
		w.ctx.OutEvents.Clear()
	}
	w.proc.ProcessBlock(w.ctx)
	w.ctx.PlayHead.Advance(frames, w.sampleRate)

	w.encodeMidi(buffer)
	w.writeOutputs(buffer, frames)
	w.meter.Block(frames)
	return nil
}

func (w *Wrapper) fail(code aap.Error) error {
	w.setError(code)
	return code
}

func expired(start time.Time, timeoutNanos int64) bool {
	return timeoutNanos > 0 && time.Since(start) > time.Duration(timeoutNanos)
}

// clampFrames bounds the block length to what Prepare allocated and what
// the buffer holds. A non-positive count means the whole buffer.
func (w *Wrapper) clampFrames(buffer aap.Buffer, frameCount int) int {
	limit := min(w.frames, buffer.NumFrames())
	if frameCount <= 0 {
		return limit
	}
	if frameCount > limit {
		if w.errLog.Allow() {
			w.log.Error("frame count %d exceeds buffer capacity %d, clamped", frameCount, limit)
		}
		return limit
	}
	return frameCount
}

// readInputs copies the mapped input ports into the channel buffers and
// clears channels that have no input.
func (w *Wrapper) readInputs(buffer aap.Buffer, frames int) {
	for ch := range w.channels {
		dst := w.channels[ch][:frames]
		if ch >= len(w.pmap.Inputs) || w.pmap.Inputs[ch] < 0 {
			clear(dst)
			continue
		}
		copy(dst, aap.AudioPort(buffer, w.pmap.Inputs[ch], frames))
	}
}

// readParameterPorts forwards changed values of leading parameter ports.
func (w *Wrapper) readParameterPorts(buffer aap.Buffer) {
	for i, p := range w.pmap.ParameterPorts {
		v := aap.Float32s(buffer.Port(p))[0]
		if v == w.cached[i] {
			continue
		}
		w.cached[i] = v
		w.params.Set(int32(i), float64(v))
	}
}

// decodeMidi fills the input event list from the MIDI-in port. Parameter
// change packets are applied before any event is decoded.
func (w *Wrapper) decodeMidi(buffer aap.Buffer, frames int) {
	w.inEvents.Clear()
	if w.pmap.MidiIn < 0 {
		return
	}
	region := buffer.Port(w.pmap.MidiIn)

	switch w.pmap.MidiInContent {
	case aap.ContentTypeMidi2:
		words := aap.Midi2Payload(region)
		if w.params.ParameterCount() > 0 {
			w.decoder.DecodeParameters(words, w)
		}
		if !w.layout.AcceptsMidi {
			return
		}
		stats := w.decoder.Decode(words, w.sampleRate, frames, w.inEvents)
		w.meter.MidiIn.Add(int64(stats.Events))
		if lost := stats.Dropped + stats.TruncatedSysex; lost > 0 {
			w.meter.Dropped.Add(int64(lost))
		}
	case aap.ContentTypeMidi:
		if !w.layout.AcceptsMidi {
			return
		}
		skipped := w.stream.Decode(region, w.sampleRate, frames, w.inEvents)
		w.meter.MidiIn.Add(int64(w.inEvents.Len()))
		if lost := skipped + w.inEvents.Dropped(); lost > 0 {
			w.meter.Dropped.Add(int64(lost))
		}
	}
}

// encodeMidi writes the events the processor emitted into the MIDI-out
// port. The port is rewritten every block, empty when nothing was emitted.
func (w *Wrapper) encodeMidi(buffer aap.Buffer) {
	if w.pmap.MidiOut < 0 {
		return
	}
	region := buffer.Port(w.pmap.MidiOut)
	events := w.outEvent
	if !w.layout.ProducesMidi {
		events.Clear()
	}

	dropped := 0
	switch w.pmap.MidiOutContent {
	case aap.ContentTypeMidi2:
		w.writer.Reset(aap.Midi2Capacity(region))
		dropped = w.encoder.Encode(events, w.sampleRate, &w.writer)
		aap.WriteMidiBufferHeader(region, aap.MidiBufferHeader{
			Length:   uint32(w.writer.ByteLen()),
			Reserved: [6]uint32{aap.Midi2Protocol},
		})
	case aap.ContentTypeMidi:
		dropped = midi.EncodeStream(region, events, midi.DefaultPluginTimeDivision, w.ctx.PlayHead.BPM, w.sampleRate)
	}
	w.meter.MidiOut.Add(int64(events.Len() - dropped))
	if dropped > 0 {
		w.meter.Dropped.Add(int64(dropped))
	}
}

// writeOutputs copies the output channels into their ports. Channel
// buffers hold max(inputs, outputs) channels, so every mapped output has
// a source channel.
func (w *Wrapper) writeOutputs(buffer aap.Buffer, frames int) {
	n := min(len(w.pmap.Outputs), len(w.channels))
	for ch := 0; ch < n; ch++ {
		p := w.pmap.Outputs[ch]
		if p < 0 {
			continue
		}
		copy(aap.AudioPort(buffer, p, frames), w.channels[ch][:frames])
	}
}

// silence zeroes the output ports without touching instance state. It is
// used when the instance lock is held elsewhere.
func (w *Wrapper) silence(buffer aap.Buffer, frames int) {
	m := w.published.Load()
	if m == nil {
		return
	}
	if frames <= 0 {
		frames = buffer.NumFrames()
	}
	zeroOutputs(buffer, m, frames)
}

func (w *Wrapper) silenceLocked(buffer aap.Buffer, frames int) {
	zeroOutputs(buffer, w.pmap, frames)
}

func zeroOutputs(buffer aap.Buffer, m *port.Map, frames int) {
	for _, p := range m.Outputs {
		if p < 0 {
			continue
		}
		samples := aap.Float32s(buffer.Port(p))
		clear(samples[:min(frames, len(samples))])
	}
	if m.MidiOut < 0 {
		return
	}
	region := buffer.Port(m.MidiOut)
	switch m.MidiOutContent {
	case aap.ContentTypeMidi2:
		aap.WriteMidiBufferHeader(region, aap.MidiBufferHeader{Reserved: [6]uint32{aap.Midi2Protocol}})
	case aap.ContentTypeMidi:
		aap.WriteMidi1Header(region, midi.DefaultPluginTimeDivision, 0)
	}
}

var _ interface {
	aap.Plugin
	aap.PluginInfoExtension
	aap.MidiExtension
	transcode.ParameterSink
} = (*Wrapper)(nil)
