package aap

import "unsafe"

// MidiBufferSize is the byte size of a MIDI port region, header included.
const MidiBufferSize = 8192

// Buffer is the set of port regions handed to Prepare and Process.
// Regions are addressed by port index and stay valid until the next Prepare.
type Buffer interface {
	NumPorts() int
	NumFrames() int
	Port(index int) []byte
}

// Buffers is a Buffer backed by caller-provided memory
type Buffers struct {
	ports  [][]byte
	frames int
}

// NewBuffers wraps already allocated port regions.
func NewBuffers(ports [][]byte, frames int) *Buffers {
	return &Buffers{ports: ports, frames: frames}
}

// AllocateBuffers allocates one region per port sized for frames.
func AllocateBuffers(ports []PortInfo, frames int) *Buffers {
	regions := make([][]byte, len(ports))
	for i, p := range ports {
		regions[i] = make([]byte, PortBufferSize(p, frames))
	}
	return NewBuffers(regions, frames)
}

// PortBufferSize returns the region size required for a port.
func PortBufferSize(p PortInfo, frames int) int {
	if p.Content.IsMidi() {
		if frames*4 > MidiBufferSize {
			return frames * 4
		}
		return MidiBufferSize
	}
	return frames * 4
}

// NumPorts returns the number of port regions
func (b *Buffers) NumPorts() int {
	return len(b.ports)
}

// NumFrames returns the frame capacity of audio regions
func (b *Buffers) NumFrames() int {
	return b.frames
}

// SetNumFrames shrinks the advertised frame count for a short block.
func (b *Buffers) SetNumFrames(frames int) {
	b.frames = frames
}

// Port returns the region of a port or nil when out of range
func (b *Buffers) Port(index int) []byte {
	if index < 0 || index >= len(b.ports) {
		return nil
	}
	return b.ports[index]
}

// Float32s views a region as float32 samples without copying.
func Float32s(region []byte) []float32 {
	if len(region) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&region[0])), len(region)/4)
}

// Words views a region as 32-bit words without copying.
func Words(region []byte) []uint32 {
	if len(region) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&region[0])), len(region)/4)
}

// AudioPort returns the first frames samples of an audio region.
// It returns nil when the region is too small.
func AudioPort(b Buffer, index, frames int) []float32 {
	samples := Float32s(b.Port(index))
	if len(samples) < frames {
		return nil
	}
	return samples[:frames]
}
