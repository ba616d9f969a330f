package process

import "github.com/justyntemme/aapgo/pkg/aap"

// PlayHead is the transport position seen by a processor. Hosts without
// transport information advance it at a fixed tempo.
type PlayHead struct {
	BPM           float64
	TimeInSamples int64
	TimeInSeconds float64
	PPQPosition   float64
	Playing       bool
}

// NewPlayHead returns a stopped play head at zero. A non-positive bpm
// selects the default tempo.
func NewPlayHead(bpm float64) PlayHead {
	if bpm <= 0 {
		bpm = aap.DefaultTempo
	}
	return PlayHead{BPM: bpm}
}

// Reset rewinds to zero and stops, keeping the tempo.
func (p *PlayHead) Reset() {
	*p = NewPlayHead(p.BPM)
}

// Advance moves the position forward by frames.
func (p *PlayHead) Advance(frames int, sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	p.TimeInSamples += int64(frames)
	p.TimeInSeconds = float64(p.TimeInSamples) / sampleRate
	p.PPQPosition = p.TimeInSeconds * p.BPM / 60
}

