package debug

import (
	"fmt"
	"math"
)

// SignalStats summarizes one rendered channel.
type SignalStats struct {
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	Silent         bool
}

const (
	clippingThreshold = 0.99
	silenceThreshold  = 0.0001
	dcThreshold       = 0.01
)

// Analyze computes peak, RMS and DC of buffer and counts clipped and NaN
// samples.
func Analyze(buffer []float32) SignalStats {
	var s SignalStats
	if len(buffer) == 0 {
		s.Silent = true
		return s
	}

	var sum, sumSquares float64
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			s.NaNCount++
			continue
		}
		abs := float32(math.Abs(float64(sample)))
		if abs > s.Peak {
			s.Peak = abs
		}
		if abs >= clippingThreshold {
			s.ClippedSamples++
		}
		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
	}

	s.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	s.DC = float32(sum / float64(len(buffer)))
	s.Silent = s.RMS < silenceThreshold
	return s
}

// Issues lists the problems worth reporting for a channel named name.
func (s SignalStats) Issues(name string) []string {
	var issues []string
	if s.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: %d NaN samples", name, s.NaNCount))
	}
	if s.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("%s: clipping in %d samples", name, s.ClippedSamples))
	}
	if math.Abs(float64(s.DC)) > dcThreshold {
		issues = append(issues, fmt.Sprintf("%s: DC offset %.3f", name, s.DC))
	}
	return issues
}

// LogChannels logs stats and issues for each channel at debug level, and
// issues at warn level.
func LogChannels(log *Logger, channels [][]float32, prefix string) {
	if log == nil {
		log = Default()
	}
	for ch, buf := range channels {
		s := Analyze(buf)
		name := fmt.Sprintf("%s[%d]", prefix, ch)
		log.Debug("%s: samples=%d peak=%.3f rms=%.3f dc=%.6f", name, len(buf), s.Peak, s.RMS, s.DC)
		for _, issue := range s.Issues(name) {
			log.Warn("%s", issue)
		}
	}
}

// MaxDifference returns the largest absolute difference between a and b
// and where it occurs. Buffers of different length report an index of -1.
func MaxDifference(a, b []float32) (float32, int) {
	if len(a) != len(b) {
		return float32(math.Inf(1)), -1
	}
	var maxDiff float32
	index := 0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
			index = i
		}
	}
	return maxDiff, index
}
