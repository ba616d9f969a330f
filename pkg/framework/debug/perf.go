package debug

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Measurement holds timing statistics for a guarded section.
type Measurement struct {
	Count    int64
	Total    time.Duration
	Max      time.Duration
	Last     time.Duration
	Warnings int64
}

// Average returns the average time per call.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// CPULoad returns the average time per call as a percentage of the
// duration of one block.
func (m Measurement) CPULoad(sampleRate float64, blockSize int) float64 {
	if sampleRate <= 0 || blockSize <= 0 {
		return 0
	}
	blockDuration := time.Duration(float64(blockSize) / sampleRate * float64(time.Second))
	return float64(m.Average()) / float64(blockDuration) * 100.0
}

// String formats the measurement on one line.
func (m Measurement) String() string {
	return fmt.Sprintf("count=%d avg=%v max=%v last=%v warnings=%d",
		m.Count, m.Average(), m.Max, m.Last, m.Warnings)
}

// PerfGuard times audio blocks and warns when one exceeds Threshold. Only
// the first occurrences up to the limiter's limit are logged. It never
// changes processing behavior.
type PerfGuard struct {
	name      string
	threshold time.Duration
	limiter   *RateLimiter
	log       *Logger

	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	last  atomic.Int64
}

// Defaults for the block guard
const (
	DefaultPerfThreshold = 10 * time.Millisecond
	DefaultPerfWarnings  = 100
)

// NewPerfGuard creates a guard for the named section. A nil logger uses the
// default logger.
func NewPerfGuard(name string, threshold time.Duration, warnings int, log *Logger) *PerfGuard {
	if threshold <= 0 {
		threshold = DefaultPerfThreshold
	}
	if log == nil {
		log = Default()
	}
	return &PerfGuard{
		name:      name,
		threshold: threshold,
		limiter:   NewRateLimiter(warnings),
		log:       log,
	}
}

// Begin starts timing a block.
func (g *PerfGuard) Begin() time.Time {
	return time.Now()
}

// End records the block started at start and reports whether it exceeded
// the threshold.
func (g *PerfGuard) End(start time.Time) bool {
	return g.Observe(time.Since(start))
}

// Observe records one measured duration.
func (g *PerfGuard) Observe(elapsed time.Duration) bool {
	g.count.Add(1)
	g.total.Add(int64(elapsed))
	g.last.Store(int64(elapsed))
	for {
		cur := g.max.Load()
		if int64(elapsed) <= cur || g.max.CompareAndSwap(cur, int64(elapsed)) {
			break
		}
	}

	if elapsed <= g.threshold {
		return false
	}
	if g.limiter.Allow() {
		g.log.Warn("%s took %v, over the %v budget (%d/%d)",
			g.name, elapsed, g.threshold, g.limiter.Count(), g.limiter.limit)
	}
	return true
}

// Stats returns a snapshot of the measurements.
func (g *PerfGuard) Stats() Measurement {
	return Measurement{
		Count:    g.count.Load(),
		Total:    time.Duration(g.total.Load()),
		Max:      time.Duration(g.max.Load()),
		Last:     time.Duration(g.last.Load()),
		Warnings: g.limiter.Count(),
	}
}

// Reset clears all measurements.
func (g *PerfGuard) Reset() {
	g.count.Store(0)
	g.total.Store(0)
	g.max.Store(0)
	g.last.Store(0)
	g.limiter.Reset()
}
