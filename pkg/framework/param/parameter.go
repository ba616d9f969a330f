// Package param holds processor parameters and flattens them into the
// indexed parameter table a plugin exposes.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
)

// Parameter represents a processor parameter. The value is stored
// normalized (0-1) and read lock-free from the audio thread.
type Parameter struct {
	ID           uint32
	Name         string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // normalized
	StepCount    int32
	Flags        uint32
	// Values names each discrete value, in order from Min to Max.
	Values []string

	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)

	mu        sync.Mutex
	listeners atomic.Pointer[[]Listener]
}

// Listener is called after a notifying set with the new normalized value.
type Listener func(p *Parameter, normalized float64)

// Flags for parameters
const (
	// IsReadOnly parameters are reported to hosts but ignore host sets.
	IsReadOnly uint32 = 1 << 1
	IsList     uint32 = 1 << 3
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value (0-1) without notifying listeners.
func (p *Parameter) SetValue(value float64) {
	p.value.Store(math.Float64bits(clamp01(value)))
}

// SetValueNotifying sets the normalized value and calls every listener.
func (p *Parameter) SetValueNotifying(value float64) {
	p.SetValue(value)
	v := p.GetValue()
	if listeners := p.listeners.Load(); listeners != nil {
		for _, l := range *listeners {
			l(p, v)
		}
	}
}

// AddListener registers l for notifying sets.
func (p *Parameter) AddListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var next []Listener
	if cur := p.listeners.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, l)
	p.listeners.Store(&next)
}

// GetPlainValue converts normalized to plain value
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue converts plain to normalized value
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// IsDiscrete reports whether the parameter takes a fixed set of values.
func (p *Parameter) IsDiscrete() bool {
	return p.StepCount > 0 || len(p.Values) > 0
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses string to normalized value
func (p *Parameter) ParseValue(str string) (float64, error) {
	parse := p.parseFunc
	if parse == nil {
		parse = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	}
	plain, err := parse(str)
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	return clamp01((plain - p.Min) / (p.Max - p.Min))
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

// ValueOf returns the normalized value of the i-th named value.
func (p *Parameter) ValueOf(i int) float64 {
	n := len(p.Values)
	if n < 2 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
