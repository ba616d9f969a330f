package param

import (
	"unicode/utf8"

	"github.com/justyntemme/aapgo/pkg/aap"
)

// TreeSource exposes a hierarchical parameter tree.
type TreeSource interface {
	ParameterTree() *Group
}

// RegistrySource exposes a flat parameter registry.
type RegistrySource interface {
	GetParameters() *Registry
}

// LegacySource exposes parameters by index only, with values in 0..1.
type LegacySource interface {
	NumParameters() int
	ParameterName(index int) string
	ParameterValue(index int) float64
	SetParameterValue(index int, value float64)
}

// Strategy records which source a table was built from.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyTree
	StrategyRegistry
	StrategyLegacy
)

func (s Strategy) String() string {
	switch s {
	case StrategyTree:
		return "tree"
	case StrategyRegistry:
		return "registry"
	case StrategyLegacy:
		return "legacy"
	default:
		return "none"
	}
}

type entry struct {
	info   aap.ParameterInfo
	param  *Parameter
	legacy int
}

// Table is the flattened parameter list a plugin exposes. Parameter ids
// are table indices and every value crossing the table is normalized to
// 0..1. It implements aap.ParametersExtension.
type Table struct {
	strategy Strategy
	entries  []entry
	legacy   LegacySource
	enumBase map[int32]int
	enums    []aap.EnumerationItem
	onChange []func(id int32, value float64)
}

// Flatten builds a table from source, trying a parameter tree, then a
// registry, then legacy enumeration. Names longer than maxNameLength bytes
// are truncated. Source may implement none of the interfaces, which yields
// an empty table.
func Flatten(source any, maxNameLength int) *Table {
	if maxNameLength <= 0 {
		maxNameLength = aap.MaxParameterNameLength
	}
	t := &Table{enumBase: make(map[int32]int)}

	if ts, ok := source.(TreeSource); ok {
		if tree := ts.ParameterTree(); tree != nil {
			tree.Walk(func(path string, p *Parameter) {
				t.addParameter(path, p, maxNameLength)
			})
			if len(t.entries) > 0 {
				t.strategy = StrategyTree
				return t
			}
		}
	}

	if rs, ok := source.(RegistrySource); ok {
		if r := rs.GetParameters(); r != nil {
			for _, p := range r.All() {
				t.addParameter("", p, maxNameLength)
			}
			if len(t.entries) > 0 {
				t.strategy = StrategyRegistry
				return t
			}
		}
	}

	if ls, ok := source.(LegacySource); ok {
		t.legacy = ls
		for i, n := 0, ls.NumParameters(); i < n; i++ {
			id := int32(len(t.entries))
			t.entries = append(t.entries, entry{
				legacy: i,
				info: aap.ParameterInfo{
					ID:      id,
					Name:    TruncateName(ls.ParameterName(i), maxNameLength),
					Min:     0,
					Max:     1,
					Default: ls.ParameterValue(i),
				},
			})
		}
		if len(t.entries) > 0 {
			t.strategy = StrategyLegacy
		}
	}
	return t
}

func (t *Table) addParameter(path string, p *Parameter, maxNameLength int) {
	id := int32(len(t.entries))
	t.entries = append(t.entries, entry{
		param:  p,
		legacy: -1,
		info: aap.ParameterInfo{
			ID:       id,
			Path:     path,
			Name:     TruncateName(p.Name, maxNameLength),
			Min:      0,
			Max:      1,
			Default:  p.DefaultValue,
			Discrete: p.IsDiscrete(),
		},
	})
	if len(p.Values) > 0 {
		t.enumBase[id] = len(t.enums)
		for i, name := range p.Values {
			t.enums = append(t.enums, aap.EnumerationItem{
				Value: p.ValueOf(i),
				Name:  TruncateName(name, maxNameLength),
			})
		}
	}
}

// TruncateName cuts s to at most n bytes without splitting a rune.
func TruncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Strategy returns the source the table was built from.
func (t *Table) Strategy() Strategy {
	return t.strategy
}

// ParameterCount returns the number of parameters.
func (t *Table) ParameterCount() int {
	return len(t.entries)
}

// ParameterInfo returns the descriptor at index.
func (t *Table) ParameterInfo(index int) (aap.ParameterInfo, bool) {
	if index < 0 || index >= len(t.entries) {
		return aap.ParameterInfo{}, false
	}
	return t.entries[index].info, true
}

// Infos returns every descriptor in table order.
func (t *Table) Infos() []aap.ParameterInfo {
	out := make([]aap.ParameterInfo, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.info
	}
	return out
}

// ParameterProperty returns one property of parameter id. Unknown ids and
// properties return 0.
func (t *Table) ParameterProperty(id int32, prop aap.ParameterProperty) float64 {
	info, ok := t.ParameterInfo(int(id))
	if !ok {
		return 0
	}
	switch prop {
	case aap.PropertyMinValue:
		return info.Min
	case aap.PropertyMaxValue:
		return info.Max
	case aap.PropertyDefaultValue:
		return info.Default
	case aap.PropertyIsDiscrete:
		if info.Discrete {
			return 1
		}
		return 0
	case aap.PropertyPriority:
		return float64(info.Priority)
	}
	return 0
}

// EnumerationCount returns the number of named values of parameter id.
func (t *Table) EnumerationCount(id int32) int {
	if id < 0 || int(id) >= len(t.entries) || t.entries[id].param == nil {
		return 0
	}
	return len(t.entries[id].param.Values)
}

// Enumeration returns the index-th named value of parameter id.
func (t *Table) Enumeration(id int32, index int) (aap.EnumerationItem, bool) {
	base, ok := t.enumBase[id]
	if !ok || index < 0 || index >= t.EnumerationCount(id) {
		return aap.EnumerationItem{}, false
	}
	return t.enums[base+index], true
}

// OnChange registers fn for every notifying Set. Register before the table
// is shared with the audio thread.
func (t *Table) OnChange(fn func(id int32, value float64)) {
	t.onChange = append(t.onChange, fn)
}

// Set assigns the normalized value of parameter id and notifies listeners.
// It reports false when id does not exist or is read-only.
func (t *Table) Set(id int32, value float64) bool {
	if id < 0 || int(id) >= len(t.entries) {
		return false
	}
	e := t.entries[id]
	if e.param != nil && e.param.Flags&IsReadOnly != 0 {
		return false
	}
	if e.param != nil {
		e.param.SetValueNotifying(value)
		value = e.param.GetValue()
	} else {
		value = clamp01(value)
		t.legacy.SetParameterValue(e.legacy, value)
	}
	for _, fn := range t.onChange {
		fn(id, value)
	}
	return true
}

// Value returns the normalized value of parameter id.
func (t *Table) Value(id int32) float64 {
	if id < 0 || int(id) >= len(t.entries) {
		return 0
	}
	e := t.entries[id]
	if e.param != nil {
		return e.param.GetValue()
	}
	return t.legacy.ParameterValue(e.legacy)
}

// Parameter returns the parameter behind id, or nil for legacy entries.
func (t *Table) Parameter(id int32) *Parameter {
	if id < 0 || int(id) >= len(t.entries) {
		return nil
	}
	return t.entries[id].param
}
