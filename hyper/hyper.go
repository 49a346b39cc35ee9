// Package hyper defines the hyperparameter capability consumed from an
// external search engine. The pipeline only reads values; it never searches.
package hyper

import (
	"sync"
)

// HyperParameters is the read side of a search space. Every call registers
// the named parameter with its default so the engine can discover the space.
type HyperParameters interface {
	Boolean(name string, def bool) bool
	Choice(name string, values []string, def string) string
}

// Fixed is a HyperParameters with fixed values, used when no search engine is
// attached and in tests. Unset or invalid values fall back to the default.
type Fixed struct {
	mu     sync.Mutex
	values map[string]any
	seen   []string
}

// NewFixed returns a Fixed backed by values. values may be nil.
func NewFixed(values map[string]any) *Fixed {
	v := make(map[string]any, len(values))
	for k, x := range values {
		v[k] = x
	}
	return &Fixed{values: v}
}

func (f *Fixed) record(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.seen {
		if s == name {
			return f.values[name]
		}
	}
	f.seen = append(f.seen, name)
	return f.values[name]
}

// Boolean implements HyperParameters.
func (f *Fixed) Boolean(name string, def bool) bool {
	if b, ok := f.record(name).(bool); ok {
		return b
	}
	return def
}

// Choice implements HyperParameters. A value outside values is ignored.
func (f *Fixed) Choice(name string, values []string, def string) string {
	s, ok := f.record(name).(string)
	if !ok {
		return def
	}
	for _, v := range values {
		if v == s {
			return s
		}
	}
	return def
}

// Requested returns the parameter names read so far, in first-read order.
func (f *Fixed) Requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}
