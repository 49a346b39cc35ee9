package serialization

import (
	"sort"
	"sync"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
)

// Constructor rebuilds a component from its persisted configuration.
type Constructor[T any] func(Config) (T, error)

// Registry maps closed class tags to constructors for one component family.
type Registry[T any] struct {
	mu      sync.RWMutex
	family  string
	version int
	ctors   map[string]Constructor[T]
}

// NewRegistry returns an empty registry for family (for example "node") at
// the given format version.
func NewRegistry[T any](family string, version int) *Registry[T] {
	return &Registry[T]{family: family, version: version, ctors: make(map[string]Constructor[T])}
}

// Family returns the component family name.
func (r *Registry[T]) Family() string { return r.family }

// Version returns the format version of the registry.
func (r *Registry[T]) Version() int { return r.version }

// Register adds a constructor for tag. Registering a tag twice is an error.
func (r *Registry[T]) Register(tag string, ctor Constructor[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tag == "" || ctor == nil {
		return errors.NewValueError("Registry.Register", "tag and constructor are required")
	}
	if _, exists := r.ctors[tag]; exists {
		return errors.Newf("%s registry: class '%s' already registered", r.family, tag)
	}
	log.GetLoggerWithName("serialization").Debug("Registering class.",
		log.ComponentKey, r.family, "class", tag)
	r.ctors[tag] = ctor
	return nil
}

// MustRegister is Register that panics on error. It is meant for building
// default registries at package initialisation.
func (r *Registry[T]) MustRegister(tag string, ctor Constructor[T]) {
	if err := r.Register(tag, ctor); err != nil {
		panic(err)
	}
}

// Has reports whether tag is registered.
func (r *Registry[T]) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry[T]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for tag := range r.ctors {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Deserialize rebuilds a component. An unknown tag is a configuration error.
func (r *Registry[T]) Deserialize(obj Object) (T, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[obj.ClassName]
	r.mu.RUnlock()

	var zero T
	if !ok {
		return zero, errors.NewConfigurationErrorf(r.family, "class_name",
			"unknown class '%s' (known: %v)", obj.ClassName, r.Tags())
	}
	cfg := obj.Config
	if cfg == nil {
		cfg = Config{}
	}
	out, err := errors.SafeCall(r.family+"."+obj.ClassName, func() (T, error) {
		return ctor(cfg)
	})
	if err != nil {
		return zero, errors.Wrapf(err, "restore %s '%s'", r.family, obj.ClassName)
	}
	return out, nil
}
