package serialization

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Config is the persisted, JSON-compatible configuration of one component.
// Accessors accept both native Go values and values decoded from JSON.
type Config map[string]any

// Object is the envelope of a persisted component.
type Object struct {
	ClassName string `json:"class_name"`
	Config    Config `json:"config"`
}

func missing(key string) error {
	return errors.NewValidationError(key, "missing configuration key", nil)
}

func wrongType(key, want string, v any) error {
	return errors.NewValidationError(key, "expected "+want, fmt.Sprintf("%T", v))
}

// Has reports whether key is present and not null.
func (c Config) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// String returns a required string value.
func (c Config) String(key string) (string, error) {
	v, ok := c[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(key, "string", v)
	}
	return s, nil
}

// Bool returns a boolean value, or def when key is absent.
func (c Config) Bool(key string, def bool) (bool, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(key, "bool", v)
	}
	return b, nil
}

// Int returns a required integer value.
func (c Config) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, missing(key)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, wrongType(key, "integer", v)
	}
	return n, nil
}

// OptionalInt returns nil when key is absent or null.
func (c Config) OptionalInt(key string) (*int, error) {
	if !c.Has(key) {
		return nil, nil
	}
	n, err := c.Int(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Ints returns an integer list. A null value returns nil.
func (c Config) Ints(key string) ([]int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vs := v.(type) {
	case []int:
		return append([]int(nil), vs...), nil
	case []any:
		out := make([]int, len(vs))
		for i, e := range vs {
			n, ok := toInt(e)
			if !ok {
				return nil, wrongType(key, "integer list", v)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, wrongType(key, "integer list", v)
}

// Floats returns a float list. A null value returns nil.
func (c Config) Floats(key string) ([]float64, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vs := v.(type) {
	case []float64:
		return append([]float64(nil), vs...), nil
	case []any:
		out := make([]float64, len(vs))
		for i, e := range vs {
			switch n := e.(type) {
			case float64:
				out[i] = n
			case int:
				out[i] = float64(n)
			case json.Number:
				f, err := n.Float64()
				if err != nil {
					return nil, wrongType(key, "float list", v)
				}
				out[i] = f
			default:
				return nil, wrongType(key, "float list", v)
			}
		}
		return out, nil
	}
	return nil, wrongType(key, "float list", v)
}

// Strings returns a string list. A null value returns nil.
func (c Config) Strings(key string) ([]string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...), nil
	case []any:
		out := make([]string, len(vs))
		for i, e := range vs {
			s, ok := e.(string)
			if !ok {
				return nil, wrongType(key, "string list", v)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, wrongType(key, "string list", v)
}

// StringMap returns a string-to-string map. A null value returns nil.
func (c Config) StringMap(key string) (map[string]string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, e := range m {
			s, ok := e.(string)
			if !ok {
				return nil, wrongType(key, "string map", v)
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, wrongType(key, "string map", v)
}

// Object returns a nested Object.
func (c Config) Object(key string) (Object, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return Object{}, missing(key)
	}
	return toObject(key, v)
}

// Objects returns a list of nested Objects.
func (c Config) Objects(key string) ([]Object, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vs := v.(type) {
	case []Object:
		return append([]Object(nil), vs...), nil
	case []any:
		out := make([]Object, len(vs))
		for i, e := range vs {
			o, err := toObject(key, e)
			if err != nil {
				return nil, err
			}
			out[i] = o
		}
		return out, nil
	}
	return nil, wrongType(key, "object list", v)
}

func toObject(key string, v any) (Object, error) {
	switch o := v.(type) {
	case Object:
		return o, nil
	case map[string]any:
		name, _ := o["class_name"].(string)
		if name == "" {
			return Object{}, wrongType(key, "object with class_name", v)
		}
		cfg, err := toConfig(o["config"])
		if err != nil {
			return Object{}, errors.Wrapf(err, "%s", key)
		}
		return Object{ClassName: name, Config: cfg}, nil
	}
	return Object{}, wrongType(key, "object", v)
}

func toConfig(v any) (Config, error) {
	switch c := v.(type) {
	case nil:
		return Config{}, nil
	case Config:
		return c, nil
	case map[string]any:
		return Config(c), nil
	}
	return nil, wrongType("config", "map", v)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
