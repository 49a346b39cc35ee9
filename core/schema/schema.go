// Package schema describes the columns of structured and time series inputs.
package schema

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// ColumnType は列の種類
type ColumnType string

const (
	// Numerical は数値列
	Numerical ColumnType = "numerical"
	// Categorical はカテゴリ列
	Categorical ColumnType = "categorical"
)

// ParseColumnType は文字列を ColumnType に変換する
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case Numerical, Categorical:
		return ColumnType(s), nil
	}
	return "", errors.NewValidationError("column_type", "expected 'numerical' or 'categorical'", s)
}

// ColumnTypes maps column names to their types.
type ColumnTypes map[string]ColumnType

// ParseColumnTypes converts a name-to-string map.
func ParseColumnTypes(m map[string]string) (ColumnTypes, error) {
	if m == nil {
		return nil, nil
	}
	out := make(ColumnTypes, len(m))
	for name, s := range m {
		t, err := ParseColumnType(s)
		if err != nil {
			return nil, errors.Wrapf(err, "column '%s'", name)
		}
		out[name] = t
	}
	return out, nil
}

// Clone returns a copy that does not alias c.
func (c ColumnTypes) Clone() ColumnTypes {
	if c == nil {
		return nil
	}
	out := make(ColumnTypes, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Strings returns the map with string values, for serialization.
func (c ColumnTypes) Strings() map[string]string {
	if c == nil {
		return nil
	}
	out := make(map[string]string, len(c))
	for k, v := range c {
		out[k] = string(v)
	}
	return out
}

// Validate checks that every typed column is one of names.
func (c ColumnTypes) Validate(names []string) error {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	var unknown []string
	for name := range c {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.NewValidationError("column_types", fmt.Sprintf("columns %v are not in column_names", unknown), names)
	}
	return nil
}

// Complete reports whether every one of names has a type.
func (c ColumnTypes) Complete(names []string) bool {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return false
		}
	}
	return true
}

// Ordered returns the types of names in order.
func (c ColumnTypes) Ordered(names []string) ([]ColumnType, error) {
	out := make([]ColumnType, len(names))
	for i, n := range names {
		t, ok := c[n]
		if !ok {
			return nil, errors.NewValidationError("column_types", "column has no type", n)
		}
		out[i] = t
	}
	return out, nil
}

// DefaultNames returns "0", "1", ... for n unnamed columns.
func DefaultNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i)
	}
	return out
}
