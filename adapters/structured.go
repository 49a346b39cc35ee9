package adapters

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// columns resolves and locks the column names of tabular adapters.
type columns struct {
	mu    sync.Mutex
	user  []string
	names []string
	types schema.ColumnTypes
}

func newColumns(component string, names []string, types schema.ColumnTypes) (*columns, error) {
	if len(types) > 0 && len(names) == 0 {
		return nil, errors.NewConfigurationError(component, "column_types",
			"column_names must be specified when column_types is specified")
	}
	if err := types.Validate(names); err != nil {
		return nil, errors.NewConfigurationError(component, "column_types", err.Error())
	}
	return &columns{user: append([]string(nil), names...), types: types.Clone()}, nil
}

// resolve picks the column names for a table of width cols: user names,
// then the data header, then "0".."cols-1".
func (c *columns) resolve(component string, header []string, cols int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names != nil {
		if len(c.names) != cols {
			return errors.NewConfigurationErrorf(component, "column_names",
				"expected %d columns as in the first batch, got %d", len(c.names), cols)
		}
		return nil
	}
	switch {
	case len(c.user) > 0:
		if len(c.user) != cols {
			return errors.NewConfigurationErrorf(component, "column_names",
				"%d column names were given but the data has %d columns", len(c.user), cols)
		}
		c.names = append([]string(nil), c.user...)
	case len(header) == cols:
		c.names = append([]string(nil), header...)
	default:
		c.names = schema.DefaultNames(cols)
	}
	return nil
}

func (c *columns) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names != nil {
		return append([]string(nil), c.names...)
	}
	if len(c.user) > 0 {
		return append([]string(nil), c.user...)
	}
	return nil
}

// label names column j for error messages.
func (c *columns) label(j int) string {
	if names := c.get(); j < len(names) {
		return names[j]
	}
	return strconv.Itoa(j)
}

// attach returns the names to attach to the adapted dataset.
func (c *columns) attach(header []string) []string {
	if names := c.get(); names != nil {
		return names
	}
	return header
}

// StructuredDataAdapter accepts a table of shape (N, columns). Every value is
// converted to its string form; column types are inferred later by the
// analyser unless given.
type StructuredDataAdapter struct {
	base
	cols *columns
}

// NewStructuredDataAdapter returns an adapter for the node named node.
// columnNames and columnTypes may be nil.
func NewStructuredDataAdapter(node string, columnNames []string, columnTypes schema.ColumnTypes) (*StructuredDataAdapter, error) {
	a := &StructuredDataAdapter{}
	a.base = newBase(node, "StructuredDataInput", func(t *tensor.Tensor) (*tensor.Tensor, error) {
		out := t.AsStrings()
		switch out.Rank() {
		case 1:
			return out.ExpandDims(), nil
		case 2:
			return out, nil
		}
		return nil, errors.NewValueError("StructuredDataAdapter",
			fmt.Sprintf("expect the data to be a 2-D table, got shape %s", t.Shape))
	})
	cols, err := newColumns(a.component(), columnNames, columnTypes)
	if err != nil {
		return nil, err
	}
	a.cols = cols
	return a, nil
}

func (a *StructuredDataAdapter) Adapt(raw any, batchSize int) (dataset.Dataset, error) {
	return adaptTable(&a.base, a.cols, raw, batchSize)
}

// ColumnNames returns the resolved column names, or the user's before the
// first batch.
func (a *StructuredDataAdapter) ColumnNames() []string { return a.cols.get() }

// ColumnTypes returns the user-specified column types.
func (a *StructuredDataAdapter) ColumnTypes() schema.ColumnTypes { return a.cols.types.Clone() }

// TimeseriesAdapter accepts numerical tables of shape (N, features) and
// carries the node's lookback. String tables (frames, CSV streams) are parsed
// cell by cell.
type TimeseriesAdapter struct {
	base
	cols     *columns
	lookback *int
}

// NewTimeseriesAdapter returns an adapter for the node named node. lookback
// may be nil; when set it must be positive.
func NewTimeseriesAdapter(node string, lookback *int, columnNames []string, columnTypes schema.ColumnTypes) (*TimeseriesAdapter, error) {
	a := &TimeseriesAdapter{}
	a.base = newBase(node, "TimeseriesInput", func(t *tensor.Tensor) (*tensor.Tensor, error) {
		out, err := a.numeric(t)
		if err != nil {
			return nil, err
		}
		switch out.Rank() {
		case 1:
			return out.ExpandDims(), nil
		case 2:
			return out, nil
		}
		return nil, errors.NewValueError("TimeseriesAdapter",
			fmt.Sprintf("expect the data to be a 2-D table, got shape %s", t.Shape))
	})
	if lookback != nil && *lookback <= 0 {
		return nil, errors.NewConfigurationErrorf(a.component(), "lookback", "must be positive, got %d", *lookback)
	}
	cols, err := newColumns(a.component(), columnNames, columnTypes)
	if err != nil {
		return nil, err
	}
	a.cols = cols
	if lookback != nil {
		lb := *lookback
		a.lookback = &lb
	}
	return a, nil
}

func (a *TimeseriesAdapter) numeric(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t.DType != tensor.String {
		return requireNumeric(t)
	}
	width := 1
	if t.Rank() > 1 {
		width = t.Shape[t.Rank()-1]
	}
	out := &tensor.Tensor{Shape: t.Shape.Clone(), DType: tensor.Float, Floats: make([]float64, len(t.Strings))}
	for i, s := range t.Strings {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		// 範囲外の値は ParseFloat が返す ±Inf のまま使う
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, errors.NewConfigurationErrorf(a.component(), "data",
				"column '%s' row %d: cannot parse %q as a number", a.cols.label(i%width), i/width, s)
		}
		out.Floats[i] = v
	}
	return out, nil
}

func (a *TimeseriesAdapter) Adapt(raw any, batchSize int) (dataset.Dataset, error) {
	return adaptTable(&a.base, a.cols, raw, batchSize)
}

// ColumnNames returns the resolved column names.
func (a *TimeseriesAdapter) ColumnNames() []string { return a.cols.get() }

// ColumnTypes returns the user-specified column types.
func (a *TimeseriesAdapter) ColumnTypes() schema.ColumnTypes { return a.cols.types.Clone() }

// Lookback returns the configured lookback, or nil.
func (a *TimeseriesAdapter) Lookback() *int {
	if a.lookback == nil {
		return nil
	}
	lb := *a.lookback
	return &lb
}

func adaptTable(b *base, cols *columns, raw any, batchSize int) (dataset.Dataset, error) {
	var header []string
	switch v := raw.(type) {
	case *dataset.Frame:
		header = v.Columns()
	case dataset.ColumnNamer:
		header = v.Columns()
	}
	if header != nil {
		if err := cols.resolve(b.component(), header, len(header)); err != nil {
			return nil, err
		}
	}
	resolve := func(t *tensor.Tensor) error {
		return cols.resolve(b.component(), header, t.Shape[1])
	}
	return b.adapt(raw, batchSize, resolve, cols.attach)
}
