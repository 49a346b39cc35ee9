package analysers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// CategoricalRatio is the distinct-to-numeric-count ratio below which a
// numeric column is treated as categorical.
const CategoricalRatio = 0.05

// missingValues are skipped when inferring column types.
var missingValues = map[string]struct{}{
	"": {}, "na": {}, "nan": {}, "null": {}, "none": {},
}

// ColumnStats holds the running statistics of one column.
type ColumnStats struct {
	Name string
	// Numeric is the number of values that parse as numbers.
	Numeric int
	// NonNumeric is the number of values that do not.
	NonNumeric int
	// Missing is the number of empty or NaN-like values.
	Missing int
	// distinct numeric values
	numbers map[float64]struct{}
	// distinct values of any kind
	values map[string]struct{}
}

// DistinctNumeric returns the number of distinct numeric values.
func (c *ColumnStats) DistinctNumeric() int { return len(c.numbers) }

// Distinct returns the number of distinct values.
func (c *ColumnStats) Distinct() int { return len(c.values) }

func (c *ColumnStats) addString(s string) {
	c.values[s] = struct{}{}
	trimmed := strings.TrimSpace(s)
	if _, ok := missingValues[strings.ToLower(trimmed)]; ok {
		c.Missing++
		return
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		c.NonNumeric++
		return
	}
	c.Numeric++
	c.numbers[v] = struct{}{}
}

func (c *ColumnStats) addNumber(v float64) {
	if v != v {
		c.Missing++
		return
	}
	c.values[strconv.FormatFloat(v, 'g', -1, 64)] = struct{}{}
	c.Numeric++
	c.numbers[v] = struct{}{}
}

// infer returns categorical if any value is non-numeric or the ratio of
// distinct numeric values is below CategoricalRatio.
func (c *ColumnStats) infer() schema.ColumnType {
	if c.NonNumeric > 0 {
		return schema.Categorical
	}
	if c.Numeric == 0 {
		return schema.Numerical
	}
	if float64(len(c.numbers))/float64(c.Numeric) < CategoricalRatio {
		return schema.Categorical
	}
	return schema.Numerical
}

// StructuredDataAnalyser accumulates per-column statistics of a (N, columns)
// table and infers the type of every column the user did not type.
type StructuredDataAnalyser struct {
	base
	names     []string
	userTypes schema.ColumnTypes
	columns   []*ColumnStats
	inferred  []schema.ColumnType
	numeric   bool
}

// NewStructuredDataAnalyser returns an analyser for the node named node.
// columnNames may be nil when the adapter resolves them during the same pass.
func NewStructuredDataAnalyser(node string, columnNames []string, columnTypes schema.ColumnTypes) *StructuredDataAnalyser {
	return &StructuredDataAnalyser{
		base:      newBase(node, "StructuredDataInput"),
		names:     append([]string(nil), columnNames...),
		userTypes: columnTypes.Clone(),
	}
}

func (a *StructuredDataAnalyser) Update(t *tensor.Tensor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(t); err != nil {
		return err
	}
	if t.Rank() != 2 {
		return errors.NewValueError(a.component(), fmt.Sprintf("expect the data to be a 2-D table, got shape %s", t.Shape))
	}
	if a.numeric && t.DType != tensor.Float {
		return errors.NewValueError(a.component(), "expect the data to be numerical, got "+t.DType.String())
	}
	if !a.numeric && t.DType != tensor.String {
		return errors.NewValueError(a.component(), "expect the data to be strings, got "+t.DType.String())
	}
	cols := t.Shape[1]
	if a.columns == nil {
		if len(a.names) > 0 && len(a.names) != cols {
			return errors.NewConfigurationErrorf(a.component(), "column_names",
				"%d column names were given but the data has %d columns", len(a.names), cols)
		}
		if len(a.names) == 0 {
			a.names = schema.DefaultNames(cols)
		}
		a.columns = make([]*ColumnStats, cols)
		for j := range a.columns {
			a.columns[j] = &ColumnStats{
				Name:    a.names[j],
				numbers: make(map[float64]struct{}),
				values:  make(map[string]struct{}),
			}
		}
	}
	rows := t.BatchSize()
	for i := 0; i < rows; i++ {
		for j, c := range a.columns {
			if a.numeric {
				c.addNumber(t.Floats[i*cols+j])
			} else {
				c.addString(t.Strings[i*cols+j])
			}
		}
	}
	return nil
}

func (a *StructuredDataAnalyser) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.finalize(); err != nil {
		return err
	}
	a.inferred = make([]schema.ColumnType, len(a.columns))
	for j, c := range a.columns {
		if t, ok := a.userTypes[c.Name]; ok {
			a.inferred[j] = t
			continue
		}
		a.inferred[j] = c.infer()
	}
	return nil
}

// ColumnNames returns the column names, generated when none were given.
func (a *StructuredDataAnalyser) ColumnNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.names...)
}

// InferredTypes returns the type of every column by position. It is nil
// before Finalize.
func (a *StructuredDataAnalyser) InferredTypes() []schema.ColumnType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]schema.ColumnType(nil), a.inferred...)
}

// ColumnTypes returns the inferred types keyed by column name.
func (a *StructuredDataAnalyser) ColumnTypes() schema.ColumnTypes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inferred == nil {
		return nil
	}
	out := make(schema.ColumnTypes, len(a.inferred))
	for j, t := range a.inferred {
		out[a.names[j]] = t
	}
	return out
}

// Columns returns the per-column statistics.
func (a *StructuredDataAnalyser) Columns() []*ColumnStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*ColumnStats(nil), a.columns...)
}

// TimeseriesAnalyser is a StructuredDataAnalyser over numerical tables.
type TimeseriesAnalyser struct {
	StructuredDataAnalyser
}

// NewTimeseriesAnalyser returns an analyser for the node named node.
func NewTimeseriesAnalyser(node string, columnNames []string, columnTypes schema.ColumnTypes) *TimeseriesAnalyser {
	return &TimeseriesAnalyser{StructuredDataAnalyser: StructuredDataAnalyser{
		base:      newBase(node, "TimeseriesInput"),
		names:     append([]string(nil), columnNames...),
		userTypes: columnTypes.Clone(),
		numeric:   true,
	}}
}
