package nodes

import (
	"github.com/YuminosukeSato/autoscigo/adapters"
	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/framework"
	"github.com/YuminosukeSato/autoscigo/hyperpreprocessors"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// columns は表形式ノードの列名と列型
type columns struct {
	names []string
	types schema.ColumnTypes
}

func newColumns(component string, names []string, types schema.ColumnTypes) (columns, error) {
	if len(types) > 0 && len(names) == 0 {
		return columns{}, errors.NewConfigurationError(component, "column_types",
			"column_names must be specified when column_types is specified")
	}
	if err := types.Validate(names); err != nil {
		return columns{}, errors.NewConfigurationError(component, "column_types", err.Error())
	}
	return columns{names: append([]string(nil), names...), types: types.Clone()}, nil
}

// fromAdapter takes the names the adapter resolved. Types already on the
// node are kept.
func (c *columns) fromAdapter(names []string, types schema.ColumnTypes) {
	if len(names) > 0 {
		c.names = append([]string(nil), names...)
	}
	merged := types.Clone()
	if merged == nil {
		merged = schema.ColumnTypes{}
	}
	for k, v := range c.types {
		merged[k] = v
	}
	c.types = merged
}

// fromAnalyser fills the type of every column the user left untyped.
func (c *columns) fromAnalyser(component string, sa *analysers.StructuredDataAnalyser) error {
	inferred := sa.InferredTypes()
	if inferred == nil {
		return errors.NewConfigurationError(component, "column_types", "the analyser has not been finalized")
	}
	if len(c.names) == 0 {
		c.names = sa.ColumnNames()
	}
	if len(c.names) != len(inferred) {
		return errors.NewConfigurationErrorf(component, "column_names",
			"%d column names but the data has %d columns", len(c.names), len(inferred))
	}
	if c.types == nil {
		c.types = make(schema.ColumnTypes, len(inferred))
	}
	for j, name := range c.names {
		if _, ok := c.types[name]; !ok {
			c.types[name] = inferred[j]
		}
	}
	return nil
}

func (c *columns) require(component string) error {
	if len(c.names) == 0 {
		return errors.NewConfigurationError(component, "column_names",
			"column names are unresolved; adapt data or set them explicitly")
	}
	if !c.types.Complete(c.names) {
		return errors.NewConfigurationError(component, "column_types",
			"column types are unresolved; analyse data or set them explicitly")
	}
	return nil
}

func (c *columns) config(cfg serialization.Config) {
	var names []string
	if c.names != nil {
		names = append([]string(nil), c.names...)
	}
	cfg["column_names"] = names
	cfg["column_types"] = c.types.Strings()
}

func columnsFromConfig(cfg serialization.Config) ([]string, schema.ColumnTypes, error) {
	names, err := cfg.Strings("column_names")
	if err != nil {
		return nil, nil, err
	}
	raw, err := cfg.StringMap("column_types")
	if err != nil {
		return nil, nil, err
	}
	types, err := schema.ParseColumnTypes(raw)
	if err != nil {
		return nil, nil, err
	}
	return names, types, nil
}

// StructuredDataInput accepts (N, columns) tables of numerical and
// categorical values.
type StructuredDataInput struct {
	base
	cols columns
}

// NewStructuredDataInput returns a StructuredDataInput node. columnNames may be
// nil and resolved later from a header; columnTypes requires columnNames.
func NewStructuredDataInput(name string, columnNames []string, columnTypes schema.ColumnTypes, opts ...Option) (*StructuredDataInput, error) {
	n := &StructuredDataInput{base: newBase(name, StructuredDataInputClass, opts)}
	cols, err := newColumns(n.component(), columnNames, columnTypes)
	if err != nil {
		return nil, err
	}
	n.cols = cols
	return n, nil
}

// ColumnNames returns the column names, or nil while unresolved.
func (n *StructuredDataInput) ColumnNames() []string {
	if n.cols.names == nil {
		return nil
	}
	return append([]string(nil), n.cols.names...)
}

// ColumnTypes returns the known column types.
func (n *StructuredDataInput) ColumnTypes() schema.ColumnTypes { return n.cols.types.Clone() }

func (n *StructuredDataInput) Build(b framework.Builder) (framework.Tensor, error) {
	if n.shape == nil {
		return n.input(b, nil, tensor.String)
	}
	if err := n.cols.require(n.component()); err != nil {
		return nil, err
	}
	return n.input(b, n.shape, tensor.String)
}

func (n *StructuredDataInput) Adapter() (adapters.Adapter, error) {
	return adapters.NewStructuredDataAdapter(n.name, n.cols.names, n.cols.types)
}

func (n *StructuredDataInput) Analyser() analysers.Analyser {
	return analysers.NewStructuredDataAnalyser(n.name, n.cols.names, n.cols.types)
}

func (n *StructuredDataInput) ConfigFromAdapter(a adapters.Adapter) error {
	if err := n.mutable("adapter"); err != nil {
		return err
	}
	sa, ok := a.(*adapters.StructuredDataAdapter)
	if !ok {
		return wrongComponent(n.component(), "adapter", "*adapters.StructuredDataAdapter", a)
	}
	if err := n.configFromAdapter(a); err != nil {
		return err
	}
	n.cols.fromAdapter(sa.ColumnNames(), sa.ColumnTypes())
	return nil
}

func (n *StructuredDataInput) ConfigFromAnalyser(a analysers.Analyser) error {
	if err := n.mutable("column_types"); err != nil {
		return err
	}
	sa, ok := a.(*analysers.StructuredDataAnalyser)
	if !ok {
		return wrongComponent(n.component(), "analyser", "*analysers.StructuredDataAnalyser", a)
	}
	return n.cols.fromAnalyser(n.component(), sa)
}

func (n *StructuredDataInput) HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor {
	return nil
}

func (n *StructuredDataInput) Config() serialization.Config {
	cfg := n.config()
	n.cols.config(cfg)
	return cfg
}

// TimeseriesInput accepts (N, features) numerical tables. Each model sample
// is a window of lookback consecutive rows.
type TimeseriesInput struct {
	base
	cols     columns
	lookback *int
}

// NewTimeseriesInput returns a TimeseriesInput node. lookback may be nil,
// in which case it must be supplied by the adapter before Build.
func NewTimeseriesInput(name string, lookback *int, columnNames []string, columnTypes schema.ColumnTypes, opts ...Option) (*TimeseriesInput, error) {
	n := &TimeseriesInput{base: newBase(name, TimeseriesInputClass, opts)}
	if lookback != nil && *lookback <= 0 {
		return nil, errors.NewConfigurationErrorf(n.component(), "lookback", "must be positive, got %d", *lookback)
	}
	cols, err := newColumns(n.component(), columnNames, columnTypes)
	if err != nil {
		return nil, err
	}
	n.cols = cols
	n.lookback = copyInt(lookback)
	return n, nil
}

// Lookback returns the lookback, or nil while unresolved.
func (n *TimeseriesInput) Lookback() *int { return copyInt(n.lookback) }

// ColumnNames returns the column names, or nil while unresolved.
func (n *TimeseriesInput) ColumnNames() []string {
	if n.cols.names == nil {
		return nil
	}
	return append([]string(nil), n.cols.names...)
}

// ColumnTypes returns the known column types.
func (n *TimeseriesInput) ColumnTypes() schema.ColumnTypes { return n.cols.types.Clone() }

// Build declares a (lookback, features) input when the shape is 1-D. The
// node's own shape is left as it is.
func (n *TimeseriesInput) Build(b framework.Builder) (framework.Tensor, error) {
	if n.shape == nil {
		return n.input(b, nil, tensor.Float)
	}
	if err := n.cols.require(n.component()); err != nil {
		return nil, err
	}
	shape := n.shape.Clone()
	if shape.Rank() == 1 {
		if n.lookback == nil {
			return nil, errors.NewConfigurationError(n.component(), "lookback",
				"lookback is required to build a 1-D time series input")
		}
		shape = tensor.Shape{*n.lookback, shape[0]}
	}
	return n.input(b, shape, tensor.Float)
}

func (n *TimeseriesInput) Adapter() (adapters.Adapter, error) {
	return adapters.NewTimeseriesAdapter(n.name, n.lookback, n.cols.names, n.cols.types)
}

func (n *TimeseriesInput) Analyser() analysers.Analyser {
	return analysers.NewTimeseriesAnalyser(n.name, n.cols.names, n.cols.types)
}

func (n *TimeseriesInput) ConfigFromAdapter(a adapters.Adapter) error {
	if err := n.mutable("adapter"); err != nil {
		return err
	}
	ta, ok := a.(*adapters.TimeseriesAdapter)
	if !ok {
		return wrongComponent(n.component(), "adapter", "*adapters.TimeseriesAdapter", a)
	}
	if err := n.configFromAdapter(a); err != nil {
		return err
	}
	n.cols.fromAdapter(ta.ColumnNames(), ta.ColumnTypes())
	if lb := ta.Lookback(); lb != nil {
		n.lookback = lb
	}
	return nil
}

func (n *TimeseriesInput) ConfigFromAnalyser(a analysers.Analyser) error {
	if err := n.mutable("column_types"); err != nil {
		return err
	}
	ta, ok := a.(*analysers.TimeseriesAnalyser)
	if !ok {
		return wrongComponent(n.component(), "analyser", "*analysers.TimeseriesAnalyser", a)
	}
	return n.cols.fromAnalyser(n.component(), &ta.StructuredDataAnalyser)
}

func (n *TimeseriesInput) HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor {
	return nil
}

func (n *TimeseriesInput) Config() serialization.Config {
	cfg := n.config()
	n.cols.config(cfg)
	var lookback any
	if n.lookback != nil {
		lookback = *n.lookback
	}
	cfg["lookback"] = lookback
	return cfg
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
