package preprocessors

import (
	"context"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/layers"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// CategoricalToNumerical encodes structured string columns into floats:
// categorical columns through a learned vocabulary, numerical columns by
// parsing with zero imputation.
type CategoricalToNumerical struct {
	columnNames []string
	columnTypes schema.ColumnTypes
	encoding    *layers.MultiCategoryEncoding
}

// NewCategoricalToNumerical は列名と列の種類から作成する。
// 全ての列に種類が必要。
func NewCategoricalToNumerical(columnNames []string, columnTypes schema.ColumnTypes) (*CategoricalToNumerical, error) {
	if len(columnNames) == 0 {
		return nil, errors.NewConfigurationError(CategoricalToNumericalClass, "column_names", "column names are required")
	}
	ordered, err := columnTypes.Ordered(columnNames)
	if err != nil {
		return nil, errors.NewConfigurationError(CategoricalToNumericalClass, "column_types", err.Error())
	}
	encodings := make([]layers.Encoding, len(ordered))
	for i, t := range ordered {
		if t == schema.Categorical {
			encodings[i] = layers.EncodingInt
		} else {
			encodings[i] = layers.EncodingNone
		}
	}
	enc, err := layers.NewMultiCategoryEncoding(encodings)
	if err != nil {
		return nil, err
	}
	return &CategoricalToNumerical{
		columnNames: append([]string(nil), columnNames...),
		columnTypes: columnTypes.Clone(),
		encoding:    enc,
	}, nil
}

func (c *CategoricalToNumerical) Name() string { return CategoricalToNumericalClass }

// Fit adapts one vocabulary per categorical column.
func (c *CategoricalToNumerical) Fit(ctx context.Context, ds dataset.Dataset) error {
	if err := c.encoding.Adapt(ctx, ds); err != nil {
		return errors.Wrap(err, CategoricalToNumericalClass+".Fit")
	}
	return nil
}

func (c *CategoricalToNumerical) Transform(t *tensor.Tensor) (*tensor.Tensor, error) {
	return c.encoding.Transform(t)
}

func (c *CategoricalToNumerical) IsFitted() bool { return c.encoding.IsFitted() }

// Encoding exposes the wrapped layer.
func (c *CategoricalToNumerical) Encoding() *layers.MultiCategoryEncoding { return c.encoding }

func (c *CategoricalToNumerical) Config() serialization.Config {
	return serialization.Config{
		"column_names": append([]string(nil), c.columnNames...),
		"column_types": c.columnTypes.Strings(),
		"encoding":     serialization.Object{ClassName: "MultiCategoryEncoding", Config: c.encoding.Config()},
	}
}

func categoricalFromConfig(cfg serialization.Config) (Preprocessor, error) {
	names, err := cfg.Strings("column_names")
	if err != nil {
		return nil, err
	}
	raw, err := cfg.StringMap("column_types")
	if err != nil {
		return nil, err
	}
	types, err := schema.ParseColumnTypes(raw)
	if err != nil {
		return nil, err
	}
	c, err := NewCategoricalToNumerical(names, types)
	if err != nil {
		return nil, err
	}
	if cfg.Has("encoding") {
		obj, err := cfg.Object("encoding")
		if err != nil {
			return nil, err
		}
		enc, err := layers.MultiCategoryEncodingFromConfig(obj.Config)
		if err != nil {
			return nil, err
		}
		if len(enc.Encodings()) != len(names) {
			return nil, errors.NewConfigurationErrorf(CategoricalToNumericalClass, "encoding",
				"%d encodings for %d columns", len(enc.Encodings()), len(names))
		}
		c.encoding = enc
	}
	return c, nil
}
