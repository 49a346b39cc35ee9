// Package adapters は生データを検証し、正準テンソルのストリームに変換する。
//
// Adapter は最初に見たバッチで要素形状と要素型を確定させ、以降のバッチが
// それと一致しない場合は設定エラーを返す。暗黙の変換は行わない。
package adapters

import (
	"fmt"
	"sync"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Adapter validates and canonicalizes the raw data of one node.
type Adapter interface {
	// Adapt converts raw into a batched dataset. In-memory inputs are
	// validated immediately; lazy datasets are validated batch by batch as
	// they are streamed.
	Adapt(raw any, batchSize int) (dataset.Dataset, error)
	// Shape returns the locked per-sample shape, or nil before the first batch.
	Shape() tensor.Shape
	// DType returns the locked element type.
	DType() tensor.DType
}

// canonicalizer converts one batch into the modality's canonical form.
type canonicalizer func(t *tensor.Tensor) (*tensor.Tensor, error)

// base holds the configuration locked by the first batch.
type base struct {
	node     string
	modality string
	convert  canonicalizer
	logger   log.Logger

	warnOnce sync.Once

	mu     sync.Mutex
	locked bool
	shape  tensor.Shape
	dtype  tensor.DType
}

func newBase(node, modality string, convert canonicalizer) base {
	return base{
		node:     node,
		modality: modality,
		convert:  convert,
		logger: log.GetLoggerWithName("adapters").With(
			log.NodeNameKey, node,
			log.NodeModalityKey, modality,
		),
	}
}

func (b *base) component() string {
	return fmt.Sprintf("%s(%s)", b.modality, b.node)
}

func (b *base) Shape() tensor.Shape {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shape.Clone()
}

func (b *base) DType() tensor.DType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dtype
}

// lock records the element shape and dtype of the first batch and checks
// every later batch against them.
func (b *base) lock(t *tensor.Tensor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	elem := t.ElementShape()
	if !b.locked {
		b.locked = true
		b.shape = elem
		b.dtype = t.DType
		b.logger.Debug("adapter locked configuration",
			log.OperationKey, log.OperationAdapt,
			log.ShapeKey, elem.String(),
			log.DataTypeKey, t.DType.String(),
		)
		return nil
	}
	if t.DType != b.dtype {
		return errors.NewConfigurationErrorf(b.component(), "dtype",
			"expected %s data as in the first batch, got %s", b.dtype, t.DType)
	}
	if !elem.Equal(b.shape) {
		return errors.NewConfigurationErrorf(b.component(), "shape",
			"expected element shape %s as in the first batch, got %s", b.shape, elem)
	}
	return nil
}

func (b *base) canonical(t *tensor.Tensor, extra func(*tensor.Tensor) error) (*tensor.Tensor, error) {
	if t == nil {
		return nil, errors.NewValueError(b.component(), "nil batch")
	}
	out, err := b.convert(t)
	if err != nil {
		return nil, errors.Wrap(err, b.component())
	}
	if out.DType != t.DType {
		b.warnOnce.Do(func() {
			errors.Warn(errors.NewDataConversionWarning(t.DType.String(), out.DType.String(),
				b.component()+" canonical element type"))
		})
	}
	if extra != nil {
		if err := extra(out); err != nil {
			return nil, err
		}
	}
	if err := b.lock(out); err != nil {
		return nil, err
	}
	return out, nil
}

// adapt is the shared Adapt implementation. extra runs on every canonical
// batch before it is locked; columns returns the column names to attach.
func (b *base) adapt(raw any, batchSize int, extra func(*tensor.Tensor) error, columns func(header []string) []string) (dataset.Dataset, error) {
	if ds, ok := raw.(dataset.Dataset); ok {
		var header []string
		if named, ok := ds.(dataset.ColumnNamer); ok {
			header = named.Columns()
		}
		out := dataset.Map(ds, func(t *tensor.Tensor) (*tensor.Tensor, error) {
			return b.canonical(t, extra)
		})
		if columns != nil {
			if cols := columns(header); cols != nil {
				out = dataset.WithColumns(out, cols)
			}
		}
		return out, nil
	}

	t, header, err := ToTensor(raw)
	if err != nil {
		return nil, errors.Wrap(err, b.component())
	}
	if t.BatchSize() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, b.component())
	}
	out, err := b.canonical(t, extra)
	if err != nil {
		return nil, err
	}
	ds := dataset.FromTensor(out, batchSize)
	if columns != nil {
		if cols := columns(header); cols != nil {
			ds = dataset.WithColumns(ds, cols)
		}
	}
	return ds, nil
}

// ToTensor converts an in-memory raw input to a tensor. The second result is
// the column header of tabular inputs, or nil.
func ToTensor(raw any) (*tensor.Tensor, []string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil, errors.NewValueError("adapters.ToTensor", "input data is nil")
	case *tensor.Tensor:
		return v, nil, nil
	case *dataset.Frame:
		return v.Tensor(), v.Columns(), nil
	case mat.Matrix:
		return tensor.FromMatrix(v), nil, nil
	case []float64:
		return &tensor.Tensor{Shape: tensor.Shape{len(v)}, DType: tensor.Float, Floats: v}, nil, nil
	case []string:
		return &tensor.Tensor{Shape: tensor.Shape{len(v)}, DType: tensor.String, Strings: v}, nil, nil
	case [][]float64:
		cols, err := rectangular(len(v), func(i int) int { return len(v[i]) })
		if err != nil {
			return nil, nil, err
		}
		data := make([]float64, 0, len(v)*cols)
		for _, row := range v {
			data = append(data, row...)
		}
		return &tensor.Tensor{Shape: tensor.Shape{len(v), cols}, DType: tensor.Float, Floats: data}, nil, nil
	case [][]string:
		cols, err := rectangular(len(v), func(i int) int { return len(v[i]) })
		if err != nil {
			return nil, nil, err
		}
		data := make([]string, 0, len(v)*cols)
		for _, row := range v {
			data = append(data, row...)
		}
		return &tensor.Tensor{Shape: tensor.Shape{len(v), cols}, DType: tensor.String, Strings: data}, nil, nil
	}
	return nil, nil, errors.NewValueError("adapters.ToTensor", fmt.Sprintf("unsupported input type %T", raw))
}

func rectangular(rows int, width func(int) int) (int, error) {
	if rows == 0 {
		return 0, nil
	}
	cols := width(0)
	for i := 1; i < rows; i++ {
		if width(i) != cols {
			return 0, errors.NewDimensionError("adapters.ToTensor", cols, width(i), 1)
		}
	}
	return cols, nil
}

func requireNumeric(t *tensor.Tensor) (*tensor.Tensor, error) {
	switch t.DType {
	case tensor.Float:
		return t, nil
	case tensor.Int:
		out := &tensor.Tensor{Shape: t.Shape.Clone(), DType: tensor.Float, Floats: make([]float64, len(t.Ints))}
		for i, v := range t.Ints {
			out.Floats[i] = float64(v)
		}
		return out, nil
	}
	return nil, errors.NewValueError("adapters", "expect the data to be numerical, got "+t.DType.String())
}
