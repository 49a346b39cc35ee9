package adapters

import (
	"fmt"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// InputAdapter accepts numerical data of any rank. A flat (N,) input
// becomes (N, 1).
type InputAdapter struct {
	base
}

// NewInputAdapter returns an adapter for the node named node.
func NewInputAdapter(node string) *InputAdapter {
	return &InputAdapter{base: newBase(node, "Input", func(t *tensor.Tensor) (*tensor.Tensor, error) {
		out, err := requireNumeric(t)
		if err != nil {
			return nil, err
		}
		if out.Rank() == 1 {
			out = out.ExpandDims()
		}
		return out, nil
	})}
}

func (a *InputAdapter) Adapt(raw any, batchSize int) (dataset.Dataset, error) {
	return a.adapt(raw, batchSize, nil, nil)
}

// ImageAdapter accepts numerical data of shape (batch, H, W) or
// (batch, H, W, C).
type ImageAdapter struct {
	base
}

// NewImageAdapter returns an adapter for the node named node.
func NewImageAdapter(node string) *ImageAdapter {
	return &ImageAdapter{base: newBase(node, "ImageInput", func(t *tensor.Tensor) (*tensor.Tensor, error) {
		if t.Rank() != 3 && t.Rank() != 4 {
			return nil, errors.NewValueError("ImageAdapter",
				fmt.Sprintf("expect the data to have 3 or 4 dimensions, got shape %s", t.Shape))
		}
		return requireNumeric(t)
	})}
}

func (a *ImageAdapter) Adapt(raw any, batchSize int) (dataset.Dataset, error) {
	return a.adapt(raw, batchSize, nil, nil)
}

// TextAdapter accepts one string per sample, shaped (N,) or (N, 1). The
// canonical form is (N, 1).
type TextAdapter struct {
	base
}

// NewTextAdapter returns an adapter for the node named node.
func NewTextAdapter(node string) *TextAdapter {
	return &TextAdapter{base: newBase(node, "TextInput", func(t *tensor.Tensor) (*tensor.Tensor, error) {
		if t.DType != tensor.String {
			return nil, errors.NewValueError("TextAdapter", "expect the data to be strings, got "+t.DType.String())
		}
		switch {
		case t.Rank() == 1:
			return t.ExpandDims(), nil
		case t.Rank() == 2 && t.Shape[1] == 1:
			return t, nil
		}
		return nil, errors.NewValueError("TextAdapter",
			fmt.Sprintf("expect one sentence per sample, got shape %s", t.Shape))
	})}
}

func (a *TextAdapter) Adapt(raw any, batchSize int) (dataset.Dataset, error) {
	return a.adapt(raw, batchSize, nil, nil)
}
