package preprocessors

import (
	"context"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// AddOneDimension appends a trailing axis of size 1, turning (batch, H, W)
// images into (batch, H, W, 1).
type AddOneDimension struct {
	stateless
}

// NewAddOneDimension returns the preprocessor.
func NewAddOneDimension() *AddOneDimension {
	return &AddOneDimension{stateless: newStateless()}
}

func (a *AddOneDimension) Name() string { return AddOneDimensionClass }

func (a *AddOneDimension) Fit(context.Context, dataset.Dataset) error {
	return a.fit(AddOneDimensionClass)
}

func (a *AddOneDimension) Transform(t *tensor.Tensor) (*tensor.Tensor, error) {
	return t.ExpandDims(), nil
}

func (a *AddOneDimension) Config() serialization.Config {
	return stateConfig(a.state, serialization.Config{})
}

// Passthrough returns batches unchanged. Conditional hyper preprocessors
// resolve to it when their step is switched off.
type Passthrough struct {
	stateless
}

// NewPassthrough returns the identity preprocessor.
func NewPassthrough() *Passthrough {
	return &Passthrough{stateless: newStateless()}
}

func (p *Passthrough) Name() string { return PassthroughClass }

func (p *Passthrough) Fit(context.Context, dataset.Dataset) error {
	return p.fit(PassthroughClass)
}

func (p *Passthrough) Transform(t *tensor.Tensor) (*tensor.Tensor, error) { return t, nil }

func (p *Passthrough) Config() serialization.Config {
	return stateConfig(p.state, serialization.Config{})
}
