// Package nodes は入力ノードを定義する。
//
// Node は1つの入力モダリティを表し、Adapter と Analyser の結果から自身の設定
// (要素形状、列名、列型、lookback など) を確定させる。Freeze 後の設定変更は
// 設定エラーになる。Build はフレームワーク側の入力プレースホルダを宣言するだけで、
// ノード自身は変更しない。
package nodes

import (
	"fmt"

	"github.com/YuminosukeSato/autoscigo/adapters"
	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/framework"
	"github.com/YuminosukeSato/autoscigo/hyperpreprocessors"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Class tags of the node variants.
const (
	InputClass               = "Input"
	ImageInputClass          = "ImageInput"
	TextInputClass           = "TextInput"
	StructuredDataInputClass = "StructuredDataInput"
	TimeseriesInputClass     = "TimeseriesInput"
)

// Node is one input of the pipeline.
type Node interface {
	// Name returns the input name used for the framework placeholder.
	Name() string
	// Modality returns the class tag of the variant.
	Modality() string
	// Shape returns the per-sample shape, or nil while unresolved.
	Shape() tensor.Shape
	// Build declares the model input. It fails with a configuration error
	// while a required field is unresolved.
	Build(b framework.Builder) (framework.Tensor, error)
	// Adapter returns a fresh adapter configured from the node.
	Adapter() (adapters.Adapter, error)
	// Analyser returns a fresh analyser configured from the node.
	Analyser() analysers.Analyser
	// ConfigFromAdapter copies what the adapter resolved.
	ConfigFromAdapter(a adapters.Adapter) error
	// ConfigFromAnalyser copies what the analyser inferred.
	ConfigFromAnalyser(a analysers.Analyser) error
	// HyperPreprocessors returns the preprocessing the modality always needs.
	HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor
	// Freeze makes the configuration read-only.
	Freeze()
	// Frozen reports whether Freeze was called.
	Frozen() bool
	// Config returns the persisted configuration.
	Config() serialization.Config
}

// Serialize wraps n in its persisted envelope.
func Serialize(n Node) serialization.Object {
	return serialization.Object{ClassName: n.Modality(), Config: n.Config()}
}

// Option configures the fields shared by all nodes.
type Option func(*base)

// WithShape sets the per-sample shape ahead of adaptation.
func WithShape(shape tensor.Shape) Option {
	return func(b *base) { b.shape = shape.Clone() }
}

// base holds the fields shared by every variant.
type base struct {
	name     string
	modality string
	shape    tensor.Shape
	frozen   bool
}

func newBase(name, modality string, opts []Option) base {
	b := base{name: name, modality: modality}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string        { return b.name }
func (b *base) Modality() string    { return b.modality }
func (b *base) Shape() tensor.Shape { return b.shape.Clone() }
func (b *base) Freeze()             { b.frozen = true }
func (b *base) Frozen() bool        { return b.frozen }

func (b *base) component() string {
	return fmt.Sprintf("%s(%s)", b.modality, b.name)
}

// mutable fails once the node is frozen.
func (b *base) mutable(field string) error {
	if b.frozen {
		return errors.NewConfigurationError(b.component(), field, errors.ErrFrozen.Error())
	}
	return nil
}

func (b *base) input(fb framework.Builder, shape tensor.Shape, dtype tensor.DType) (framework.Tensor, error) {
	if shape == nil {
		return nil, errors.NewConfigurationError(b.component(), "shape",
			"the shape is unresolved; adapt data or set it explicitly")
	}
	if fb == nil {
		fb = framework.NewPlaceholderBuilder()
	}
	return fb.Input(b.name, shape, dtype)
}

// configFromAdapter copies the locked element shape.
func (b *base) configFromAdapter(a adapters.Adapter) error {
	if err := b.mutable("shape"); err != nil {
		return err
	}
	if a == nil {
		return errors.NewConfigurationError(b.component(), "adapter", "adapter is nil")
	}
	if s := a.Shape(); s != nil {
		b.shape = s
	}
	return nil
}

func (b *base) config() serialization.Config {
	var shape []int
	if b.shape != nil {
		shape = []int(b.shape.Clone())
	}
	return serialization.Config{"name": b.name, "shape": shape}
}

func baseFromConfig(modality string, cfg serialization.Config) (base, error) {
	name, err := cfg.String("name")
	if err != nil {
		return base{}, err
	}
	shape, err := cfg.Ints("shape")
	if err != nil {
		return base{}, err
	}
	b := base{name: name, modality: modality}
	if shape != nil {
		b.shape = tensor.Shape(shape)
	}
	return b, nil
}

func wrongComponent(component, field string, want string, got any) error {
	return errors.NewConfigurationErrorf(component, field, "expected %s, got %T", want, got)
}
