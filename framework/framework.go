// Package framework はニューラルネットワーク側とのシンボリックテンソル境界を定義する。
//
// Node.Build は Builder を通じて入力プレースホルダを宣言するだけで、
// 実際のグラフ構築や学習は外部のフレームワーク実装が担う。
package framework

import (
	"fmt"
	"sync"

	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Tensor はフレームワーク側のシンボリックテンソル
type Tensor interface {
	// Name は入力名
	Name() string
	// Shape はバッチ軸 (Unknown) を含む形状
	Shape() tensor.Shape
	// DType は要素型
	DType() tensor.DType
}

// Builder は入力プレースホルダを作成する外部フレームワークの境界
type Builder interface {
	// Input declares a model input with the per-sample shape.
	Input(name string, shape tensor.Shape, dtype tensor.DType) (Tensor, error)
}

// Placeholder は Builder の既定実装が返すシンボリックテンソル
type Placeholder struct {
	name  string
	shape tensor.Shape
	dtype tensor.DType
}

func (p *Placeholder) Name() string        { return p.name }
func (p *Placeholder) Shape() tensor.Shape { return p.shape.Clone() }
func (p *Placeholder) DType() tensor.DType { return p.dtype }

func (p *Placeholder) String() string {
	return fmt.Sprintf("Placeholder(name=%s, shape=%s, dtype=%s)", p.name, p.shape, p.dtype)
}

// PlaceholderBuilder records declared inputs without any backing framework.
// Input names must be unique.
type PlaceholderBuilder struct {
	mu     sync.Mutex
	inputs []*Placeholder
}

// NewPlaceholderBuilder returns an empty builder.
func NewPlaceholderBuilder() *PlaceholderBuilder {
	return &PlaceholderBuilder{}
}

// Input implements Builder.
func (b *PlaceholderBuilder) Input(name string, shape tensor.Shape, dtype tensor.DType) (Tensor, error) {
	if name == "" {
		return nil, errors.NewValueError("PlaceholderBuilder.Input", "input name is required")
	}
	if shape == nil {
		return nil, errors.NewConfigurationError(name, "shape", "input shape is unresolved")
	}
	if dtype == tensor.Invalid {
		return nil, errors.NewConfigurationError(name, "dtype", "input dtype is unresolved")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.inputs {
		if in.name == name {
			return nil, errors.NewConfigurationError(name, "name", "input declared twice")
		}
	}
	p := &Placeholder{
		name:  name,
		shape: append(tensor.Shape{tensor.Unknown}, shape...),
		dtype: dtype,
	}
	b.inputs = append(b.inputs, p)
	return p, nil
}

// Inputs returns the declared inputs in declaration order.
func (b *PlaceholderBuilder) Inputs() []Tensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Tensor, len(b.inputs))
	for i, in := range b.inputs {
		out[i] = in
	}
	return out
}
