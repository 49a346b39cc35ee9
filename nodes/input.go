package nodes

import (
	"github.com/YuminosukeSato/autoscigo/adapters"
	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/framework"
	"github.com/YuminosukeSato/autoscigo/hyperpreprocessors"
	"github.com/YuminosukeSato/autoscigo/preprocessors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Input is a generic numerical input.
type Input struct {
	base
}

// NewInput returns an Input node named name.
func NewInput(name string, opts ...Option) *Input {
	return &Input{base: newBase(name, InputClass, opts)}
}

func (n *Input) Build(b framework.Builder) (framework.Tensor, error) {
	return n.input(b, n.shape, tensor.Float)
}

func (n *Input) Adapter() (adapters.Adapter, error) { return adapters.NewInputAdapter(n.name), nil }
func (n *Input) Analyser() analysers.Analyser       { return analysers.NewInputAnalyser(n.name) }

func (n *Input) ConfigFromAdapter(a adapters.Adapter) error { return n.configFromAdapter(a) }

func (n *Input) ConfigFromAnalyser(analysers.Analyser) error { return n.mutable("analyser") }

func (n *Input) HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor { return nil }

func (n *Input) Config() serialization.Config { return n.config() }

// ImageInput accepts (N, H, W) or (N, H, W, C) images.
type ImageInput struct {
	base
	hasChannelDim bool
}

// NewImageInput returns an ImageInput node named name.
func NewImageInput(name string, opts ...Option) *ImageInput {
	return &ImageInput{base: newBase(name, ImageInputClass, opts)}
}

// HasChannelDim reports whether the images carry a channel axis.
func (n *ImageInput) HasChannelDim() bool { return n.hasChannelDim }

func (n *ImageInput) Build(b framework.Builder) (framework.Tensor, error) {
	return n.input(b, n.shape, tensor.Float)
}

func (n *ImageInput) Adapter() (adapters.Adapter, error) {
	return adapters.NewImageAdapter(n.name), nil
}

func (n *ImageInput) Analyser() analysers.Analyser { return analysers.NewImageAnalyser(n.name) }

func (n *ImageInput) ConfigFromAdapter(a adapters.Adapter) error { return n.configFromAdapter(a) }

func (n *ImageInput) ConfigFromAnalyser(a analysers.Analyser) error {
	if err := n.mutable("has_channel_dim"); err != nil {
		return err
	}
	ia, ok := a.(*analysers.ImageAnalyser)
	if !ok {
		return wrongComponent(n.component(), "analyser", "*analysers.ImageAnalyser", a)
	}
	n.hasChannelDim = ia.HasChannelDim()
	return nil
}

// HyperPreprocessors adds a trailing channel axis to images that lack one.
func (n *ImageInput) HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor {
	if n.hasChannelDim {
		return nil
	}
	return []hyperpreprocessors.HyperPreprocessor{
		hyperpreprocessors.NewDefault(preprocessors.NewAddOneDimension()),
	}
}

func (n *ImageInput) Config() serialization.Config {
	cfg := n.config()
	cfg["has_channel_dim"] = n.hasChannelDim
	return cfg
}

// TextInput accepts one sentence per sample.
type TextInput struct {
	base
}

// NewTextInput returns a TextInput node named name.
func NewTextInput(name string, opts ...Option) *TextInput {
	return &TextInput{base: newBase(name, TextInputClass, opts)}
}

func (n *TextInput) Build(b framework.Builder) (framework.Tensor, error) {
	return n.input(b, n.shape, tensor.String)
}

func (n *TextInput) Adapter() (adapters.Adapter, error) { return adapters.NewTextAdapter(n.name), nil }
func (n *TextInput) Analyser() analysers.Analyser       { return analysers.NewTextAnalyser(n.name) }

func (n *TextInput) ConfigFromAdapter(a adapters.Adapter) error { return n.configFromAdapter(a) }

func (n *TextInput) ConfigFromAnalyser(analysers.Analyser) error { return n.mutable("analyser") }

func (n *TextInput) HyperPreprocessors() []hyperpreprocessors.HyperPreprocessor { return nil }

func (n *TextInput) Config() serialization.Config { return n.config() }
