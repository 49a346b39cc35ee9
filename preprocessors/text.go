package preprocessors

import (
	"context"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/layers"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
	"github.com/YuminosukeSato/autoscigo/tokenization"
)

// TextToBertInputs turns sentences into (batch, 3, L) int32 encoder inputs.
type TextToBertInputs struct {
	state      *model.StateManager
	vectorizer *layers.TextVectorizationWithTokenizer
}

// NewTextToBertInputs wraps a tokenizer with maximum sequence length maxSeqLen.
func NewTextToBertInputs(tok tokenization.Tokenizer, maxSeqLen int, opts ...layers.TextVectorizationOption) (*TextToBertInputs, error) {
	v, err := layers.NewTextVectorizationWithTokenizer(tok, maxSeqLen, opts...)
	if err != nil {
		return nil, err
	}
	return &TextToBertInputs{state: model.NewStateManager(), vectorizer: v}, nil
}

func (p *TextToBertInputs) Name() string { return TextToBertInputsClass }

// Fit learns nothing; the tokenizer vocabulary is fixed.
func (p *TextToBertInputs) Fit(context.Context, dataset.Dataset) error {
	if err := p.state.BeginFit(TextToBertInputsClass); err != nil {
		return err
	}
	defer p.state.EndFit()
	p.state.SetFitted()
	return nil
}

func (p *TextToBertInputs) Transform(t *tensor.Tensor) (*tensor.Tensor, error) {
	return p.vectorizer.Encode(t)
}

func (p *TextToBertInputs) IsFitted() bool { return p.state.IsFitted() }

func (p *TextToBertInputs) Config() serialization.Config {
	return stateConfig(p.state, p.vectorizer.Config())
}

func textToBertFromConfig(tok tokenization.Tokenizer) serialization.Constructor[Preprocessor] {
	return func(cfg serialization.Config) (Preprocessor, error) {
		if tok == nil {
			return nil, errors.NewConfigurationError(TextToBertInputsClass, "tokenizer",
				"no tokenizer was supplied to the registry")
		}
		v, err := layers.TextVectorizationFromConfig(tok, cfg)
		if err != nil {
			return nil, err
		}
		p := &TextToBertInputs{state: model.NewStateManager(), vectorizer: v}
		if err := stateFromConfig(p.state, cfg); err != nil {
			return nil, err
		}
		return p, nil
	}
}
