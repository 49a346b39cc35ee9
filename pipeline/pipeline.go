// Package pipeline は入力ノードごとの設定・前処理の学習・変換を順に実行する。
//
// Fit の流れ:
//
//	adapt → analyse (1パス) → ConfigFromAdapter / ConfigFromAnalyser → Freeze
//	→ HyperPreprocessor の解決 → Preprocessor の Fit (各1回) → Transform
//
// 学習済みのパイプラインは Save / Load で JSON 文書として永続化できる。
package pipeline

import (
	"context"
	"time"

	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/framework"
	"github.com/YuminosukeSato/autoscigo/hyper"
	"github.com/YuminosukeSato/autoscigo/hyperpreprocessors"
	"github.com/YuminosukeSato/autoscigo/layers"
	"github.com/YuminosukeSato/autoscigo/nodes"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"github.com/YuminosukeSato/autoscigo/preprocessors"
	"github.com/YuminosukeSato/autoscigo/tokenization"
)

type options struct {
	batchSize          int
	structuredEncoding bool
	normalize          bool
	tokenizer          tokenization.Tokenizer
	maxSeqLen          int
	textOpts           []layers.TextVectorizationOption
}

// Option configures a Pipeline.
type Option func(*options)

// WithBatchSize sets the batch size used to stream in-memory inputs.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithStructuredEncoding encodes structured inputs to numbers with a
// CategoricalToNumerical preprocessor.
func WithStructuredEncoding() Option {
	return func(o *options) { o.structuredEncoding = true }
}

// WithNormalization standardizes generic numerical inputs. The search engine
// switches it with the boolean hyperparameter "<node>/normalize".
func WithNormalization() Option {
	return func(o *options) { o.normalize = true }
}

// WithTextTokenizer converts text inputs to (batch, 3, maxSeqLen) BERT
// inputs with tok.
func WithTextTokenizer(tok tokenization.Tokenizer, maxSeqLen int, opts ...layers.TextVectorizationOption) Option {
	return func(o *options) {
		o.tokenizer = tok
		o.maxSeqLen = maxSeqLen
		o.textOpts = opts
	}
}

// Input is one node with its fitted preprocessing chain.
type Input struct {
	Node          nodes.Node
	Preprocessors []preprocessors.Preprocessor

	// 前処理チェーンの出力。チェーンが空なら nil
	outputShape tensor.Shape
	outputDType tensor.DType
}

// OutputShape returns the per-sample shape produced by the fitted chain, or
// nil when the input has no preprocessors.
func (in *Input) OutputShape() tensor.Shape { return in.outputShape.Clone() }

// OutputDType returns the element type produced by the fitted chain.
func (in *Input) OutputDType() tensor.DType { return in.outputDType }

// Pipeline configures and fits the preprocessing of every input node.
type Pipeline struct {
	inputs []*Input
	opts   options
	state  *model.StateManager
	logger log.Logger
}

// New returns an unfitted pipeline over ns. Node names must be unique.
func New(ns []nodes.Node, opts ...Option) (*Pipeline, error) {
	o := options{batchSize: dataset.DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		return nil, errors.NewConfigurationErrorf("Pipeline", "batch_size", "must be positive, got %d", o.batchSize)
	}
	if len(ns) == 0 {
		return nil, errors.NewConfigurationError("Pipeline", "inputs", "at least one input node is required")
	}
	seen := make(map[string]struct{}, len(ns))
	inputs := make([]*Input, len(ns))
	for i, n := range ns {
		if n == nil {
			return nil, errors.NewConfigurationErrorf("Pipeline", "inputs", "input %d is nil", i)
		}
		if _, dup := seen[n.Name()]; dup {
			return nil, errors.NewConfigurationErrorf("Pipeline", "inputs", "duplicate input name '%s'", n.Name())
		}
		seen[n.Name()] = struct{}{}
		inputs[i] = &Input{Node: n}
	}
	return &Pipeline{
		inputs: inputs,
		opts:   o,
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("Pipeline"),
	}, nil
}

// Inputs returns the nodes with their preprocessing chains.
func (p *Pipeline) Inputs() []*Input {
	out := make([]*Input, len(p.inputs))
	copy(out, p.inputs)
	return out
}

// IsFitted reports whether Fit has completed.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }

// Fit configures every node from raw (one entry per node, in order) and fits
// its preprocessors. hp may be nil, in which case every hyperparameter takes
// its default. Fit is allowed once.
//
// Each input is streamed more than once. Single-use sources such as
// dataset.FromChannel are kept in memory during the analysis pass and
// replayed to the preprocessors.
func (p *Pipeline) Fit(ctx context.Context, hp hyper.HyperParameters, raw ...any) error {
	if err := p.state.BeginFit("Pipeline"); err != nil {
		return err
	}
	defer p.state.EndFit()
	if err := p.checkArity(len(raw)); err != nil {
		return err
	}
	if hp == nil {
		hp = hyper.NewFixed(nil)
	}
	start := time.Now()
	samples := 0
	for i, in := range p.inputs {
		n, err := p.fitInput(ctx, hp, in, raw[i])
		if err != nil {
			return err
		}
		if i == 0 {
			samples = n
		}
	}
	p.state.SetDimensions(len(p.inputs), samples)
	p.state.SetFitted()
	p.logger.Info("Pipeline fitted.",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, samples,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Pipeline) checkArity(n int) error {
	if n != len(p.inputs) {
		return errors.NewConfigurationErrorf("Pipeline", "inputs",
			"expected data for %d inputs, got %d", len(p.inputs), n)
	}
	return nil
}

// fitInput runs the configure and fit stages of one node and returns the
// number of samples analysed.
func (p *Pipeline) fitInput(ctx context.Context, hp hyper.HyperParameters, in *Input, raw any) (int, error) {
	node := in.Node
	logger := p.logger.With(log.NodeNameKey, node.Name(), log.NodeModalityKey, node.Modality())

	adapter, err := node.Adapter()
	if err != nil {
		return 0, err
	}
	ds, err := adapter.Adapt(raw, p.opts.batchSize)
	if err != nil {
		return 0, err
	}
	if dataset.IsSingleUse(raw) {
		ds = dataset.Cache(ds)
	}
	analyser := node.Analyser()
	if err := analysers.Analyse(ctx, analyser, ds); err != nil {
		return 0, errors.Wrapf(err, "analyse input '%s'", node.Name())
	}
	if err := node.ConfigFromAdapter(adapter); err != nil {
		return 0, err
	}
	if err := node.ConfigFromAnalyser(analyser); err != nil {
		return 0, err
	}
	node.Freeze()
	logger.Debug("Input configured.",
		log.StageKey, log.StageConfigure,
		log.ShapeKey, node.Shape().String(),
		log.SamplesKey, analyser.NumSamples(),
	)

	hpps, err := p.hyperPreprocessors(node)
	if err != nil {
		return 0, err
	}
	for _, hpp := range hpps {
		prep, err := hpp.Build(hp, ds)
		if err != nil {
			return 0, errors.Wrapf(err, "build preprocessor for input '%s'", node.Name())
		}
		if err := prep.Fit(ctx, ds); err != nil {
			return 0, errors.Wrapf(err, "fit %s for input '%s'", prep.Name(), node.Name())
		}
		logger.Debug("Preprocessor fitted.", log.StageKey, log.StageFit, log.PreprocessorKey, prep.Name())
		in.Preprocessors = append(in.Preprocessors, prep)
		ds = preprocessors.TransformDataset(prep, ds)
	}
	if len(in.Preprocessors) > 0 {
		first, err := dataset.First(ctx, ds)
		if err != nil {
			return 0, errors.Wrapf(err, "transform input '%s'", node.Name())
		}
		in.outputShape = first.ElementShape()
		in.outputDType = first.DType
	}
	return analyser.NumSamples(), nil
}

// hyperPreprocessors returns the node's own hyper preprocessors followed by
// the ones enabled by pipeline options.
func (p *Pipeline) hyperPreprocessors(node nodes.Node) ([]hyperpreprocessors.HyperPreprocessor, error) {
	hpps := node.HyperPreprocessors()
	switch n := node.(type) {
	case *nodes.StructuredDataInput:
		if p.opts.structuredEncoding {
			prep, err := preprocessors.NewCategoricalToNumerical(n.ColumnNames(), n.ColumnTypes())
			if err != nil {
				return nil, err
			}
			hpps = append(hpps, hyperpreprocessors.NewDefault(prep))
		}
	case *nodes.TextInput:
		if p.opts.tokenizer != nil {
			prep, err := preprocessors.NewTextToBertInputs(p.opts.tokenizer, p.opts.maxSeqLen, p.opts.textOpts...)
			if err != nil {
				return nil, err
			}
			hpps = append(hpps, hyperpreprocessors.NewDefault(prep))
		}
	case *nodes.Input:
		if p.opts.normalize {
			cond, err := hyperpreprocessors.NewConditional(n.Name()+"/normalize", preprocessors.NewNormalization(), true)
			if err != nil {
				return nil, err
			}
			hpps = append(hpps, cond)
		}
	}
	return hpps, nil
}

// Transform adapts raw with the fitted configuration and lazily applies each
// node's preprocessors. Batches whose element shape differs from the fitted
// node shape fail with a configuration error.
func (p *Pipeline) Transform(raw ...any) ([]dataset.Dataset, error) {
	if err := p.state.RequireFitted("Pipeline", "Transform"); err != nil {
		return nil, err
	}
	if err := p.checkArity(len(raw)); err != nil {
		return nil, err
	}
	out := make([]dataset.Dataset, len(p.inputs))
	for i, in := range p.inputs {
		adapter, err := in.Node.Adapter()
		if err != nil {
			return nil, err
		}
		ds, err := adapter.Adapt(raw[i], p.opts.batchSize)
		if err != nil {
			return nil, err
		}
		out[i] = in.transform(ds)
	}
	return out, nil
}

// TransformBatch applies the fitted preprocessors to canonical batches, one
// per node.
func (p *Pipeline) TransformBatch(batches ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := p.state.RequireFitted("Pipeline", "TransformBatch"); err != nil {
		return nil, err
	}
	if err := p.checkArity(len(batches)); err != nil {
		return nil, err
	}
	out := make([]*tensor.Tensor, len(batches))
	for i, in := range p.inputs {
		t, err := in.apply(batches[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (in *Input) transform(ds dataset.Dataset) dataset.Dataset {
	return dataset.Map(ds, in.apply)
}

func (in *Input) apply(t *tensor.Tensor) (*tensor.Tensor, error) {
	want := in.Node.Shape()
	if got := t.ElementShape(); !got.Equal(want) {
		return nil, errors.NewConfigurationErrorf(
			in.Node.Modality()+"("+in.Node.Name()+")", "shape",
			"expected element shape %s as fitted, got %s", want, got)
	}
	for _, prep := range in.Preprocessors {
		var err error
		if t, err = prep.Transform(t); err != nil {
			return nil, errors.Wrapf(err, "%s on input '%s'", prep.Name(), in.Node.Name())
		}
	}
	return t, nil
}

// Build declares every node as a model input, in order. An input with
// preprocessors is declared with the shape and dtype its chain produces, so
// the declaration matches the batches of Transform; the others are declared
// by the node itself.
func (p *Pipeline) Build(b framework.Builder) ([]framework.Tensor, error) {
	if b == nil {
		b = framework.NewPlaceholderBuilder()
	}
	out := make([]framework.Tensor, len(p.inputs))
	for i, in := range p.inputs {
		var t framework.Tensor
		var err error
		if in.outputShape != nil {
			t, err = b.Input(in.Node.Name(), in.outputShape, in.outputDType)
		} else {
			t, err = in.Node.Build(b)
		}
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
