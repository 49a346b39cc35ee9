// Package hyperpreprocessors wraps preprocessors so that the external search
// engine can decide whether and how each one runs.
package hyperpreprocessors

import (
	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/hyper"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/preprocessors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Class tags.
const (
	DefaultClass     = "DefaultHyperPreprocessor"
	ConditionalClass = "ConditionalHyperPreprocessor"
)

// RegistryVersion is the persisted format version of hyper preprocessors.
const RegistryVersion = 1

// HyperPreprocessor resolves to a concrete Preprocessor for one trial.
type HyperPreprocessor interface {
	Name() string
	// Build returns the preprocessor selected by hp. ds is the data the
	// preprocessor will be fitted on.
	Build(hp hyper.HyperParameters, ds dataset.Dataset) (preprocessors.Preprocessor, error)
	Config() serialization.Config
}

// Serialize wraps h in its persisted envelope.
func Serialize(h HyperPreprocessor) serialization.Object {
	return serialization.Object{ClassName: h.Name(), Config: h.Config()}
}

// Default always resolves to the wrapped preprocessor.
type Default struct {
	preprocessor preprocessors.Preprocessor
}

// NewDefault wraps p.
func NewDefault(p preprocessors.Preprocessor) *Default {
	return &Default{preprocessor: p}
}

func (d *Default) Name() string { return DefaultClass }

func (d *Default) Build(hyper.HyperParameters, dataset.Dataset) (preprocessors.Preprocessor, error) {
	return d.preprocessor, nil
}

// Preprocessor returns the wrapped preprocessor.
func (d *Default) Preprocessor() preprocessors.Preprocessor { return d.preprocessor }

func (d *Default) Config() serialization.Config {
	return serialization.Config{"preprocessor": preprocessors.Serialize(d.preprocessor)}
}

// Conditional resolves to the wrapped preprocessor when the boolean
// hyperparameter param is true, and to a Passthrough otherwise.
type Conditional struct {
	param        string
	def          bool
	preprocessor preprocessors.Preprocessor
}

// NewConditional wraps p behind the boolean hyperparameter param.
func NewConditional(param string, p preprocessors.Preprocessor, def bool) (*Conditional, error) {
	if param == "" {
		return nil, errors.NewConfigurationError(ConditionalClass, "param", "hyperparameter name is required")
	}
	return &Conditional{param: param, def: def, preprocessor: p}, nil
}

func (c *Conditional) Name() string { return ConditionalClass }

func (c *Conditional) Build(hp hyper.HyperParameters, _ dataset.Dataset) (preprocessors.Preprocessor, error) {
	if hp == nil {
		hp = hyper.NewFixed(nil)
	}
	if hp.Boolean(c.param, c.def) {
		return c.preprocessor, nil
	}
	return preprocessors.NewPassthrough(), nil
}

func (c *Conditional) Config() serialization.Config {
	return serialization.Config{
		"param":        c.param,
		"default":      c.def,
		"preprocessor": preprocessors.Serialize(c.preprocessor),
	}
}

// Registry restores hyper preprocessors from their persisted envelopes.
type Registry = serialization.Registry[HyperPreprocessor]

// NewRegistry returns a registry of the built-in hyper preprocessors. Wrapped
// preprocessors are restored with preprocs.
func NewRegistry(preprocs *preprocessors.Registry) *Registry {
	r := serialization.NewRegistry[HyperPreprocessor]("hyper_preprocessor", RegistryVersion)
	r.MustRegister(DefaultClass, func(cfg serialization.Config) (HyperPreprocessor, error) {
		p, err := wrapped(preprocs, cfg)
		if err != nil {
			return nil, err
		}
		return NewDefault(p), nil
	})
	r.MustRegister(ConditionalClass, func(cfg serialization.Config) (HyperPreprocessor, error) {
		p, err := wrapped(preprocs, cfg)
		if err != nil {
			return nil, err
		}
		param, err := cfg.String("param")
		if err != nil {
			return nil, err
		}
		def, err := cfg.Bool("default", false)
		if err != nil {
			return nil, err
		}
		return NewConditional(param, p, def)
	})
	return r
}

func wrapped(preprocs *preprocessors.Registry, cfg serialization.Config) (preprocessors.Preprocessor, error) {
	obj, err := cfg.Object("preprocessor")
	if err != nil {
		return nil, err
	}
	return preprocs.Deserialize(obj)
}
