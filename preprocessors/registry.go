package preprocessors

import (
	"github.com/YuminosukeSato/autoscigo/serialization"
	"github.com/YuminosukeSato/autoscigo/tokenization"
)

// Registry family name and persisted format version of preprocessors.
const (
	RegistryFamily  = "preprocessor"
	RegistryVersion = 1
)

// Registry restores preprocessors from their persisted envelopes.
type Registry = serialization.Registry[Preprocessor]

type registryOptions struct {
	tokenizer tokenization.Tokenizer
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryOptions)

// WithTokenizer supplies the tokenizer that TextToBertInputs is rebuilt with.
func WithTokenizer(tok tokenization.Tokenizer) RegistryOption {
	return func(o *registryOptions) { o.tokenizer = tok }
}

// NewRegistry returns a registry of all built-in preprocessors.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := serialization.NewRegistry[Preprocessor](RegistryFamily, RegistryVersion)
	r.MustRegister(AddOneDimensionClass, func(cfg serialization.Config) (Preprocessor, error) {
		p := NewAddOneDimension()
		return p, stateFromConfig(p.state, cfg)
	})
	r.MustRegister(PassthroughClass, func(cfg serialization.Config) (Preprocessor, error) {
		p := NewPassthrough()
		return p, stateFromConfig(p.state, cfg)
	})
	r.MustRegister(CategoricalToNumericalClass, categoricalFromConfig)
	r.MustRegister(NormalizationClass, normalizationFromConfig)
	r.MustRegister(TextToBertInputsClass, textToBertFromConfig(o.tokenizer))
	return r
}
