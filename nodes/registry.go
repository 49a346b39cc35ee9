package nodes

import (
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Registry family name and persisted format version of nodes.
const (
	RegistryFamily  = "node"
	RegistryVersion = 1
)

// Registry restores nodes from their persisted envelopes.
type Registry = serialization.Registry[Node]

// NewRegistry returns a registry of the five node variants.
func NewRegistry() *Registry {
	r := serialization.NewRegistry[Node](RegistryFamily, RegistryVersion)
	r.MustRegister(InputClass, func(cfg serialization.Config) (Node, error) {
		b, err := baseFromConfig(InputClass, cfg)
		if err != nil {
			return nil, err
		}
		return &Input{base: b}, nil
	})
	r.MustRegister(ImageInputClass, func(cfg serialization.Config) (Node, error) {
		b, err := baseFromConfig(ImageInputClass, cfg)
		if err != nil {
			return nil, err
		}
		channel, err := cfg.Bool("has_channel_dim", false)
		if err != nil {
			return nil, err
		}
		return &ImageInput{base: b, hasChannelDim: channel}, nil
	})
	r.MustRegister(TextInputClass, func(cfg serialization.Config) (Node, error) {
		b, err := baseFromConfig(TextInputClass, cfg)
		if err != nil {
			return nil, err
		}
		return &TextInput{base: b}, nil
	})
	r.MustRegister(StructuredDataInputClass, func(cfg serialization.Config) (Node, error) {
		b, err := baseFromConfig(StructuredDataInputClass, cfg)
		if err != nil {
			return nil, err
		}
		names, types, err := columnsFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewStructuredDataInput(b.name, names, types, WithShape(b.shape))
	})
	r.MustRegister(TimeseriesInputClass, func(cfg serialization.Config) (Node, error) {
		b, err := baseFromConfig(TimeseriesInputClass, cfg)
		if err != nil {
			return nil, err
		}
		names, types, err := columnsFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		lookback, err := cfg.OptionalInt("lookback")
		if err != nil {
			return nil, err
		}
		return NewTimeseriesInput(b.name, lookback, names, types, WithShape(b.shape))
	})
	return r
}
