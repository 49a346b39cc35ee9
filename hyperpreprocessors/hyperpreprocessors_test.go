package hyperpreprocessors

import (
	"bytes"
	"testing"

	"github.com/YuminosukeSato/autoscigo/hyper"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/preprocessors"
	"github.com/YuminosukeSato/autoscigo/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	h := NewDefault(preprocessors.NewAddOneDimension())
	p, err := h.Build(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, preprocessors.AddOneDimensionClass, p.Name())
}

func TestConditional(t *testing.T) {
	h, err := NewConditional("normalize", preprocessors.NewNormalization(), true)
	require.NoError(t, err)

	tests := []struct {
		name string
		hp   hyper.HyperParameters
		want string
	}{
		{"default on", nil, preprocessors.NormalizationClass},
		{"switched off", hyper.NewFixed(map[string]any{"normalize": false}), preprocessors.PassthroughClass},
		{"switched on", hyper.NewFixed(map[string]any{"normalize": true}), preprocessors.NormalizationClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := h.Build(tt.hp, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	_, err = NewConditional("", preprocessors.NewPassthrough(), false)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg := NewRegistry(preprocessors.NewRegistry())
	cond, err := NewConditional("expand", preprocessors.NewAddOneDimension(), false)
	require.NoError(t, err)

	for _, h := range []HyperPreprocessor{NewDefault(preprocessors.NewAddOneDimension()), cond} {
		var buf bytes.Buffer
		require.NoError(t, serialization.Encode(&buf, Serialize(h)))
		var obj serialization.Object
		require.NoError(t, serialization.Decode(&buf, &obj))

		restored, err := reg.Deserialize(obj)
		require.NoError(t, err)
		assert.Equal(t, h.Config()["param"], restored.Config()["param"])

		want, err := h.Build(hyper.NewFixed(nil), nil)
		require.NoError(t, err)
		got, err := restored.Build(hyper.NewFixed(nil), nil)
		require.NoError(t, err)
		assert.Equal(t, want.Name(), got.Name())
	}
}
