package preprocessors

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip persists p through JSON and restores it with reg.
func roundTrip(t *testing.T, reg *Registry, p Preprocessor) Preprocessor {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, serialization.Encode(&buf, Serialize(p)))
	var obj serialization.Object
	require.NoError(t, serialization.Decode(&buf, &obj))
	restored, err := reg.Deserialize(obj)
	require.NoError(t, err)
	return restored
}

type spaceTokenizer struct{}

func (spaceTokenizer) Tokenize(s string) []string { return strings.Fields(s) }

func (spaceTokenizer) ConvertTokensToIDs(tokens []string) ([]int32, error) {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(len(tok))
	}
	return ids, nil
}

func TestAddOneDimension(t *testing.T) {
	p := NewAddOneDimension()
	img, err := tensor.NewFloat(tensor.Shape{2, 2, 2}, make([]float64, 8))
	require.NoError(t, err)

	out, err := p.Transform(img)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 2, 1}, out.Shape)

	require.NoError(t, p.Fit(context.Background(), dataset.FromTensor(img, 1)))
	assert.ErrorIs(t, p.Fit(context.Background(), dataset.FromTensor(img, 1)), errors.ErrAlreadyFitted)

	restored := roundTrip(t, NewRegistry(), p)
	assert.True(t, restored.IsFitted())
	assert.Equal(t, AddOneDimensionClass, restored.Name())
}

func TestCategoricalToNumerical(t *testing.T) {
	names := []string{"price", "city"}
	types := schema.ColumnTypes{"price": schema.Numerical, "city": schema.Categorical}
	p, err := NewCategoricalToNumerical(names, types)
	require.NoError(t, err)

	train, err := tensor.NewString(tensor.Shape{3, 2}, []string{"1.5", "tokyo", "NaN", "osaka", "abc", "tokyo"})
	require.NoError(t, err)

	_, err = p.Transform(train)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, p.Fit(context.Background(), dataset.FromTensor(train, 2)))
	out, err := p.Transform(train)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape)
	assert.Equal(t, []float64{1.5, 2, 0, 3, 0, 2}, out.Floats)

	probe, _ := tensor.NewString(tensor.Shape{1, 2}, []string{"7", "kyoto"})
	want, err := p.Transform(probe)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 1}, want.Floats)

	restored := roundTrip(t, NewRegistry(), p)
	got, err := restored.Transform(probe)
	require.NoError(t, err)
	assert.Equal(t, want.Floats, got.Floats)
	assert.True(t, restored.IsFitted())
}

func TestCategoricalToNumerical_Errors(t *testing.T) {
	_, err := NewCategoricalToNumerical(nil, nil)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = NewCategoricalToNumerical([]string{"a", "b"}, schema.ColumnTypes{"a": schema.Numerical})
	assert.True(t, errors.IsConfigurationError(err))

	p, err := NewCategoricalToNumerical([]string{"a", "b"}, schema.ColumnTypes{"a": schema.Numerical, "b": schema.Numerical})
	require.NoError(t, err)
	wide, _ := tensor.NewString(tensor.Shape{1, 3}, []string{"1", "2", "3"})
	err = p.Fit(context.Background(), dataset.FromTensor(wide, 1))
	assert.True(t, errors.IsConfigurationError(err))
	_, err = p.Transform(wide)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestTextToBertInputs(t *testing.T) {
	p, err := NewTextToBertInputs(spaceTokenizer{}, 4)
	require.NoError(t, err)

	in, _ := tensor.NewString(tensor.Shape{1, 1}, []string{"go is fun"})
	out, err := p.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 4}, out.Shape)
	// [CLS] go is fun -> truncated, separator dropped
	assert.Equal(t, []int32{5, 2, 2, 3}, out.Ints[:4])

	_, err = NewRegistry().Deserialize(Serialize(p))
	assert.True(t, errors.IsConfigurationError(err))

	restored := roundTrip(t, NewRegistry(WithTokenizer(spaceTokenizer{})), p)
	got, err := restored.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, out.Ints, got.Ints)
}

func TestNormalization(t *testing.T) {
	data, err := tensor.NewFloat(tensor.Shape{4, 2}, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})
	require.NoError(t, err)

	n := NewNormalization()
	_, err = n.Transform(data)
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	require.NoError(t, n.Fit(context.Background(), dataset.FromTensor(data, 3)))
	assert.InDelta(t, 2.5, n.Mean[0], 1e-12)
	assert.InDelta(t, 10, n.Mean[1], 1e-12)
	assert.InDelta(t, 1.118033988749895, n.Scale[0], 1e-12)
	assert.Equal(t, 1.0, n.Scale[1])

	out, err := n.Transform(data)
	require.NoError(t, err)
	assert.InDelta(t, -1.3416407864998738, out.Floats[0], 1e-12)
	assert.Equal(t, 0.0, out.Floats[1])

	restored := roundTrip(t, NewRegistry(), n)
	got, err := restored.Transform(data)
	require.NoError(t, err)
	assert.Equal(t, out.Floats, got.Floats)

	narrow, _ := tensor.NewFloat(tensor.Shape{1, 3}, []float64{1, 2, 3})
	_, err = n.Transform(narrow)
	assert.Error(t, err)
}

func TestPassthroughAndTransformDataset(t *testing.T) {
	data, _ := tensor.NewFloat(tensor.Shape{3, 1}, []float64{1, 2, 3})
	p := NewPassthrough()
	all, err := dataset.Collect(context.Background(), TransformDataset(p, dataset.FromTensor(data, 2)))
	require.NoError(t, err)
	assert.Equal(t, data.Floats, all.Floats)
}

func TestRegistry_UnknownClass(t *testing.T) {
	_, err := NewRegistry().Deserialize(serialization.Object{ClassName: "OneHot"})
	assert.True(t, errors.IsConfigurationError(err))
	assert.Equal(t, []string{
		AddOneDimensionClass, CategoricalToNumericalClass, NormalizationClass, PassthroughClass, TextToBertInputsClass,
	}, NewRegistry().Tags())
}

func TestNormalization_StatePersisted(t *testing.T) {
	data, err := tensor.NewFloat(tensor.Shape{5, 2}, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	n := NewNormalization()
	require.NoError(t, n.Fit(context.Background(), dataset.FromTensor(data, 2)))

	cfg := n.Config()
	assert.Equal(t, true, cfg["fitted"])
	assert.Equal(t, 2, cfg["n_columns"])
	assert.Equal(t, 5, cfg["n_samples"])

	restored := roundTrip(t, NewRegistry(), n).(*Normalization)
	assert.Equal(t, n.state.GetState(), restored.state.GetState())

	cfg["n_columns"] = 3
	_, err = NewRegistry().Deserialize(serialization.Object{ClassName: NormalizationClass, Config: cfg})
	assert.True(t, errors.IsConfigurationError(err))
}

func TestNormalization_RetryAfterFailedFit(t *testing.T) {
	words, err := tensor.NewString(tensor.Shape{2, 1}, []string{"a", "b"})
	require.NoError(t, err)
	n := NewNormalization()
	require.Error(t, n.Fit(context.Background(), dataset.FromTensor(words, 2)))
	assert.False(t, n.IsFitted())

	data, err := tensor.NewFloat(tensor.Shape{2, 1}, []float64{1, 3})
	require.NoError(t, err)
	require.NoError(t, n.Fit(context.Background(), dataset.FromTensor(data, 2)))
	assert.Equal(t, []float64{2}, n.Mean)
}
