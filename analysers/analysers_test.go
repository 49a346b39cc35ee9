package analysers

import (
	"context"
	"fmt"
	"testing"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputAnalyser_Moments(t *testing.T) {
	data, err := tensor.NewFloat(tensor.Shape{5, 2}, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})
	require.NoError(t, err)

	// batch size 2 leaves a single-row batch at the end
	a := NewInputAnalyser("x")
	require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(data, 2)))

	assert.Equal(t, 5, a.NumSamples())
	assert.Equal(t, tensor.Shape{2}, a.Shape())
	assert.InDeltaSlice(t, []float64{3, 30}, a.Mean(), 1e-12)
	assert.InDeltaSlice(t, []float64{2, 200}, a.Variance(), 1e-9)
}

func TestAnalyser_FrozenAfterFinalize(t *testing.T) {
	data, _ := tensor.NewFloat(tensor.Shape{1, 1}, []float64{1})
	a := NewInputAnalyser("x")
	require.NoError(t, a.Update(data))
	require.NoError(t, a.Finalize())

	assert.ErrorIs(t, a.Update(data), errors.ErrFrozen)
	assert.ErrorIs(t, a.Finalize(), errors.ErrFrozen)
}

func TestAnalyser_EmptyData(t *testing.T) {
	assert.ErrorIs(t, NewInputAnalyser("x").Finalize(), errors.ErrEmptyData)
}

func TestAnalyser_ShapeMismatch(t *testing.T) {
	a := NewInputAnalyser("x")
	first, _ := tensor.NewFloat(tensor.Shape{1, 2}, []float64{1, 2})
	second, _ := tensor.NewFloat(tensor.Shape{1, 3}, []float64{1, 2, 3})
	require.NoError(t, a.Update(first))
	assert.True(t, errors.IsConfigurationError(a.Update(second)))
}

func TestImageAnalyser_ChannelDim(t *testing.T) {
	tests := []struct {
		name  string
		shape tensor.Shape
		want  bool
	}{
		{"grayscale without channel", tensor.Shape{2, 3, 3}, false},
		{"with channel", tensor.Shape{2, 3, 3, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imgs, err := tensor.NewFloat(tt.shape, make([]float64, tt.shape.NumElements()))
			require.NoError(t, err)
			a := NewImageAnalyser("img")
			require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(imgs, 1)))
			assert.Equal(t, tt.want, a.HasChannelDim())
		})
	}

	flat, _ := tensor.NewFloat(tensor.Shape{2, 3}, make([]float64, 6))
	assert.Error(t, NewImageAnalyser("img").Update(flat))
}

func TestTextAnalyser(t *testing.T) {
	in, _ := tensor.NewString(tensor.Shape{3, 1}, []string{"a b c", "", "d e"})
	a := NewTextAnalyser("txt")
	require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(in, 2)))
	assert.Equal(t, 3, a.MaxWords())
	assert.InDelta(t, 5.0/3.0, a.MeanWords(), 1e-12)

	nums, _ := tensor.NewFloat(tensor.Shape{1, 1}, []float64{1})
	assert.Error(t, NewTextAnalyser("txt").Update(nums))
}

func TestStructuredDataAnalyser_InferTypes(t *testing.T) {
	// 100 rows: "id" has 100 distinct numbers, "rating" has 3, "city" is text,
	// "score" is typed by the user.
	rows := make([]string, 0, 400)
	for i := 0; i < 100; i++ {
		rows = append(rows, fmt.Sprint(i), fmt.Sprint(i%3), []string{"tokyo", "osaka"}[i%2], fmt.Sprint(i%2))
	}
	data, err := tensor.NewString(tensor.Shape{100, 4}, rows)
	require.NoError(t, err)

	names := []string{"id", "rating", "city", "score"}
	a := NewStructuredDataAnalyser("table", names, schema.ColumnTypes{"score": schema.Numerical})
	require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(data, 16)))

	assert.Equal(t, []schema.ColumnType{
		schema.Numerical, schema.Categorical, schema.Categorical, schema.Numerical,
	}, a.InferredTypes())
	assert.Equal(t, schema.Categorical, a.ColumnTypes()["city"])

	stats := a.Columns()
	assert.Equal(t, 100, stats[0].DistinctNumeric())
	assert.Equal(t, 2, stats[2].Distinct())
	assert.Equal(t, 100, stats[2].NonNumeric)
}

func TestStructuredDataAnalyser_MissingValuesIgnored(t *testing.T) {
	rows := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		v := fmt.Sprint(i)
		if i%4 == 0 {
			v = "NaN"
		}
		rows = append(rows, v)
	}
	data, _ := tensor.NewString(tensor.Shape{40, 1}, rows)
	a := NewStructuredDataAnalyser("table", nil, nil)
	require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(data, 8)))
	assert.Equal(t, []string{"0"}, a.ColumnNames())
	assert.Equal(t, []schema.ColumnType{schema.Numerical}, a.InferredTypes())
	assert.Equal(t, 10, a.Columns()[0].Missing)
}

func TestStructuredDataAnalyser_ColumnCountMismatch(t *testing.T) {
	data, _ := tensor.NewString(tensor.Shape{1, 2}, []string{"a", "b"})
	a := NewStructuredDataAnalyser("table", []string{"only"}, nil)
	assert.True(t, errors.IsConfigurationError(a.Update(data)))
}

func TestTimeseriesAnalyser(t *testing.T) {
	values := make([]float64, 0, 7*50)
	for i := 0; i < 50; i++ {
		for j := 0; j < 7; j++ {
			values = append(values, float64(i*7+j))
		}
	}
	data, _ := tensor.NewFloat(tensor.Shape{50, 7}, values)
	a := NewTimeseriesAnalyser("series", nil, nil)
	require.NoError(t, Analyse(context.Background(), a, dataset.FromTensor(data, 10)))
	assert.Len(t, a.InferredTypes(), 7)
	for _, ct := range a.InferredTypes() {
		assert.Equal(t, schema.Numerical, ct)
	}

	strs, _ := tensor.NewString(tensor.Shape{1, 1}, []string{"a"})
	assert.Error(t, NewTimeseriesAnalyser("series", nil, nil).Update(strs))
}
