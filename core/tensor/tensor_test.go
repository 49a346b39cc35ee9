package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestShapeString(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  string
	}{
		{"unresolved", nil, "None"},
		{"vector", Shape{7}, "(7,)"},
		{"matrix", Shape{10, 7}, "(10, 7)"},
		{"unknown batch", Shape{Unknown, 3}, "(None, 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.String())
		})
	}
}

func TestNewFloat_LengthMismatch(t *testing.T) {
	_, err := NewFloat(Shape{2, 3}, []float64{1, 2, 3})
	require.Error(t, err)

	_, err = NewFloat(Shape{Unknown, 3}, nil)
	require.Error(t, err)
}

func TestMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tt := FromMatrix(m)
	assert.Equal(t, Shape{2, 3}, tt.Shape)
	assert.Equal(t, Float, tt.DType)

	back, err := tt.ToMatrix()
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	s, err := NewString(Shape{1, 1}, []string{"a"})
	require.NoError(t, err)
	_, err = s.ToMatrix()
	assert.Error(t, err)
}

func TestRowsAndColumn(t *testing.T) {
	tt, err := NewString(Shape{3, 2}, []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)

	rows, err := tt.Rows(1, 3)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, rows.Shape)
	assert.Equal(t, []string{"c", "d", "e", "f"}, rows.Strings)

	col, err := tt.Column(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 1}, col.Shape)
	assert.Equal(t, []string{"b", "d", "f"}, col.Strings)

	_, err = tt.Rows(2, 5)
	assert.Error(t, err)
	_, err = tt.Column(2)
	assert.Error(t, err)
}

func TestAsStrings(t *testing.T) {
	f, err := NewFloat(Shape{3}, []float64{1, 2.5, -0.125})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2.5", "-0.125"}, f.AsStrings().Strings)

	i, err := NewInt(Shape{2}, []int32{7, -3})
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "-3"}, i.AsStrings().Strings)
}

func TestConcat(t *testing.T) {
	a, _ := NewFloat(Shape{1, 2}, []float64{1, 2})
	b, _ := NewFloat(Shape{2, 2}, []float64{3, 4, 5, 6})
	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, out.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, out.Floats)

	c, _ := NewFloat(Shape{1, 3}, []float64{1, 2, 3})
	_, err = Concat(a, c)
	assert.Error(t, err)

	s, _ := NewString(Shape{1, 2}, []string{"x", "y"})
	_, err = Concat(a, s)
	assert.Error(t, err)
}

func TestReshapeAndExpandDims(t *testing.T) {
	a, _ := NewFloat(Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	r, err := a.Reshape(Shape{3, 2})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, r.Shape)
	assert.Equal(t, Shape{2, 3}, a.Shape)

	_, err = a.Reshape(Shape{4, 2})
	assert.Error(t, err)

	e := a.ExpandDims()
	assert.Equal(t, Shape{2, 3, 1}, e.Shape)
	assert.Equal(t, Shape{3, 1}, e.ElementShape())
}

func TestParseDType(t *testing.T) {
	for _, d := range []DType{Float, Int, String} {
		got, err := ParseDType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDType("complex128")
	assert.Error(t, err)
}

func TestClone_DoesNotAlias(t *testing.T) {
	a, _ := NewInt(Shape{2}, []int32{1, 2})
	b := a.Clone()
	b.Ints[0] = 9
	b.Shape[0] = 5
	assert.Equal(t, int32(1), a.Ints[0])
	assert.Equal(t, 2, a.Shape[0])
}
