// Package tensor はパイプライン内部の正準テンソル表現を提供する。
//
// Tensor は先頭軸をバッチ軸とする多次元配列で、要素型は float64、int32、
// string のいずれか。2次元の数値テンソルは gonum の mat.Dense と相互変換できる。
package tensor

import (
	"fmt"
	"strconv"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DType はテンソルの要素型
type DType int

const (
	// Invalid は未確定の要素型
	Invalid DType = iota
	// Float は浮動小数点 (float64 で保持)
	Float
	// Int は整数 (int32 で保持)
	Int
	// String は文字列
	String
)

// String returns the framework-facing name of the dtype.
func (d DType) String() string {
	switch d {
	case Float:
		return "float32"
	case Int:
		return "int32"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

// ParseDType is the inverse of DType.String.
func ParseDType(s string) (DType, error) {
	switch s {
	case "float32", "float64", "float":
		return Float, nil
	case "int32", "int":
		return Int, nil
	case "string":
		return String, nil
	default:
		return Invalid, errors.NewValidationError("dtype", "unknown dtype", s)
	}
}

// Tensor は正準テンソル。Shape[0] はバッチ軸。
// DType に対応するスライスのみが使われる。
type Tensor struct {
	Shape   Shape
	DType   DType
	Floats  []float64
	Ints    []int32
	Strings []string
}

// NewFloat は float テンソルを作成する
func NewFloat(shape Shape, data []float64) (*Tensor, error) {
	if err := checkLen(shape, len(data)); err != nil {
		return nil, err
	}
	return &Tensor{Shape: shape.Clone(), DType: Float, Floats: data}, nil
}

// NewInt は int32 テンソルを作成する
func NewInt(shape Shape, data []int32) (*Tensor, error) {
	if err := checkLen(shape, len(data)); err != nil {
		return nil, err
	}
	return &Tensor{Shape: shape.Clone(), DType: Int, Ints: data}, nil
}

// NewString は文字列テンソルを作成する
func NewString(shape Shape, data []string) (*Tensor, error) {
	if err := checkLen(shape, len(data)); err != nil {
		return nil, err
	}
	return &Tensor{Shape: shape.Clone(), DType: String, Strings: data}, nil
}

func checkLen(shape Shape, n int) error {
	if len(shape) == 0 {
		return errors.NewValueError("tensor.New", "tensor must have at least a batch dimension")
	}
	if !shape.IsFullyDefined() {
		return errors.NewValueError("tensor.New", fmt.Sprintf("shape %v has unknown dimensions", shape))
	}
	if shape.NumElements() != n {
		return errors.NewInputShapeError("construct", shape, []int{n})
	}
	return nil
}

// FromMatrix は gonum 行列を (rows, cols) の float テンソルに変換する
func FromMatrix(m mat.Matrix) *Tensor {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &Tensor{Shape: Shape{r, c}, DType: Float, Floats: data}
}

// ToMatrix は2次元の float テンソルを mat.Dense に変換する
func (t *Tensor) ToMatrix() (*mat.Dense, error) {
	if t.DType != Float {
		return nil, errors.NewValueError("Tensor.ToMatrix", "only float tensors convert to matrices, got "+t.DType.String())
	}
	if t.Rank() != 2 {
		return nil, errors.NewDimensionError("Tensor.ToMatrix", 2, t.Rank(), 1)
	}
	data := make([]float64, len(t.Floats))
	copy(data, t.Floats)
	return mat.NewDense(t.Shape[0], t.Shape[1], data), nil
}

// Rank はバッチ軸を含む次元数
func (t *Tensor) Rank() int { return len(t.Shape) }

// BatchSize は先頭軸の長さ
func (t *Tensor) BatchSize() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// ElementShape はバッチ軸を除いた1サンプルの形状
func (t *Tensor) ElementShape() Shape {
	if len(t.Shape) == 0 {
		return nil
	}
	return t.Shape[1:].Clone()
}

// Len は要素数
func (t *Tensor) Len() int {
	switch t.DType {
	case Float:
		return len(t.Floats)
	case Int:
		return len(t.Ints)
	case String:
		return len(t.Strings)
	}
	return 0
}

// Reshape は要素数を保ったまま形状を変えたコピーを返す（データは共有）
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != t.Len() {
		return nil, errors.NewInputShapeError("reshape", shape, t.Shape)
	}
	out := *t
	out.Shape = shape.Clone()
	return &out, nil
}

// ExpandDims は末尾にサイズ1の軸を追加する
func (t *Tensor) ExpandDims() *Tensor {
	out := *t
	out.Shape = append(t.Shape.Clone(), 1)
	return &out
}

// Rows はバッチ軸で [start, end) を切り出す（データは共有）
func (t *Tensor) Rows(start, end int) (*Tensor, error) {
	if start < 0 || end > t.BatchSize() || start > end {
		return nil, errors.NewValueError("Tensor.Rows", fmt.Sprintf("invalid row range [%d, %d) for batch of %d", start, end, t.BatchSize()))
	}
	stride := t.Shape[1:].NumElements()
	out := &Tensor{Shape: append(Shape{end - start}, t.Shape[1:]...), DType: t.DType}
	lo, hi := start*stride, end*stride
	switch t.DType {
	case Float:
		out.Floats = t.Floats[lo:hi]
	case Int:
		out.Ints = t.Ints[lo:hi]
	case String:
		out.Strings = t.Strings[lo:hi]
	}
	return out, nil
}

// Column は2次元テンソルの j 列目を (batch, 1) として返す
func (t *Tensor) Column(j int) (*Tensor, error) {
	if t.Rank() != 2 {
		return nil, errors.NewDimensionError("Tensor.Column", 2, t.Rank(), 1)
	}
	rows, cols := t.Shape[0], t.Shape[1]
	if j < 0 || j >= cols {
		return nil, errors.NewValueError("Tensor.Column", fmt.Sprintf("column %d out of range [0, %d)", j, cols))
	}
	out := &Tensor{Shape: Shape{rows, 1}, DType: t.DType}
	switch t.DType {
	case Float:
		out.Floats = make([]float64, rows)
		for i := range out.Floats {
			out.Floats[i] = t.Floats[i*cols+j]
		}
	case Int:
		out.Ints = make([]int32, rows)
		for i := range out.Ints {
			out.Ints[i] = t.Ints[i*cols+j]
		}
	case String:
		out.Strings = make([]string, rows)
		for i := range out.Strings {
			out.Strings[i] = t.Strings[i*cols+j]
		}
	}
	return out, nil
}

// AsStrings は要素を文字列表現に変換したテンソルを返す。
// 数値は strconv の最短表現で書き出す。
func (t *Tensor) AsStrings() *Tensor {
	if t.DType == String {
		return t
	}
	out := &Tensor{Shape: t.Shape.Clone(), DType: String, Strings: make([]string, t.Len())}
	switch t.DType {
	case Float:
		for i, v := range t.Floats {
			out.Strings[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	case Int:
		for i, v := range t.Ints {
			out.Strings[i] = strconv.FormatInt(int64(v), 10)
		}
	}
	return out
}

// Clone はデータを含めたディープコピー
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{Shape: t.Shape.Clone(), DType: t.DType}
	if t.Floats != nil {
		out.Floats = append([]float64(nil), t.Floats...)
	}
	if t.Ints != nil {
		out.Ints = append([]int32(nil), t.Ints...)
	}
	if t.Strings != nil {
		out.Strings = append([]string(nil), t.Strings...)
	}
	return out
}

// Concat はバッチ軸で連結する。要素形状と型は一致していなければならない。
func Concat(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errors.ErrEmptyData
	}
	first := ts[0]
	elem := first.ElementShape()
	out := &Tensor{DType: first.DType}
	rows := 0
	for _, t := range ts {
		if t.DType != first.DType {
			return nil, errors.NewValueError("tensor.Concat", "dtype mismatch: "+first.DType.String()+" vs "+t.DType.String())
		}
		if !t.ElementShape().Equal(elem) {
			return nil, errors.NewInputShapeError("concat", elem, t.ElementShape())
		}
		rows += t.BatchSize()
		out.Floats = append(out.Floats, t.Floats...)
		out.Ints = append(out.Ints, t.Ints...)
		out.Strings = append(out.Strings, t.Strings...)
	}
	out.Shape = append(Shape{rows}, elem...)
	return out, nil
}
