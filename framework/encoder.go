package framework

import (
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Encoder は事前学習済みテキストエンコーダの境界。
// トークン化はパイプライン側で済ませ、(batch, L) の int32 テンソル3つを受け取る。
type Encoder interface {
	Call(inputIDs, mask, typeIDs *tensor.Tensor) (*tensor.Tensor, error)
}

// SplitBertInputs splits a (batch, 3, L) int32 tensor into token ids,
// attention mask and token type ids, each (batch, L).
func SplitBertInputs(t *tensor.Tensor) (inputIDs, mask, typeIDs *tensor.Tensor, err error) {
	if t.DType != tensor.Int {
		return nil, nil, nil, errors.NewValueError("framework.SplitBertInputs", "expected int32 tensor, got "+t.DType.String())
	}
	if t.Rank() != 3 || t.Shape[1] != 3 {
		return nil, nil, nil, errors.NewInputShapeError("split", []int{tensor.Unknown, 3, tensor.Unknown}, t.Shape)
	}
	batch, length := t.Shape[0], t.Shape[2]
	parts := [3][]int32{
		make([]int32, 0, batch*length),
		make([]int32, 0, batch*length),
		make([]int32, 0, batch*length),
	}
	for i := 0; i < batch; i++ {
		for k := 0; k < 3; k++ {
			off := (i*3 + k) * length
			parts[k] = append(parts[k], t.Ints[off:off+length]...)
		}
	}
	shape := tensor.Shape{batch, length}
	if inputIDs, err = tensor.NewInt(shape, parts[0]); err != nil {
		return nil, nil, nil, err
	}
	if mask, err = tensor.NewInt(shape, parts[1]); err != nil {
		return nil, nil, nil, err
	}
	if typeIDs, err = tensor.NewInt(shape, parts[2]); err != nil {
		return nil, nil, nil, err
	}
	return inputIDs, mask, typeIDs, nil
}

// EncodeBertInputs splits t and passes the three parts to enc.
func EncodeBertInputs(enc Encoder, t *tensor.Tensor) (*tensor.Tensor, error) {
	ids, mask, typeIDs, err := SplitBertInputs(t)
	if err != nil {
		return nil, err
	}
	out, err := errors.SafeCall("framework.Encoder.Call", func() (*tensor.Tensor, error) {
		return enc.Call(ids, mask, typeIDs)
	})
	if err != nil {
		return nil, errors.NewModelError("framework.EncodeBertInputs", "encoder failed", err)
	}
	return out, nil
}
