// Package analysers はデータセットを1回ストリーミングして統計量を集計する。
//
// Analyser は Update でバッチごとに統計を単調に蓄積し、Finalize で確定させる。
// 確定後の Update はエラーになる。
package analysers

import (
	"context"
	"fmt"
	"sync"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
)

// Analyser accumulates statistics of one node's data.
type Analyser interface {
	// Update adds one batch.
	Update(t *tensor.Tensor) error
	// Finalize freezes the statistics and derives inferred facts.
	Finalize() error
	// Shape returns the per-sample shape seen so far.
	Shape() tensor.Shape
	// DType returns the element type seen so far.
	DType() tensor.DType
	// NumSamples returns the number of samples seen.
	NumSamples() int
}

// Analyse streams ds once through a, then finalizes it.
func Analyse(ctx context.Context, a Analyser, ds dataset.Dataset) error {
	batches := 0
	err := dataset.ForEach(ctx, ds, func(t *tensor.Tensor) error {
		batches++
		return a.Update(t)
	})
	if err != nil {
		return err
	}
	if err := a.Finalize(); err != nil {
		return err
	}
	log.GetLoggerWithName("analysers").Debug("analysis finished",
		log.OperationKey, log.OperationAnalyse,
		log.BatchesKey, batches,
		log.SamplesKey, a.NumSamples(),
	)
	return nil
}

type base struct {
	node     string
	modality string

	mu        sync.Mutex
	shape     tensor.Shape
	fullRank  int
	dtype     tensor.DType
	samples   int
	finalized bool
}

func newBase(node, modality string) base {
	return base{node: node, modality: modality}
}

func (b *base) component() string {
	return fmt.Sprintf("%s(%s)", b.modality, b.node)
}

// record checks and counts one batch. The caller holds b.mu.
func (b *base) record(t *tensor.Tensor) error {
	if b.finalized {
		return errors.Wrapf(errors.ErrFrozen, "%s: Update after Finalize", b.component())
	}
	if t == nil {
		return errors.NewValueError(b.component(), "nil batch")
	}
	elem := t.ElementShape()
	if b.samples == 0 && b.shape == nil {
		b.shape = elem
		b.fullRank = t.Rank()
		b.dtype = t.DType
	} else {
		if t.DType != b.dtype {
			return errors.NewConfigurationErrorf(b.component(), "dtype", "expected %s, got %s", b.dtype, t.DType)
		}
		if !elem.Equal(b.shape) {
			return errors.NewConfigurationErrorf(b.component(), "shape", "expected element shape %s, got %s", b.shape, elem)
		}
	}
	b.samples += t.BatchSize()
	return nil
}

func (b *base) finalize() error {
	if b.finalized {
		return errors.Wrapf(errors.ErrFrozen, "%s: Finalize called twice", b.component())
	}
	if b.samples == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "%s", b.component())
	}
	b.finalized = true
	return nil
}

func (b *base) Shape() tensor.Shape {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shape.Clone()
}

func (b *base) DType() tensor.DType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dtype
}

func (b *base) NumSamples() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples
}

// IsFinalized reports whether Finalize has completed.
func (b *base) IsFinalized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finalized
}
