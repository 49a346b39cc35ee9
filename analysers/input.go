package analysers

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// InputAnalyser checks that data is numerical and keeps the mean and
// variance of every feature of the last axis.
type InputAnalyser struct {
	base
	n    float64
	mean []float64
	m2   []float64
}

// NewInputAnalyser returns an analyser for the node named node.
func NewInputAnalyser(node string) *InputAnalyser {
	return &InputAnalyser{base: newBase(node, "Input")}
}

func (a *InputAnalyser) Update(t *tensor.Tensor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(t); err != nil {
		return err
	}
	if t.DType != tensor.Float {
		return errors.NewValueError(a.component(), "expect the data to be numerical, got "+t.DType.String())
	}
	a.accumulate(t)
	return nil
}

// accumulate merges per-batch moments into the running ones.
func (a *InputAnalyser) accumulate(t *tensor.Tensor) {
	if t.Len() == 0 {
		return
	}
	features := 1
	if t.Rank() > 1 {
		features = t.Shape[t.Rank()-1]
	}
	if features == 0 {
		return
	}
	if a.mean == nil {
		a.mean = make([]float64, features)
		a.m2 = make([]float64, features)
	}
	rows := t.Len() / features
	nb := float64(rows)
	total := a.n + nb
	column := make([]float64, rows)
	for j := 0; j < features; j++ {
		for i := range column {
			column[i] = t.Floats[i*features+j]
		}
		mean, variance := stat.MeanVariance(column, nil)
		m2 := variance * (nb - 1)
		if rows < 2 {
			m2 = 0
		}
		delta := mean - a.mean[j]
		a.mean[j] += delta * nb / total
		a.m2[j] += m2 + delta*delta*a.n*nb/total
	}
	a.n = total
}

func (a *InputAnalyser) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finalize()
}

// Mean returns the per-feature mean.
func (a *InputAnalyser) Mean() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.mean...)
}

// Variance returns the per-feature population variance.
func (a *InputAnalyser) Variance() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.n == 0 {
		return nil
	}
	out := make([]float64, len(a.m2))
	for j, m2 := range a.m2 {
		out[j] = m2 / a.n
	}
	return out
}

// ImageAnalyser checks that images are numerical with 3 or 4 dimensions
// including the batch axis, and records whether a channel axis is present.
type ImageAnalyser struct {
	InputAnalyser
}

// NewImageAnalyser returns an analyser for the node named node.
func NewImageAnalyser(node string) *ImageAnalyser {
	return &ImageAnalyser{InputAnalyser: InputAnalyser{base: newBase(node, "ImageInput")}}
}

func (a *ImageAnalyser) Update(t *tensor.Tensor) error {
	if t != nil && t.Rank() != 3 && t.Rank() != 4 {
		return errors.NewValueError(a.component(),
			fmt.Sprintf("expect the data to have 3 or 4 dimensions, got shape %s", t.Shape))
	}
	return a.InputAnalyser.Update(t)
}

// HasChannelDim reports whether the images carry a trailing channel axis.
func (a *ImageAnalyser) HasChannelDim() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fullRank == 4
}

// TextAnalyser checks that data is one string per sample and records the
// longest sentence in whitespace-separated words.
type TextAnalyser struct {
	base
	maxWords int
	words    int
}

// NewTextAnalyser returns an analyser for the node named node.
func NewTextAnalyser(node string) *TextAnalyser {
	return &TextAnalyser{base: newBase(node, "TextInput")}
}

func (a *TextAnalyser) Update(t *tensor.Tensor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(t); err != nil {
		return err
	}
	if t.DType != tensor.String {
		return errors.NewValueError(a.component(), "expect the data to be strings, got "+t.DType.String())
	}
	if t.Rank() > 2 || (t.Rank() == 2 && t.Shape[1] != 1) {
		return errors.NewValueError(a.component(), fmt.Sprintf("expect one sentence per sample, got shape %s", t.Shape))
	}
	for _, s := range t.Strings {
		n := len(strings.Fields(s))
		a.words += n
		if n > a.maxWords {
			a.maxWords = n
		}
	}
	return nil
}

func (a *TextAnalyser) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finalize()
}

// MaxWords returns the word count of the longest sentence.
func (a *TextAnalyser) MaxWords() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxWords
}

// MeanWords returns the average sentence length in words.
func (a *TextAnalyser) MeanWords() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.samples == 0 {
		return 0
	}
	return float64(a.words) / float64(a.samples)
}
