package layers

import (
	"context"
	"sort"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Reserved lookup indices. Vocabulary entries start at FirstVocabularyIndex.
const (
	MaskIndex            = 0
	OOVIndex             = 1
	FirstVocabularyIndex = 2

	// MaskToken is the value mapped to MaskIndex. It never enters the vocabulary.
	MaskToken = ""
	// OOVToken names the out-of-vocabulary slot.
	OOVToken = "[UNK]"
)

// StringLookup maps strings to contiguous integer indices learned from data.
// Index 0 is the mask token, index 1 the out-of-vocabulary bucket; learned
// values follow in descending frequency, ties broken lexicographically.
type StringLookup struct {
	state *model.StateManager
	vocab []string
	index map[string]int
}

// NewStringLookup returns an unfitted lookup.
func NewStringLookup() *StringLookup {
	return &StringLookup{state: model.NewStateManager()}
}

// NewStringLookupFromVocabulary restores a fitted lookup from a vocabulary
// previously returned by Vocabulary.
func NewStringLookupFromVocabulary(vocab []string) (*StringLookup, error) {
	l := NewStringLookup()
	if err := l.setVocabulary(vocab); err != nil {
		return nil, err
	}
	l.state.SetDimensions(1, 0)
	l.state.SetFitted()
	return l, nil
}

func (l *StringLookup) setVocabulary(vocab []string) error {
	index := make(map[string]int, len(vocab))
	for i, v := range vocab {
		if v == MaskToken {
			return errors.NewValidationError("vocabulary", "mask token cannot be a vocabulary entry", i)
		}
		if _, dup := index[v]; dup {
			return errors.NewValidationError("vocabulary", "duplicate vocabulary entry", v)
		}
		index[v] = i + FirstVocabularyIndex
	}
	l.vocab = append([]string(nil), vocab...)
	l.index = index
	return nil
}

// Adapt streams ds once and learns the vocabulary from every element. It can
// be called only once.
func (l *StringLookup) Adapt(ctx context.Context, ds dataset.Dataset) error {
	if err := l.state.BeginFit("StringLookup"); err != nil {
		return err
	}
	defer l.state.EndFit()
	counts := make(map[string]int)
	samples := 0
	err := dataset.ForEach(ctx, ds, func(b *tensor.Tensor) error {
		if b.DType != tensor.String {
			return errors.NewValueError("StringLookup.Adapt", "expected string data, got "+b.DType.String())
		}
		for _, s := range b.Strings {
			if s != MaskToken {
				counts[s]++
			}
		}
		samples += b.BatchSize()
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "StringLookup.Adapt")
	}
	vocab := make([]string, 0, len(counts))
	for s := range counts {
		vocab = append(vocab, s)
	}
	sort.Slice(vocab, func(i, j int) bool {
		ci, cj := counts[vocab[i]], counts[vocab[j]]
		if ci != cj {
			return ci > cj
		}
		return vocab[i] < vocab[j]
	})
	if err := l.setVocabulary(vocab); err != nil {
		return err
	}
	l.state.SetDimensions(1, samples)
	l.state.SetFitted()
	return nil
}

// IsFitted reports whether a vocabulary is available.
func (l *StringLookup) IsFitted() bool { return l.state.IsFitted() }

// Lookup returns the index of s. Unseen values map to OOVIndex.
func (l *StringLookup) Lookup(s string) int {
	if s == MaskToken {
		return MaskIndex
	}
	if i, ok := l.index[s]; ok {
		return i
	}
	return OOVIndex
}

// Vocabulary returns the learned values in index order, excluding the
// reserved mask and OOV slots.
func (l *StringLookup) Vocabulary() []string {
	return append([]string(nil), l.vocab...)
}

// Size is the number of indices including the reserved slots.
func (l *StringLookup) Size() int { return len(l.vocab) + FirstVocabularyIndex }
