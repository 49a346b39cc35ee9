package layers

import (
	"github.com/YuminosukeSato/autoscigo/core/parallel"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
	"github.com/YuminosukeSato/autoscigo/tokenization"
)

// BertInputRows is the size of the second axis of an encoded batch:
// token ids, attention mask and token type ids.
const BertInputRows = 3

// sentenceThreshold is the batch size above which sentences are tokenized
// concurrently.
const sentenceThreshold = 64

// TextVectorizationWithTokenizer converts raw sentences into fixed-length
// BERT encoder inputs. It runs host-side before any model computation.
type TextVectorizationWithTokenizer struct {
	tokenizer     tokenization.Tokenizer
	maxSeqLen     int
	keepSeparator bool
}

// TextVectorizationOption configures a TextVectorizationWithTokenizer.
type TextVectorizationOption func(*TextVectorizationWithTokenizer)

// WithSeparatorKept truncates real tokens instead of the trailing [SEP], so
// every sequence ends with the separator.
func WithSeparatorKept() TextVectorizationOption {
	return func(v *TextVectorizationWithTokenizer) { v.keepSeparator = true }
}

// NewTextVectorizationWithTokenizer は最大系列長 maxSeqLen (L) のレイヤを作成する。
// 出力は [CLS] を含めて L トークン。
func NewTextVectorizationWithTokenizer(tok tokenization.Tokenizer, maxSeqLen int, opts ...TextVectorizationOption) (*TextVectorizationWithTokenizer, error) {
	if tok == nil {
		return nil, errors.NewConfigurationError("TextVectorizationWithTokenizer", "tokenizer", "a tokenizer is required")
	}
	if maxSeqLen < 2 {
		return nil, errors.NewConfigurationErrorf("TextVectorizationWithTokenizer", "max_seq_len",
			"must be at least 2, got %d", maxSeqLen)
	}
	v := &TextVectorizationWithTokenizer{tokenizer: tok, maxSeqLen: maxSeqLen}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// MaxSeqLen returns L.
func (v *TextVectorizationWithTokenizer) MaxSeqLen() int { return v.maxSeqLen }

// SentenceTokens tokenizes s, appends [SEP] and fits the result to L-1
// tokens: shorter sequences are padded with [UNK], longer ones truncated.
// Without WithSeparatorKept the truncation can drop [SEP].
func (v *TextVectorizationWithTokenizer) SentenceTokens(s string) ([]string, error) {
	tokens, err := errors.SafeCall("Tokenizer.Tokenize", func() ([]string, error) {
		return v.tokenizer.Tokenize(s), nil
	})
	if err != nil {
		return nil, errors.NewModelError("TextVectorizationWithTokenizer", "tokenizer failed", err)
	}
	n := v.maxSeqLen - 1
	if v.keepSeparator && len(tokens) > n-1 {
		tokens = tokens[:n-1]
	}
	tokens = append(append(make([]string, 0, n), tokens...), tokenization.SepToken)
	if len(tokens) < n {
		for len(tokens) < n {
			tokens = append(tokens, tokenization.UnkToken)
		}
		return tokens, nil
	}
	return tokens[:n], nil
}

func (v *TextVectorizationWithTokenizer) ids(tokens []string) ([]int32, error) {
	ids, err := errors.SafeCall("Tokenizer.ConvertTokensToIDs", func() ([]int32, error) {
		return v.tokenizer.ConvertTokensToIDs(tokens)
	})
	if err != nil {
		return nil, errors.NewModelError("TextVectorizationWithTokenizer", "token conversion failed", err)
	}
	if len(ids) != len(tokens) {
		return nil, errors.NewModelError("TextVectorizationWithTokenizer",
			"tokenizer returned a different number of ids than tokens", nil)
	}
	return ids, nil
}

// EncodeSentence returns the L-1 ids of one sentence, without [CLS].
func (v *TextVectorizationWithTokenizer) EncodeSentence(s string) ([]int32, error) {
	tokens, err := v.SentenceTokens(s)
	if err != nil {
		return nil, err
	}
	return v.ids(tokens)
}

// Encode converts a batch of sentences, shape (batch,) or (batch, 1), into an
// int32 tensor of shape (batch, 3, L). For every sample row 0 holds [CLS]
// followed by the sentence ids, row 1 is all ones and row 2 all zeros.
func (v *TextVectorizationWithTokenizer) Encode(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t.DType != tensor.String {
		return nil, errors.NewValueError("TextVectorizationWithTokenizer.Encode", "expected string data, got "+t.DType.String())
	}
	switch {
	case t.Rank() == 1:
	case t.Rank() == 2 && t.Shape[1] == 1:
	default:
		return nil, errors.NewInputShapeError("transform", []int{tensor.Unknown, 1}, t.Shape)
	}

	cls, err := v.ids([]string{tokenization.ClsToken})
	if err != nil {
		return nil, err
	}
	batch, length := t.Shape[0], v.maxSeqLen
	out := make([]int32, batch*BertInputRows*length)
	// 各サンプルは out の別々の領域に書き込む
	err = parallel.ForEachErr(batch, sentenceThreshold, func(i int) error {
		ids, err := v.EncodeSentence(t.Strings[i])
		if err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}
		base := i * BertInputRows * length
		out[base] = cls[0]
		copy(out[base+1:base+length], ids)
		for k := 0; k < length; k++ {
			out[base+length+k] = 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tensor.NewInt(tensor.Shape{batch, BertInputRows, length}, out)
}

// Config returns the serializable settings. The tokenizer is not persisted
// and must be supplied again on restore.
func (v *TextVectorizationWithTokenizer) Config() serialization.Config {
	return serialization.Config{
		"max_seq_len":    v.maxSeqLen,
		"keep_separator": v.keepSeparator,
	}
}

// TextVectorizationFromConfig rebuilds the layer around tok.
func TextVectorizationFromConfig(tok tokenization.Tokenizer, cfg serialization.Config) (*TextVectorizationWithTokenizer, error) {
	maxSeqLen, err := cfg.Int("max_seq_len")
	if err != nil {
		return nil, err
	}
	keep, err := cfg.Bool("keep_separator", false)
	if err != nil {
		return nil, err
	}
	var opts []TextVectorizationOption
	if keep {
		opts = append(opts, WithSeparatorKept())
	}
	return NewTextVectorizationWithTokenizer(tok, maxSeqLen, opts...)
}
