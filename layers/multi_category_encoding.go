package layers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/parallel"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"github.com/YuminosukeSato/autoscigo/serialization"
	"gonum.org/v1/gonum/mat"
)

// Encoding は列ごとのエンコーディング方式
type Encoding string

const (
	// EncodingNone は数値列。文字列を数値として解釈する。
	EncodingNone Encoding = "none"
	// EncodingInt はカテゴリ列。語彙インデックスに変換する。
	EncodingInt Encoding = "int"
	// EncodingOneHot は予約済み。現在は設定エラーになる。
	EncodingOneHot Encoding = "one-hot"
)

// parallelThreshold is the number of cells above which columns are encoded
// concurrently.
const parallelThreshold = 4096

// ParseEncodings はタグ文字列をEncodingに変換する
func ParseEncodings(tags []string) ([]Encoding, error) {
	out := make([]Encoding, len(tags))
	for i, tag := range tags {
		out[i] = Encoding(tag)
	}
	return out, validateEncodings(out)
}

func validateEncodings(encodings []Encoding) error {
	for i, e := range encodings {
		switch e {
		case EncodingNone, EncodingInt:
		case EncodingOneHot:
			return errors.NewConfigurationErrorf("MultiCategoryEncoding", "encoding",
				"column %d: encoding '%s' is not supported yet", i, e)
		default:
			return errors.NewConfigurationErrorf("MultiCategoryEncoding", "encoding",
				"column %d: unknown encoding '%s'", i, e)
		}
	}
	return nil
}

// MultiCategoryEncoding は構造化データの各列を数値に変換する。
// "none" 列は数値として解析し (NaN や解析不能な値は 0.0)、
// "int" 列は列ごとの StringLookup でインデックスに変換する。
type MultiCategoryEncoding struct {
	encodings []Encoding
	lookups   []*StringLookup
	state     *model.StateManager
	logger    log.Logger
}

// NewMultiCategoryEncoding は列ごとのエンコーディングから作成する
//
// 使用例:
//
//	enc, err := layers.NewMultiCategoryEncoding([]layers.Encoding{layers.EncodingNone, layers.EncodingInt})
//	err = enc.Adapt(ctx, ds)
//	out, err := enc.Call(batch)
func NewMultiCategoryEncoding(encodings []Encoding) (*MultiCategoryEncoding, error) {
	if len(encodings) == 0 {
		return nil, errors.NewConfigurationError("MultiCategoryEncoding", "encoding", "at least one column encoding is required")
	}
	if err := validateEncodings(encodings); err != nil {
		return nil, err
	}
	m := &MultiCategoryEncoding{
		encodings: append([]Encoding(nil), encodings...),
		lookups:   make([]*StringLookup, len(encodings)),
		state:     model.NewStateManager(),
		logger:    log.GetLoggerWithName("MultiCategoryEncoding"),
	}
	for i, e := range encodings {
		if e == EncodingInt {
			m.lookups[i] = NewStringLookup()
		}
	}
	return m, nil
}

// Encodings returns the per-column tags.
func (m *MultiCategoryEncoding) Encodings() []Encoding {
	return append([]Encoding(nil), m.encodings...)
}

// Lookup returns the lookup of column j, or nil for numeric columns.
func (m *MultiCategoryEncoding) Lookup(j int) *StringLookup {
	if j < 0 || j >= len(m.lookups) {
		return nil
	}
	return m.lookups[j]
}

// IsFitted reports whether Adapt has completed.
func (m *MultiCategoryEncoding) IsFitted() bool { return m.state.IsFitted() }

func (m *MultiCategoryEncoding) checkColumns(phase string, t *tensor.Tensor) error {
	if t.DType != tensor.String {
		return errors.NewValueError("MultiCategoryEncoding."+phase, "expected string data, got "+t.DType.String())
	}
	if t.Rank() != 2 {
		return errors.NewDimensionError("MultiCategoryEncoding."+phase, 2, t.Rank(), 1)
	}
	if t.Shape[1] != len(m.encodings) {
		return errors.NewConfigurationErrorf("MultiCategoryEncoding", "encoding",
			"input has %d columns but %d encodings were given", t.Shape[1], len(m.encodings))
	}
	return nil
}

// Adapt learns one vocabulary per "int" column with one streaming pass per
// such column. It can be called only once; after a failed Adapt every column
// is reset and Adapt may be retried.
func (m *MultiCategoryEncoding) Adapt(ctx context.Context, ds dataset.Dataset) (err error) {
	if err := m.state.BeginFit("MultiCategoryEncoding"); err != nil {
		return err
	}
	defer m.state.EndFit()
	defer func() {
		if err != nil {
			m.resetLookups()
		}
	}()
	if !m.hasLookups() {
		if err := m.checkFirstBatch(ctx, ds); err != nil {
			return err
		}
	}
	samples := 0
	for j, lookup := range m.lookups {
		if lookup == nil {
			continue
		}
		j := j
		column := dataset.Map(ds, func(b *tensor.Tensor) (*tensor.Tensor, error) {
			if err := m.checkColumns("Adapt", b); err != nil {
				return nil, err
			}
			return b.Column(j)
		})
		if err := lookup.Adapt(ctx, column); err != nil {
			return errors.Wrapf(err, "column %d", j)
		}
		_, samples = lookup.state.GetDimensions()
		m.logger.Debug("column vocabulary adapted",
			log.OperationKey, log.OperationAdapt,
			"column", j,
			log.VocabularySizeKey, lookup.Size(),
		)
	}
	m.state.SetDimensions(len(m.encodings), samples)
	m.state.SetFitted()
	return nil
}

// Call encodes a (batch, columns) string tensor into a float matrix with the
// columns in their original order.
func (m *MultiCategoryEncoding) Call(t *tensor.Tensor) (*mat.Dense, error) {
	if err := m.checkColumns("Call", t); err != nil {
		return nil, err
	}
	if m.hasLookups() {
		if err := m.state.RequireFitted("MultiCategoryEncoding", "Call"); err != nil {
			return nil, err
		}
	}
	rows, cols := t.Shape[0], t.Shape[1]
	if rows == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(rows, cols, nil)

	encodeColumn := func(j int) {
		lookup := m.lookups[j]
		for i := 0; i < rows; i++ {
			v := t.Strings[i*cols+j]
			if lookup != nil {
				out.Set(i, j, float64(lookup.Lookup(v)))
			} else {
				out.Set(i, j, parseNumber(v))
			}
		}
	}
	threshold := cols
	if rows*cols >= parallelThreshold {
		threshold = 1
	}
	parallel.ParallelizeWithThreshold(cols, threshold, func(start, end int) {
		for j := start; j < end; j++ {
			encodeColumn(j)
		}
	})
	return out, nil
}

// Transform is Call returning a (batch, columns) float tensor.
func (m *MultiCategoryEncoding) Transform(t *tensor.Tensor) (*tensor.Tensor, error) {
	if err := m.checkColumns("Transform", t); err != nil {
		return nil, err
	}
	if t.Shape[0] == 0 {
		return tensor.NewFloat(tensor.Shape{0, len(m.encodings)}, nil)
	}
	out, err := m.Call(t)
	if err != nil {
		return nil, err
	}
	return tensor.FromMatrix(out), nil
}

// checkFirstBatch validates the column count when no column needs a pass.
func (m *MultiCategoryEncoding) checkFirstBatch(ctx context.Context, ds dataset.Dataset) error {
	first, err := dataset.First(ctx, ds)
	if errors.Is(err, errors.ErrEmptyData) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.checkColumns("Adapt", first)
}

func (m *MultiCategoryEncoding) resetLookups() {
	for j, l := range m.lookups {
		if l != nil {
			m.lookups[j] = NewStringLookup()
		}
	}
}

func (m *MultiCategoryEncoding) hasLookups() bool {
	for _, l := range m.lookups {
		if l != nil {
			return true
		}
	}
	return false
}

// parseNumber parses a numeric cell. NaN and malformed values become 0;
// out-of-range literals keep the ±Inf returned by ParseFloat.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Config returns the tags and, once fitted, the learned vocabularies.
func (m *MultiCategoryEncoding) Config() serialization.Config {
	tags := make([]string, len(m.encodings))
	for i, e := range m.encodings {
		tags[i] = string(e)
	}
	cfg := serialization.Config{"encoding": tags}
	if m.IsFitted() {
		vocabs := make([][]string, len(m.lookups))
		for i, l := range m.lookups {
			if l != nil {
				vocabs[i] = l.Vocabulary()
			}
		}
		cfg["vocabularies"] = vocabs
	}
	return cfg
}

// MultiCategoryEncodingFromConfig rebuilds a layer from Config. When
// vocabularies are present the layer is restored fitted, without data.
func MultiCategoryEncodingFromConfig(cfg serialization.Config) (*MultiCategoryEncoding, error) {
	tags, err := cfg.Strings("encoding")
	if err != nil {
		return nil, err
	}
	encodings, err := ParseEncodings(tags)
	if err != nil {
		return nil, err
	}
	m, err := NewMultiCategoryEncoding(encodings)
	if err != nil {
		return nil, err
	}
	if !cfg.Has("vocabularies") {
		return m, nil
	}
	vocabs, err := stringLists(cfg["vocabularies"])
	if err != nil {
		return nil, err
	}
	if len(vocabs) != len(encodings) {
		return nil, errors.NewConfigurationErrorf("MultiCategoryEncoding", "vocabularies",
			"%d vocabularies for %d columns", len(vocabs), len(encodings))
	}
	for j, e := range encodings {
		if e != EncodingInt {
			continue
		}
		lookup, err := NewStringLookupFromVocabulary(vocabs[j])
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", j)
		}
		m.lookups[j] = lookup
	}
	m.state.SetDimensions(len(encodings), 0)
	m.state.SetFitted()
	return m, nil
}

func stringLists(v any) ([][]string, error) {
	switch vs := v.(type) {
	case [][]string:
		return vs, nil
	case []any:
		out := make([][]string, len(vs))
		for i, e := range vs {
			if e == nil {
				continue
			}
			inner, err := serialization.Config{"v": e}.Strings("v")
			if err != nil {
				return nil, err
			}
			out[i] = inner
		}
		return out, nil
	}
	return nil, errors.NewValidationError("vocabularies", "expected a list of string lists", fmt.Sprintf("%T", v))
}
