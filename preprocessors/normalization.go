package preprocessors

import (
	"context"
	"fmt"
	"math"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Normalization は最終軸の特徴量ごとに平均0、標準偏差1に標準化する。
// 統計量はデータセットを1回ストリーミングして求める。
type Normalization struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64
}

// NewNormalization は新しい Normalization を作成する
func NewNormalization() *Normalization {
	return &Normalization{state: model.NewStateManager()}
}

func (n *Normalization) Name() string { return NormalizationClass }

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (n *Normalization) Fit(ctx context.Context, ds dataset.Dataset) error {
	if err := n.state.BeginFit(NormalizationClass); err != nil {
		return err
	}
	defer n.state.EndFit()

	var (
		count int
		mean  []float64
		m2    []float64
	)
	err := dataset.ForEach(ctx, ds, func(b *tensor.Tensor) error {
		if b.DType != tensor.Float {
			return errors.NewValueError("Normalization.Fit", "expected float data, got "+b.DType.String())
		}
		if b.Rank() < 2 {
			return errors.NewDimensionError("Normalization.Fit", 2, b.Rank(), 1)
		}
		features := b.Shape[b.Rank()-1]
		if mean == nil {
			mean = make([]float64, features)
			m2 = make([]float64, features)
		} else if features != len(mean) {
			return errors.NewDimensionError("Normalization.Fit", len(mean), features, 1)
		}
		// Welford の逐次更新
		for i := 0; i < len(b.Floats); i += features {
			count++
			for j := 0; j < features; j++ {
				x := b.Floats[i+j]
				delta := x - mean[j]
				mean[j] += delta / float64(count)
				m2[j] += delta * (x - mean[j])
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Normalization.Fit")
	}
	if count == 0 {
		return errors.NewModelError("Normalization.Fit", "empty data", errors.ErrEmptyData)
	}

	n.Mean = mean
	n.Scale = make([]float64, len(mean))
	for j := range m2 {
		n.Scale[j] = math.Sqrt(m2[j] / float64(count))
		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if n.Scale[j] < 1e-8 {
			n.Scale[j] = 1.0
		}
	}
	n.state.SetDimensions(len(mean), count)
	n.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (n *Normalization) Transform(t *tensor.Tensor) (*tensor.Tensor, error) {
	if err := n.state.RequireFitted(NormalizationClass, "Transform"); err != nil {
		return nil, err
	}
	if t.DType != tensor.Float {
		return nil, errors.NewValueError("Normalization.Transform", "expected float data, got "+t.DType.String())
	}
	features := len(n.Mean)
	if t.Rank() < 2 || t.Shape[t.Rank()-1] != features {
		got := 0
		if t.Rank() > 0 {
			got = t.Shape[t.Rank()-1]
		}
		return nil, errors.NewDimensionError("Normalization.Transform", features, got, 1)
	}
	out := make([]float64, len(t.Floats))
	for i, x := range t.Floats {
		j := i % features
		out[i] = (x - n.Mean[j]) / n.Scale[j]
	}
	return tensor.NewFloat(t.Shape, out)
}

func (n *Normalization) IsFitted() bool { return n.state.IsFitted() }

func (n *Normalization) Config() serialization.Config {
	cfg := stateConfig(n.state, serialization.Config{})
	if n.IsFitted() {
		cfg["mean"] = append([]float64(nil), n.Mean...)
		cfg["scale"] = append([]float64(nil), n.Scale...)
	}
	return cfg
}

// String はスケーラーの文字列表現を返す
func (n *Normalization) String() string {
	if !n.IsFitted() {
		return "Normalization()"
	}
	return fmt.Sprintf("Normalization(n_features=%d)", len(n.Mean))
}

func normalizationFromConfig(cfg serialization.Config) (Preprocessor, error) {
	n := NewNormalization()
	if err := stateFromConfig(n.state, cfg); err != nil || !n.IsFitted() {
		return n, err
	}
	var err error
	if n.Mean, err = cfg.Floats("mean"); err != nil {
		return nil, err
	}
	if n.Scale, err = cfg.Floats("scale"); err != nil {
		return nil, err
	}
	if len(n.Mean) == 0 || len(n.Mean) != len(n.Scale) {
		return nil, errors.NewConfigurationError(NormalizationClass, "scale", "mean and scale must have the same non-zero length")
	}
	switch cols, samples := n.state.GetDimensions(); cols {
	case 0:
		n.state.SetDimensions(len(n.Mean), samples)
	case len(n.Mean):
	default:
		return nil, errors.NewConfigurationErrorf(NormalizationClass, "n_columns",
			"%d columns recorded for %d means", cols, len(n.Mean))
	}
	return n, nil
}
