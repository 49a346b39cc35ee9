// Package preprocessors はノードのデータに適用する学習済み変換を提供する。
//
// Preprocessor は Fit を高々1回だけ受け付け、その後バッチ単位で Transform する。
// 全ての Preprocessor は Config で設定を書き出し、Registry から復元できる。
package preprocessors

import (
	"context"

	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/model"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/serialization"
)

// Class tags of the built-in preprocessors.
const (
	AddOneDimensionClass        = "AddOneDimension"
	CategoricalToNumericalClass = "CategoricalToNumerical"
	TextToBertInputsClass       = "TextToBertInputs"
	NormalizationClass          = "Normalization"
	PassthroughClass            = "Passthrough"
)

// Preprocessor is a fit-once, batch-wise data transformation.
type Preprocessor interface {
	// Name returns the class tag used for serialization.
	Name() string
	// Fit learns state from one streaming pass over ds. A second call fails
	// with errors.ErrAlreadyFitted.
	Fit(ctx context.Context, ds dataset.Dataset) error
	// Transform converts one batch.
	Transform(t *tensor.Tensor) (*tensor.Tensor, error)
	// IsFitted reports whether Fit has completed.
	IsFitted() bool
	// Config returns the constructor arguments plus any fitted state.
	Config() serialization.Config
}

// Serialize wraps p in its persisted envelope.
func Serialize(p Preprocessor) serialization.Object {
	return serialization.Object{ClassName: p.Name(), Config: p.Config()}
}

// TransformDataset lazily applies p to every batch of ds.
func TransformDataset(p Preprocessor, ds dataset.Dataset) dataset.Dataset {
	return dataset.Map(ds, p.Transform)
}

// stateless is embedded by preprocessors that learn nothing. Fit still
// happens at most once.
type stateless struct {
	state *model.StateManager
}

func newStateless() stateless {
	return stateless{state: model.NewStateManager()}
}

func (s stateless) fit(name string) error {
	if err := s.state.BeginFit(name); err != nil {
		return err
	}
	defer s.state.EndFit()
	s.state.SetFitted()
	return nil
}

func (s stateless) IsFitted() bool { return s.state.IsFitted() }

// stateConfig は学習済み状態を cfg に書き込む
func stateConfig(state *model.StateManager, cfg serialization.Config) serialization.Config {
	st := state.GetState()
	cfg["fitted"] = st.Fitted
	if st.NColumns > 0 {
		cfg["n_columns"] = st.NColumns
	}
	if st.NSamples > 0 {
		cfg["n_samples"] = st.NSamples
	}
	return cfg
}

// stateFromConfig restores the state written by stateConfig.
func stateFromConfig(state *model.StateManager, cfg serialization.Config) error {
	var st model.State
	var err error
	if st.Fitted, err = cfg.Bool("fitted", false); err != nil {
		return err
	}
	for key, dst := range map[string]*int{"n_columns": &st.NColumns, "n_samples": &st.NSamples} {
		n, err := cfg.OptionalInt(key)
		if err != nil {
			return err
		}
		if n != nil {
			*dst = *n
		}
	}
	state.SetState(st)
	return nil
}
