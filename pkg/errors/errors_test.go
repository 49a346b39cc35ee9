package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigurationError(t *testing.T) {
	tests := []struct {
		name      string
		component string
		field     string
		reason    string
		wantMsg   string
	}{
		{
			name:      "with field",
			component: "TimeseriesInput(sales)",
			field:     "lookback",
			reason:    "must be resolved before Build",
			wantMsg:   "autoscigo: TimeseriesInput(sales): invalid configuration of 'lookback': must be resolved before Build",
		},
		{
			name:      "without field",
			component: "MultiCategoryEncoding",
			reason:    "3 columns but 2 encodings",
			wantMsg:   "autoscigo: MultiCategoryEncoding: invalid configuration: 3 columns but 2 encodings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.component, tt.field, tt.reason)

			// 基本的なエラーメッセージの確認
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var cfgErr *ConfigurationError
			require.True(t, As(err, &cfgErr))
			assert.Equal(t, tt.component, cfgErr.Component)
			assert.True(t, IsConfigurationError(err))
			assert.True(t, IsConfigurationError(Wrap(err, "assembling pipeline")))
		})
	}
}

func TestNewConfigurationErrorf(t *testing.T) {
	err := NewConfigurationErrorf("StructuredDataInput(table)", "column_types", "cannot find column %q", "city")
	assert.Contains(t, err.Error(), `cannot find column "city"`)
	assert.False(t, IsConfigurationError(New("plain")))
}

func TestNewModelError(t *testing.T) {
	err := NewModelError("Tokenizer.ConvertTokensToIDs", "external tokenizer failed", fmt.Errorf("unknown token"))
	assert.Equal(t, "autoscigo: Tokenizer.ConvertTokensToIDs: external tokenizer failed: unknown token", err.Error())

	var modelErr *ModelError
	require.True(t, As(err, &modelErr))
	assert.EqualError(t, modelErr.Unwrap(), "unknown token")

	noCause := NewModelError("Encoder.Call", "not available", nil)
	assert.Equal(t, "autoscigo: Encoder.Call: not available", noCause.Error())
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("MultiCategoryEncoding.Call", 3, 2, 1)
	assert.Equal(t, "autoscigo: MultiCategoryEncoding.Call: dimension mismatch on axis 1 (features). Expected 3, got 2", err.Error())

	var dimErr *DimensionError
	assert.True(t, As(err, &dimErr))
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("CategoricalToNumerical", "Transform")
	assert.Equal(t, "autoscigo: CategoricalToNumerical: this component is not fitted yet. Call Fit() before using Transform()", err.Error())
}

func TestInputShapeError(t *testing.T) {
	err := NewInputShapeError("transform", []int{4}, []int{5})
	assert.Equal(t, "autoscigo: input shape mismatch in transform phase. Expected shape [4], got [5]", err.Error())

	var shapeErr *InputShapeError
	require.True(t, As(err, &shapeErr))
	assert.Equal(t, []int{5}, shapeErr.Got)
}

func TestValidationAndValueErrors(t *testing.T) {
	err := NewValidationError("max_seq_len", "must be at least 2", 1)
	assert.Equal(t, "autoscigo: validation failed for parameter 'max_seq_len': must be at least 2 (got: 1)", err.Error())

	valErr := NewValueError("Adapter.Adapt", "unsupported data type []int")
	assert.Equal(t, "autoscigo: Adapter.Adapt: unsupported data type []int", valErr.Error())
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrAlreadyFitted, "in MultiCategoryEncoding.Adapt")
	assert.True(t, Is(wrapped, ErrAlreadyFitted))
	assert.True(t, strings.Contains(wrapped.Error(), "in MultiCategoryEncoding.Adapt"))

	wrappedf := Wrapf(ErrEmptyData, "in %s: %d batches", "Analyser.Finalize", 0)
	assert.True(t, Is(wrappedf, ErrEmptyData))
	assert.Contains(t, wrappedf.Error(), "in Analyser.Finalize: 0 batches")
}

func TestWarnUsesZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	w := NewDataConversionWarning("float64", "string", "structured data columns are parsed as strings")
	Warn(w)

	require.Len(t, got, 1)
	assert.Equal(t, "data converted from float64 to string. Reason: structured data columns are parsed as strings", got[0].Error())
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	Warn(NewDataConversionWarning("int", "float64", "numeric input"))
	assert.Len(t, got, 1)
}

func TestMarshalZerologObject(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	cfgErr := &ConfigurationError{Component: "ImageInput(x)", Field: "shape", Reason: "unresolved"}
	logger.Error().EmbedObject(cfgErr).Msg("build failed")

	out := buf.String()
	assert.Contains(t, out, `"component":"ImageInput(x)"`)
	assert.Contains(t, out, `"type":"ConfigurationError"`)
}
