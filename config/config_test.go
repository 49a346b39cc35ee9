package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/nodes"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
settings {
  batch_size          = 4
  log_level           = "debug"
  structured_encoding = true
}

input "table" {
  type         = "StructuredDataInput"
  column_names = ["age", "city"]
  column_types = { city = categorical, age = numerical }
}

input "series" {
  type     = "TimeseriesInput"
  lookback = 10
}

input "img" {
  type  = "ImageInput"
  shape = [28, 28]
}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)
	require.Len(t, f.Inputs, 3)

	ns, err := f.Nodes(nil)
	require.NoError(t, err)

	table, ok := ns[0].(*nodes.StructuredDataInput)
	require.True(t, ok)
	assert.Equal(t, []string{"age", "city"}, table.ColumnNames())
	assert.Equal(t, schema.ColumnTypes{"age": schema.Numerical, "city": schema.Categorical}, table.ColumnTypes())

	series, ok := ns[1].(*nodes.TimeseriesInput)
	require.True(t, ok)
	require.NotNil(t, series.Lookback())
	assert.Equal(t, 10, *series.Lookback())

	assert.Equal(t, nodes.ImageInputClass, ns[2].Modality())
	assert.Equal(t, tensor.Shape{28, 28}, ns[2].Shape())

	lvl, err := f.LogLevel(log.LevelInfo)
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, lvl)
	assert.Len(t, f.Options(), 2)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		config bool
	}{
		{"syntax", `input "x" {`, true},
		{"no inputs", `settings {}`, true},
		{"missing type", `input "x" {}`, true},
		{"unknown variable", `input "x" {
  type = "StructuredDataInput"
  column_names = ["a"]
  column_types = { a = ordinal }
}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			assert.Equal(t, tt.config, errors.IsConfigurationError(err))
		})
	}
}

func TestNodes_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown type", `input "a" { type = "AudioInput" }`},
		{"lookback on plain input", `input "a" {
  type     = "Input"
  lookback = 3
}`},
		{"columns on text", `input "a" {
  type         = "TextInput"
  column_names = ["x"]
}`},
		{"types without names", `input "a" {
  type         = "StructuredDataInput"
  column_types = { x = numerical }
}`},
		{"non-positive lookback", `input "a" {
  type     = "TimeseriesInput"
  lookback = 0
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src), "nodes.hcl")
			require.NoError(t, err)
			_, err = f.Nodes(nil)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
		})
	}

	f, err := Parse([]byte(`
settings { log_level = "loud" }
input "a" { type = "Input" }
`), "level.hcl")
	require.NoError(t, err)
	_, err = f.LogLevel(log.LevelInfo)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestLoad_Pipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
settings {
  batch_size = 2
  normalization = true
}

input "x" {
  type = "Input"
}
`), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Filename)

	p, err := f.Pipeline()
	require.NoError(t, err)
	require.NoError(t, p.Fit(context.Background(), nil, [][]float64{{1}, {3}, {5}}))
	require.Len(t, p.Inputs()[0].Preprocessors, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}
