package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/dataset"
	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysed(t *testing.T) *analysers.StructuredDataAnalyser {
	t.Helper()
	rows := make([]string, 0, 60)
	for i := 0; i < 30; i++ {
		rows = append(rows, fmt.Sprint(i), []string{"a", "b", "c"}[i%3])
	}
	data, err := tensor.NewString(tensor.Shape{30, 2}, rows)
	require.NoError(t, err)
	a := analysers.NewStructuredDataAnalyser("table", []string{"id", "label"}, nil)
	require.NoError(t, analysers.Analyse(context.Background(), a, dataset.FromTensor(data, 8)))
	return a
}

func TestCardinalityChart(t *testing.T) {
	p, err := CardinalityChart(analysed(t))
	require.NoError(t, err)
	assert.Equal(t, "Distinct values per column", p.Title.Text)

	_, err = CardinalityChart(analysers.NewStructuredDataAnalyser("table", nil, nil))
	assert.Error(t, err)
}

func TestSaveCardinalityChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardinality.png")
	require.NoError(t, SaveCardinalityChart(analysed(t), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
