// Package report は Analyser の統計をグラフに描画する。
package report

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/autoscigo/analysers"
	"github.com/YuminosukeSato/autoscigo/core/schema"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/YuminosukeSato/autoscigo/pkg/log"
)

var (
	numericalColor   = color.RGBA{R: 55, G: 126, B: 184, A: 255}
	categoricalColor = color.RGBA{R: 228, G: 26, B: 28, A: 255}
)

// CardinalityChart draws the number of distinct values of every column of a
// finalized structured analyser. Bars are coloured by the inferred type.
func CardinalityChart(a *analysers.StructuredDataAnalyser) (*plot.Plot, error) {
	types := a.InferredTypes()
	if types == nil {
		return nil, errors.NewValueError("report.CardinalityChart", "the analyser has not been finalized")
	}
	cols := a.Columns()
	numerical := make(plotter.Values, len(cols))
	categorical := make(plotter.Values, len(cols))
	names := make([]string, len(cols))
	for j, c := range cols {
		names[j] = c.Name
		if types[j] == schema.Categorical {
			categorical[j] = float64(c.Distinct())
		} else {
			numerical[j] = float64(c.Distinct())
		}
	}

	p := plot.New()
	p.Title.Text = "Distinct values per column"
	p.Y.Label.Text = "distinct values"

	width := vg.Points(20)
	for _, series := range []struct {
		label  string
		values plotter.Values
		color  color.Color
	}{
		{string(schema.Numerical), numerical, numericalColor},
		{string(schema.Categorical), categorical, categoricalColor},
	} {
		bars, err := plotter.NewBarChart(series.values, width)
		if err != nil {
			return nil, errors.Wrap(err, "report.CardinalityChart")
		}
		bars.Color = series.color
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Legend.Add(series.label, bars)
	}
	p.Legend.Top = true
	p.NominalX(names...)
	return p, nil
}

// SaveCardinalityChart renders CardinalityChart to filename. The format
// follows the file extension (png, svg, pdf, ...).
func SaveCardinalityChart(a *analysers.StructuredDataAnalyser, filename string) error {
	p, err := CardinalityChart(a)
	if err != nil {
		return err
	}
	width := vg.Length(len(a.Columns()))*vg.Inch/2 + 3*vg.Inch
	if err := p.Save(width, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "save chart to %s", filename)
	}
	log.GetLoggerWithName("report").Debug("Saved cardinality chart.", log.ConfigFileKey, filename)
	return nil
}
