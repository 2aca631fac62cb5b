package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("no positive convergence data to plot")

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// ConvergencePlot draws the largest state update per iteration on a log
// axis, with the tolerance as a reference line when it is positive.
// Non-positive samples cannot be shown on a log axis and are skipped.
func ConvergencePlot(title string, history []float64, tolerance float64) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(history))
	for i, e := range history {
		if e > 0 {
			pts = append(pts, plotter.XY{X: float64(i + 1), Y: e})
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "max |Δx|"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("building convergence line: %w", err)
	}
	line.Color = color.RGBA{B: 200, A: 255}
	points.Color = line.Color
	p.Add(line, points)
	p.Legend.Add("update", line, points)

	if tolerance > 0 {
		last := float64(len(history))
		if last < 2 {
			last = 2
		}
		tol, err := plotter.NewLine(plotter.XYs{{X: 1, Y: tolerance}, {X: last, Y: tolerance}})
		if err != nil {
			return nil, fmt.Errorf("building tolerance line: %w", err)
		}
		tol.Color = color.RGBA{R: 200, A: 255}
		tol.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(tol)
		p.Legend.Add("tolerance", tol)
	}
	p.Legend.Top = true
	return p, nil
}

// SaveConvergence writes the chart to path. The extension selects the
// format (png, svg, pdf, ...).
func SaveConvergence(path, title string, history []float64, tolerance float64) error {
	p, err := ConvergencePlot(title, history, tolerance)
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

// WriteConvergence renders the chart in the given format to w.
func WriteConvergence(w io.Writer, format, title string, history []float64, tolerance float64) error {
	p, err := ConvergencePlot(title, history, tolerance)
	if err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	wt, err := p.WriterTo(chartWidth, chartHeight, format)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}
