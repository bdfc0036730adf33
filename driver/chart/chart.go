// Package chart renders membership functions, aggregated output sets and
// control loop trajectories to PDF.
package chart

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"example.com/fuzzyctl/core/control"
	"example.com/fuzzyctl/core/fuzzy"
)

var ErrNoData = errors.New("nothing to plot")

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.X.Label.Padding = vg.Points(5)
	p.Y.Label.Text = ylabel
	p.Y.Label.Padding = vg.Points(5)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func xys(xs, ys []float64) plotter.XYs {
	data := make(plotter.XYs, len(xs))
	for i := range xs {
		data[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return data
}

func addLine(p *plot.Plot, i int, name string, data plotter.XYs) error {
	line, err := plotter.NewLine(data)
	if err != nil {
		return fmt.Errorf("failed to plot %s: %w", name, err)
	}
	line.Color = plotutil.Color(i)
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func render(w io.Writer, p *plot.Plot) error {
	c := vgpdf.New(8.5*vg.Inch, 3*vg.Inch)
	c.EmbedFonts(true)
	dc := draw.New(c)
	dc = draw.Crop(dc, 1*vg.Millimeter, -1*vg.Millimeter, 1*vg.Millimeter, -1*vg.Millimeter)
	p.Draw(dc)
	_, err := c.WriteTo(w)
	return err
}

// Curves plots the membership functions of one variable.
func Curves(w io.Writer, variable string, cs []fuzzy.Curve) error {
	if len(cs) == 0 {
		return ErrNoData
	}
	p := newPlot(variable, variable, "Degree")
	p.Y.Min, p.Y.Max = 0, 1.05
	for i, c := range cs {
		if err := addLine(p, i, c.Adjective, xys(c.X, c.Y)); err != nil {
			return err
		}
	}
	return render(w, p)
}

// Aggregated plots the aggregated output set of the last inference cycle and
// marks the crisp value it was defuzzified to.
func Aggregated(w io.Writer, output string, xs, ys []float64, crisp float64) error {
	if len(xs) == 0 {
		return ErrNoData
	}
	p := newPlot(output, output, "Degree")
	p.Y.Min, p.Y.Max = 0, 1.05
	if err := addLine(p, 0, "aggregated", xys(xs, ys)); err != nil {
		return err
	}
	if err := addLine(p, 1, fmt.Sprintf("crisp %.4g", crisp),
		plotter.XYs{{X: crisp, Y: 0}, {X: crisp, Y: 1}}); err != nil {
		return err
	}
	return render(w, p)
}

// Trajectory plots the named signals of a control loop history against time,
// given the loop period dt in seconds.
func Trajectory(w io.Writer, h *control.History, dt float64, signals ...string) error {
	ss := h.Samples()
	if len(ss) == 0 || len(signals) == 0 {
		return ErrNoData
	}
	p := newPlot("Trajectory", "Time [s]", "")
	for i, name := range signals {
		var data plotter.XYs
		for _, s := range ss {
			y, ok := s.Inputs[name]
			if !ok {
				y, ok = s.Outputs[name]
			}
			if ok {
				data = append(data, plotter.XY{X: float64(s.Step) * dt, Y: y})
			}
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: no samples of %q", ErrNoData, name)
		}
		if err := addLine(p, i, name, data); err != nil {
			return err
		}
	}
	return render(w, p)
}
