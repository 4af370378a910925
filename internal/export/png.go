package export

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/san-kum/fragtrack/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var fill = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff}

// HistogramPlot builds a step histogram from binned data.
func HistogramPlot(d metrics.HistogramData) (*plot.Plot, error) {
	if len(d.Bins) == 0 {
		return nil, fmt.Errorf("histogram %s has no bins", d.Name)
	}
	bins := make([]plotter.HistogramBin, len(d.Bins))
	for i, b := range d.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Low, Max: b.High, Weight: b.Count}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     d.Bins[0].High - d.Bins[0].Low,
		FillColor: fill,
		LineStyle: plotter.DefaultLineStyle,
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (entries %d, mean %.4g)", d.Title, d.Entries, d.Mean)
	p.X.Label.Text = d.XLabel
	p.Y.Label.Text = "entries"
	p.Add(h)
	return p, nil
}

// HistogramsPNG writes one <name>.png per histogram into dir and returns
// the written paths.
func HistogramsPNG(hists []metrics.HistogramData, dir string) ([]string, error) {
	paths := make([]string, 0, len(hists))
	for _, d := range hists {
		if d.Entries == 0 {
			continue
		}
		p, err := HistogramPlot(d)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, d.Name+".png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// TrajectoryPNG plots the top view of a trajectory.
func TrajectoryPNG(points []r3.Vec, path string) error {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.Z
		xys[i].Y = pt.X
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = fill

	p := plot.New()
	p.Title.Text = "trajectory"
	p.X.Label.Text = "z [cm]"
	p.Y.Label.Text = "x [cm]"
	p.Add(line, plotter.NewGrid())
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
