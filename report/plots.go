package report

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// HistogramBins is the number of bins of the target histogram.
const HistogramBins = 50

// TargetHistogram writes a histogram of the finite values to path.
func TargetHistogram(values []float64, path string) error {
	finite := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return errors.ErrEmptyData
	}

	p := plot.New()
	p.Title.Text = housing.Target
	p.X.Label.Text = housing.Target
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(finite, HistogramBins)
	if err != nil {
		return errors.Wrap(err, "build histogram")
	}
	p.Add(h)
	return save(p, path)
}

// GeoScatter writes a longitude/latitude scatter with translucent points to
// path, so dense regions show darker.
func GeoScatter(lon, lat []float64, path string) error {
	if len(lon) != len(lat) {
		return errors.NewDimensionError("GeoScatter", len(lon), len(lat), 0)
	}
	pts := make(plotter.XYs, 0, len(lon))
	for i := range lon {
		if plotter.CheckFloats(lon[i], lat[i]) == nil {
			pts = append(pts, plotter.XY{X: lon[i], Y: lat[i]})
		}
	}
	if len(pts) == 0 {
		return errors.ErrEmptyData
	}

	p := plot.New()
	p.Title.Text = "block groups"
	p.X.Label.Text = housing.ColLongitude
	p.Y.Label.Text = housing.ColLatitude

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	s.Color = color.NRGBA{R: 31, G: 119, B: 180, A: 26}
	s.Radius = vg.Points(1.5)
	p.Add(s)
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
