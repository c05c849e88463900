// Package report produces the exploratory summary of a training partition:
// target statistics, correlations with the target and two plots.
package report

import (
	"cmp"
	"math"
	"path/filepath"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
)

// Plot file names written by Generate.
const (
	TargetHistogramFile = "target_hist.png"
	GeoScatterFile      = "geo_scatter.png"
)

// Summary describes a numeric column. Missing values are excluded and Std
// is the sample standard deviation.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// Describe summarises the non-NaN values.
func Describe(values []float64) (Summary, error) {
	x := observed(values)
	if len(x) == 0 {
		return Summary{}, errors.ErrEmptyData
	}
	slices.Sort(x)

	s := Summary{
		Count:  len(x),
		Min:    x[0],
		Max:    x[len(x)-1],
		Q25:    quantile(x, 0.25),
		Median: quantile(x, 0.5),
		Q75:    quantile(x, 0.75),
	}
	s.Mean, s.Std = stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		s.Std = math.NaN()
	}
	return s, nil
}

// quantile interpolates linearly between closest ranks of sorted x.
func quantile(x []float64, p float64) float64 {
	pos := p * float64(len(x)-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i+1 >= len(x) {
		return x[len(x)-1]
	}
	return x[i] + (pos-lo)*(x[i+1]-x[i])
}

func observed(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Correlation is the Pearson correlation of one column with the target.
type Correlation struct {
	Column string  `json:"column"`
	R      float64 `json:"r"`
}

// Correlations returns the correlation of every numeric column of f with
// target, target included, sorted descending. Rows where either value is
// NaN are skipped per pair. Undefined correlations (constant columns) are
// NaN and sort last.
func Correlations(f *dataset.Frame, target string) ([]Correlation, error) {
	y, err := f.Numeric(target)
	if err != nil {
		return nil, err
	}

	var out []Correlation
	for _, name := range f.NamesOf(dataset.Numeric) {
		x, _ := f.Numeric(name)
		out = append(out, Correlation{Column: name, R: pairwiseCorrelation(x, y)})
	}

	slices.SortStableFunc(out, func(a, b Correlation) int {
		an, bn := math.IsNaN(a.R), math.IsNaN(b.R)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(b.R, a.R)
	})
	return out, nil
}

func pairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if floats.Min(xs) == floats.Max(xs) || floats.Min(ys) == floats.Max(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Result is the output of Generate.
type Result struct {
	Target       Summary       `json:"target"`
	Correlations []Correlation `json:"correlations"`
	Files        []string      `json:"files"`
}

// Generate summarises the target of train, ranks correlations and writes
// the target histogram and the longitude/latitude scatter into dir.
func Generate(train *dataset.Frame, dir string, logger log.Logger) (*Result, error) {
	y, err := train.Numeric(housing.Target)
	if err != nil {
		return nil, err
	}
	lon, err := train.Numeric(housing.ColLongitude)
	if err != nil {
		return nil, err
	}
	lat, err := train.Numeric(housing.ColLatitude)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if res.Target, err = Describe(y); err != nil {
		return nil, errors.Wrap(err, "describe target")
	}
	if res.Correlations, err = Correlations(train, housing.Target); err != nil {
		return nil, err
	}

	hist := filepath.Join(dir, TargetHistogramFile)
	if err := TargetHistogram(y, hist); err != nil {
		return nil, err
	}
	scatter := filepath.Join(dir, GeoScatterFile)
	if err := GeoScatter(lon, lat, scatter); err != nil {
		return nil, err
	}
	res.Files = []string{hist, scatter}

	logger.Info("eda report written",
		log.PathKey, dir,
		log.SamplesKey, train.Len(),
		"target_mean", res.Target.Mean,
		"target_median", res.Target.Median,
	)
	return res, nil
}
