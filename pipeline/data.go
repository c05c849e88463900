package pipeline

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// LoadHousing reads housing.csv from dir and checks that every raw column
// is present.
func LoadHousing(dir string) (*dataset.Frame, error) {
	path := filepath.Join(dir, RawCSVName)
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer fh.Close()

	f, err := dataset.ReadCSV(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	for _, name := range append([]string{housing.Target}, housing.FeatureColumns...) {
		if !f.Has(name) {
			return nil, errors.NewColumnSchemaError("LoadHousing", name, "column not found in "+path)
		}
	}
	return f, nil
}

// SplitTarget separates median_house_value from the feature columns.
func SplitTarget(f *dataset.Frame) (*dataset.Frame, []float64, error) {
	y, err := f.Numeric(housing.Target)
	if err != nil {
		return nil, nil, err
	}
	return f.Drop(housing.Target), append([]float64(nil), y...), nil
}

// JoinTarget appends y to X as the median_house_value column.
func JoinTarget(X *dataset.Frame, y []float64) (*dataset.Frame, error) {
	if len(y) != X.Len() {
		return nil, errors.NewDimensionError("JoinTarget", X.Len(), len(y), 0)
	}
	return X.With(dataset.NewNumeric(housing.Target, y))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
