package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	f := dataset.MustNew(
		dataset.NewNumeric("rooms", []float64{1, 2, 3, 4}),
		dataset.NewNumeric("flat", []float64{5, 5, 5, 5}),
		dataset.NewNumeric("ocean_proximity_INLAND", []float64{0, 1, 0, 1}),
	)

	s := NewStandardScaler("rooms", "flat")
	out, err := s.FitTransform(f)
	require.NoError(t, err)

	assert.Equal(t, f.Columns(), out.Columns())
	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// zero variance keeps a unit scale
	assert.Equal(t, 1.0, s.Scale[1])

	rooms, _ := out.Numeric("rooms")
	assert.InDelta(t, -1.5/math.Sqrt(1.25), rooms[0], 1e-12)
	flat, _ := out.Numeric("flat")
	assert.Equal(t, []float64{0, 0, 0, 0}, flat)
	dummy, _ := out.Numeric("ocean_proximity_INLAND")
	assert.Equal(t, []float64{0, 1, 0, 1}, dummy, "columns outside the list pass through")
}

func TestStandardScalerAllNumericByDefault(t *testing.T) {
	f := dataset.MustNew(
		dataset.NewNumeric("a", []float64{1, math.NaN(), 3}),
		dataset.NewCategorical("c", []string{"x", "y", "x"}),
	)
	s := NewStandardScaler()
	require.NoError(t, s.Fit(f))
	assert.Equal(t, []string{"a"}, s.Columns)
	assert.InDelta(t, 2, s.Mean[0], 1e-12)
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler("a")
	_, err := s.Transform(dataset.MustNew(dataset.NewNumeric("a", []float64{1})))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, s.Fit(dataset.MustNew(dataset.NewNumeric("a", []float64{1, 2}))))
	_, err = s.Transform(dataset.MustNew(dataset.NewNumeric("b", []float64{1})))
	var se *errors.SchemaError
	assert.True(t, errors.As(err, &se))
}
