package linear

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func line() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})
	return X, y
}

func TestRidge_Fit(t *testing.T) {
	tests := []struct {
		name          string
		alpha         float64
		wantCoef      float64
		wantIntercept float64
	}{
		{"ordinary least squares", 0, 2, 1},
		{"shrunk", 1, 10.0 / 6.0, 6 - 2.5*10.0/6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := line()
			ridge := NewRidge(WithAlpha(tt.alpha))
			require.NoError(t, ridge.Fit(X, y))

			assert.InDelta(t, tt.wantCoef, ridge.GetWeights()[0], 1e-9)
			assert.InDelta(t, tt.wantIntercept, ridge.GetIntercept(), 1e-9)
		})
	}
}

func TestRidge_WithoutIntercept(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})
	ridge := NewRidge(WithAlpha(0), WithFitIntercept(false))
	require.NoError(t, ridge.Fit(X, y))
	assert.InDelta(t, 2, ridge.Coef[0], 1e-9)
	assert.Zero(t, ridge.Intercept)
}

func TestRidge_SingularFallsBackToLeastSquares(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	ridge := NewRidge(WithAlpha(0))
	require.NoError(t, ridge.Fit(X, y))

	pred, err := model.PredictSlice(ridge, X)
	require.NoError(t, err)
	for i, want := range []float64{1, 2, 3} {
		assert.InDelta(t, want, pred[i], 1e-9)
	}
}

func TestRidge_CollinearColumnsUseMinimumNorm(t *testing.T) {
	// 同一列が 2 本あると XᵀX は特異に近く、Cholesky は成功しても解が信頼できない
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	ridge := NewRidge(WithAlpha(0))
	require.NoError(t, ridge.Fit(X, y))
	assert.InDelta(t, 1, ridge.Coef[0], 1e-9)
	assert.InDelta(t, 1, ridge.Coef[1], 1e-9)
	assert.InDelta(t, 1, ridge.Intercept, 1e-9)
}

func TestRidge_Deterministic(t *testing.T) {
	X, y := createBenchmarkData(300, 5)

	a := NewRidge(WithRandomState(42))
	b := NewRidge(WithRandomState(42))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Intercept, b.Intercept)
}

func TestRidge_Errors(t *testing.T) {
	X, y := line()

	_, err := NewRidge().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = NewRidge(WithAlpha(-1)).Fit(X, y)
	assert.Error(t, err)

	err = NewRidge().Fit(X, mat.NewDense(3, 1, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	ridge := NewRidge()
	require.NoError(t, ridge.Fit(X, y))
	_, err = ridge.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.True(t, errors.As(err, &dimErr))
}

func TestRidge_Score(t *testing.T) {
	X, y := line()
	ridge := NewRidge(WithAlpha(0))
	require.NoError(t, ridge.Fit(X, y))

	r2, err := ridge.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r2, 1e-12)
}

func TestLasso_Fit(t *testing.T) {
	X, y := createBenchmarkData(500, 4)

	lasso := NewLasso(WithAlpha(1e-6), WithTol(1e-10), WithMaxIter(10000))
	require.NoError(t, lasso.Fit(X, y))

	for j, w := range lasso.Coef {
		assert.InDelta(t, float64(j+1)*0.5, w, 0.02, "coef %d", j)
	}
	assert.InDelta(t, 1.0, lasso.Intercept, 0.02)
}

func TestLasso_LargeAlphaZeroesCoefficients(t *testing.T) {
	X, y := line()
	lasso := NewLasso(WithAlpha(100))
	require.NoError(t, lasso.Fit(X, y))

	assert.Equal(t, []float64{0}, lasso.Coef)
	assert.InDelta(t, 6.0, lasso.Intercept, 1e-12, "intercept falls back to the target mean")
}

func TestLasso_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	X, y := createBenchmarkData(100, 3)
	lasso := NewLasso(WithAlpha(0.01), WithMaxIter(1))
	require.NoError(t, lasso.Fit(X, y), "non-convergence is not an error")
	require.True(t, lasso.IsFitted())

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &cw))
}

func TestLasso_RandomSelectionIsSeeded(t *testing.T) {
	X, y := createBenchmarkData(200, 6)

	fit := func(seed int64) []float64 {
		l := NewLasso(WithAlpha(0.01), WithSelection(SelectionRandom), WithRandomState(seed))
		require.NoError(t, l.Fit(X, y))
		return l.Coef
	}
	assert.Equal(t, fit(42), fit(42))
}

func TestLasso_InvalidParams(t *testing.T) {
	X, y := line()
	assert.Error(t, NewLasso(WithAlpha(-1)).Fit(X, y))
	assert.Error(t, NewLasso(WithMaxIter(0)).Fit(X, y))
	assert.Error(t, NewLasso(WithSelection("shuffle")).Fit(X, y))
}

func TestSoftThreshold(t *testing.T) {
	tests := []struct {
		x, lambda, want float64
	}{
		{3, 1, 2},
		{-3, 1, -2},
		{0.5, 1, 0},
		{-1, 1, 0},
	}
	for _, tt := range tests {
		if got := SoftThreshold(tt.x, tt.lambda); got != tt.want {
			t.Errorf("SoftThreshold(%v, %v) = %v, want %v", tt.x, tt.lambda, got, tt.want)
		}
	}
}

type envelope struct {
	Model model.Regressor
}

func TestPersistence(t *testing.T) {
	X, y := createBenchmarkData(50, 3)

	for _, reg := range []model.Regressor{NewRidge(WithAlpha(0.5)), NewLasso(WithAlpha(0.01))} {
		t.Run(reg.Name(), func(t *testing.T) {
			require.NoError(t, reg.Fit(X, y))
			want, err := model.PredictSlice(reg, X)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, model.SaveModelToWriter(&envelope{Model: reg}, &buf))

			var got envelope
			require.NoError(t, model.LoadModelFromReader(&got, &buf))
			assert.Equal(t, reg.Name(), got.Model.Name())

			pred, err := model.PredictSlice(got.Model, X)
			require.NoError(t, err)
			assert.Equal(t, want, pred)
		})
	}
}
