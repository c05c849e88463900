package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Regressor combines the interfaces every trainable regressor satisfies.
type Regressor interface {
	Fitter
	Predictor

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool

	// Name returns the estimator family, e.g. "Ridge".
	Name() string
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// PredictSlice runs Predict and flattens the n×1 result.
func PredictSlice(p Predictor, X mat.Matrix) ([]float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return nil, err
	}
	r, c := pred.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("PredictSlice", 1, c, 1)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = pred.At(i, 0)
	}
	return out, nil
}

// ColumnVector returns y as an n×1 matrix.
func ColumnVector(y []float64) *mat.Dense {
	return mat.NewDense(len(y), 1, append([]float64(nil), y...))
}

// CheckXY validates a training pair and returns its shape.
func CheckXY(op string, X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.ErrEmptyData
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if err := errors.CheckMatrix(op, X, rows, cols, 0); err != nil {
		return 0, 0, err
	}
	if err := errors.CheckMatrix(op, y, yRows, 1, 0); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}
