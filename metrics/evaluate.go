package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
)

// Performance holds the evaluation metrics of one scoring run.
type Performance struct {
	R2    float64 `json:"r2"`
	MAD   float64 `json:"mad"`
	MAPE  float64 `json:"mape"`
	WMAPE float64 `json:"wmape"`
	RMSE  float64 `json:"rmse"`
}

// LogFields returns the metrics as structured log fields.
func (p Performance) LogFields() []any {
	return []any{
		log.R2Key, p.R2,
		log.MADKey, p.MAD,
		log.MAPEKey, p.MAPE,
		log.WMAPEKey, p.WMAPE,
		log.RMSEKey, p.RMSE,
	}
}

// Evaluate computes R², median absolute error, MAPE, WMAPE and RMSE.
//
// yTrue and yHat must have the same non-zero length. Rows with a zero
// target are excluded from MAPE and WMAPE only. When yTrue has no variance
// R² is 1 for a perfect prediction and 0 otherwise.
func Evaluate(yTrue, yHat []float64) (Performance, error) {
	if len(yTrue) != len(yHat) {
		return Performance{}, errors.NewDimensionError("Evaluate", len(yTrue), len(yHat), 0)
	}
	if len(yTrue) == 0 {
		return Performance{}, errors.NewValueError("Evaluate", "empty vector")
	}

	t := mat.NewVecDense(len(yTrue), append([]float64(nil), yTrue...))
	p := mat.NewVecDense(len(yHat), append([]float64(nil), yHat...))

	var (
		perf Performance
		err  error
	)
	if perf.R2, err = r2ForceFinite(t, p); err != nil {
		return Performance{}, err
	}
	if perf.MAD, err = MedianAbsoluteError(t, p); err != nil {
		return Performance{}, err
	}
	if perf.MAPE, err = MAPE(t, p); err != nil {
		return Performance{}, err
	}
	if perf.WMAPE, err = WMAPE(t, p); err != nil {
		return Performance{}, err
	}
	if perf.RMSE, err = RMSE(t, p); err != nil {
		return Performance{}, err
	}
	return perf, nil
}

func r2ForceFinite(yTrue, yPred *mat.VecDense) (float64, error) {
	r2, err := R2Score(yTrue, yPred)
	if err == nil {
		return r2, nil
	}
	if !errors.Is(err, errZeroVariance) {
		return 0, err
	}

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	score := 0.0
	if mse == 0 {
		score = 1
	}
	errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "yTrue has no variance", score))
	return score, nil
}
