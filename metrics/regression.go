package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// errZeroVariance は yTrue の全変動が 0 のときに返される
var errZeroVariance = errors.New("total sum of squares is zero (no variance in yTrue)")

// checkPair は yTrue と yPred が同じ長さの空でないベクトルであることを確認し、長さを返す
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += math.Abs(diff)
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	t := mat.Col(nil, 0, yTrue)
	yMean := stat.Mean(t, nil)

	var tss, rss float64
	for i, v := range t {
		d := v - yPred.AtVec(i)
		tss += (v - yMean) * (v - yMean)
		rss += d * d
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Wrap(errZeroVariance, "R2Score")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を比率で計算する
//
// MAPE = (1/m) * Σ|(yTrue - yPred)/yTrue|
//
// 実装では |yTrue - yPred|/|yTrue| として計算するため、負の目的変数でも
// 比率は正になる。yTrue が 0 の行は除外し、m は残った行数。残る行が無い場合は
// UndefinedMetricWarning を出して NaN を返す。
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	validCount := 0

	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal != 0 { // ゼロ除算を避ける
			diff := math.Abs(yTrueVal - yPred.AtVec(i))
			sum += diff / math.Abs(yTrueVal)
			validCount++
		}
	}

	if validCount == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("MAPE", "all yTrue values are zero", math.NaN()))
		return math.NaN(), nil
	}

	return sum / float64(validCount), nil
}

// WMAPE は重み付き平均絶対パーセンテージ誤差を計算する
//
// WMAPE = Σ|yTrue - yPred| / ΣyTrue
//
// MAPE と同じく yTrue が 0 の行は除外する。分母が 0 の場合は
// UndefinedMetricWarning を出して NaN を返す。
func WMAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("WMAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var absErr, total float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal == 0 {
			continue
		}
		absErr += math.Abs(yTrueVal - yPred.AtVec(i))
		total += yTrueVal
	}

	if total == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("WMAPE", "sum of non-zero yTrue values is zero", math.NaN()))
		return math.NaN(), nil
	}

	return absErr / total, nil
}

// MedianAbsoluteError は絶対誤差の中央値を計算する
//
// 外れ値に頑健な誤差指標。偶数個の場合は中央2値の平均を返す。
func MedianAbsoluteError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MedianAbsoluteError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	absErr := make([]float64, n)
	for i := 0; i < n; i++ {
		absErr[i] = math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	sort.Float64s(absErr)

	mid := n / 2
	if n%2 == 1 {
		return absErr[mid], nil
	}
	return (absErr[mid-1] + absErr[mid]) / 2, nil
}
