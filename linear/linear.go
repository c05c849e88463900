// Package linear provides penalised linear regressors.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/parallel"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// Coefficients は学習済みの線形モデルのパラメータ
type Coefficients struct {
	Coef      []float64 // 重み（係数）
	Intercept float64   // 切片
	NFeatures int       // 特徴量の数
}

// GetWeights は学習された重み（係数）を返す
func (c *Coefficients) GetWeights() []float64 {
	return append([]float64(nil), c.Coef...)
}

// GetIntercept は学習された切片を返す
func (c *Coefficients) GetIntercept() float64 {
	return c.Intercept
}

// predict は y = X * coef + intercept を計算する
func (c *Coefficients) predict(op string, X mat.Matrix) (mat.Matrix, error) {
	r, cols := X.Dims()
	if cols != c.NFeatures {
		return nil, errors.NewDimensionError(op, c.NFeatures, cols, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := c.Intercept
			for j := 0; j < cols; j++ {
				pred += X.At(i, j) * c.Coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions, nil
}

// centered は切片を扱うために中心化した学習データ
type centered struct {
	X     *mat.Dense
	y     *mat.VecDense
	xMean []float64
	yMean float64
}

// center は fitIntercept が true のとき X と y を列平均で中心化する
func center(X, y mat.Matrix, fitIntercept bool) centered {
	r, c := X.Dims()
	out := centered{
		X:     mat.NewDense(r, c, nil),
		y:     mat.NewVecDense(r, nil),
		xMean: make([]float64, c),
	}

	if fitIntercept {
		for i := 0; i < r; i++ {
			out.yMean += y.At(i, 0)
			for j := 0; j < c; j++ {
				out.xMean[j] += X.At(i, j)
			}
		}
		out.yMean /= float64(r)
		for j := range out.xMean {
			out.xMean[j] /= float64(r)
		}
	}

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.y.SetVec(i, y.At(i, 0)-out.yMean)
			for j := 0; j < c; j++ {
				out.X.Set(i, j, X.At(i, j)-out.xMean[j])
			}
		}
	})
	return out
}

// intercept は中心化前の切片 ȳ - x̄·w を返す
func (c centered) intercept(coef []float64) float64 {
	b := c.yMean
	for j, w := range coef {
		b -= c.xMean[j] * w
	}
	return b
}

// Score はモデルの決定係数（R²）を計算する
func score(p interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}, X, y mat.Matrix) (float64, error) {
	yPred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()

	// y の平均を計算
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// 全変動 (TSS) と残差変動 (RSS) を計算
	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		yPredVal := yPred.At(i, 0)

		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPredVal) * (yTrue - yPredVal)
	}

	// R² = 1 - RSS/TSS
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}

	return 1 - rss/tss, nil
}
