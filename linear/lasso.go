package linear

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func init() {
	model.Register(&Lasso{})
}

var (
	_ model.Regressor   = (*Lasso)(nil)
	_ model.LinearModel = (*Lasso)(nil)
)

// Lasso は L1 正則化付きの線形回帰モデル
//
// 目的関数 (1/2n) ||y - Xw||² + alpha * ||w||₁ を座標降下法で最小化する。
type Lasso struct {
	model.BaseEstimator
	Coefficients

	Alpha        float64   // 正則化の強さ (>= 0)
	FitIntercept bool      // 切片を学習するかどうか
	MaxIter      int       // 座標降下の最大反復回数
	Tol          float64   // 収束判定の許容誤差
	Selection    Selection // 座標の更新順
	RandomState  int64     // SelectionRandom の乱数シード

	NIter int // 実際の反復回数
}

// NewLasso は新しい Lasso モデルを作成する
func NewLasso(opts ...Option) *Lasso {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Lasso{
		Alpha:        o.alpha,
		FitIntercept: o.fitIntercept,
		MaxIter:      o.maxIter,
		Tol:          o.tol,
		Selection:    o.selection,
		RandomState:  o.randomState,
	}
}

// Name はモデル名を返す
func (l *Lasso) Name() string { return "Lasso" }

// GetParams はハイパーパラメータを返す
func (l *Lasso) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         l.Alpha,
		"fit_intercept": l.FitIntercept,
		"max_iter":      l.MaxIter,
		"tol":           l.Tol,
		"selection":     string(l.Selection),
		"random_state":  l.RandomState,
	}
}

// SoftThreshold は軟閾値関数 sign(x) * max(|x| - lambda, 0)
func SoftThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// Fit は座標降下法で係数を推定する
//
// 1 反復内の係数の最大変化量が最大係数の Tol 倍以下になった時点で収束とする。
// MaxIter 回で収束しない場合は ConvergenceWarning を出して最後の係数を採用する。
func (l *Lasso) Fit(X, y mat.Matrix) error {
	n, c, err := model.CheckXY("Lasso.Fit", X, y)
	if err != nil {
		return err
	}
	if l.Alpha < 0 {
		return errors.NewValueError("Lasso.Fit", "alpha must be non-negative")
	}
	if l.MaxIter <= 0 {
		return errors.NewValueError("Lasso.Fit", "max_iter must be positive")
	}
	if l.Selection != SelectionCyclic && l.Selection != SelectionRandom {
		return errors.NewValueError("Lasso.Fit", fmt.Sprintf("unknown selection %q", l.Selection))
	}

	l.Reset()
	data := center(X, y, l.FitIntercept)

	// 列ごとのデータと二乗ノルム
	columns := make([][]float64, c)
	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		columns[j] = mat.Col(nil, j, data.X)
		norms[j] = floats.Dot(columns[j], columns[j])
	}

	// 残差 r = y - Xw （w = 0 から開始）
	residual := mat.Col(nil, 0, data.y)
	coef := make([]float64, c)
	penalty := l.Alpha * float64(n)

	var rng *rand.Rand
	if l.Selection == SelectionRandom {
		rng = rand.New(rand.NewSource(l.RandomState))
	}

	converged := false
	for iter := 0; iter < l.MaxIter; iter++ {
		l.NIter = iter + 1
		maxDelta := 0.0

		for k := 0; k < c; k++ {
			j := k
			if rng != nil {
				j = rng.Intn(c)
			}
			if norms[j] == 0 {
				continue
			}

			old := coef[j]
			// rho = x_jᵀ (r + x_j w_j)
			rho := floats.Dot(columns[j], residual) + norms[j]*old
			coef[j] = SoftThreshold(rho, penalty) / norms[j]

			if delta := coef[j] - old; delta != 0 {
				floats.AddScaled(residual, -delta, columns[j])
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
		}

		if err := errors.CheckNumericalStability("Lasso.Fit", coef, iter); err != nil {
			return err
		}
		maxCoef := 0.0
		for _, w := range coef {
			maxCoef = math.Max(maxCoef, math.Abs(w))
		}
		if maxCoef == 0 || maxDelta/maxCoef < l.Tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.NIter,
			"coordinate descent did not converge, consider increasing max_iter or alpha"))
	}

	l.Coef = coef
	l.Intercept = data.intercept(coef)
	l.NFeatures = c
	l.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Lasso", "Predict")
	}
	return l.predict("Lasso.Predict", X)
}

// Score はモデルの決定係数（R²）を計算する
func (l *Lasso) Score(X, y mat.Matrix) (float64, error) {
	if !l.IsFitted() {
		return 0, errors.NewNotFittedError("Lasso", "Score")
	}
	return score(l, X, y)
}
