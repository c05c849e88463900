package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func init() {
	model.Register(&Ridge{})
}

var (
	_ model.Regressor   = (*Ridge)(nil)
	_ model.LinearModel = (*Ridge)(nil)
)

// Ridge は L2 正則化付きの線形回帰モデル
//
// 目的関数 ||y - Xw||² + alpha * ||w||² を最小化する。
// 切片は正則化しない。
type Ridge struct {
	model.BaseEstimator
	Coefficients

	Alpha        float64 // 正則化の強さ (>= 0)
	FitIntercept bool    // 切片を学習するかどうか
	RandomState  int64   // 記録のみ。閉形式解は乱数を使わない
}

// NewRidge は新しい Ridge モデルを作成する
//
// 使用例:
//
//	ridge := linear.NewRidge(linear.WithAlpha(0.5), linear.WithRandomState(42))
//	err := ridge.Fit(X, y)
func NewRidge(opts ...Option) *Ridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ridge{
		Alpha:        o.alpha,
		FitIntercept: o.fitIntercept,
		RandomState:  o.randomState,
	}
}

// Name はモデル名を返す
func (r *Ridge) Name() string { return "Ridge" }

// GetParams はハイパーパラメータを返す
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.Alpha,
		"fit_intercept": r.FitIntercept,
		"random_state":  r.RandomState,
	}
}

// Fit は正規方程式 (XᵀX + αI) w = Xᵀy を Cholesky 分解で解く
//
// XᵀX + αI が特異または特異に近い場合（主に alpha が 0 のとき）は
// SVD による最小ノルム最小二乗解にフォールバックする。
func (r *Ridge) Fit(X, y mat.Matrix) error {
	_, c, err := model.CheckXY("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	if r.Alpha < 0 {
		return errors.NewValueError("Ridge.Fit", "alpha must be non-negative")
	}

	r.Reset()
	data := center(X, y, r.FitIntercept)

	// XᵀX + αI
	gram := mat.NewSymDense(c, nil)
	gram.SymOuterK(1, data.X.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Alpha)
	}

	var xty mat.VecDense
	xty.MulVec(data.X.T(), data.y)

	coef := mat.NewVecDense(c, nil)
	var chol mat.Cholesky
	if !chol.Factorize(gram) || chol.SolveVecTo(coef, &xty) != nil {
		// 正定値でない、または条件数が大きすぎて解が信頼できない
		if err := leastSquares(coef, data.X, data.y); err != nil {
			return err
		}
	}

	r.Coef = make([]float64, c)
	for j := range r.Coef {
		r.Coef[j] = coef.AtVec(j)
	}
	if err := errors.CheckNumericalStability("Ridge.Fit", r.Coef, 0); err != nil {
		return err
	}
	r.Intercept = data.intercept(r.Coef)
	r.NFeatures = c

	r.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}
	return r.predict("Ridge.Predict", X)
}

// Score はモデルの決定係数（R²）を計算する
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	if !r.IsFitted() {
		return 0, errors.NewNotFittedError("Ridge", "Score")
	}
	return score(r, X, y)
}

// leastSquares は X w = y の最小ノルム最小二乗解を SVD で求めて dst に書き込む
func leastSquares(dst *mat.VecDense, X *mat.Dense, y *mat.VecDense) error {
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	svd.SolveVecTo(dst, y, rank)
	return nil
}
