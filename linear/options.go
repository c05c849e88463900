package linear

// Selection はLassoの座標降下法で更新する座標の選び方
type Selection string

const (
	// SelectionCyclic は特徴量を順番に更新する
	SelectionCyclic Selection = "cyclic"
	// SelectionRandom は毎回ランダムな特徴量を更新する
	SelectionRandom Selection = "random"
)

// options holds hyperparameters shared by Ridge and Lasso.
type options struct {
	alpha        float64
	fitIntercept bool
	maxIter      int
	tol          float64
	selection    Selection
	randomState  int64
}

func defaultOptions() options {
	return options{
		alpha:        1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		selection:    SelectionCyclic,
	}
}

// Option is a function that configures a linear model
type Option func(*options)

// WithAlpha sets the regularisation strength
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(o *options) {
		o.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of coordinate descent passes (Lasso only)
func WithMaxIter(n int) Option {
	return func(o *options) {
		o.maxIter = n
	}
}

// WithTol sets the tolerance for the optimization (Lasso only)
func WithTol(tol float64) Option {
	return func(o *options) {
		o.tol = tol
	}
}

// WithSelection sets the coordinate update order (Lasso only)
func WithSelection(s Selection) Option {
	return func(o *options) {
		o.selection = s
	}
}

// WithRandomState sets the seed used by random coordinate selection
func WithRandomState(seed int64) Option {
	return func(o *options) {
		o.randomState = seed
	}
}
