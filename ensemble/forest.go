// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/core/parallel"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/tree"
)

func init() {
	model.Register(&RandomForestRegressor{})
}

var _ model.Regressor = (*RandomForestRegressor)(nil)

// RandomForestRegressor averages regression trees fitted on bootstrap samples.
//
// Tree i draws its bootstrap sample from a source seeded RandomState+i and
// then takes its feature-sampling seed from the same source, so the two
// streams differ and a forest is reproducible for a given RandomState
// regardless of NJobs.
type RandomForestRegressor struct {
	model.BaseEstimator

	NEstimators         int
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MaxFeatures         int // 0 => all features
	MinImpurityDecrease float64
	Bootstrap           bool
	RandomState         int64
	NJobs               int // <= 0 => one worker per CPU

	Trees              []*tree.DecisionTreeRegressor
	NFeatures          int
	FeatureImportances []float64
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option { return func(f *RandomForestRegressor) { f.NEstimators = n } }

// WithMaxDepth limits the depth of every tree. 0 means unlimited.
func WithMaxDepth(d int) Option { return func(f *RandomForestRegressor) { f.MaxDepth = d } }

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(f *RandomForestRegressor) { f.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(f *RandomForestRegressor) { f.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many features each split considers.
func WithMaxFeatures(k int) Option { return func(f *RandomForestRegressor) { f.MaxFeatures = k } }

// WithBootstrap toggles bootstrap sampling. Without it every tree sees all rows.
func WithBootstrap(b bool) Option { return func(f *RandomForestRegressor) { f.Bootstrap = b } }

// WithRandomState seeds the forest.
func WithRandomState(seed int64) Option {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

// WithNJobs bounds the number of trees fitted concurrently.
func WithNJobs(n int) Option { return func(f *RandomForestRegressor) { f.NJobs = n } }

// NewRandomForestRegressor returns a forest with sklearn-like defaults.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Name returns the model family.
func (f *RandomForestRegressor) Name() string { return "RandomForestRegressor" }

// GetParams returns the hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":          f.NEstimators,
		"max_depth":             f.MaxDepth,
		"min_samples_split":     f.MinSamplesSplit,
		"min_samples_leaf":      f.MinSamplesLeaf,
		"max_features":          f.MaxFeatures,
		"min_impurity_decrease": f.MinImpurityDecrease,
		"bootstrap":             f.Bootstrap,
		"random_state":          f.RandomState,
		"n_jobs":                f.NJobs,
	}
}

// Fit grows NEstimators trees in parallel.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	n, p, err := model.CheckXY("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if f.NEstimators < 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "n_estimators must be >= 1")
	}

	f.Reset()
	columns := tree.Columns(X)
	target := mat.Col(nil, 0, y)
	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)

	err = parallel.ForEach(f.NEstimators, f.NJobs, func(i int) error {
		rng := rand.New(rand.NewSource(f.RandomState + int64(i)))
		sample := make([]int, n)
		if f.Bootstrap {
			for k := range sample {
				sample[k] = rng.Intn(n)
			}
		} else {
			for k := range sample {
				sample[k] = k
			}
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(f.MaxDepth),
			tree.WithMinSamplesSplit(f.MinSamplesSplit),
			tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
			tree.WithMaxFeatures(f.MaxFeatures),
			tree.WithMinImpurityDecrease(f.MinImpurityDecrease),
			tree.WithRandomState(treeSeed(rng)),
		)
		if err := t.FitColumns(columns, target, sample); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
		trees[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	f.Trees = trees
	f.NFeatures = p
	f.FeatureImportances = make([]float64, p)
	for _, t := range trees {
		floats.Add(f.FeatureImportances, t.FeatureImportances)
	}
	floats.Scale(1/float64(len(trees)), f.FeatureImportances)

	f.SetFitted()
	return nil
}

// treeSeed draws the feature-sampling seed of a tree after its bootstrap.
func treeSeed(rng *rand.Rand) int64 { return rng.Int63() }

// Predict averages the predictions of all trees.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", f.NFeatures, c, 1)
	}

	sum := make([]float64, r)
	for _, t := range f.Trees {
		pred, err := model.PredictSlice(t, X)
		if err != nil {
			return nil, err
		}
		floats.Add(sum, pred)
	}
	floats.Scale(1/float64(len(f.Trees)), sum)
	return mat.NewDense(r, 1, sum), nil
}
