package pipeline

import (
	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/ensemble"
	"github.com/YuminosukeSato/housing/linear"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/tree"
)

// ModelBundle is the model artifact.
type ModelBundle struct {
	Algorithm string
	Features  []string // input columns in training order
	Model     model.Regressor
}

// NewRegressor builds the unfitted model selected by cfg.Algorithm from its
// hyperparameter group, seeded with cfg.Seed.
func NewRegressor(cfg config.Config) (model.Regressor, error) {
	switch cfg.Algorithm {
	case config.LinearRidge:
		p := cfg.Ridge
		return linear.NewRidge(
			linear.WithAlpha(p.Alpha),
			linear.WithFitIntercept(p.FitIntercept),
			linear.WithRandomState(cfg.Seed),
		), nil
	case config.LinearLasso:
		p := cfg.Lasso
		return linear.NewLasso(
			linear.WithAlpha(p.Alpha),
			linear.WithFitIntercept(p.FitIntercept),
			linear.WithMaxIter(p.MaxIter),
			linear.WithTol(p.Tol),
			linear.WithSelection(linear.Selection(p.Selection)),
			linear.WithRandomState(cfg.Seed),
		), nil
	case config.DecisionTree:
		p := cfg.DecisionTree
		return tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(p.MaxDepth),
			tree.WithMinSamplesSplit(p.MinSamplesSplit),
			tree.WithMinSamplesLeaf(p.MinSamplesLeaf),
			tree.WithMaxFeatures(p.MaxFeatures),
			tree.WithMinImpurityDecrease(p.MinImpurityDecrease),
			tree.WithRandomState(cfg.Seed),
		), nil
	case config.RandomForest:
		p := cfg.RandomForest
		f := ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(p.NEstimators),
			ensemble.WithMaxDepth(p.MaxDepth),
			ensemble.WithMinSamplesSplit(p.MinSamplesSplit),
			ensemble.WithMinSamplesLeaf(p.MinSamplesLeaf),
			ensemble.WithMaxFeatures(p.MaxFeatures),
			ensemble.WithBootstrap(p.Bootstrap),
			ensemble.WithNJobs(p.NJobs),
			ensemble.WithRandomState(cfg.Seed),
		)
		f.MinImpurityDecrease = p.MinImpurityDecrease
		return f, nil
	default:
		return nil, errors.NewConfigError("algo", cfg.Algorithm.String(), "unknown algorithm")
	}
}

// Train fits the configured model on prepared features X and target y.
func Train(cfg config.Config, X *dataset.Frame, y []float64) (*ModelBundle, error) {
	m, err := NewRegressor(cfg)
	if err != nil {
		return nil, err
	}
	Xm, err := X.Matrix()
	if err != nil {
		return nil, errors.Wrap(err, "build training matrix")
	}
	if err := m.Fit(Xm, model.ColumnVector(y)); err != nil {
		return nil, errors.Wrapf(err, "fit %s", m.Name())
	}
	return &ModelBundle{
		Algorithm: cfg.Algorithm.String(),
		Features:  X.Columns(),
		Model:     m,
	}, nil
}
