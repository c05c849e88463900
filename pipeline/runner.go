// Package pipeline assembles the housing workflow: fetch the raw archive,
// split, fit the preprocessor, train, persist versioned artifacts and
// score.
//
// A Runner is built once per process from an immutable config.Config, the
// artifact stores and a logger:
//
//	runner := pipeline.NewRunner(cfg, stores, provider.GetLoggerWithName("pipeline"))
//	train, test, err := runner.Prepare(ctx)
//
// Runs are sequential. Scorers loaded from the stores are read-only and may
// be shared between goroutines.
package pipeline

import (
	"context"
	"time"

	"github.com/YuminosukeSato/housing/artifact"
	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/metrics"
	"github.com/YuminosukeSato/housing/pkg/log"
	"github.com/YuminosukeSato/housing/selection"
)

// Runner executes pipeline stages for one configured version.
type Runner struct {
	cfg     config.Config
	stores  *artifact.Stores
	fetcher Fetcher
	logger  log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// NewRunner returns a runner bound to cfg and stores.
func NewRunner(cfg config.Config, stores *artifact.Stores, logger log.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		stores: stores,
		logger: logger.With(cfg.LogFields()...),
	}
	r.fetcher = NewHTTPFetcher(r.logger)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare returns the encoded train and test partitions, target included.
//
// Existing partitions for the version are reused unless
// over_write_model_data is set. Otherwise the raw data is fetched when
// absent (or when over_write_raw_data is set), split, and the preprocessor
// is fitted on the training partition only and persisted as
// imputer_<version> before both partitions are written.
func (r *Runner) Prepare(ctx context.Context) (train, test *dataset.Frame, err error) {
	start := time.Now()
	v := r.cfg.Version

	if !r.cfg.OverwriteModelData {
		train, test, ok, err := r.loadPartitions()
		if err != nil {
			return nil, nil, err
		}
		if ok {
			r.logger.Info("model data reused",
				log.OperationKey, log.OperationPrepare,
				log.TrainSizeKey, train.Len(),
				log.TestSizeKey, test.Len(),
			)
			return train, test, nil
		}
	}

	if err := r.fetchRaw(ctx); err != nil {
		return nil, nil, err
	}
	raw, err := LoadHousing(r.cfg.Paths.HousingPath)
	if err != nil {
		return nil, nil, err
	}

	trainRaw, testRaw, err := selection.Split(raw, r.cfg.Split.Method, r.cfg.Split.Seed, r.cfg.Split.TestSize)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Info("data split",
		log.SamplingKey, r.cfg.Split.Method.String(),
		log.SamplesKey, raw.Len(),
		log.TrainSizeKey, trainRaw.Len(),
		log.TestSizeKey, testRaw.Len(),
	)

	Xtr, ytr, err := SplitTarget(trainRaw)
	if err != nil {
		return nil, nil, err
	}
	Xte, yte, err := SplitTarget(testRaw)
	if err != nil {
		return nil, nil, err
	}

	pre, XtrEnc, err := FitPreprocessor(Xtr, PreprocessOptions{
		Impute:      r.cfg.Impute,
		Features:    r.cfg.Features,
		Standardize: r.cfg.Standardize,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := artifact.SaveGob(r.stores.Models, artifact.ImputerName(v), pre); err != nil {
		return nil, nil, err
	}
	r.logger.Info("imputer fitted",
		log.PhaseKey, log.PhasePreprocessing,
		log.ArtifactKey, artifact.ImputerName(v),
		log.StrategyKey, []string{r.cfg.Impute.NumStrategy.String(), r.cfg.Impute.CatStrategy.String()},
		log.NumColumnsKey, pre.Imputer.NumColumns(),
		log.CatColumnsKey, pre.Imputer.CatColumns(),
		log.FeaturesKey, len(pre.Encoder.FeatureNames),
		"standardized", pre.Scaler != nil,
	)

	XteEnc, err := pre.Transform(Xte)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("test partition transformed",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, XteEnc.Len(),
	)

	if train, err = JoinTarget(XtrEnc, ytr); err != nil {
		return nil, nil, err
	}
	if test, err = JoinTarget(XteEnc, yte); err != nil {
		return nil, nil, err
	}
	if err := artifact.SaveFrame(r.stores.Data, artifact.TrainName(v), train); err != nil {
		return nil, nil, err
	}
	if err := artifact.SaveFrame(r.stores.Data, artifact.TestName(v), test); err != nil {
		return nil, nil, err
	}

	r.logger.Info("model data prepared",
		log.OperationKey, log.OperationPrepare,
		log.PathKey, r.stores.Data.Location(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return train, test, nil
}

func (r *Runner) loadPartitions() (train, test *dataset.Frame, ok bool, err error) {
	v := r.cfg.Version
	for _, name := range []string{artifact.TrainName(v), artifact.TestName(v)} {
		exists, err := r.stores.Data.Exists(name)
		if err != nil || !exists {
			return nil, nil, false, err
		}
	}
	if train, err = artifact.LoadFrame(r.stores.Data, artifact.TrainName(v)); err != nil {
		return nil, nil, false, err
	}
	if test, err = artifact.LoadFrame(r.stores.Data, artifact.TestName(v)); err != nil {
		return nil, nil, false, err
	}
	return train, test, true, nil
}

func (r *Runner) fetchRaw(ctx context.Context) error {
	dir := r.cfg.Paths.HousingPath
	if dirExists(dir) && !r.cfg.OverwriteRawData {
		r.logger.Debug("raw data present", log.PathKey, dir)
		return nil
	}
	return r.fetcher.Fetch(ctx, r.cfg.Paths.HousingURL, dir)
}

// Train fits the configured model on a prepared training partition and
// persists it as model_<version>.
func (r *Runner) Train(train *dataset.Frame) (*ModelBundle, error) {
	start := time.Now()
	X, y, err := SplitTarget(train)
	if err != nil {
		return nil, err
	}
	bundle, err := Train(r.cfg, X, y)
	if err != nil {
		return nil, err
	}
	name := artifact.ModelName(r.cfg.Version)
	if err := artifact.SaveGob(r.stores.Models, name, bundle); err != nil {
		return nil, err
	}

	fields := []any{
		log.OperationKey, log.OperationFit,
		log.ModelNameKey, bundle.Model.Name(),
		log.ArtifactKey, name,
		log.SamplesKey, X.Len(),
		log.FeaturesKey, X.Width(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if pg, ok := bundle.Model.(model.ParameterGetter); ok {
		fields = append(fields, log.HyperParamsKey, pg.GetParams())
	}
	r.logger.Info("model trained", fields...)
	return bundle, nil
}

// Score loads the version's artifacts and predicts X. See Scorer.Predict
// for the meaning of preproc.
func (r *Runner) Score(X *dataset.Frame, preproc bool) ([]float64, error) {
	r.logger.Info("scoring",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, X.Len(),
	)
	return r.predict(X, preproc)
}

func (r *Runner) predict(X *dataset.Frame, preproc bool) ([]float64, error) {
	scorer, err := LoadScorer(r.stores.Models, r.cfg.Version)
	if err != nil {
		return nil, err
	}
	return scorer.Predict(X, preproc)
}

// Report holds train and test performance for one version.
type Report struct {
	Version   string              `json:"version"`
	Algorithm string              `json:"algo"`
	Train     metrics.Performance `json:"train"`
	Test      metrics.Performance `json:"test"`
}

// Evaluate prepares data, trains, scores both partitions with their
// prepared features and returns the performance report.
func (r *Runner) Evaluate(ctx context.Context) (*Report, error) {
	train, test, err := r.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.Train(train); err != nil {
		return nil, err
	}

	report := &Report{Version: r.cfg.Version, Algorithm: r.cfg.Algorithm.String()}
	if report.Train, err = r.evaluatePartition(train, log.PhaseTraining); err != nil {
		return nil, err
	}
	if report.Test, err = r.evaluatePartition(test, log.PhaseTesting); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) evaluatePartition(f *dataset.Frame, phase string) (metrics.Performance, error) {
	X, y, err := SplitTarget(f)
	if err != nil {
		return metrics.Performance{}, err
	}
	yHat, err := r.predict(X, true)
	if err != nil {
		return metrics.Performance{}, err
	}
	perf, err := metrics.Evaluate(y, yHat)
	if err != nil {
		return metrics.Performance{}, err
	}
	fields := append([]any{log.OperationKey, log.OperationEvaluate, log.PhaseKey, phase}, perf.LogFields()...)
	r.logger.Info("performance", fields...)
	return perf, nil
}
