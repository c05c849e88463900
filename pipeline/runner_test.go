package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/artifact"
	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/linear"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
	"github.com/YuminosukeSato/housing/preprocessing"
)

func TestRunnerPrepare(t *testing.T) {
	cfg := testConfig(t)
	stores := fileStores(cfg)
	fetcher := &stubFetcher{rows: 300}
	r := NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(fetcher))

	train, test, err := r.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 300, train.Len()+test.Len())
	assert.Equal(t, 60, test.Len())
	assert.Zero(t, train.MissingCount())
	assert.Zero(t, test.MissingCount())
	assert.Equal(t, train.Columns(), test.Columns())
	assert.Equal(t, housing.Target, train.Columns()[train.Width()-1])
	assert.Contains(t, train.Columns(), preprocessing.ColBedroomsPerRoom)
	assert.Contains(t, train.Columns(), housing.ColOceanProximity+"_"+housing.Inland)

	for _, name := range []string{artifact.TrainName("v1"), artifact.TestName("v1")} {
		ok, err := stores.Data.Exists(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	ok, err := stores.Models.Exists(artifact.ImputerName("v1"))
	require.NoError(t, err)
	assert.True(t, ok)

	// second run reuses the persisted partitions
	train2, test2, err := r.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.True(t, train.Equal(train2))
	assert.True(t, test.Equal(test2))
}

func TestRunnerPrepareOverwrite(t *testing.T) {
	cfg := testConfig(t)
	stores := fileStores(cfg)
	fetcher := &stubFetcher{rows: 200}

	_, _, err := NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(fetcher)).Prepare(context.Background())
	require.NoError(t, err)

	cfg.OverwriteModelData = true
	_, _, err = NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(fetcher)).Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "raw data present, only model data rebuilt")

	cfg.OverwriteRawData = true
	_, _, err = NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(fetcher)).Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRunnerEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		algo  config.Algorithm
		minR2 float64
	}{
		{"ridge", config.LinearRidge, 0.8},
		{"lasso", config.LinearLasso, 0.8},
		{"tree", config.DecisionTree, 0.5},
		{"forest", config.RandomForest, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Algorithm = tt.algo
			cfg.Lasso.MaxIter = 5000
			cfg.DecisionTree.MaxDepth = 6
			cfg.RandomForest.NEstimators = 10
			cfg.RandomForest.MaxDepth = 8

			tl, _ := log.NewTestLogger(log.LevelInfo)
			r := NewRunner(cfg, fileStores(cfg), tl, WithFetcher(&stubFetcher{rows: 400}))

			report, err := r.Evaluate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.algo.String(), report.Algorithm)
			assert.Greater(t, report.Test.R2, tt.minR2)
			for _, v := range []float64{report.Train.RMSE, report.Test.RMSE, report.Test.MAPE, report.Test.WMAPE, report.Test.MAD} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
			assert.True(t, tl.ContainsMessage("model trained"))
			assert.True(t, tl.ContainsField(log.PhaseKey, log.PhaseTesting))
		})
	}
}

func TestRidgeSeedReproducible(t *testing.T) {
	coef := func() ([]float64, float64) {
		cfg := testConfig(t)
		cfg.Seed = 42
		cfg.Split.Seed = 42
		stores := fileStores(cfg)
		r := NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(&stubFetcher{rows: 250}))
		train, _, err := r.Prepare(context.Background())
		require.NoError(t, err)
		_, err = r.Train(train)
		require.NoError(t, err)

		var bundle ModelBundle
		require.NoError(t, artifact.LoadGob(stores.Models, artifact.ModelName(cfg.Version), &bundle))
		ridge, ok := bundle.Model.(*linear.Ridge)
		require.True(t, ok)
		return ridge.GetWeights(), ridge.GetIntercept()
	}

	w1, b1 := coef()
	w2, b2 := coef()
	assert.Equal(t, w1, w2)
	assert.Equal(t, b1, b2)
}

func TestScoreMissingVersion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Version = "v404"
	r := NewRunner(cfg, fileStores(cfg), log.NewNopLogger(), WithFetcher(&stubFetcher{rows: 10}))

	_, err := r.Score(housing.ObservationsFrame(sampleObservation()), false)
	require.Error(t, err)
	var nf *errors.ArtifactNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, artifact.ImputerName("v404"), nf.Name)
}

func sampleObservation() housing.Observation {
	return housing.Observation{
		Longitude:        -122.23,
		Latitude:         37.88,
		HousingMedianAge: 41,
		TotalRooms:       880,
		TotalBedrooms:    129,
		Population:       322,
		Households:       126,
		MedianIncome:     8.3252,
		OceanProximity:   housing.NearBay,
	}
}

func TestScorer(t *testing.T) {
	cfg := testConfig(t)
	stores := fileStores(cfg)
	fetcher := &stubFetcher{rows: 300}
	r := NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(fetcher))
	train, test, err := r.Prepare(context.Background())
	require.NoError(t, err)
	_, err = r.Train(train)
	require.NoError(t, err)

	scorer, err := LoadScorer(stores.Models, cfg.Version)
	require.NoError(t, err)

	t.Run("raw rows", func(t *testing.T) {
		raw, err := LoadHousing(cfg.Paths.HousingPath)
		require.NoError(t, err)
		X, _, err := SplitTarget(raw)
		require.NoError(t, err)
		yHat, err := scorer.Predict(X, false)
		require.NoError(t, err)
		assert.Len(t, yHat, raw.Len())
	})

	t.Run("prepared rows in any column order", func(t *testing.T) {
		X, _, err := SplitTarget(test)
		require.NoError(t, err)
		want, err := scorer.Predict(X, true)
		require.NoError(t, err)

		cols := X.Columns()
		for i, j := 0, len(cols)-1; i < j; i, j = i+1, j-1 {
			cols[i], cols[j] = cols[j], cols[i]
		}
		reversed, err := X.Select(cols...)
		require.NoError(t, err)
		got, err := scorer.Predict(reversed, true)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("prepared rows with wrong schema", func(t *testing.T) {
		X, _, err := SplitTarget(test)
		require.NoError(t, err)
		_, err = scorer.Predict(X.Drop(preprocessing.ColBedroomsPerRoom), true)
		var se *errors.SchemaError
		assert.True(t, errors.As(err, &se))
	})

	t.Run("raw rows missing a column", func(t *testing.T) {
		X := housing.ObservationsFrame(sampleObservation()).Drop(housing.ColPopulation)
		_, err := scorer.Predict(X, false)
		var se *errors.SchemaError
		assert.True(t, errors.As(err, &se))
	})

	t.Run("single observation", func(t *testing.T) {
		v, err := scorer.PredictObservation(sampleObservation())
		require.NoError(t, err)
		assert.False(t, math.IsNaN(v))

		bad := sampleObservation()
		bad.OceanProximity = "MOON"
		_, err = scorer.PredictObservation(bad)
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestRunnerStandardize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Standardize = true
	cfg.Algorithm = config.LinearLasso
	cfg.Lasso.MaxIter = 5000
	stores := fileStores(cfg)

	r := NewRunner(cfg, stores, log.NewNopLogger(), WithFetcher(&stubFetcher{rows: 300}))
	report, err := r.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.Test.R2, 0.8)

	scorer, err := LoadScorer(stores.Models, cfg.Version)
	require.NoError(t, err)
	require.NotNil(t, scorer.Preprocessor.Scaler)
	assert.Equal(t, scorer.Preprocessor.Encoder.Passthrough, scorer.Preprocessor.Scaler.Columns)

	train, err := artifact.LoadFrame(stores.Data, artifact.TrainName(cfg.Version))
	require.NoError(t, err)
	income, err := train.Numeric(housing.ColMedianIncome)
	require.NoError(t, err)
	mean, std := stat.PopMeanStdDev(income, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)

	dummy, err := train.Numeric(housing.ColOceanProximity + preprocessing.DefaultSeparator + housing.Inland)
	require.NoError(t, err)
	for _, v := range dummy {
		assert.True(t, v == 0 || v == 1)
	}
}
