package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pipeline"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func TestRunUsageErrors(t *testing.T) {
	t.Setenv("HOUSING_MODELS_PATH", t.TempDir())

	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"fly"}, &out))
	assert.Error(t, run([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "prepare"}, &out))
}

func TestRunScoreWithoutArtifacts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOUSING_MODELS_PATH", filepath.Join(dir, "models"))
	t.Setenv("HOUSING_VERSION", "v7")

	input := filepath.Join(dir, "obs.csv")
	fh, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, housing.ObservationsFrame(housing.Observation{
		TotalRooms: 880, TotalBedrooms: 129, Population: 322, Households: 126,
		MedianIncome: 8.3252, OceanProximity: housing.NearBay,
	}).WriteCSV(fh))
	require.NoError(t, fh.Close())

	var out bytes.Buffer
	err = run([]string{"score", "-input", input}, &out)
	var nf *errors.ArtifactNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "imputer_v7", nf.Name)

	err = run([]string{"score"}, &out)
	var ce *errors.ConfigError
	assert.True(t, errors.As(err, &ce))
}

// writeHousing writes n synthetic blocks whose value grows with income.
func writeHousing(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	obs := make([]housing.Observation, n)
	value := make([]float64, n)
	for i := range obs {
		households := float64(100 + rng.Intn(500))
		obs[i] = housing.Observation{
			Longitude:        -124 + 10*rng.Float64(),
			Latitude:         32 + 10*rng.Float64(),
			HousingMedianAge: float64(1 + rng.Intn(52)),
			TotalRooms:       households * 5,
			TotalBedrooms:    households,
			Population:       households * 3,
			Households:       households,
			MedianIncome:     0.5 + 9*rng.Float64(),
			OceanProximity:   housing.OceanProximityLevels[i%4],
		}
		value[i] = 60000 + 35000*obs[i].MedianIncome + 3000*rng.NormFloat64()
	}
	f, err := housing.ObservationsFrame(obs...).With(dataset.NewNumeric(housing.Target, value))
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, pipeline.RawCSVName)
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	require.NoError(t, f.WriteCSV(fh))
	return path
}

func TestRunEvaluateScoreEDA(t *testing.T) {
	dir := t.TempDir()
	rawCSV := writeHousing(t, filepath.Join(dir, "raw"), 300)

	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("housing_path: %s\nmodel_data_path: %s\nmodels_path: %s\nreport_path: %s\nlog_level: error\n",
		filepath.Join(dir, "raw"), filepath.Join(dir, "processed"), filepath.Join(dir, "models"), filepath.Join(dir, "reports"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	t.Run("evaluate", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-config", cfgPath, "evaluate"}, &out))

		var rep pipeline.Report
		require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
		assert.Equal(t, "v1", rep.Version)
		assert.Equal(t, "linear-ridge", rep.Algorithm)
		assert.Greater(t, rep.Test.R2, 0.8)
	})

	t.Run("score raw rows", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-config", cfgPath, "score", "-input", rawCSV}, &out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		assert.Equal(t, "prediction", lines[0])
		assert.Len(t, lines, 301)
	})

	t.Run("eda", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-config", cfgPath, "eda"}, &out))
		assert.Contains(t, out.String(), housing.ColMedianIncome)
		assert.FileExists(t, filepath.Join(dir, "reports", "target_hist.png"))
		assert.FileExists(t, filepath.Join(dir, "reports", "geo_scatter.png"))
	})
}
