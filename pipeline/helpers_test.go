package pipeline

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/artifact"
	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/dataset"
)

// syntheticHousing generates n rows with the raw housing schema. The target
// is linear in median_income with an inland discount, and every 17th
// total_bedrooms value is missing.
func syntheticHousing(n int, seed int64) *dataset.Frame {
	rng := rand.New(rand.NewSource(seed))
	levels := []string{housing.NearBay, housing.OneHOcean, housing.Inland, housing.NearOcean}

	lon := make([]float64, n)
	lat := make([]float64, n)
	age := make([]float64, n)
	rooms := make([]float64, n)
	bedrooms := make([]float64, n)
	pop := make([]float64, n)
	households := make([]float64, n)
	income := make([]float64, n)
	value := make([]float64, n)
	prox := make([]string, n)

	for i := 0; i < n; i++ {
		lon[i] = -124 + 10*rng.Float64()
		lat[i] = 32 + 10*rng.Float64()
		age[i] = float64(1 + rng.Intn(52))
		households[i] = float64(100 + rng.Intn(900))
		rooms[i] = math.Round(households[i] * (3 + 4*rng.Float64()))
		bedrooms[i] = math.Round(rooms[i] * (0.15 + 0.1*rng.Float64()))
		if i%17 == 0 {
			bedrooms[i] = math.NaN()
		}
		pop[i] = math.Round(households[i] * (2 + 2*rng.Float64()))
		income[i] = 0.5 + 9*rng.Float64()
		prox[i] = levels[rng.Intn(len(levels))]

		value[i] = 50000 + 40000*income[i] + 5000*rng.NormFloat64()
		if prox[i] == housing.Inland {
			value[i] -= 30000
		}
	}

	return dataset.MustNew(
		dataset.NewNumeric(housing.ColLongitude, lon),
		dataset.NewNumeric(housing.ColLatitude, lat),
		dataset.NewNumeric(housing.ColHousingMedianAge, age),
		dataset.NewNumeric(housing.ColTotalRooms, rooms),
		dataset.NewNumeric(housing.ColTotalBedrooms, bedrooms),
		dataset.NewNumeric(housing.ColPopulation, pop),
		dataset.NewNumeric(housing.ColHouseholds, households),
		dataset.NewNumeric(housing.ColMedianIncome, income),
		dataset.NewNumeric(housing.ColMedianHouseValue, value),
		dataset.NewCategorical(housing.ColOceanProximity, prox),
	)
}

// stubFetcher writes a synthetic housing.csv instead of downloading.
type stubFetcher struct {
	rows  int
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, _ string, dir string) error {
	s.calls++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fh, err := os.Create(filepath.Join(dir, RawCSVName))
	if err != nil {
		return err
	}
	defer fh.Close()
	return syntheticHousing(s.rows, 7).WriteCSV(fh)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Paths = config.Paths{
		HousingPath:   filepath.Join(dir, "raw"),
		HousingURL:    "http://example.invalid/housing.tgz",
		ModelDataPath: filepath.Join(dir, "processed"),
		ModelsPath:    filepath.Join(dir, "models"),
		ReportPath:    filepath.Join(dir, "reports"),
	}
	return cfg
}

func fileStores(cfg config.Config) *artifact.Stores {
	return &artifact.Stores{
		Models: artifact.NewFileStore(cfg.Paths.ModelsPath),
		Data:   artifact.NewFileStore(cfg.Paths.ModelDataPath),
	}
}
