package selection

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// incomeFrame builds n rows whose income cycles through all five buckets
// with uneven frequencies, plus a row id column.
func incomeFrame(n int) *dataset.Frame {
	incomes := []float64{1.0, 2.0, 2.5, 3.5, 3.8, 4.0, 5.0, 7.5}
	income := make([]float64, n)
	id := make([]float64, n)
	for i := range income {
		income[i] = incomes[i%len(incomes)]
		id[i] = float64(i)
	}
	return dataset.MustNew(
		dataset.NewNumeric("id", id),
		dataset.NewNumeric(housing.ColMedianIncome, income),
	)
}

func TestIncomeBucket(t *testing.T) {
	tests := []struct {
		income float64
		want   int
	}{
		{0, 0},
		{-1, 0},
		{math.NaN(), 0},
		{0.5, 1},
		{1.5, 1},
		{1.51, 2},
		{3.0, 2},
		{4.5, 3},
		{6.0, 4},
		{6.01, 5},
		{15.0001, 5},
	}

	for _, tt := range tests {
		if got := IncomeBucket(tt.income); got != tt.want {
			t.Errorf("IncomeBucket(%v) = %d, want %d", tt.income, got, tt.want)
		}
	}
}

func TestSplit_PartitionsRows(t *testing.T) {
	for _, method := range []Method{Stratified, Random} {
		t.Run(method.String(), func(t *testing.T) {
			f := incomeFrame(1000)
			train, test, err := Split(f, method, 42, 0.2)
			require.NoError(t, err)

			assert.Equal(t, 200, test.Len())
			assert.Equal(t, 800, train.Len())
			assert.Equal(t, f.Columns(), train.Columns(), "no helper column leaks into the output")

			trainIDs, _ := train.Numeric("id")
			testIDs, _ := test.Numeric("id")
			all := append(append([]float64(nil), trainIDs...), testIDs...)
			sort.Float64s(all)
			for i, v := range all {
				if v != float64(i) {
					t.Fatalf("row %d missing or duplicated", i)
				}
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	f := incomeFrame(500)
	trainA, testA, err := Split(f, Stratified, 7, 0.25)
	require.NoError(t, err)
	trainB, testB, err := Split(f, Stratified, 7, 0.25)
	require.NoError(t, err)

	assert.True(t, trainA.Equal(trainB))
	assert.True(t, testA.Equal(testB))

	_, testC, err := Split(f, Stratified, 8, 0.25)
	require.NoError(t, err)
	assert.False(t, testA.Equal(testC), "a different seed gives a different partition")
}

func TestSplit_StratifiedProportions(t *testing.T) {
	f := incomeFrame(1600)
	train, test, err := Split(f, Stratified, 42, 0.2)
	require.NoError(t, err)

	share := func(fr *dataset.Frame) map[int]float64 {
		income, _ := fr.Numeric(housing.ColMedianIncome)
		out := make(map[int]float64)
		for _, v := range income {
			out[IncomeBucket(v)]++
		}
		for k := range out {
			out[k] /= float64(len(income))
		}
		return out
	}

	full, tr, te := share(f), share(train), share(test)
	for bucket, p := range full {
		assert.InDelta(t, p, tr[bucket], 0.01, "train bucket %d", bucket)
		assert.InDelta(t, p, te[bucket], 0.01, "test bucket %d", bucket)
	}
}

func TestSplit_Errors(t *testing.T) {
	f := incomeFrame(10)
	var cfgErr *errors.ConfigError

	for _, frac := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, _, err := Split(f, Random, 1, frac)
		assert.True(t, errors.As(err, &cfgErr), "fraction %v", frac)
	}

	_, _, err := Split(f, Method(9), 1, 0.2)
	assert.True(t, errors.As(err, &cfgErr))

	_, _, err = Split(f.Drop(housing.ColMedianIncome), Stratified, 1, 0.2)
	assert.Error(t, err)

	_, _, err = Split(incomeFrame(1), Random, 1, 0.5)
	assert.Error(t, err, "a single row cannot fill both partitions")
}

func TestStratifiedShuffleSplit_OutOfRangeStratum(t *testing.T) {
	labels := []int{0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	trainIdx, testIdx, err := StratifiedShuffleSplit(labels, 0.5, 3)
	require.NoError(t, err)
	assert.Len(t, testIdx, 5)
	assert.Len(t, trainIdx, 5)

	count := map[int]int{}
	for _, i := range testIdx {
		count[labels[i]]++
	}
	assert.Equal(t, 1, count[0])
	assert.Equal(t, 2, count[1])
	assert.Equal(t, 2, count[2])
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("Stratified")
	require.NoError(t, err)
	assert.Equal(t, Stratified, m)

	_, err = ParseMethod("kfold")
	assert.Error(t, err)
}
