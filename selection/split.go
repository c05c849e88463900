// Package selection partitions a dataset into train and test frames.
package selection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Method is the sampling method used by Split.
type Method int

const (
	// Stratified preserves the income-bucket proportions in both partitions.
	Stratified Method = iota
	// Random draws the test partition uniformly.
	Random
)

func (m Method) String() string {
	switch m {
	case Stratified:
		return "stratified"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts a configuration value to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stratified":
		return Stratified, nil
	case "random":
		return Random, nil
	default:
		return 0, errors.NewConfigError("sampling_method", s, "must be stratified or random")
	}
}

// IncomeEdges are the right-closed bin edges of the income buckets.
var IncomeEdges = []float64{0, 1.5, 3.0, 4.5, 6.0, math.Inf(1)}

// IncomeBucket maps a median income to its bucket label 1..5. Values outside
// (0, +Inf], and NaN, map to 0.
func IncomeBucket(income float64) int {
	for i := 1; i < len(IncomeEdges); i++ {
		if income > IncomeEdges[i-1] && income <= IncomeEdges[i] {
			return i
		}
	}
	return 0
}

// Split partitions f into train and test frames. Both outputs are indexed
// from zero and carry the columns of f unchanged.
func Split(f *dataset.Frame, method Method, seed int64, testFraction float64) (train, test *dataset.Frame, err error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, errors.NewConfigError("test_size", testFraction, "must be in (0, 1)")
	}

	var trainIdx, testIdx []int
	switch method {
	case Stratified:
		income, err := f.Numeric(housing.ColMedianIncome)
		if err != nil {
			return nil, nil, err
		}
		labels := make([]int, len(income))
		for i, v := range income {
			labels[i] = IncomeBucket(v)
		}
		trainIdx, testIdx, err = StratifiedShuffleSplit(labels, testFraction, seed)
		if err != nil {
			return nil, nil, err
		}
	case Random:
		trainIdx, testIdx, err = ShuffleSplit(f.Len(), testFraction, seed)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.NewConfigError("sampling_method", method.String(), "must be stratified or random")
	}

	if train, err = f.Take(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = f.Take(testIdx); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func splitSizes(n int, testFraction float64) (nTrain, nTest int, err error) {
	nTest = int(math.Ceil(float64(n) * testFraction))
	nTrain = n - nTest
	if nTest < 1 || nTrain < 1 {
		return 0, 0, errors.NewValueError("selection.Split",
			fmt.Sprintf("%d rows with test_size=%g leaves an empty partition", n, testFraction))
	}
	return nTrain, nTest, nil
}

// ShuffleSplit returns a seeded random partition of [0, n).
func ShuffleSplit(n int, testFraction float64, seed int64) (trainIdx, testIdx []int, err error) {
	_, nTest, err := splitSizes(n, testFraction)
	if err != nil {
		return nil, nil, err
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// StratifiedShuffleSplit returns a seeded partition of [0, len(labels))
// whose test share of every label is as close as possible to testFraction.
//
// Test rows are allocated per label by largest remainder, so the sum over
// labels equals ceil(n * testFraction) exactly.
func StratifiedShuffleSplit(labels []int, testFraction float64, seed int64) (trainIdx, testIdx []int, err error) {
	n := len(labels)
	_, nTest, err := splitSizes(n, testFraction)
	if err != nil {
		return nil, nil, err
	}

	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	classes := make([]int, 0, len(members))
	for l := range members {
		classes = append(classes, l)
	}
	sort.Ints(classes)

	alloc := allocate(classes, members, n, nTest)

	rng := rand.New(rand.NewSource(seed))
	for _, l := range classes {
		idx := members[l]
		perm := rng.Perm(len(idx))
		for k, p := range perm {
			if k < alloc[l] {
				testIdx = append(testIdx, idx[p])
			} else {
				trainIdx = append(trainIdx, idx[p])
			}
		}
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	return trainIdx, testIdx, nil
}

func allocate(classes []int, members map[int][]int, n, nTest int) map[int]int {
	type share struct {
		label int
		frac  float64
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, l := range classes {
		exact := float64(nTest) * float64(len(members[l])) / float64(n)
		base := int(math.Floor(exact))
		alloc[l] = base
		assigned += base
		shares = append(shares, share{label: l, frac: exact - float64(base)})
	}

	sort.SliceStable(shares, func(i, j int) bool { return shares[i].frac > shares[j].frac })
	for k := 0; assigned < nTest && k < len(shares); k++ {
		l := shares[k].label
		if alloc[l] < len(members[l]) {
			alloc[l]++
			assigned++
		}
	}
	return alloc
}
