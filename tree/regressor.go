// Package tree provides a CART regression tree.
package tree

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

func init() {
	model.Register(&DecisionTreeRegressor{})
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)

// impurityEpsilon is the variance below which a node is not split.
const impurityEpsilon = 1e-12

// DecisionTreeRegressor is a CART regressor that minimises squared error.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	MaxDepth            int     // 0 => unlimited
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	MaxFeatures         int     // 0 => all features
	MinImpurityDecrease float64 // minimal weighted impurity decrease to accept a split
	RandomState         int64   // seed for feature sampling

	Root               *Node
	NFeatures          int
	FeatureImportances []float64
}

// Node is a tree node. Internal nodes send x[Feature] <= Threshold to Left.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Value     float64 // mean target of the samples reaching the node
	Samples   int
	Impurity  float64 // mean squared error of the samples reaching the node
	Left      *Node
	Right     *Node
}

// NewDecisionTreeRegressor returns a regressor with sklearn-like defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name returns the model family.
func (t *DecisionTreeRegressor) Name() string { return "DecisionTreeRegressor" }

// GetParams returns the hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":             t.MaxDepth,
		"min_samples_split":     t.MinSamplesSplit,
		"min_samples_leaf":      t.MinSamplesLeaf,
		"max_features":          t.MaxFeatures,
		"min_impurity_decrease": t.MinImpurityDecrease,
		"random_state":          t.RandomState,
	}
}

// Fit grows the tree on X (n x p) and y (n x 1).
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	n, _, err := model.CheckXY("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	sample := make([]int, n)
	for i := range sample {
		sample[i] = i
	}
	return t.FitColumns(Columns(X), mat.Col(nil, 0, y), sample)
}

// Columns copies X into column-major slices.
func Columns(X mat.Matrix) [][]float64 {
	_, p := X.Dims()
	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}
	return cols
}

// FitColumns grows the tree on the rows listed in sample. Rows may repeat,
// which is how bootstrap samples are expressed.
func (t *DecisionTreeRegressor) FitColumns(columns [][]float64, y []float64, sample []int) error {
	if len(columns) == 0 || len(sample) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := t.validate(len(columns)); err != nil {
		return err
	}

	t.Reset()
	b := &builder{
		tree:        t,
		columns:     columns,
		y:           y,
		rng:         rand.New(rand.NewSource(t.RandomState)),
		importances: make([]float64, len(columns)),
		rootSize:    len(sample),
	}
	t.Root = b.build(append([]int(nil), sample...), 0)
	t.NFeatures = len(columns)
	t.FeatureImportances = normalise(b.importances)
	t.SetFitted()
	return nil
}

func (t *DecisionTreeRegressor) validate(p int) error {
	switch {
	case t.MaxDepth < 0:
		return errors.NewValueError("DecisionTreeRegressor.Fit", "max_depth must be >= 0")
	case t.MinSamplesSplit < 2:
		return errors.NewValueError("DecisionTreeRegressor.Fit", "min_samples_split must be >= 2")
	case t.MinSamplesLeaf < 1:
		return errors.NewValueError("DecisionTreeRegressor.Fit", "min_samples_leaf must be >= 1")
	case t.MaxFeatures < 0 || t.MaxFeatures > p:
		return errors.NewValueError("DecisionTreeRegressor.Fit", fmt.Sprintf("max_features must be in [0, %d]", p))
	}
	return nil
}

// Predict returns the leaf mean for every row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, t.predictRow(X, i))
	}
	return out, nil
}

func (t *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	node := t.Root
	for !node.Leaf {
		if X.At(i, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Depth returns the depth of the fitted tree, 0 for a single leaf.
func (t *DecisionTreeRegressor) Depth() int {
	var depth func(n *Node) int
	depth = func(n *Node) int {
		if n == nil || n.Leaf {
			return 0
		}
		return 1 + max(depth(n.Left), depth(n.Right))
	}
	return depth(t.Root)
}

// NLeaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) NLeaves() int {
	var count func(n *Node) int
	count = func(n *Node) int {
		if n == nil {
			return 0
		}
		if n.Leaf {
			return 1
		}
		return count(n.Left) + count(n.Right)
	}
	return count(t.Root)
}

type builder struct {
	tree        *DecisionTreeRegressor
	columns     [][]float64
	y           []float64
	rng         *rand.Rand
	importances []float64
	rootSize    int
	pairs       []pair
}

type pair struct {
	v   float64
	row int
}

type split struct {
	feature   int
	threshold float64
	sse       float64
}

func (b *builder) build(sample []int, depth int) *Node {
	sum, sumSq := 0.0, 0.0
	for _, r := range sample {
		sum += b.y[r]
		sumSq += b.y[r] * b.y[r]
	}
	m := float64(len(sample))
	mean := sum / m
	impurity := math.Max(sumSq/m-mean*mean, 0)

	node := &Node{Leaf: true, Value: mean, Samples: len(sample), Impurity: impurity}

	t := b.tree
	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		len(sample) < t.MinSamplesSplit ||
		len(sample) < 2*t.MinSamplesLeaf ||
		impurity <= impurityEpsilon {
		return node
	}

	best, ok := b.bestSplit(sample, sum, sumSq)
	if !ok {
		return node
	}

	parentSSE := impurity * m
	// weighted decrease relative to the root sample size, as in sklearn
	if (parentSSE-best.sse)/float64(b.rootSize) < t.MinImpurityDecrease {
		return node
	}

	var left, right []int
	col := b.columns[best.feature]
	for _, r := range sample {
		if col[r] <= best.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	b.importances[best.feature] += parentSSE - best.sse

	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

// bestSplit scans candidate features in a seeded random order and returns
// the threshold with the lowest summed squared error. Ties keep the first
// candidate found.
func (b *builder) bestSplit(sample []int, sum, sumSq float64) (split, bool) {
	t := b.tree
	p := len(b.columns)
	order := b.rng.Perm(p)
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		order = order[:t.MaxFeatures]
	}

	if cap(b.pairs) < len(sample) {
		b.pairs = make([]pair, len(sample))
	}
	pairs := b.pairs[:len(sample)]

	best := split{sse: math.Inf(1)}
	found := false
	m := len(sample)
	minLeaf := t.MinSamplesLeaf

	for _, f := range order {
		col := b.columns[f]
		for k, r := range sample {
			pairs[k] = pair{v: col[r], row: r}
		}
		slices.SortFunc(pairs, func(a, c pair) int { return cmp.Compare(a.v, c.v) })
		if pairs[0].v == pairs[m-1].v {
			continue
		}

		leftSum, leftSq := 0.0, 0.0
		for i := 1; i < m; i++ {
			yv := b.y[pairs[i-1].row]
			leftSum += yv
			leftSq += yv * yv

			if pairs[i-1].v == pairs[i].v || i < minLeaf || m-i < minLeaf {
				continue
			}
			nl, nr := float64(i), float64(m-i)
			rightSum, rightSq := sum-leftSum, sumSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < best.sse {
				thr := pairs[i-1].v + (pairs[i].v-pairs[i-1].v)/2
				if thr >= pairs[i].v {
					thr = pairs[i-1].v
				}
				best = split{feature: f, threshold: thr, sse: sse}
				found = true
			}
		}
	}
	return best, found
}

func normalise(v []float64) []float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	out := make([]float64, len(v))
	if total == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}
