package preprocessing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Strategy は欠損値の補完方法
type Strategy int

const (
	// StrategyMean は列の平均値で補完する（数値列のみ）
	StrategyMean Strategy = iota
	// StrategyMedian は列の中央値で補完する（数値列のみ）
	StrategyMedian
	// StrategyMostFrequent は最頻値で補完する。同数の場合は最小値を選ぶ
	StrategyMostFrequent
	// StrategyConstant は指定した定数で補完する
	StrategyConstant
)

// String は設定ファイルで使う名前を返す
func (s Strategy) String() string {
	switch s {
	case StrategyMean:
		return "mean"
	case StrategyMedian:
		return "median"
	case StrategyMostFrequent:
		return "most_frequent"
	case StrategyConstant:
		return "constant"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy は設定値を Strategy に変換する
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return StrategyMean, nil
	case "median":
		return StrategyMedian, nil
	case "most_frequent", "most-frequent":
		return StrategyMostFrequent, nil
	case "constant":
		return StrategyConstant, nil
	default:
		return 0, errors.NewConfigError("impute.strategy", s, "must be one of mean, median, most_frequent, constant")
	}
}

// ImputerOptions は補完方法の設定
type ImputerOptions struct {
	NumStrategy Strategy
	CatStrategy Strategy
	// NumConstant は NumStrategy が StrategyConstant のときに必須
	NumConstant *float64
	// CatConstant は CatStrategy が StrategyConstant のときに必須
	CatConstant *string
}

// DefaultImputerOptions は数値列を中央値、カテゴリ列を最頻値で補完する設定を返す
func DefaultImputerOptions() ImputerOptions {
	return ImputerOptions{
		NumStrategy: StrategyMedian,
		CatStrategy: StrategyMostFrequent,
	}
}

// Validate は設定の整合性を検証する
func (o ImputerOptions) Validate() error {
	switch o.NumStrategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent:
	case StrategyConstant:
		if o.NumConstant == nil {
			return errors.NewConfigError("impute.num_constant", nil, "required when impute.num_strategy is constant")
		}
	default:
		return errors.NewConfigError("impute.num_strategy", o.NumStrategy.String(), "unknown strategy")
	}

	switch o.CatStrategy {
	case StrategyMostFrequent:
	case StrategyConstant:
		if o.CatConstant == nil || *o.CatConstant == dataset.Missing {
			return errors.NewConfigError("impute.cat_constant", o.CatConstant, "required and non-empty when impute.cat_strategy is constant")
		}
	default:
		return errors.NewConfigError("impute.cat_strategy", o.CatStrategy.String(), "categorical columns support most_frequent or constant")
	}
	return nil
}

var _ model.Transformer = (*Imputer)(nil)

// Imputer は数値列とカテゴリ列の欠損値を列ごとの補完値で埋める
//
// 学習時の列名・列順・型を記録し、Transform ではそれと同じ列集合を要求する。
// 出力は学習時の列順・型に揃えられる。
type Imputer struct {
	model.BaseEstimator

	Options ImputerOptions

	// Columns は学習時の列名（順序を保持）
	Columns []string

	// Kinds は Columns に対応する学習時の型
	Kinds []dataset.Kind

	// NumFill は数値列ごとの補完値。観測値が無い列は NaN
	NumFill map[string]float64

	// CatFill はカテゴリ列ごとの補完値。観測値が無い列は空文字
	CatFill map[string]string
}

// NewImputer は設定を検証して新しい Imputer を作成する
//
// 使用例:
//
//	imp, err := preprocessing.NewImputer(preprocessing.DefaultImputerOptions())
//	if err != nil {
//	    return err
//	}
//	out, err := imp.FitTransform(train)
func NewImputer(opts ImputerOptions) (*Imputer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Imputer{Options: opts}, nil
}

// FitImpute は Imputer を学習し、補完済みの学習データと共に返す
func FitImpute(f *dataset.Frame, opts ImputerOptions) (*dataset.Frame, *Imputer, error) {
	imp, err := NewImputer(opts)
	if err != nil {
		return nil, nil, err
	}
	out, err := imp.FitTransform(f)
	if err != nil {
		return nil, nil, err
	}
	return out, imp, nil
}

// NumColumns は学習時の数値列名を返す
func (imp *Imputer) NumColumns() []string {
	return imp.columnsOf(dataset.Numeric)
}

// CatColumns は学習時のカテゴリ列名を返す
func (imp *Imputer) CatColumns() []string {
	return imp.columnsOf(dataset.Categorical)
}

func (imp *Imputer) columnsOf(kind dataset.Kind) []string {
	var out []string
	for i, k := range imp.Kinds {
		if k == kind {
			out = append(out, imp.Columns[i])
		}
	}
	return out
}

// Fit は列ごとの補完値を計算する
func (imp *Imputer) Fit(f *dataset.Frame) error {
	if f.Len() == 0 || f.Width() == 0 {
		return errors.NewModelError("Imputer.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := imp.Options.Validate(); err != nil {
		return err
	}

	imp.Reset()
	imp.Columns = f.Columns()
	imp.Kinds = make([]dataset.Kind, f.Width())
	imp.NumFill = make(map[string]float64)
	imp.CatFill = make(map[string]string)

	for i := 0; i < f.Width(); i++ {
		c := f.At(i)
		imp.Kinds[i] = c.Kind
		switch c.Kind {
		case dataset.Numeric:
			imp.NumFill[c.Name] = imp.numericFill(c)
		case dataset.Categorical:
			imp.CatFill[c.Name] = imp.categoricalFill(c)
		}
	}

	imp.SetFitted()
	return nil
}

func (imp *Imputer) numericFill(c *dataset.Column) float64 {
	if imp.Options.NumStrategy == StrategyConstant {
		return *imp.Options.NumConstant
	}

	observed := make([]float64, 0, len(c.Num))
	for _, v := range c.Num {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		errors.Warn(errors.NewDataConversionWarning(c.Name, "float64", "float64",
			"no observed values, column left unfilled"))
		return math.NaN()
	}

	switch imp.Options.NumStrategy {
	case StrategyMean:
		return stat.Mean(observed, nil)
	case StrategyMedian:
		return Median(observed)
	default:
		return mostFrequentFloat(observed)
	}
}

func (imp *Imputer) categoricalFill(c *dataset.Column) string {
	if imp.Options.CatStrategy == StrategyConstant {
		return *imp.Options.CatConstant
	}

	counts := make(map[string]int)
	for _, s := range c.Str {
		if s != dataset.Missing {
			counts[s]++
		}
	}
	if len(counts) == 0 {
		errors.Warn(errors.NewDataConversionWarning(c.Name, "object", "object",
			"no observed values, column left unfilled"))
		return dataset.Missing
	}

	best, bestCount := "", -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// Transform は学習時の補完値で欠損を埋めた新しいフレームを返す
//
// 入力の列集合が学習時と異なる場合は SchemaError を返す。
// 列の型が学習時と異なる場合は学習時の型に戻す。
func (imp *Imputer) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !imp.IsFitted() {
		return nil, errors.NewNotFittedError("Imputer", "Transform")
	}
	if !SameColumnSet(imp.Columns, f.Columns()) {
		return nil, errors.NewSchemaError("Imputer.Transform", imp.Columns, f.Columns())
	}

	cols := make([]*dataset.Column, len(imp.Columns))
	for i, name := range imp.Columns {
		c, _ := f.Column(name)
		c, err := restoreKind(c, imp.Kinds[i])
		if err != nil {
			return nil, err
		}
		if c.Kind == dataset.Numeric {
			cols[i] = fillNumeric(c, imp.NumFill[name])
		} else {
			cols[i] = fillCategorical(c, imp.CatFill[name])
		}
	}
	return dataset.New(cols...)
}

// FitTransform はFitとTransformを同時に実行する
func (imp *Imputer) FitTransform(f *dataset.Frame) (*dataset.Frame, error) {
	if err := imp.Fit(f); err != nil {
		return nil, err
	}
	return imp.Transform(f)
}

func restoreKind(c *dataset.Column, want dataset.Kind) (*dataset.Column, error) {
	if c.Kind == want {
		return c, nil
	}
	if want == dataset.Numeric {
		out, err := c.ParseNumeric()
		if err != nil {
			return nil, err
		}
		errors.Warn(errors.NewDataConversionWarning(c.Name, c.Kind.String(), want.String(), "restored fit-time dtype"))
		return out, nil
	}
	if c.MissingCount() != c.Len() {
		errors.Warn(errors.NewDataConversionWarning(c.Name, c.Kind.String(), want.String(), "restored fit-time dtype"))
	}
	return c.FormatCategorical(), nil
}

func fillNumeric(c *dataset.Column, fill float64) *dataset.Column {
	out := make([]float64, len(c.Num))
	for i, v := range c.Num {
		if math.IsNaN(v) {
			v = fill
		}
		out[i] = v
	}
	return dataset.NewNumeric(c.Name, out)
}

func fillCategorical(c *dataset.Column, fill string) *dataset.Column {
	out := make([]string, len(c.Str))
	for i, v := range c.Str {
		if v == dataset.Missing {
			v = fill
		}
		out[i] = v
	}
	return dataset.NewCategorical(c.Name, out)
}

// Median はソート済みでないスライスの中央値を返す。偶数個の場合は中央2値の平均。
// 入力は変更しない。
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mostFrequentFloat(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := math.Inf(1), -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// SameColumnSet は2つの列名リストが順序を無視して一致するかを返す
func SameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, n := range a {
		seen[n] = struct{}{}
	}
	for _, n := range b {
		if _, ok := seen[n]; !ok {
			return false
		}
	}
	return true
}
