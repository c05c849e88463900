package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// DefaultSeparator joins a source column and a category in a dummy column name.
const DefaultSeparator = "_"

var _ model.Transformer = (*OneHotEncoder)(nil)

// OneHotEncoder はカテゴリ列を 0/1 のダミー列に展開する
//
// 学習時に出力列の構成（FeatureNames）を固定する。Transform は常に
// FeatureNames と同じ列を同じ順序で返すため、学習時に存在したカテゴリが
// 入力に無ければその列は全て 0 になり、学習時に無かったカテゴリの行は
// その列の全ダミーが 0 になる。
type OneHotEncoder struct {
	model.BaseEstimator

	// Separator は元の列名とカテゴリ値の区切り文字
	Separator string

	// Passthrough はそのまま出力する数値列（入力順）
	Passthrough []string

	// Columns は展開するカテゴリ列（入力順）
	Columns []string

	// Categories は Columns ごとのカテゴリ値（辞書順）
	Categories [][]string

	// FeatureNames は出力列の固定スキーマ
	FeatureNames []string
}

// NewOneHotEncoder は新しい OneHotEncoder を作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{Separator: DefaultSeparator}
}

// Fit はカテゴリ値を収集し、出力スキーマを固定する
func (e *OneHotEncoder) Fit(f *dataset.Frame) error {
	if f.Width() == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if e.Separator == "" {
		e.Separator = DefaultSeparator
	}

	e.Reset()
	e.Passthrough = f.NamesOf(dataset.Numeric)
	e.Columns = f.NamesOf(dataset.Categorical)
	e.Categories = make([][]string, len(e.Columns))
	e.FeatureNames = append([]string(nil), e.Passthrough...)

	for i, name := range e.Columns {
		c, _ := f.Column(name)
		seen := make(map[string]struct{})
		for _, v := range c.Str {
			if v != dataset.Missing {
				seen[v] = struct{}{}
			}
		}
		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		sort.Strings(levels)
		e.Categories[i] = levels
		for _, v := range levels {
			e.FeatureNames = append(e.FeatureNames, name+e.Separator+v)
		}
	}

	e.SetFitted()
	return nil
}

// InputColumns は Transform が要求する入力列を返す
func (e *OneHotEncoder) InputColumns() []string {
	return append(append([]string(nil), e.Passthrough...), e.Columns...)
}

// Transform は固定スキーマに沿ってダミー列を生成する
func (e *OneHotEncoder) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if !SameColumnSet(e.InputColumns(), f.Columns()) {
		return nil, errors.NewSchemaError("OneHotEncoder.Transform", e.InputColumns(), f.Columns())
	}

	cols := make([]*dataset.Column, 0, len(e.FeatureNames))
	for _, name := range e.Passthrough {
		c, _ := f.Column(name)
		c, err := restoreKind(c, dataset.Numeric)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}

	n := f.Len()
	for i, name := range e.Columns {
		c, _ := f.Column(name)
		c = c.FormatCategorical()

		levels := e.Categories[i]
		dummies := make([][]float64, len(levels))
		pos := make(map[string]int, len(levels))
		for k, v := range levels {
			dummies[k] = make([]float64, n)
			pos[v] = k
		}

		unseen := 0
		for r, v := range c.Str {
			k, ok := pos[v]
			if !ok {
				if v != dataset.Missing {
					unseen++
				}
				continue
			}
			dummies[k][r] = 1
		}
		if unseen > 0 {
			errors.Warn(errors.NewDataConversionWarning(name, "object", "one-hot",
				"categories not seen during fit encoded as all zeros"))
		}

		for k, v := range levels {
			cols = append(cols, dataset.NewNumeric(name+e.Separator+v, dummies[k]))
		}
	}
	return dataset.New(cols...)
}

// FitTransform はFitとTransformを同時に実行する
func (e *OneHotEncoder) FitTransform(f *dataset.Frame) (*dataset.Frame, error) {
	if err := e.Fit(f); err != nil {
		return nil, err
	}
	return e.Transform(f)
}

// Align は既にエンコード済みのフレームを固定スキーマの列順に並べ替える。
// 列集合が一致しない場合は SchemaError を返す。
func (e *OneHotEncoder) Align(f *dataset.Frame) (*dataset.Frame, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Align")
	}
	if !SameColumnSet(e.FeatureNames, f.Columns()) {
		return nil, errors.NewSchemaError("OneHotEncoder.Align", e.FeatureNames, f.Columns())
	}
	return f.Select(e.FeatureNames...)
}
