package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// minScale 未満の標準偏差は 1 として扱う
const minScale = 1e-8

var (
	_ model.Transformer     = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
)

// StandardScaler は数値列を平均0、標準偏差1に変換する
//
// 対象は Columns に列挙した列のみで、それ以外の列はそのまま出力する。
// 統計量は母標準偏差（n で割る）で、NaN は無視する。
type StandardScaler struct {
	model.BaseEstimator

	// Columns は標準化する列。空のまま Fit すると全ての数値列を対象にする
	Columns []string

	// Mean は Columns ごとの平均値
	Mean []float64

	// Scale は Columns ごとの標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか
	WithMean bool

	// WithStd は標準偏差で割るかどうか
	WithStd bool
}

// NewStandardScaler は指定した列を標準化する StandardScaler を作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(encoder.Passthrough...)
//	scaled, err := scaler.FitTransform(encoded)
func NewStandardScaler(columns ...string) *StandardScaler {
	return &StandardScaler{
		Columns:  append([]string(nil), columns...),
		WithMean: true,
		WithStd:  true,
	}
}

// Fit は訓練データから列ごとの平均と標準偏差を計算する
func (s *StandardScaler) Fit(f *dataset.Frame) error {
	if f.Len() == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(s.Columns) == 0 {
		s.Columns = f.NamesOf(dataset.Numeric)
	}

	s.Reset()
	s.Mean = make([]float64, len(s.Columns))
	s.Scale = make([]float64, len(s.Columns))
	for j, name := range s.Columns {
		values, err := f.Numeric(name)
		if err != nil {
			return err
		}
		mean, std := stat.PopMeanStdDev(observedValues(values), nil)

		s.Mean[j], s.Scale[j] = 0, 1
		if s.WithMean && !math.IsNaN(mean) {
			s.Mean[j] = mean
		}
		if s.WithStd && !math.IsNaN(std) && std >= minScale {
			s.Scale[j] = std
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計量で Columns を標準化する
func (s *StandardScaler) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}
	out := f
	for j, name := range s.Columns {
		values, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = (v - s.Mean[j]) / s.Scale[j]
		}
		if out, err = out.With(dataset.NewNumeric(name, scaled)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransform は Fit と Transform を同時に実行する
func (s *StandardScaler) FitTransform(f *dataset.Frame) (*dataset.Frame, error) {
	if err := s.Fit(f); err != nil {
		return nil, err
	}
	return s.Transform(f)
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, columns=%d)", s.WithMean, s.WithStd, len(s.Columns))
}

func observedValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
