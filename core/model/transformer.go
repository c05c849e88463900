package model

import "github.com/YuminosukeSato/housing/dataset"

// Transformer はフレーム単位のデータ変換のインターフェース
//
// Fit で状態を学習し、以後の Transform は学習時の列構成を前提とする。
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(f *dataset.Frame) error

	// Transform はデータを変換した新しいフレームを返す
	Transform(f *dataset.Frame) (*dataset.Frame, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(f *dataset.Frame) (*dataset.Frame, error)
}
