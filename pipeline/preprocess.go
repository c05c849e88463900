package pipeline

import (
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/preprocessing"
)

// PreprocessOptions selects how raw features become model inputs.
type PreprocessOptions struct {
	Impute      preprocessing.ImputerOptions
	Features    preprocessing.FeatureOptions
	Standardize bool
}

// Preprocessor is the imputer artifact. Besides the fitted fill values it
// carries the derived-feature options, the one-hot schema frozen on the
// training partition and, when enabled, the scaler of the numeric inputs,
// so test and serving rows are prepared identically.
type Preprocessor struct {
	Imputer  *preprocessing.Imputer
	Features preprocessing.FeatureOptions
	Encoder  *preprocessing.OneHotEncoder
	Scaler   *preprocessing.StandardScaler // nil unless standardize is set
}

// FitPreprocessor fits the preprocessing steps on raw training features and
// returns the prepared training frame.
func FitPreprocessor(X *dataset.Frame, opts PreprocessOptions) (*Preprocessor, *dataset.Frame, error) {
	imputed, imp, err := preprocessing.FitImpute(X, opts.Impute)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fit imputer")
	}
	generated, err := preprocessing.GenerateFeatures(imputed, opts.Features)
	if err != nil {
		return nil, nil, err
	}
	enc := preprocessing.NewOneHotEncoder()
	encoded, err := enc.FitTransform(generated)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fit encoder")
	}

	p := &Preprocessor{Imputer: imp, Features: opts.Features, Encoder: enc}
	if !opts.Standardize {
		return p, encoded, nil
	}
	p.Scaler = preprocessing.NewStandardScaler(enc.Passthrough...)
	scaled, err := p.Scaler.FitTransform(encoded)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fit scaler")
	}
	return p, scaled, nil
}

// Transform imputes, generates features, encodes and optionally scales raw
// feature rows.
func (p *Preprocessor) Transform(X *dataset.Frame) (*dataset.Frame, error) {
	imputed, err := p.Imputer.Transform(X)
	if err != nil {
		return nil, err
	}
	generated, err := preprocessing.GenerateFeatures(imputed, p.Features)
	if err != nil {
		return nil, err
	}
	encoded, err := p.Encoder.Transform(generated)
	if err != nil {
		return nil, err
	}
	if p.Scaler == nil {
		return encoded, nil
	}
	return p.Scaler.Transform(encoded)
}

// Align checks that already prepared rows carry exactly the frozen schema
// and returns them in schema order.
func (p *Preprocessor) Align(X *dataset.Frame) (*dataset.Frame, error) {
	return p.Encoder.Align(X)
}

// Schema returns the model input columns.
func (p *Preprocessor) Schema() []string {
	return append([]string(nil), p.Encoder.FeatureNames...)
}
