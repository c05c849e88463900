package pipeline

import (
	"slices"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/artifact"
	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Scorer holds the imputer and model artifacts of one version. It is
// read-only after LoadScorer and safe for concurrent use.
type Scorer struct {
	Version      string
	Preprocessor *Preprocessor
	Bundle       *ModelBundle
}

// LoadScorer loads imputer_<version> and model_<version> from s.
func LoadScorer(s artifact.Store, version string) (*Scorer, error) {
	var pre Preprocessor
	if err := artifact.LoadGob(s, artifact.ImputerName(version), &pre); err != nil {
		return nil, err
	}
	var bundle ModelBundle
	if err := artifact.LoadGob(s, artifact.ModelName(version), &bundle); err != nil {
		return nil, err
	}
	if bundle.Model == nil || !bundle.Model.IsFitted() {
		return nil, errors.NewNotFittedError(bundle.Algorithm, "Score")
	}
	if len(bundle.Features) > 0 && !slices.Equal(bundle.Features, pre.Encoder.FeatureNames) {
		return nil, errors.NewSchemaError("LoadScorer", bundle.Features, pre.Encoder.FeatureNames)
	}
	return &Scorer{Version: version, Preprocessor: &pre, Bundle: &bundle}, nil
}

// Predict scores X. With preproc false X holds raw feature columns and is
// imputed, extended and encoded first; with preproc true X must already
// carry exactly the frozen one-hot schema.
func (s *Scorer) Predict(X *dataset.Frame, preproc bool) ([]float64, error) {
	var (
		prepared *dataset.Frame
		err      error
	)
	if preproc {
		prepared, err = s.Preprocessor.Align(X)
	} else {
		prepared, err = s.Preprocessor.Transform(X)
	}
	if err != nil {
		return nil, err
	}
	Xm, err := prepared.Matrix()
	if err != nil {
		return nil, err
	}

	var yHat []float64
	err = errors.SafeExecute("Scorer.Predict", func() error {
		var perr error
		yHat, perr = model.PredictSlice(s.Bundle.Model, Xm)
		return perr
	})
	if err != nil {
		return nil, err
	}
	return yHat, nil
}

// PredictObservation scores a single raw observation.
func (s *Scorer) PredictObservation(obs housing.Observation) (float64, error) {
	if err := obs.Validate(); err != nil {
		return 0, err
	}
	yHat, err := s.Predict(housing.ObservationsFrame(obs), false)
	if err != nil {
		return 0, err
	}
	return yHat[0], nil
}
