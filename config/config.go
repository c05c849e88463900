// Package config loads the pipeline configuration.
//
// Settings come from a YAML file, overridden by HOUSING_* environment
// variables (HOUSING_VERSION, HOUSING_LINEAR_RIDGE_ALPHA, ...). String tags
// are parsed into closed enums once, at load time, so an unknown algorithm,
// sampling method or imputation strategy fails before any work starts.
package config

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
	"github.com/YuminosukeSato/housing/preprocessing"
	"github.com/YuminosukeSato/housing/selection"
)

// Algorithm selects the regression family trained by the pipeline.
type Algorithm int

const (
	LinearRidge Algorithm = iota
	LinearLasso
	DecisionTree
	RandomForest
)

var algorithmNames = map[Algorithm]string{
	LinearRidge:  "linear-ridge",
	LinearLasso:  "linear-lasso",
	DecisionTree: "decision_tree",
	RandomForest: "random_forest",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm converts an algo tag to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for a, name := range algorithmNames {
		if name == tag {
			return a, nil
		}
	}
	return 0, errors.NewConfigError("algo", s, "must be one of linear-ridge, linear-lasso, decision_tree, random_forest")
}

// StoreKind selects the artifact backend.
type StoreKind int

const (
	// FileStore keeps artifacts as files under models_path and model_data_path.
	FileStore StoreKind = iota
	// BoltStore keeps artifacts in a single bbolt database at bolt_path.
	BoltStore
)

func (k StoreKind) String() string {
	switch k {
	case FileStore:
		return "file"
	case BoltStore:
		return "bolt"
	default:
		return fmt.Sprintf("StoreKind(%d)", int(k))
	}
}

// ParseStoreKind converts an artifact_store value to a StoreKind.
func ParseStoreKind(s string) (StoreKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file", "":
		return FileStore, nil
	case "bolt":
		return BoltStore, nil
	default:
		return 0, errors.NewConfigError("artifact_store", s, "must be file or bolt")
	}
}

// Paths groups file system locations.
type Paths struct {
	HousingPath   string // directory holding housing.tgz and housing.csv
	HousingURL    string // source of housing.tgz
	ModelDataPath string // directory for train_<version>.csv and test_<version>.csv
	ModelsPath    string // directory for imputer_<version> and model_<version>
	ReportPath    string // directory for EDA plots
}

// SplitConfig groups the train/test split settings.
type SplitConfig struct {
	Method   selection.Method
	Seed     int64
	TestSize float64
}

// RidgeParams are the linear-ridge hyperparameters.
type RidgeParams struct {
	Alpha        float64 `mapstructure:"alpha"`
	FitIntercept bool    `mapstructure:"fit_intercept"`
}

// LassoParams are the linear-lasso hyperparameters.
type LassoParams struct {
	Alpha        float64 `mapstructure:"alpha"`
	FitIntercept bool    `mapstructure:"fit_intercept"`
	MaxIter      int     `mapstructure:"max_iter"`
	Tol          float64 `mapstructure:"tol"`
	Selection    string  `mapstructure:"selection"`
}

// TreeParams are the decision_tree hyperparameters.
type TreeParams struct {
	MaxDepth            int     `mapstructure:"max_depth"`
	MinSamplesSplit     int     `mapstructure:"min_samples_split"`
	MinSamplesLeaf      int     `mapstructure:"min_samples_leaf"`
	MaxFeatures         int     `mapstructure:"max_features"`
	MinImpurityDecrease float64 `mapstructure:"min_impurity_decrease"`
}

// ForestParams are the random_forest hyperparameters.
type ForestParams struct {
	NEstimators         int     `mapstructure:"n_estimators"`
	MaxDepth            int     `mapstructure:"max_depth"`
	MinSamplesSplit     int     `mapstructure:"min_samples_split"`
	MinSamplesLeaf      int     `mapstructure:"min_samples_leaf"`
	MaxFeatures         int     `mapstructure:"max_features"`
	MinImpurityDecrease float64 `mapstructure:"min_impurity_decrease"`
	Bootstrap           bool    `mapstructure:"bootstrap"`
	NJobs               int     `mapstructure:"n_jobs"`
}

// StoreConfig selects and locates the artifact backend.
type StoreConfig struct {
	Kind     StoreKind
	BoltPath string
}

// Config is the validated run configuration. It is passed by value and
// never modified after Load.
type Config struct {
	Paths   Paths
	Version string

	OverwriteModelData bool
	OverwriteRawData   bool

	Split     SplitConfig
	Seed      int64
	Algorithm Algorithm

	Ridge        RidgeParams
	Lasso        LassoParams
	DecisionTree TreeParams
	RandomForest ForestParams

	Impute   preprocessing.ImputerOptions
	Features preprocessing.FeatureOptions
	// Standardize scales the numeric model inputs to zero mean and unit
	// variance after encoding. Dummy columns are left as 0/1.
	Standardize bool

	Store      StoreConfig
	LogLevel   string
	ServerAddr string
}

// LogFields returns the fields identifying a run in log records.
func (c Config) LogFields() []any {
	return []any{
		log.VersionKey, c.Version,
		log.AlgorithmKey, c.Algorithm.String(),
		log.RandomSeedKey, c.Seed,
	}
}
