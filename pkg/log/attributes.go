package log

// Standard attribute keys. Keys are hierarchical ("data.samples",
// "artifact.name") so records from prepare, train and serve can be filtered
// the same way.

// Pipeline context.
const (
	// ModelNameKey identifies the regression family, e.g. "Ridge", "RandomForestRegressor".
	ModelNameKey = "model.name"

	// AlgorithmKey is the configured algorithm tag, e.g. "linear-ridge".
	AlgorithmKey = "model.algo"

	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"

	// PhaseKey is one of the Phase* values below.
	PhaseKey = "ml.phase"

	// VersionKey is the artifact version binding an imputer and a model.
	VersionKey = "artifact.version"

	// ArtifactKey is the artifact name, e.g. "imputer_v1".
	ArtifactKey = "artifact.name"

	// PathKey is a file system path or URL touched by the operation.
	PathKey = "io.path"
)

// Data shape.
const (
	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns fed to a model.
	FeaturesKey = "data.features"

	// NumColumnsKey lists numeric columns seen by the imputer.
	NumColumnsKey = "data.num_columns"

	// CatColumnsKey lists categorical columns seen by the imputer.
	CatColumnsKey = "data.cat_columns"

	// TrainSizeKey and TestSizeKey are partition sizes after a split.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"

	// SamplingKey is the split method.
	SamplingKey = "data.sampling"
)

// Metrics and timing.
const (
	DurationMsKey = "perf.duration_ms"
	R2Key         = "metrics.r2"
	MADKey        = "metrics.mad"
	MAPEKey       = "metrics.mape"
	WMAPEKey      = "metrics.wmape"
	RMSEKey       = "metrics.rmse"
)

// Configuration.
const (
	RandomSeedKey  = "config.random_seed"
	HyperParamsKey = "model.hyperparams"
	StrategyKey    = "config.strategy"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationPrepare   = "prepare"
	OperationFetch     = "fetch"
	OperationEvaluate  = "evaluate"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
