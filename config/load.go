package config

import (
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
	"github.com/YuminosukeSato/housing/preprocessing"
	"github.com/YuminosukeSato/housing/selection"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "HOUSING"

// DefaultHousingURL is the upstream archive of the California housing dataset.
const DefaultHousingURL = "https://raw.githubusercontent.com/ageron/handson-ml/master/datasets/housing/housing.tgz"

type rawConfig struct {
	HousingPath   string `mapstructure:"housing_path"`
	HousingURL    string `mapstructure:"housing_url"`
	ModelDataPath string `mapstructure:"model_data_path"`
	ModelsPath    string `mapstructure:"models_path"`
	ReportPath    string `mapstructure:"report_path"`
	Version       string `mapstructure:"version"`

	OverWriteModelData bool `mapstructure:"over_write_model_data"`
	OverWriteRawData   bool `mapstructure:"over_write_raw_data"`

	SamplingMethod string  `mapstructure:"sampling_method"`
	Seed           int64   `mapstructure:"seed"`
	TestSize       float64 `mapstructure:"test_size"`
	Algo           string  `mapstructure:"algo"`

	Ridge        RidgeParams  `mapstructure:"linear-ridge"`
	Lasso        LassoParams  `mapstructure:"linear-lasso"`
	DecisionTree TreeParams   `mapstructure:"decision_tree"`
	RandomForest ForestParams `mapstructure:"random_forest"`

	NumImpute          string   `mapstructure:"num_impute"`
	CatImpute          string   `mapstructure:"cat_impute"`
	NumConstant        *float64 `mapstructure:"num_constant"`
	CatConstant        *string  `mapstructure:"cat_constant"`
	AddBedroomsPerRoom bool     `mapstructure:"add_bedrooms_per_room"`
	Standardize        bool     `mapstructure:"standardize"`

	LogLevel      string `mapstructure:"log_level"`
	ArtifactStore string `mapstructure:"artifact_store"`
	BoltPath      string `mapstructure:"bolt_path"`
	ServerAddr    string `mapstructure:"server_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("housing_path", "data/raw")
	v.SetDefault("housing_url", DefaultHousingURL)
	v.SetDefault("model_data_path", "data/processed")
	v.SetDefault("models_path", "artifacts")
	v.SetDefault("report_path", "reports")
	v.SetDefault("version", "v1")
	v.SetDefault("over_write_model_data", false)
	v.SetDefault("over_write_raw_data", false)
	v.SetDefault("sampling_method", "stratified")
	v.SetDefault("seed", 42)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("algo", "linear-ridge")

	v.SetDefault("linear-ridge.alpha", 1.0)
	v.SetDefault("linear-ridge.fit_intercept", true)

	v.SetDefault("linear-lasso.alpha", 1.0)
	v.SetDefault("linear-lasso.fit_intercept", true)
	v.SetDefault("linear-lasso.max_iter", 1000)
	v.SetDefault("linear-lasso.tol", 1e-4)
	v.SetDefault("linear-lasso.selection", "cyclic")

	v.SetDefault("decision_tree.max_depth", 0)
	v.SetDefault("decision_tree.min_samples_split", 2)
	v.SetDefault("decision_tree.min_samples_leaf", 1)
	v.SetDefault("decision_tree.max_features", 0)
	v.SetDefault("decision_tree.min_impurity_decrease", 0.0)

	v.SetDefault("random_forest.n_estimators", 100)
	v.SetDefault("random_forest.max_depth", 0)
	v.SetDefault("random_forest.min_samples_split", 2)
	v.SetDefault("random_forest.min_samples_leaf", 1)
	v.SetDefault("random_forest.max_features", 0)
	v.SetDefault("random_forest.min_impurity_decrease", 0.0)
	v.SetDefault("random_forest.bootstrap", true)
	v.SetDefault("random_forest.n_jobs", 0)

	v.SetDefault("num_impute", "median")
	v.SetDefault("cat_impute", "most_frequent")
	v.SetDefault("add_bedrooms_per_room", true)
	v.SetDefault("standardize", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("artifact_store", "file")
	v.SetDefault("bolt_path", "artifacts/housing.db")
	v.SetDefault("server_addr", ":8080")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// keys without a default are only visible to AutomaticEnv once bound
	_ = v.BindEnv("num_constant")
	_ = v.BindEnv("cat_constant")
	return v
}

// Load reads the YAML file at path. An empty path loads defaults and
// environment overrides only.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	return decode(v)
}

// Parse reads YAML configuration from r.
func Parse(r io.Reader) (Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return raw.validate()
}

func (r rawConfig) validate() (Config, error) {
	cfg := Config{
		Paths: Paths{
			HousingPath:   r.HousingPath,
			HousingURL:    r.HousingURL,
			ModelDataPath: r.ModelDataPath,
			ModelsPath:    r.ModelsPath,
			ReportPath:    r.ReportPath,
		},
		Version:            strings.TrimSpace(r.Version),
		OverwriteModelData: r.OverWriteModelData,
		OverwriteRawData:   r.OverWriteRawData,
		Seed:               r.Seed,
		Ridge:              r.Ridge,
		Lasso:              r.Lasso,
		DecisionTree:       r.DecisionTree,
		RandomForest:       r.RandomForest,
		Features:           preprocessing.FeatureOptions{AddBedroomsPerRoom: r.AddBedroomsPerRoom},
		Standardize:        r.Standardize,
		LogLevel:           r.LogLevel,
		ServerAddr:         r.ServerAddr,
	}

	if cfg.Version == "" || strings.ContainsAny(cfg.Version, `/\`) {
		return Config{}, errors.NewConfigError("version", r.Version, "must be non-empty and contain no path separators")
	}

	method, err := selection.ParseMethod(r.SamplingMethod)
	if err != nil {
		return Config{}, err
	}
	if !(r.TestSize > 0 && r.TestSize < 1) {
		return Config{}, errors.NewConfigError("test_size", r.TestSize, "must be in (0, 1)")
	}
	cfg.Split = SplitConfig{Method: method, Seed: r.Seed, TestSize: r.TestSize}

	if cfg.Algorithm, err = ParseAlgorithm(r.Algo); err != nil {
		return Config{}, err
	}
	switch cfg.Lasso.Selection = strings.ToLower(strings.TrimSpace(r.Lasso.Selection)); cfg.Lasso.Selection {
	case "cyclic", "random":
	default:
		return Config{}, errors.NewConfigError("linear-lasso.selection", r.Lasso.Selection, "must be cyclic or random")
	}

	num, err := preprocessing.ParseStrategy(r.NumImpute)
	if err != nil {
		return Config{}, errors.NewConfigError("num_impute", r.NumImpute, "must be one of mean, median, most_frequent, constant")
	}
	cat, err := preprocessing.ParseStrategy(r.CatImpute)
	if err != nil {
		return Config{}, errors.NewConfigError("cat_impute", r.CatImpute, "must be most_frequent or constant")
	}
	cfg.Impute = preprocessing.ImputerOptions{
		NumStrategy: num,
		CatStrategy: cat,
		NumConstant: r.NumConstant,
		CatConstant: r.CatConstant,
	}
	if err := cfg.Impute.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.Store.Kind, err = ParseStoreKind(r.ArtifactStore); err != nil {
		return Config{}, err
	}
	cfg.Store.BoltPath = r.BoltPath
	if cfg.Store.Kind == BoltStore && cfg.Store.BoltPath == "" {
		return Config{}, errors.NewConfigError("bolt_path", r.BoltPath, "required when artifact_store is bolt")
	}

	if _, err := log.ParseLogLevel(r.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
