// Package housing predicts median house values for California census
// block groups.
//
// The module is organised as a small batch pipeline plus an HTTP scorer:
//
//	fetch -> split -> impute -> generate features -> one-hot encode
//	      -> train -> persist -> score -> evaluate
//
// Each stage lives in its own package:
//
//   - config: YAML/environment configuration loaded with viper
//   - dataset: column-typed frames with CSV input and output
//   - selection: stratified and random train/test splitting
//   - preprocessing: imputation, derived ratio features and one-hot encoding
//   - linear, tree, ensemble: Ridge, Lasso, CART and random forest regressors
//   - metrics: R², median absolute error, MAPE, WMAPE and RMSE
//   - artifact: versioned artifact storage on disk or in bbolt
//   - pipeline: the prepare, train, score and evaluate drivers
//   - report: exploratory statistics and plots of the training data
//   - server: the gin-based prediction endpoint
//
// # Quick Start
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := log.NewZerologProvider(log.ToLogLevel(cfg.LogLevel), os.Stdout)
//	stores, err := artifact.Open(cfg.Store, cfg.Paths)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stores.Close()
//
//	runner := pipeline.NewRunner(cfg, stores, provider.GetLoggerWithName("pipeline"))
//	rep, err := runner.Evaluate(ctx)
//
// The same steps are available from the command line:
//
//	housing -config config.yaml evaluate
//	housing -config config.yaml serve
//
// # Error Handling
//
// Failures are returned as typed errors from pkg/errors (ConfigError,
// SchemaError, ArtifactNotFoundError, DimensionError, ...). Non-fatal
// conditions such as solver non-convergence are reported as warnings
// through the structured logger.
package housing
