// Command housing runs the housing value pipeline.
//
// Usage:
//
//	housing [-config config.yaml] <command> [flags]
//
// Commands:
//
//	prepare   fetch, split and preprocess; write train/test partitions
//	train     prepare, then fit and persist the configured model
//	score     predict a CSV of observations (-input, -preproc) to stdout
//	evaluate  prepare, train and print train/test performance as JSON
//	eda       prepare and write the exploratory report to report_path
//	serve     load the version's artifacts and serve POST /predict
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/artifact"
	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
	"github.com/YuminosukeSato/housing/pipeline"
	"github.com/YuminosukeSato/housing/report"
	"github.com/YuminosukeSato/housing/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "housing:", err)
		os.Exit(1)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "usage: housing [-config file] <prepare|train|score|evaluate|eda|serve> [flags]\n")
		fs.PrintDefaults()
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("housing", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file; empty uses defaults and HOUSING_* variables")
	fs.Usage = usage(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	provider := log.NewZerologProvider(log.ToLogLevel(cfg.LogLevel), os.Stderr)
	logger := provider.GetLoggerWithName("housing").With(cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := artifact.Open(cfg.Store, cfg.Paths)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stores.Close(); cerr != nil {
			logger.Error("closing artifact store", cerr)
		}
	}()
	runner := pipeline.NewRunner(cfg, stores, provider.GetLoggerWithName("pipeline"))

	switch command {
	case "prepare":
		_, _, err := runner.Prepare(ctx)
		return err

	case "train":
		train, _, err := runner.Prepare(ctx)
		if err != nil {
			return err
		}
		_, err = runner.Train(train)
		return err

	case "score":
		return score(runner, rest, stdout)

	case "evaluate":
		rep, err := runner.Evaluate(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(rep), "encode report")

	case "eda":
		train, _, err := runner.Prepare(ctx)
		if err != nil {
			return err
		}
		res, err := report.Generate(train, cfg.Paths.ReportPath, provider.GetLoggerWithName("report"))
		if err != nil {
			return err
		}
		return printEDA(stdout, res)

	case "serve":
		scorer, err := pipeline.LoadScorer(stores.Models, cfg.Version)
		if err != nil {
			return err
		}
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := server.NewRouter(scorer, provider.GetLoggerWithName("server"))
		return server.Serve(ctx, cfg.ServerAddr, router, logger)

	default:
		fs.Usage()
		return errors.Newf("unknown command %q", command)
	}
}

func score(runner *pipeline.Runner, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	input := fs.String("input", "", "CSV file of observations (required)")
	preproc := fs.Bool("preproc", false, "rows are already imputed and one-hot encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.NewConfigError("input", "", "score needs -input")
	}

	fh, err := os.Open(*input)
	if err != nil {
		return errors.Wrapf(err, "open %s", *input)
	}
	defer fh.Close()
	X, err := dataset.ReadCSV(fh)
	if err != nil {
		return errors.Wrapf(err, "read %s", *input)
	}

	yHat, err := runner.Score(X.Drop(housing.Target), *preproc)
	if err != nil {
		return err
	}
	out, err := dataset.New(dataset.NewNumeric("prediction", yHat))
	if err != nil {
		return err
	}
	return out.WriteCSV(stdout)
}

func printEDA(w io.Writer, res *report.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	t := res.Target
	fmt.Fprintf(tw, "%s\n", housing.Target)
	fmt.Fprintf(tw, "count\t%d\nmean\t%.4f\nstd\t%.4f\nmin\t%.4f\n25%%\t%.4f\n50%%\t%.4f\n75%%\t%.4f\nmax\t%.4f\n\n",
		t.Count, t.Mean, t.Std, t.Min, t.Q25, t.Median, t.Q75, t.Max)
	fmt.Fprintf(tw, "correlation with %s\n", housing.Target)
	for _, c := range res.Correlations {
		fmt.Fprintf(tw, "%s\t%.6f\n", c.Column, c.R)
	}
	for _, f := range res.Files {
		fmt.Fprintf(tw, "\nwrote %s", f)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}
