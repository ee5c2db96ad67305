package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ricesearch/rice-eval/internal/bus"
	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/dataset"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/history"
	"github.com/ricesearch/rice-eval/internal/index"
	"github.com/ricesearch/rice-eval/internal/metrics"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/report"
	"github.com/ricesearch/rice-eval/internal/runner"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every configured analyzer",
		Long: `Load the queries and relevance judgments, then for each analyzer
configuration build an index of the document collection, run every query
and print the effectiveness metrics.

Configurations that cannot be built are reported on stderr and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("workers") {
				cfg.Eval.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Metrics.File, _ = cmd.Flags().GetString("metrics-file")
			}
			names, _ := cmd.Flags().GetStringSlice("analyzer")
			if err := cfg.SelectAnalyzers(names); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			noProgress, _ := cmd.Flags().GetBool("no-progress")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runEvaluation(ctx, cmd, cfg, log, format, !noProgress)
		},
	}

	cmd.Flags().Int("workers", 1, "concurrent queries per analyzer")
	cmd.Flags().StringSlice("analyzer", nil, "evaluate only these analyzers (repeatable)")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runEvaluation(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *logger.Logger, format string, showProgress bool) error {
	renderer, err := report.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ds, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return err
	}
	if err := renderer.Dataset(dataset.ComputeStats(ds.Queries, ds.Qrels)); err != nil {
		return err
	}

	exporter := metrics.NewExporter()

	eventBus, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		return err
	}
	eventBus = bus.NewInstrumentedBus(eventBus, exporter)
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.WithError(err).Warn("Failed to close event bus")
		}
	}()
	if err := runner.SubscribeLogger(ctx, eventBus, log); err != nil {
		log.WithError(err).Warn("Failed to subscribe event logger")
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []runner.Option{
		runner.WithBus(eventBus),
		runner.WithHistory(store),
		runner.WithExporter(exporter),
		runner.WithLogger(log),
	}
	if showProgress && format != report.FormatJSON {
		opts = append(opts, runner.WithProgress(newProgressBar))
	}

	var renderErr error
	opts = append(opts, runner.WithOutcomeHandler(func(o runner.Outcome) {
		if err := renderer.Outcome(o); err != nil && renderErr == nil {
			renderErr = err
		}
	}))

	r := runner.New(runner.Config{
		Documents: cfg.Dataset.Documents,
		Analyzers: cfg.Analyzers,
		Scorer:    evaluation.Scorer{RPrecision: rPrecisionMode(cfg.Eval.RPrecision)},
		Workers:   cfg.Eval.Workers,
	}, runner.BlugeProvider{Provider: index.NewProvider(cfg.Search.MaxResults, log)}, opts...)

	if _, err := r.Run(ctx, ds); err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}

	if cfg.Metrics.File != "" {
		if err := exporter.WriteFile(cfg.Metrics.File); err != nil {
			log.WithError(err).Warn("Failed to write metrics file", "path", cfg.Metrics.File)
		}
	}

	if err := renderer.Close(); err != nil {
		return err
	}
	return renderErr
}

func rPrecisionMode(mode string) evaluation.RPrecisionMode {
	if mode == config.RPrecisionStrict {
		return evaluation.RPrecisionStrict
	}
	return evaluation.RPrecisionLastRank
}

// progressBar reports query progress on stderr.
type progressBar struct {
	*progressbar.ProgressBar
}

func newProgressBar(analyzer string, queries int) runner.Progress {
	return progressBar{progressbar.NewOptions(queries,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(analyzer),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)}
}
