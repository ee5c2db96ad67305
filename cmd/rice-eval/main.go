package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	run := runCmd()

	root := &cobra.Command{
		Use:   "rice-eval",
		Short: "Rice Eval - retrieval effectiveness evaluation",
		Long: `Rice Eval indexes a document collection once per analyzer configuration,
runs a fixed query set against every index and scores the rankings against
relevance judgments (precision, recall, F-measure, MAP, R-Precision and the
11-point interpolated precision curve).

Run 'rice-eval' or 'rice-eval run' to evaluate every configured analyzer.
Run 'rice-eval --help' for available commands.`,
		SilenceUsage: true,
		RunE:         run.RunE,
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file path")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	root.PersistentFlags().String("format", "text", "output format (text, json)")

	// The root command runs an evaluation, so it accepts the run flags too.
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(
		run,
		statsCmd(),
		analyzeCmd(),
		historyCmd(),
		eventsCmd(),
		versionCmd(),
	)

	return root
}

// loadConfig loads the configuration named by --config and applies --verbose.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rice-eval %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
