package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ricesearch/rice-eval/internal/analyzer"
	"github.com/ricesearch/rice-eval/internal/bus"
	"github.com/ricesearch/rice-eval/internal/dataset"
	"github.com/ricesearch/rice-eval/internal/history"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/report"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print query and relevance judgment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ds, err := dataset.Load(cfg.Dataset)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			r, err := report.New(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := r.Dataset(dataset.ComputeStats(ds.Queries, ds.Qrels)); err != nil {
				return err
			}
			return r.Close()
		},
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze TEXT",
		Short: "Print the terms an analyzer produces for TEXT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("analyzer")
			ac, ok := cfg.Analyzer(name)
			if !ok {
				return errors.NotFoundError(fmt.Sprintf("analyzer %q", name))
			}

			var stopwords []string
			if cfg.Dataset.Stopwords != "" {
				if stopwords, err = dataset.LoadStopwords(cfg.Dataset.Stopwords); err != nil {
					return err
				}
			}

			a, err := analyzer.Build(ac, stopwords)
			if err != nil {
				return err
			}

			terms := analyzer.Terms(a, strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if format, _ := cmd.Flags().GetString("format"); format == report.FormatJSON {
				if terms == nil {
					terms = []string{}
				}
				return json.NewEncoder(out).Encode(terms)
			}
			for _, t := range terms {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringP("analyzer", "a", "English", "analyzer configuration name")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past evaluation results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// A memory store only lives as long as the process that filled it.
			if strings.EqualFold(cfg.History.Type, "memory") {
				return errors.ValidationError("history.type memory keeps results for a single run only, use redis to list past runs")
			}

			store, err := history.NewStore(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			name, _ := cmd.Flags().GetString("analyzer")
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := store.List(cmd.Context(), name, limit)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			return report.WriteHistory(cmd.OutOrStdout(), format, entries)
		},
	}

	cmd.Flags().StringP("analyzer", "a", "", "only this analyzer")
	cmd.Flags().IntP("limit", "n", 20, "maximum number of entries")
	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Bus.EventLog == "" {
				return errors.ValidationError("bus.event_log is not configured")
			}

			filter := bus.EventFilter{}
			filter.RunID, _ = cmd.Flags().GetString("run")
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			events, err := bus.ReadEvents(cfg.Bus.EventLog, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format, _ := cmd.Flags().GetString("format"); format == report.FormatJSON {
				enc := json.NewEncoder(out)
				for _, e := range events {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				return nil
			}
			for _, e := range events {
				payload, _ := json.Marshal(e.Event.Payload)
				fmt.Fprintf(out, "%s  %-22s  %s  %s\n",
					e.Timestamp.Local().Format(time.DateTime), e.Topic, e.Event.RunID, payload)
			}
			return nil
		},
	}

	cmd.Flags().String("run", "", "only events of this run ID")
	cmd.Flags().IntP("limit", "n", 0, "maximum number of events (0 = all)")
	cmd.Flags().Duration("since", 0, "only events newer than this (e.g. 24h)")
	return cmd
}
