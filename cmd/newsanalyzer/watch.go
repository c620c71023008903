package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"NewsAnalyzer/internal/app"
	"NewsAnalyzer/internal/report"
	"NewsAnalyzer/internal/usecase"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Repeat the analysis on a fixed interval",
	Long: `Watch runs the configured query immediately and then once per interval,
writing a report after every run. Runs never overlap. Interrupt to stop;
the run in progress ends as "Stopped!". The query comes from the config
file and NEWSANALYZER_* variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		every, _ := cmd.Flags().GetDuration("every")
		format, _ := cmd.Flags().GetString("format")
		writer, err := report.New(report.Format(format), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = application.Close() }()

		query, err := application.Query()
		if err != nil {
			return err
		}

		schedule := application.Schedule(every, query, func(_ time.Time, res usecase.Result) {
			if err := writer.Write(report.Report{
				ID:       res.ID,
				Query:    query,
				Status:   res.Status,
				Err:      res.Err,
				Articles: res.Articles,
				Clusters: res.Clusters,
			}); err != nil {
				logger.Warn("write report", "run", res.ID, "error", err)
			}
		})

		logger.Info("watch started", "terms", query.Terms(), "every", every)
		if err := schedule.Start(ctx); err != nil {
			return fmt.Errorf("start schedule: %w", err)
		}

		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := schedule.Stop(stopCtx); err != nil {
			return fmt.Errorf("stop schedule: %w", err)
		}
		logger.Info("watch stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("every", time.Hour, "interval between runs")
	watchCmd.Flags().StringP("format", "f", string(report.FormatText), "report format: text, json or markdown")

	rootCmd.AddCommand(watchCmd)
}
