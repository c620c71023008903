package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsAnalyzer/internal/app"
	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
	"NewsAnalyzer/internal/report"
)

const (
	exitAborted = 130
	exitFailed  = 1
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl, embed and cluster news articles",
	Long: `Run performs one analysis: it fetches the requested number of search result
pages, extracts each unique article, optionally trains the model further on
the collected text, embeds every article and groups them into clusters.

Interrupting the command (Ctrl+C) stops the run; requests already in flight
finish first and the report shows "Stopped!".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		format, _ := cmd.Flags().GetString("format")
		writer, err := report.New(report.Format(format), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := application.Close(); err != nil {
				logger.Warn("close application", "error", err)
			}
		}()

		query, err := application.Query()
		if err != nil {
			return err
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		var (
			observer ports.ProgressObserver
			bars     *barObserver
		)
		if !quiet {
			bars = newBarObserver(cmd.ErrOrStderr())
			observer = bars
		}

		logger.Info("run started", "terms", query.Terms(), "pages", query.Pages)
		res := application.Run(ctx, query, observer)
		if bars != nil {
			bars.Wait()
		}

		if err := writer.Write(report.Report{
			ID:       res.ID,
			Query:    query,
			Status:   res.Status,
			Err:      res.Err,
			Articles: res.Articles,
			Clusters: res.Clusters,
		}); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		switch res.Status {
		case domain.StatusAborted:
			return &exitError{code: exitAborted}
		case domain.StatusFailed:
			return &exitError{code: exitFailed}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("include", "i", "", "keywords to search for (comma-separated)")
	runCmd.Flags().StringP("exclude", "x", "", "keywords to exclude (comma-separated)")
	runCmd.Flags().IntP("pages", "p", 0, "number of result pages to crawl")
	runCmd.Flags().StringP("model", "m", "", "word-vector model path")
	runCmd.Flags().Bool("train", false, "train the model on the collected articles before embedding")
	runCmd.Flags().String("trained-model", "", "save the trained model under this name")
	runCmd.Flags().Int("min-cluster-size", 0, "smallest group reported as a cluster")
	runCmd.Flags().Int("min-samples", 0, "neighbours used for core distances (default: min-cluster-size)")
	runCmd.Flags().Bool("no-archive", false, "do not record the run in the archive")
	runCmd.Flags().StringP("format", "f", string(report.FormatText), "report format: text, json or markdown")
	runCmd.Flags().BoolP("quiet", "q", false, "hide progress bars")

	bindFlag("keywords.include", runCmd.Flags().Lookup("include"))
	bindFlag("keywords.exclude", runCmd.Flags().Lookup("exclude"))
	bindFlag("search.pages", runCmd.Flags().Lookup("pages"))
	bindFlag("embedding.model-path", runCmd.Flags().Lookup("model"))
	bindFlag("embedding.train", runCmd.Flags().Lookup("train"))
	bindFlag("embedding.trained-model", runCmd.Flags().Lookup("trained-model"))
	bindFlag("clustering.min-cluster-size", runCmd.Flags().Lookup("min-cluster-size"))
	bindFlag("clustering.min-samples", runCmd.Flags().Lookup("min-samples"))
	bindFlag("archive.disabled", runCmd.Flags().Lookup("no-archive"))

	rootCmd.AddCommand(runCmd)
}

// signalContext is cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
