package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"NewsAnalyzer/internal/app"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = application.Close() }()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := application.History(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tPAGES\tARTICLES\tCLUSTERS\tTERMS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status,
				r.Pages, r.ArticleCount, r.ClusterCount, r.Terms)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
