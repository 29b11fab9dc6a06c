package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	searchQuery string
	searchPages int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Discover and enrich developer profiles for a query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		pages := searchPages
		if pages <= 0 {
			pages = cfg.Scheduler.SearchPages
		}

		records, err := env.Pipeline.Run(ctx, searchQuery, pages)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		enriched := 0
		for _, r := range records {
			if r.Insight != nil && !r.Insight.Failed() {
				enriched++
			}
		}
		zap.L().Info("search complete",
			zap.String("query", searchQuery),
			zap.Int("profiles", len(records)),
			zap.Int("enriched", enriched),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "search term (required)")
	searchCmd.Flags().IntVar(&searchPages, "pages", 0, "search pages to fetch (default from config)")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}
