package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var requestsLimit int

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List stored search requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		requests, err := st.ListRequests(ctx, requestsLimit)
		if err != nil {
			return eris.Wrap(err, "list requests")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(requests)
	},
}

func init() {
	requestsCmd.Flags().IntVar(&requestsLimit, "limit", 20, "maximum requests to list (0 = all)")
	rootCmd.AddCommand(requestsCmd)
}
