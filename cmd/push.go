package main

import (
	"github.com/spf13/cobra"
)

var pushLimit int

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push pending enriched changes back to WooCommerce (requires push.enabled=true)",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initApp()
		if err != nil {
			return err
		}

		pushed, err := app.Sync.PushPending(cmd.Context(), pushLimit)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"pushed": pushed})
	},
}

func init() {
	pushCmd.Flags().IntVar(&pushLimit, "limit", 10, "max products to push in this run")
}
