package main

import (
	"github.com/spf13/cobra"
)

var syncPages int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch products from WooCommerce and merge into the local CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initApp()
		if err != nil {
			return err
		}

		total, err := app.Sync.Sync(cmd.Context(), syncPages)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"synced": total})
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncPages, "pages", 1, "number of pages to fetch")
}
