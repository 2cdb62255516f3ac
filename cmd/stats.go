package main

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initApp()
		if err != nil {
			return err
		}

		stats, err := app.Sync.Stats()
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}
