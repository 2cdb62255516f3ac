package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <product_id>",
	Short: "Enrich a product by ID with AI generated content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("无效的商品 id: %s", args[0])
		}

		app, err := initApp()
		if err != nil {
			return err
		}

		content, err := app.Sync.EnrichOne(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(content)
	},
}
