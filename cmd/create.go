package main

import (
	"github.com/spf13/cobra"

	"woosync_v1_202608/internal/service"
)

var (
	createPrice     string
	createDesc      string
	createShortDesc string
	createImages    []string
	createStatus    string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a product in WooCommerce and add it to the local CSV",
	Long: `Create a new product upstream and immediately merge the returned
record into the local store. Price must be a decimal string per the
WooCommerce API, e.g. "19.99".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initApp()
		if err != nil {
			return err
		}

		created, err := app.Sync.CreateProduct(cmd.Context(), service.CreateProductInput{
			Name:             args[0],
			Price:            createPrice,
			Description:      createDesc,
			ShortDescription: createShortDesc,
			Images:           createImages,
			Status:           createStatus,
		})
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

func init() {
	createCmd.Flags().StringVar(&createPrice, "price", "", "regular price as decimal string (required)")
	createCmd.Flags().StringVar(&createDesc, "description", "", "product description")
	createCmd.Flags().StringVar(&createShortDesc, "short-description", "", "product short description")
	createCmd.Flags().StringSliceVar(&createImages, "image", nil, "image URL (repeatable)")
	createCmd.Flags().StringVar(&createStatus, "status", "draft", "product status: draft|publish")
	_ = createCmd.MarkFlagRequired("price")
}
