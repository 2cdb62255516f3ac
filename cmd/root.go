package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"woosync_v1_202608/internal/config"
	"woosync_v1_202608/internal/validation"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "productsync",
	Short: "WooCommerce Product Sync & Enrichment CLI",
	Long: `Sync products from a WooCommerce catalog into a local CSV store,
enrich individual records with AI generated listing copy, and push
validated changes back upstream.

Configuration is read from productsync.yaml (or --config) with
PRODUCTSYNC_* environment variable overrides.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./productsync.yaml)")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(serveCmd)
}

// printJSON 命令结果统一 JSON 输出
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// validationLimits 配置段 -> 校验器限制
func validationLimits(cfg *config.LimitsConfig) validation.Limits {
	return validation.Limits{
		TitleMax:     cfg.TitleMax,
		ShortDescMax: cfg.ShortDescMax,
		DescMax:      cfg.DescMax,
		KeywordsMax:  cfg.KeywordsMax,
	}
}
