package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"crypto-price-tracker/internal/app"
)

var (
	exportCoin    string
	exportDays    int
	exportCSVPath string
	exportPNGPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a coin's series as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCoin == "" {
			return fmt.Errorf("--coin must be provided")
		}

		opts := app.ExportOptions{
			Coin:    exportCoin,
			Days:    exportDays,
			CSVPath: exportCSVPath,
			PNGPath: exportPNGPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCoin, "coin", "", "Coin to export")
	exportCmd.Flags().IntVar(&exportDays, "days", 0, "Trailing days to export (defaults to config)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart (defaults to plots dir)")
}
