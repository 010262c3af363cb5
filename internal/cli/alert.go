package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"crypto-price-tracker/internal/app"
)

var (
	alertCheckCoins     []string
	alertCheckThreshold float64
	alertListLimit      int
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Inspect and trigger drop alerts",
}

var alertCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the drop check against the stored series",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertCheckThreshold < 0 {
			return fmt.Errorf("--threshold cannot be negative")
		}

		opts := app.AlertCheckOptions{
			Coins:     alertCheckCoins,
			Threshold: alertCheckThreshold,
		}
		return getApp().CheckAlerts(cmd.Context(), opts)
	},
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertListLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.AlertListOptions{
			Limit: alertListLimit,
		}
		return getApp().ListAlerts(cmd.Context(), opts)
	},
}

func init() {
	alertCheckCmd.Flags().StringSliceVar(&alertCheckCoins, "coins", nil, "Coins to check (defaults to configured list)")
	alertCheckCmd.Flags().Float64Var(&alertCheckThreshold, "threshold", 0, "Drop threshold as a fraction, e.g. 0.10 (defaults to config)")

	alertListCmd.Flags().IntVar(&alertListLimit, "limit", 20, "Number of alerts to display")

	alertCmd.AddCommand(alertCheckCmd)
	alertCmd.AddCommand(alertListCmd)
}
