package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"crypto-price-tracker/internal/app"
)

var (
	showCoin string
	showDays int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a coin's series, moving average, and KPIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showCoin == "" {
			return fmt.Errorf("--coin must be provided")
		}

		opts := app.ShowOptions{
			Coin: showCoin,
			Days: showDays,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showCoin, "coin", "", "Coin to display")
	showCmd.Flags().IntVar(&showDays, "days", 0, "Trailing days to display (defaults to config)")
}
