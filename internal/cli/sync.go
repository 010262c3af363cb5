package cli

import (
	"github.com/spf13/cobra"

	"crypto-price-tracker/internal/app"
)

var (
	syncCoins []string
	syncDays  int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge per-day price history into the price table",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SyncOptions{
			Coins: syncCoins,
			Days:  syncDays,
		}
		return getApp().Sync(cmd.Context(), opts)
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncCoins, "coins", nil, "Coins to sync (defaults to configured list)")
	syncCmd.Flags().IntVar(&syncDays, "days", 0, "Days of history to sync (defaults to config)")
}
