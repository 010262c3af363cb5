package cli

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch current prices and append them to the price table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Fetch(cmd.Context())
	},
}
