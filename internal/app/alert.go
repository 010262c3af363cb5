package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/alerting"
	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/storage"
)

// AlertCheckOptions configure a drop-check sweep.
type AlertCheckOptions struct {
	Coins     []string
	Threshold float64
}

// CheckAlerts runs the drop check and prints any fired alerts.
func (a *App) CheckAlerts(ctx context.Context, opts AlertCheckOptions) error {
	coins := config.NormalizeCoins(opts.Coins)
	if len(coins) == 0 {
		coins = a.Config.Tracker.Coins
	}

	threshold := decimal.NewFromFloat(a.Config.Alerting.Threshold)
	if opts.Threshold > 0 {
		threshold = decimal.NewFromFloat(opts.Threshold)
	}

	store := a.newStore()
	evaluator := alerting.NewEvaluator(store, a.newAlertLog(), a.Logger)
	notifier := a.newNotifier()

	for _, coin := range coins {
		record, err := evaluator.CheckFluctuation(coin, threshold)
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Fprintf(os.Stdout, "no alert for %s\n", coin)
			continue
		}

		fmt.Fprintf(os.Stdout, "ALERT %s: %s -> %s (drop %s%%)\n",
			record.Coin,
			record.PreviousPrice.String(),
			record.CurrentPrice.String(),
			record.DropPct.Mul(decimal.NewFromInt(100)).StringFixed(2),
		)

		if notifier != nil {
			note := alerting.Notification{Record: *record, Threshold: threshold}
			if err := notifier.Notify(ctx, note); err != nil {
				a.Logger.Error().Err(err).Str("coin", coin).Msg("failed to dispatch alert")
			}
		}
	}
	return nil
}

// AlertListOptions configure the alert listing.
type AlertListOptions struct {
	Limit int
}

// ListAlerts prints the most recent persisted alerts.
func (a *App) ListAlerts(ctx context.Context, opts AlertListOptions) error {
	records, err := a.newAlertLog().List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts recorded")
		return nil
	}

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[len(records)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tCoin\tPrevious\tCurrent\tDrop%")
	for _, rec := range records {
		printAlertRow(writer, rec)
	}
	writer.Flush()
	return nil
}

func printAlertRow(writer *tabwriter.Writer, rec storage.AlertRecord) {
	fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Coin,
		rec.PreviousPrice.StringFixed(4),
		rec.CurrentPrice.StringFixed(4),
		rec.DropPct.Mul(decimal.NewFromInt(100)).StringFixed(2),
	)
}
