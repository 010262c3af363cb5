package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/config"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Coin string
	Days int
}

// Show prints a coin's recent series with its moving average and KPIs.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	coin := config.NormalizeCoin(opts.Coin)
	days := opts.Days
	if days <= 0 {
		days = a.Config.Tracker.SeriesDays
	}

	analyzer := a.newAnalyzer()

	series, err := analyzer.Series(coin, days)
	if err != nil {
		return err
	}
	if len(series.Dates) == 0 {
		fmt.Fprintf(os.Stdout, "no data for %s\n", coin)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tPrice\t7d MA")
	for i := range series.Dates {
		fmt.Fprintf(writer, "%s\t%s\t%s\n",
			series.Dates[i],
			formatNullDecimal(series.Price[i]),
			formatNullDecimal(series.MA7[i]),
		)
	}
	writer.Flush()

	kpis, err := analyzer.KPIs(coin)
	if err != nil {
		return err
	}
	if kpis.LastPrice.Valid {
		fmt.Fprintf(os.Stdout, "last price: %s\n", kpis.LastPrice.Decimal.StringFixed(4))
	}
	if kpis.ChangePct1D.Valid {
		pct := kpis.ChangePct1D.Decimal.Mul(decimal.NewFromInt(100))
		fmt.Fprintf(os.Stdout, "1d change: %s%%\n", pct.StringFixed(2))
	}
	return nil
}

func formatNullDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.StringFixed(4)
}
