package fetcher

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source identifies which path produced a fetch result. Callers observe
// fallbacks instead of having them masked.
type Source string

const (
	// SourceLive marks data served by the remote price API.
	SourceLive Source = "live"
	// SourceMock marks data served by the local mock sample.
	SourceMock Source = "mock"
)

// Range holds a single day's observed price extremes.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// PriceFetcher retrieves current and historical prices keyed by canonical
// lowercase coin identifiers.
type PriceFetcher interface {
	// FetchPrices returns one current price per requested coin.
	FetchPrices(ctx context.Context, coins []string, currency string) (map[string]decimal.Decimal, error)
	// FetchMarketChart returns the coin's last price per UTC day over the
	// trailing days, keyed by ISO calendar date.
	FetchMarketChart(ctx context.Context, coin string, days int, currency string) (map[string]decimal.Decimal, error)
	// FetchTodayRange returns today's min and max price for the coin.
	FetchTodayRange(ctx context.Context, coin, currency string) (Range, error)
}
