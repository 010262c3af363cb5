package fetcher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Fallback wraps the live client with the mock fetcher and reports which
// source actually served each request. In forced-mock mode the live client is
// never consulted.
type Fallback struct {
	live      PriceFetcher
	mock      PriceFetcher
	forceMock bool
	logger    zerolog.Logger
}

// NewFallback composes the live and mock fetchers.
func NewFallback(live, mock PriceFetcher, forceMock bool, logger zerolog.Logger) *Fallback {
	return &Fallback{
		live:      live,
		mock:      mock,
		forceMock: forceMock,
		logger:    logger.With().Str("component", "fetch_fallback").Logger(),
	}
}

// Prices fetches a current-price snapshot, falling back to the mock sample on
// live failure.
func (f *Fallback) Prices(ctx context.Context, coins []string, currency string) (map[string]decimal.Decimal, Source, error) {
	if f.forceMock {
		prices, err := f.mock.FetchPrices(ctx, coins, currency)
		return prices, SourceMock, err
	}

	prices, err := f.live.FetchPrices(ctx, coins, currency)
	if err == nil {
		return prices, SourceLive, nil
	}
	f.logger.Warn().Err(err).Msg("live price fetch failed, using mock sample")

	prices, mockErr := f.mock.FetchPrices(ctx, coins, currency)
	if mockErr != nil {
		return nil, SourceMock, fmt.Errorf("mock fallback after live failure: %w", mockErr)
	}
	return prices, SourceMock, nil
}

// MarketChart fetches a per-day historical series with the same fallback
// behaviour as Prices.
func (f *Fallback) MarketChart(ctx context.Context, coin string, days int, currency string) (map[string]decimal.Decimal, Source, error) {
	if f.forceMock {
		chart, err := f.mock.FetchMarketChart(ctx, coin, days, currency)
		return chart, SourceMock, err
	}

	chart, err := f.live.FetchMarketChart(ctx, coin, days, currency)
	if err == nil {
		return chart, SourceLive, nil
	}
	f.logger.Warn().Err(err).Str("coin", coin).Msg("live chart fetch failed, using mock sample")

	chart, mockErr := f.mock.FetchMarketChart(ctx, coin, days, currency)
	if mockErr != nil {
		return nil, SourceMock, fmt.Errorf("mock fallback after live failure: %w", mockErr)
	}
	return chart, SourceMock, nil
}

// TodayRange fetches today's price extremes with the same fallback behaviour
// as Prices.
func (f *Fallback) TodayRange(ctx context.Context, coin, currency string) (Range, Source, error) {
	if f.forceMock {
		r, err := f.mock.FetchTodayRange(ctx, coin, currency)
		return r, SourceMock, err
	}

	r, err := f.live.FetchTodayRange(ctx, coin, currency)
	if err == nil {
		return r, SourceLive, nil
	}
	f.logger.Warn().Err(err).Str("coin", coin).Msg("live range fetch failed, using mock sample")

	r, mockErr := f.mock.FetchTodayRange(ctx, coin, currency)
	if mockErr != nil {
		return Range{}, SourceMock, fmt.Errorf("mock fallback after live failure: %w", mockErr)
	}
	return r, SourceMock, nil
}
