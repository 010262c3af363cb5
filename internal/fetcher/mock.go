package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Mock serves prices from a local JSON sample file mapping coin to price. A
// missing sample file degrades to zero prices rather than failing.
type Mock struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewMock constructs a mock fetcher over the given sample path.
func NewMock(path string, logger zerolog.Logger) *Mock {
	return &Mock{
		path:   path,
		logger: logger.With().Str("component", "mock_fetcher").Logger(),
		now:    time.Now,
	}
}

// FetchPrices returns the sampled price per coin.
func (m *Mock) FetchPrices(ctx context.Context, coins []string, currency string) (map[string]decimal.Decimal, error) {
	return m.read(coins)
}

// FetchMarketChart synthesises a flat history of the sampled price over the
// trailing days ending today.
func (m *Mock) FetchMarketChart(ctx context.Context, coin string, days int, currency string) (map[string]decimal.Decimal, error) {
	prices, err := m.read([]string{coin})
	if err != nil {
		return nil, err
	}

	value := prices[coin]
	today := m.now().UTC()
	out := make(map[string]decimal.Decimal, days)
	for i := 0; i < days; i++ {
		out[today.AddDate(0, 0, -i).Format(dateLayout)] = value
	}
	return out, nil
}

// FetchTodayRange returns the sampled price as both extremes.
func (m *Mock) FetchTodayRange(ctx context.Context, coin, currency string) (Range, error) {
	prices, err := m.read([]string{coin})
	if err != nil {
		return Range{}, err
	}
	return Range{Min: prices[coin], Max: prices[coin]}, nil
}

func (m *Mock) read(coins []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(coins))

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			for _, coin := range coins {
				out[coin] = decimal.Zero
			}
			return out, nil
		}
		return nil, fmt.Errorf("read mock sample: %w", err)
	}

	var payload map[string]decimal.Decimal
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse mock sample: %w", err)
	}

	for _, coin := range coins {
		out[coin] = payload[coin]
	}
	return out, nil
}

var _ PriceFetcher = (*Mock)(nil)
