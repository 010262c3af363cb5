package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	simplePricePath = "/simple/price"
	dateLayout      = "2006-01-02"

	// Two retries on top of the initial attempt, mirroring the upstream
	// client's three-attempt policy.
	fetchRetries = 2
)

// Options parameterise the live price API client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches prices from a CoinGecko-compatible HTTP API.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a live price API client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "price_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchPrices retrieves one current price per coin; coins the API does not
// know map to zero.
func (c *Client) FetchPrices(ctx context.Context, coins []string, currency string) (map[string]decimal.Decimal, error) {
	if len(coins) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	currency = strings.ToLower(currency)
	ids := append([]string(nil), coins...)
	sort.Strings(ids)

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", currency)

	var payload map[string]map[string]decimal.Decimal
	if err := c.getJSON(ctx, c.baseURL+simplePricePath, query, &payload); err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(coins))
	for _, coin := range coins {
		out[coin] = payload[coin][currency]
	}
	return out, nil
}

// FetchMarketChart collapses the API's intraday price pairs to the last price
// per UTC day, keyed by ISO calendar date.
func (c *Client) FetchMarketChart(ctx context.Context, coin string, days int, currency string) (map[string]decimal.Decimal, error) {
	points, err := c.fetchChart(ctx, coin, days, currency)
	if err != nil {
		return nil, err
	}

	perDay := make(map[string]decimal.Decimal, days)
	for _, point := range points {
		perDay[point.TS.UTC().Format(dateLayout)] = point.Price
	}
	return perDay, nil
}

// FetchTodayRange returns today's min and max over the 1-day chart; an empty
// chart yields zeros.
func (c *Client) FetchTodayRange(ctx context.Context, coin, currency string) (Range, error) {
	points, err := c.fetchChart(ctx, coin, 1, currency)
	if err != nil {
		return Range{}, err
	}
	if len(points) == 0 {
		return Range{}, nil
	}

	min := points[0].Price
	max := points[0].Price
	for _, point := range points[1:] {
		if point.Price.LessThan(min) {
			min = point.Price
		}
		if point.Price.GreaterThan(max) {
			max = point.Price
		}
	}
	return Range{Min: min, Max: max}, nil
}

type chartPoint struct {
	TS    time.Time
	Price decimal.Decimal
}

func (c *Client) fetchChart(ctx context.Context, coin string, days int, currency string) ([]chartPoint, error) {
	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(currency))
	query.Set("days", strconv.Itoa(days))

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, url.PathEscape(coin))

	var payload struct {
		Prices [][]json.Number `json:"prices"`
	}
	if err := c.getJSON(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}

	points := make([]chartPoint, 0, len(payload.Prices))
	for _, pair := range payload.Prices {
		if len(pair) < 2 {
			continue
		}
		tsMs, err := pair[0].Float64()
		if err != nil {
			return nil, fmt.Errorf("parse chart timestamp: %w", err)
		}
		price, err := decimal.NewFromString(pair[1].String())
		if err != nil {
			return nil, fmt.Errorf("parse chart price: %w", err)
		}
		points = append(points, chartPoint{TS: time.UnixMilli(int64(tsMs)), Price: price})
	}
	return points, nil
}

// getJSON performs a GET with exponential-backoff retries. Client errors other
// than 429 are permanent.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.URL.RawQuery = query.Encode()
		req.Header.Set("Accept", "application/json")
		if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
			req.Header.Set("User-Agent", ua)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := fmt.Errorf("price api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode price api response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 4 * time.Second

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, fetchRetries), ctx))
}

var _ PriceFetcher = (*Client)(nil)
