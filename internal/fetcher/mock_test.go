package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeSample(t *testing.T, body string) *Mock {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return NewMock(path, zerolog.Nop())
}

func TestMockFetchPrices(t *testing.T) {
	mock := writeSample(t, `{"bitcoin": 45000, "ethereum": 2600.5}`)

	prices, err := mock.FetchPrices(context.Background(), []string{"bitcoin", "ethereum"}, "usd")
	if err != nil {
		t.Fatalf("fetch prices: %v", err)
	}
	if !prices["bitcoin"].Equal(mustDec(t, "45000")) {
		t.Fatalf("unexpected bitcoin price: %s", prices["bitcoin"])
	}
	if !prices["ethereum"].Equal(mustDec(t, "2600.5")) {
		t.Fatalf("unexpected ethereum price: %s", prices["ethereum"])
	}
}

func TestMockMissingSampleIsZeros(t *testing.T) {
	mock := NewMock(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())

	prices, err := mock.FetchPrices(context.Background(), []string{"bitcoin"}, "usd")
	if err != nil {
		t.Fatalf("missing sample should not error: %v", err)
	}
	if !prices["bitcoin"].IsZero() {
		t.Fatalf("expected zero price, got %s", prices["bitcoin"])
	}
}

func TestMockMalformedSampleErrors(t *testing.T) {
	mock := writeSample(t, `{broken`)

	if _, err := mock.FetchPrices(context.Background(), []string{"bitcoin"}, "usd"); err == nil {
		t.Fatal("malformed sample must error")
	}
}

func TestMockMarketChartIsFlat(t *testing.T) {
	mock := writeSample(t, `{"bitcoin": 45000}`)

	chart, err := mock.FetchMarketChart(context.Background(), "bitcoin", 7, "usd")
	if err != nil {
		t.Fatalf("fetch chart: %v", err)
	}
	if len(chart) != 7 {
		t.Fatalf("expected 7 days, got %d", len(chart))
	}

	today := time.Now().UTC().Format(dateLayout)
	if _, ok := chart[today]; !ok {
		t.Fatalf("chart must end today, got dates %v", chart)
	}
	for date, price := range chart {
		if !price.Equal(mustDec(t, "45000")) {
			t.Fatalf("chart must be flat, got %s on %s", price, date)
		}
	}
}

func TestMockTodayRange(t *testing.T) {
	mock := writeSample(t, `{"bitcoin": 45000}`)

	r, err := mock.FetchTodayRange(context.Background(), "bitcoin", "usd")
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if !r.Min.Equal(r.Max) || !r.Min.Equal(mustDec(t, "45000")) {
		t.Fatalf("mock range should collapse to the sampled price, got %+v", r)
	}
}
