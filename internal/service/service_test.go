package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/alerting"
	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/fetcher"
	"crypto-price-tracker/internal/storage"
)

// recordingNotifier captures dispatched notifications.
type recordingNotifier struct {
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	r.notes = append(r.notes, note)
	return nil
}

func testService(t *testing.T, sample string) (*Service, *storage.PriceStore, *recordingNotifier) {
	t.Helper()
	dir := t.TempDir()

	samplePath := filepath.Join(dir, "sample.json")
	if err := os.WriteFile(samplePath, []byte(sample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	store := storage.NewPriceStore(filepath.Join(dir, "prices.csv"), zerolog.Nop())
	alerts := storage.NewAlertLog(filepath.Join(dir, "alerts.json"), zerolog.Nop())
	evaluator := alerting.NewEvaluator(store, alerts, zerolog.Nop())
	notifier := &recordingNotifier{}

	mock := fetcher.NewMock(samplePath, zerolog.Nop())
	fallback := fetcher.NewFallback(nil, mock, true, zerolog.Nop())

	cfg := &config.Config{}
	cfg.Tracker.Coins = []string{"bitcoin"}
	cfg.Tracker.Currency = "usd"
	cfg.Alerting.Threshold = 0.10

	return New(cfg, nil, fallback, store, evaluator, notifier, zerolog.Nop()), store, notifier
}

func TestSnapshotAppendsPrices(t *testing.T) {
	svc, store, _ := testService(t, `{"bitcoin": 45000}`)

	prices, source, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if source != fetcher.SourceMock {
		t.Fatalf("expected mock source, got %s", source)
	}
	if !prices["bitcoin"].Equal(decimal.NewFromInt(45000)) {
		t.Fatalf("unexpected price: %s", prices["bitcoin"])
	}

	points, err := store.ReadCoinSeries("bitcoin")
	if err != nil {
		t.Fatalf("read series: %v", err)
	}
	if len(points) != 1 || !points[0].Price.Decimal.Equal(decimal.NewFromInt(45000)) {
		t.Fatalf("snapshot must land in the table, got %+v", points)
	}
}

func TestCheckAlertsNotifies(t *testing.T) {
	svc, store, notifier := testService(t, `{"bitcoin": 45000}`)

	if err := store.UpsertHistory("bitcoin", map[string]decimal.Decimal{
		"2024-01-01": decimal.NewFromInt(100),
		"2024-01-02": decimal.NewFromInt(85),
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	fired := svc.CheckAlerts(context.Background())
	if len(fired) != 1 {
		t.Fatalf("expected one fired alert, got %d", len(fired))
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("fired alert must be dispatched, got %d notifications", len(notifier.notes))
	}
	if !notifier.notes[0].Threshold.Equal(decimal.NewFromFloat(0.10)) {
		t.Fatalf("notification must carry the threshold, got %s", notifier.notes[0].Threshold)
	}
}

func TestCheckAlertsQuietMarket(t *testing.T) {
	svc, store, notifier := testService(t, `{"bitcoin": 45000}`)

	if err := store.UpsertHistory("bitcoin", map[string]decimal.Decimal{
		"2024-01-01": decimal.NewFromInt(100),
		"2024-01-02": decimal.NewFromInt(99),
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	if fired := svc.CheckAlerts(context.Background()); len(fired) != 0 {
		t.Fatalf("no alert expected, got %+v", fired)
	}
	if len(notifier.notes) != 0 {
		t.Fatal("nothing should be dispatched without an alert")
	}
}

func TestSyncHistoryUpserts(t *testing.T) {
	svc, store, _ := testService(t, `{"bitcoin": 45000}`)

	if err := svc.SyncHistory(context.Background(), nil, 7); err != nil {
		t.Fatalf("sync history: %v", err)
	}

	points, err := store.ReadCoinSeries("bitcoin")
	if err != nil {
		t.Fatalf("read series: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 days of history, got %d", len(points))
	}
}

func TestSyncHistoryHonorsCancellation(t *testing.T) {
	svc, _, _ := testService(t, `{"bitcoin": 45000}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.SyncHistory(ctx, nil, 7); err == nil {
		t.Fatal("a cancelled context must abort the sync")
	}
}

func TestRunWithoutScheduler(t *testing.T) {
	svc, _, _ := testService(t, `{"bitcoin": 45000}`)

	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("running without a scheduler must error")
	}
}
