package alerting

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/storage"
)

func testEvaluator(t *testing.T) (*Evaluator, *storage.PriceStore, *storage.AlertLog) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewPriceStore(filepath.Join(dir, "prices.csv"), zerolog.Nop())
	log := storage.NewAlertLog(filepath.Join(dir, "alerts.json"), zerolog.Nop())
	return NewEvaluator(store, log, zerolog.Nop()), store, log
}

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", v, err)
	}
	return d
}

func seedHistory(t *testing.T, store *storage.PriceStore, coin string, daily map[string]string) {
	t.Helper()
	parsed := make(map[string]decimal.Decimal, len(daily))
	for date, price := range daily {
		parsed[date] = dec(t, price)
	}
	if err := store.UpsertHistory(coin, parsed); err != nil {
		t.Fatalf("seed history: %v", err)
	}
}

func TestCheckFluctuationBoundaryFires(t *testing.T) {
	eval, store, _ := testEvaluator(t)
	seedHistory(t, store, "bitcoin", map[string]string{
		"2024-01-01": "100",
		"2024-01-02": "90",
	})

	record, err := eval.CheckFluctuation("bitcoin", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record == nil {
		t.Fatal("a drop exactly at the threshold must fire")
	}
	if !record.DropPct.Equal(dec(t, "0.1")) {
		t.Fatalf("expected drop 0.1, got %s", record.DropPct)
	}
}

func TestCheckFluctuationBelowThreshold(t *testing.T) {
	eval, store, log := testEvaluator(t)
	seedHistory(t, store, "bitcoin", map[string]string{
		"2024-01-01": "100",
		"2024-01-02": "90.01",
	})

	record, err := eval.CheckFluctuation("bitcoin", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record != nil {
		t.Fatalf("drop below threshold must not fire, got %+v", record)
	}

	records, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatal("nothing should be persisted when no alert fires")
	}
}

func TestCheckFluctuationRiseDoesNotFire(t *testing.T) {
	eval, store, _ := testEvaluator(t)
	seedHistory(t, store, "bitcoin", map[string]string{
		"2024-01-01": "100",
		"2024-01-02": "120",
	})

	record, err := eval.CheckFluctuation("bitcoin", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record != nil {
		t.Fatal("a rise must never fire a drop alert")
	}
}

func TestCheckFluctuationSinglePoint(t *testing.T) {
	eval, store, _ := testEvaluator(t)
	seedHistory(t, store, "bitcoin", map[string]string{"2024-01-01": "100"})

	record, err := eval.CheckFluctuation("bitcoin", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record != nil {
		t.Fatal("one point is not enough history")
	}
}

func TestCheckFluctuationNonPositivePrevious(t *testing.T) {
	eval, store, _ := testEvaluator(t)
	seedHistory(t, store, "bitcoin", map[string]string{
		"2024-01-01": "0",
		"2024-01-02": "50",
	})

	record, err := eval.CheckFluctuation("bitcoin", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record != nil {
		t.Fatal("a non-positive previous price must not be evaluated")
	}
}

func TestCheckFluctuationPersistsRecord(t *testing.T) {
	eval, store, log := testEvaluator(t)
	seedHistory(t, store, "ethereum", map[string]string{
		"2024-01-01": "100",
		"2024-01-02": "85",
	})

	record, err := eval.CheckFluctuation("ethereum", dec(t, "0.10"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if record == nil {
		t.Fatal("expected an alert")
	}
	if !record.DropPct.Equal(dec(t, "0.15")) {
		t.Fatalf("expected drop 0.15, got %s", record.DropPct)
	}
	if record.Timestamp.IsZero() || record.Timestamp.Nanosecond() != 0 {
		t.Fatalf("timestamp must be set at second precision, got %s", record.Timestamp)
	}

	records, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(records))
	}
	if records[0].Coin != "ethereum" {
		t.Fatalf("unexpected coin: %q", records[0].Coin)
	}
}
