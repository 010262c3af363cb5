package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AlertLog owns the append-only JSON alert log. Appends rewrite the whole
// file, so the single-writer assumption of the store applies here too.
type AlertLog struct {
	path   string
	logger zerolog.Logger
}

// NewAlertLog wires an alert log onto the given JSON path.
func NewAlertLog(path string, logger zerolog.Logger) *AlertLog {
	return &AlertLog{
		path:   path,
		logger: logger.With().Str("component", "alert_log").Logger(),
	}
}

// alertRecordJSON is the on-disk shape of one alert. Prices serialise as plain
// JSON numbers, the timestamp as an RFC3339 UTC instant at second precision.
type alertRecordJSON struct {
	Timestamp     string  `json:"timestamp"`
	Coin          string  `json:"coin"`
	PreviousPrice float64 `json:"previous_price"`
	CurrentPrice  float64 `json:"current_price"`
	DropPct       float64 `json:"drop_pct"`
}

// List returns every persisted alert, oldest first. A missing or malformed log
// is treated as empty.
func (l *AlertLog) List() ([]AlertRecord, error) {
	raw, err := l.load()
	if err != nil {
		return nil, err
	}

	records := make([]AlertRecord, 0, len(raw))
	for _, entry := range raw {
		ts, parseErr := time.Parse(time.RFC3339, entry.Timestamp)
		if parseErr != nil {
			ts = time.Time{}
		}
		records = append(records, AlertRecord{
			Timestamp:     ts,
			Coin:          entry.Coin,
			PreviousPrice: decimal.NewFromFloat(entry.PreviousPrice),
			CurrentPrice:  decimal.NewFromFloat(entry.CurrentPrice),
			DropPct:       decimal.NewFromFloat(entry.DropPct),
		})
	}
	return records, nil
}

// Append reads the full log, appends the record, and atomically rewrites the
// file.
func (l *AlertLog) Append(rec AlertRecord) error {
	raw, err := l.load()
	if err != nil {
		return err
	}

	raw = append(raw, alertRecordJSON{
		Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339),
		Coin:          rec.Coin,
		PreviousPrice: rec.PreviousPrice.InexactFloat64(),
		CurrentPrice:  rec.CurrentPrice.InexactFloat64(),
		DropPct:       rec.DropPct.InexactFloat64(),
	})

	return l.save(raw)
}

func (l *AlertLog) load() ([]alertRecordJSON, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read alert log: %w", err)
	}

	var raw []alertRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.Warn().Err(err).Msg("alert log malformed, treating as empty")
		return nil, nil
	}
	return raw, nil
}

func (l *AlertLog) save(raw []alertRecordJSON) error {
	if err := ensureParentDir(l.path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alert log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), "alerts-*.json")
	if err != nil {
		return fmt.Errorf("create temp alert log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write alert log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp alert log: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replace alert log: %w", err)
	}
	return nil
}
