package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var priceHeader = []string{"date", "coin", "price"}

// tableKey is the natural key of the price table.
type tableKey struct {
	Date string
	Coin string
}

// PriceStore owns the flat date,coin,price table. All operations read or
// rewrite the whole backing file; a single writer at a time is assumed.
type PriceStore struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewPriceStore wires a price store onto the given CSV path.
func NewPriceStore(path string, logger zerolog.Logger) *PriceStore {
	return &PriceStore{
		path:   path,
		logger: logger.With().Str("component", "price_store").Logger(),
		now:    time.Now,
	}
}

// AppendSnapshot appends one row per coin for the current UTC date. The caller
// gets duplicate rows on repeated same-day calls; readers keep the last row per
// (date, coin). An empty snapshot is a no-op.
func (s *PriceStore) AppendSnapshot(prices map[string]decimal.Decimal) error {
	if len(prices) == 0 {
		return nil
	}

	if err := ensureParentDir(s.path); err != nil {
		return err
	}

	_, statErr := os.Stat(s.path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open price table: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(priceHeader); err != nil {
			return fmt.Errorf("write price header: %w", err)
		}
	}

	today := s.now().UTC().Format(DateLayout)
	for _, coin := range sortedCoins(prices) {
		if err := writer.Write([]string{today, coin, prices[coin].String()}); err != nil {
			return fmt.Errorf("append snapshot row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	s.logger.Debug().Str("date", today).Int("coins", len(prices)).Msg("snapshot appended")
	return nil
}

// UpsertHistory merges a per-day price series for one coin into the table,
// overwriting existing values for matching (date, coin) keys and preserving
// everything else. The whole file is rewritten sorted by date ascending, so the
// operation is idempotent. An empty series is a no-op.
func (s *PriceStore) UpsertHistory(coin string, daily map[string]decimal.Decimal) error {
	if len(daily) == 0 {
		return nil
	}

	table, err := s.loadTable()
	if err != nil {
		return err
	}

	for date, price := range daily {
		table[tableKey{Date: date, Coin: coin}] = decimal.NullDecimal{Decimal: price, Valid: true}
	}

	if err := s.writeTable(table); err != nil {
		return err
	}

	s.logger.Debug().Str("coin", coin).Int("days", len(daily)).Msg("history upserted")
	return nil
}

// ReadCoinSeries returns the coin's price points sorted by date ascending,
// deduplicated per date keeping the last stored row. A missing table or an
// unknown coin yields an empty slice.
func (s *PriceStore) ReadCoinSeries(coin string) ([]PricePoint, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	latest := make(map[string]decimal.NullDecimal)
	for _, row := range rows {
		if row.Coin == coin {
			latest[row.Date] = row.Price
		}
	}
	if len(latest) == 0 {
		return []PricePoint{}, nil
	}

	dates := make([]string, 0, len(latest))
	for date := range latest {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]PricePoint, 0, len(dates))
	for _, date := range dates {
		parsed, err := time.Parse(DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		points = append(points, PricePoint{Date: parsed, Coin: coin, Price: latest[date]})
	}
	return points, nil
}

// ReadAll returns every stored row, deduplicated per (date, coin) keeping the
// last occurrence, sorted by date then coin.
func (s *PriceStore) ReadAll() ([]PricePoint, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	latest := make(map[tableKey]decimal.NullDecimal, len(rows))
	for _, row := range rows {
		latest[tableKey{Date: row.Date, Coin: row.Coin}] = row.Price
	}

	keys := sortedKeys(latest)
	points := make([]PricePoint, 0, len(keys))
	for _, key := range keys {
		parsed, err := time.Parse(DateLayout, key.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", key.Date, err)
		}
		points = append(points, PricePoint{Date: parsed, Coin: key.Coin, Price: latest[key]})
	}
	return points, nil
}

// Coins lists the distinct coins present in the table, sorted.
func (s *PriceStore) Coins() ([]string, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, row := range rows {
		seen[row.Coin] = struct{}{}
	}

	coins := make([]string, 0, len(seen))
	for coin := range seen {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins, nil
}

// tableRow is a raw row as stored on disk, prices already coerced.
type tableRow struct {
	Date  string
	Coin  string
	Price decimal.NullDecimal
}

func (s *PriceStore) readRows() ([]tableRow, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open price table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}

	rows := make([]tableRow, 0, len(records))
	for i, record := range records {
		if i == 0 && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			continue
		}
		rows = append(rows, tableRow{
			Date:  record[0],
			Coin:  record[1],
			Price: parsePrice(record[2]),
		})
	}
	return rows, nil
}

func (s *PriceStore) loadTable() (map[tableKey]decimal.NullDecimal, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	table := make(map[tableKey]decimal.NullDecimal, len(rows))
	for _, row := range rows {
		table[tableKey{Date: row.Date, Coin: row.Coin}] = row.Price
	}
	return table, nil
}

// writeTable rewrites the whole file sorted by date ascending. The write goes
// to a temp file first and is swapped in with a rename so a crash mid-write
// cannot truncate the table.
func (s *PriceStore) writeTable(table map[tableKey]decimal.NullDecimal) error {
	if err := ensureParentDir(s.path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "prices-*.csv")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(priceHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write price header: %w", err)
	}

	for _, key := range sortedKeys(table) {
		price := ""
		if v := table[key]; v.Valid {
			price = v.Decimal.String()
		}
		if err := writer.Write([]string{key.Date, key.Coin, price}); err != nil {
			tmp.Close()
			return fmt.Errorf("write table row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush price table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace price table: %w", err)
	}
	return nil
}

func parsePrice(raw string) decimal.NullDecimal {
	if raw == "" {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: value, Valid: true}
}

func isHeader(record []string) bool {
	return len(record) > 0 && record[0] == "date"
}

func sortedCoins(prices map[string]decimal.Decimal) []string {
	coins := make([]string, 0, len(prices))
	for coin := range prices {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins
}

func sortedKeys(table map[tableKey]decimal.NullDecimal) []tableKey {
	keys := make([]tableKey, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].Coin < keys[j].Coin
	})
	return keys
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
