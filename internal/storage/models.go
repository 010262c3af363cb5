package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used throughout the price table.
const DateLayout = "2006-01-02"

// PricePoint is a single (date, coin) observation from the price table. An
// invalid Price preserves a row whose stored value was empty or unparsable.
type PricePoint struct {
	Date  time.Time
	Coin  string
	Price decimal.NullDecimal
}

// AlertRecord captures a triggered drop alert for auditing. Records are
// appended to the alert log and never mutated afterwards.
type AlertRecord struct {
	Timestamp     time.Time
	Coin          string
	PreviousPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	DropPct       decimal.Decimal
}
