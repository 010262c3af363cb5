package alerting

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/storage"
)

// Evaluator detects day-over-day drops against a relative threshold and
// records breaches in the alert log. Evaluation is stateless; the log is the
// only state and it is append-only.
type Evaluator struct {
	store  *storage.PriceStore
	log    *storage.AlertLog
	logger zerolog.Logger
	now    func() time.Time
}

// NewEvaluator constructs an Evaluator over the given store and log.
func NewEvaluator(store *storage.PriceStore, log *storage.AlertLog, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		log:    log,
		logger: logger.With().Str("component", "alert_evaluator").Logger(),
		now:    time.Now,
	}
}

// CheckFluctuation compares the coin's last two chronological prices and, when
// the relative drop meets the threshold (boundary inclusive), persists and
// returns an alert record. Insufficient or unusable history returns nil, nil.
func (e *Evaluator) CheckFluctuation(coin string, threshold decimal.Decimal) (*storage.AlertRecord, error) {
	points, err := e.store.ReadCoinSeries(coin)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, nil
	}

	prev := points[len(points)-2].Price
	curr := points[len(points)-1].Price
	if !prev.Valid || !curr.Valid {
		return nil, nil
	}
	if prev.Decimal.Sign() <= 0 {
		return nil, nil
	}

	drop := prev.Decimal.Sub(curr.Decimal).Div(prev.Decimal)
	if drop.LessThan(threshold) {
		return nil, nil
	}

	record := storage.AlertRecord{
		Timestamp:     e.now().UTC().Truncate(time.Second),
		Coin:          coin,
		PreviousPrice: prev.Decimal,
		CurrentPrice:  curr.Decimal,
		DropPct:       drop.Round(4),
	}

	if err := e.log.Append(record); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("coin", coin).
		Str("drop_pct", record.DropPct.String()).
		Str("threshold", threshold.String()).
		Msg("drop alert triggered")

	return &record, nil
}
