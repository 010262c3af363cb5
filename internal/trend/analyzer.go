package trend

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/storage"
)

// maWindow is the trailing window for the moving average, with a minimum
// effective window of one so the first point averages to itself.
const maWindow = 7

// Analyzer derives display statistics from the price store. Nothing is cached;
// every call re-reads the backing table.
type Analyzer struct {
	store  *storage.PriceStore
	logger zerolog.Logger
}

// New constructs an Analyzer over the given store.
func New(store *storage.PriceStore, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		store:  store,
		logger: logger.With().Str("component", "trend").Logger(),
	}
}

// Series holds a windowed view of one coin's history with an aligned 7-day
// moving average. Slices are parallel; absent prices stay absent in both.
type Series struct {
	Dates []string
	Price []decimal.NullDecimal
	MA7   []decimal.NullDecimal
}

// KPIs hold headline values for one coin. A field is invalid when there is not
// enough usable history to compute it.
type KPIs struct {
	LastPrice   decimal.NullDecimal
	ChangePct1D decimal.NullDecimal
}

// Series returns the last days points for the coin with the trailing moving
// average computed over the windowed slice. A coin without history yields
// empty, non-nil slices.
func (a *Analyzer) Series(coin string, days int) (Series, error) {
	points, err := a.store.ReadCoinSeries(coin)
	if err != nil {
		return Series{}, err
	}

	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}

	series := Series{
		Dates: make([]string, 0, len(points)),
		Price: make([]decimal.NullDecimal, 0, len(points)),
		MA7:   make([]decimal.NullDecimal, 0, len(points)),
	}
	for i, point := range points {
		series.Dates = append(series.Dates, point.Date.Format(storage.DateLayout))
		series.Price = append(series.Price, point.Price)
		series.MA7 = append(series.MA7, trailingMean(points, i))
	}
	return series, nil
}

// KPIs returns the most recent price and the day-over-day change computed from
// the two most recent usable prices. Insufficient history is absence, not an
// error.
func (a *Analyzer) KPIs(coin string) (KPIs, error) {
	points, err := a.store.ReadCoinSeries(coin)
	if err != nil {
		return KPIs{}, err
	}

	usable := make([]decimal.Decimal, 0, len(points))
	for _, point := range points {
		if point.Price.Valid {
			usable = append(usable, point.Price.Decimal)
		}
	}
	if len(usable) == 0 {
		return KPIs{}, nil
	}

	last := usable[len(usable)-1]
	kpis := KPIs{LastPrice: decimal.NullDecimal{Decimal: last, Valid: true}}

	if len(usable) < 2 {
		return kpis, nil
	}
	prev := usable[len(usable)-2]
	if prev.IsZero() {
		return kpis, nil
	}

	kpis.ChangePct1D = decimal.NullDecimal{Decimal: last.Sub(prev).Div(prev), Valid: true}
	return kpis, nil
}

// trailingMean averages the non-absent prices in the up-to-7-point window
// ending at idx. An absent price at idx keeps the averaged output absent at
// that position.
func trailingMean(points []storage.PricePoint, idx int) decimal.NullDecimal {
	if !points[idx].Price.Valid {
		return decimal.NullDecimal{}
	}

	start := idx - maWindow + 1
	if start < 0 {
		start = 0
	}

	sum := decimal.Zero
	count := 0
	for i := start; i <= idx; i++ {
		if points[i].Price.Valid {
			sum = sum.Add(points[i].Price.Decimal)
			count++
		}
	}

	mean := sum.Div(decimal.NewFromInt(int64(count)))
	return decimal.NullDecimal{Decimal: mean, Valid: true}
}
