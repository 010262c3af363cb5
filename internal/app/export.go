package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/storage"
	"crypto-price-tracker/internal/trend"
)

// ExportOptions hold parameters for exporting a coin's series.
type ExportOptions struct {
	Coin    string
	Days    int
	CSVPath string
	PNGPath string
}

// Export writes a coin's series as CSV and/or a price + 7d MA chart PNG. With
// no explicit output the chart lands in the configured plots directory.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	coin := config.NormalizeCoin(opts.Coin)
	days := opts.Days
	if days <= 0 {
		days = a.Config.Tracker.SeriesDays
	}

	if opts.CSVPath == "" && opts.PNGPath == "" {
		opts.PNGPath = filepath.Join(a.Config.Export.PlotsDir, coin+"_trend.png")
	}

	series, err := a.newAnalyzer().Series(coin, days)
	if err != nil {
		return err
	}
	if len(series.Dates) == 0 {
		return fmt.Errorf("no data for coin %q", coin)
	}

	if opts.CSVPath != "" {
		if err := writeSeriesCSV(opts.CSVPath, series); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("rows", len(series.Dates)).Msg("series exported")
	}

	if opts.PNGPath != "" {
		if err := writeSeriesPNG(opts.PNGPath, coin, series); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Msg("chart rendered")
	}

	return nil
}

func writeSeriesCSV(path string, series trend.Series) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "price", "ma7"}); err != nil {
		return err
	}

	for i := range series.Dates {
		price := ""
		if series.Price[i].Valid {
			price = series.Price[i].Decimal.String()
		}
		ma := ""
		if series.MA7[i].Valid {
			ma = series.MA7[i].Decimal.String()
		}
		if err := writer.Write([]string{series.Dates[i], price, ma}); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSeriesPNG(path, coin string, series trend.Series) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	priceX, priceY := chartValues(series.Dates, series.Price)
	maX, maY := chartValues(series.Dates, series.MA7)
	if len(priceX) == 0 {
		return fmt.Errorf("no plottable points for coin %q", coin)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s - price & 7d moving average", coin),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				XValues: priceX,
				YValues: priceY,
			},
			chart.TimeSeries{
				Name:    "7d MA",
				XValues: maX,
				YValues: maY,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// chartValues flattens one value column into x/y slices, skipping absent
// positions since the renderer cannot draw gaps.
func chartValues(dates []string, values []decimal.NullDecimal) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		ts, err := time.Parse(storage.DateLayout, dates[i])
		if err != nil {
			continue
		}
		xs = append(xs, ts)
		ys = append(ys, v.Decimal.InexactFloat64())
	}
	return xs, ys
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
