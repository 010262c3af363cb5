package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type dashboardCoin struct {
	Coin        string
	LastPrice   string
	Change      string
	ChangeClass string
}

type dashboardData struct {
	Coins      []dashboardCoin
	Currency   string
	SeriesDays int
	Now        time.Time
}

// dashboard answers GET / with the rendered overview page. Charts are filled
// in client side from /api/series.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Currency:   h.deps.Currency,
		SeriesDays: h.deps.SeriesDays,
		Now:        time.Now().UTC(),
	}

	for _, coin := range h.deps.Coins {
		entry := dashboardCoin{Coin: coin, LastPrice: "—", Change: "—"}
		kpis, err := h.deps.Analyzer.KPIs(coin)
		if err != nil {
			h.logger.Error().Err(err).Str("coin", coin).Msg("kpi computation failed")
			data.Coins = append(data.Coins, entry)
			continue
		}
		if kpis.LastPrice.Valid {
			entry.LastPrice = kpis.LastPrice.Decimal.StringFixed(4)
		}
		if kpis.ChangePct1D.Valid {
			pct := kpis.ChangePct1D.Decimal.InexactFloat64() * 100
			entry.Change = fmt.Sprintf("%+.2f%%", pct)
			if pct < 0 {
				entry.ChangeClass = "down"
			} else {
				entry.ChangeClass = "up"
			}
		}
		data.Coins = append(data.Coins, entry)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		h.logger.Error().Err(err).Msg("dashboard render failed")
	}
}
