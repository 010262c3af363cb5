package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/storage"
)

type handlers struct {
	deps   Deps
	logger zerolog.Logger
}

// series answers GET /api/series?coin=&days= with parallel label/price/ma7
// arrays, nulls marking absent values.
func (h *handlers) series(w http.ResponseWriter, r *http.Request) {
	coin := config.NormalizeCoin(r.URL.Query().Get("coin"))
	if coin == "" {
		writeError(w, http.StatusBadRequest, "coin parameter is required")
		return
	}
	days := intParam(r, "days", h.deps.SeriesDays)

	series, err := h.deps.Analyzer.Series(coin, days)
	if err != nil {
		h.logger.Error().Err(err).Str("coin", coin).Msg("series computation failed")
		writeError(w, http.StatusInternalServerError, "failed to compute series")
		return
	}

	writeJSON(w, http.StatusOK, seriesResponse{
		Coin:   coin,
		Labels: series.Dates,
		Price:  roundedPtrs(series.Price),
		MA7:    roundedPtrs(series.MA7),
	})
}

// kpis answers GET /api/kpis?coin= with headline values, nulls when absent.
func (h *handlers) kpis(w http.ResponseWriter, r *http.Request) {
	coin := config.NormalizeCoin(r.URL.Query().Get("coin"))
	if coin == "" {
		writeError(w, http.StatusBadRequest, "coin parameter is required")
		return
	}

	kpis, err := h.deps.Analyzer.KPIs(coin)
	if err != nil {
		h.logger.Error().Err(err).Str("coin", coin).Msg("kpi computation failed")
		writeError(w, http.StatusInternalServerError, "failed to compute kpis")
		return
	}

	writeJSON(w, http.StatusOK, kpisResponse{
		Coin:        coin,
		LastPrice:   floatPtr(kpis.LastPrice),
		ChangePct1D: floatPtr(kpis.ChangePct1D),
	})
}

// alerts answers GET /api/alerts with the persisted alert log, oldest first.
func (h *handlers) alerts(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Alerts.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("alert log read failed")
		writeError(w, http.StatusInternalServerError, "failed to read alerts")
		return
	}
	writeJSON(w, http.StatusOK, alertResponses(records))
}

// fetchNow answers POST /api/fetch: snapshot the configured coins and report
// the prices plus the source that served them.
func (h *handlers) fetchNow(w http.ResponseWriter, r *http.Request) {
	prices, source, err := h.deps.Service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("snapshot failed")
		writeError(w, http.StatusBadGateway, "snapshot failed")
		return
	}

	out := make(map[string]float64, len(prices))
	for coin, price := range prices {
		out[coin] = price.InexactFloat64()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prices": out,
		"source": source,
	})
}

// syncHistory answers POST /api/sync?days=: upsert per-day history for the
// configured coins.
func (h *handlers) syncHistory(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", h.deps.HistoryDays)

	if err := h.deps.Service.SyncHistory(r.Context(), nil, days); err != nil {
		h.logger.Error().Err(err).Msg("history sync failed")
		writeError(w, http.StatusBadGateway, "history sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"synced": h.deps.Coins,
		"days":   days,
	})
}

// checkAlerts answers POST /api/alerts/check with the records fired by this
// sweep.
func (h *handlers) checkAlerts(w http.ResponseWriter, r *http.Request) {
	fired := h.deps.Service.CheckAlerts(r.Context())
	writeJSON(w, http.StatusOK, alertResponses(fired))
}

type seriesResponse struct {
	Coin   string     `json:"coin"`
	Labels []string   `json:"labels"`
	Price  []*float64 `json:"price"`
	MA7    []*float64 `json:"ma7"`
}

type kpisResponse struct {
	Coin        string   `json:"coin"`
	LastPrice   *float64 `json:"last_price"`
	ChangePct1D *float64 `json:"change_pct_1d"`
}

type alertResponse struct {
	Timestamp     string  `json:"timestamp"`
	Coin          string  `json:"coin"`
	PreviousPrice float64 `json:"previous_price"`
	CurrentPrice  float64 `json:"current_price"`
	DropPct       float64 `json:"drop_pct"`
}

func alertResponses(records []storage.AlertRecord) []alertResponse {
	out := make([]alertResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, alertResponse{
			Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339),
			Coin:          rec.Coin,
			PreviousPrice: rec.PreviousPrice.InexactFloat64(),
			CurrentPrice:  rec.CurrentPrice.InexactFloat64(),
			DropPct:       rec.DropPct.InexactFloat64(),
		})
	}
	return out
}

func floatPtr(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Decimal.InexactFloat64()
	return &f
}

func roundedPtrs(values []decimal.NullDecimal) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v.Valid {
			f := v.Decimal.Round(4).InexactFloat64()
			out[i] = &f
		}
	}
	return out
}

func intParam(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// writeJSON marshals v and writes it with the given status. Marshal failures
// degrade to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
