package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"crypto-price-tracker/internal/service"
	"crypto-price-tracker/internal/storage"
	"crypto-price-tracker/internal/trend"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps aggregates everything the dashboard serves from.
type Deps struct {
	Coins       []string
	Currency    string
	SeriesDays  int
	HistoryDays int
	Analyzer    *trend.Analyzer
	Alerts      *storage.AlertLog
	Service     *service.Service
}

// Server is the dashboard HTTP server: an HTML page plus a small JSON API.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer registers all routes on a ServeMux and wraps it in an http.Server.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	log := logger.With().Str("component", "server").Logger()
	h := &handlers{deps: deps, logger: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.dashboard)
	mux.HandleFunc("GET /api/series", h.series)
	mux.HandleFunc("GET /api/kpis", h.kpis)
	mux.HandleFunc("GET /api/alerts", h.alerts)
	mux.HandleFunc("POST /api/fetch", h.fetchNow)
	mux.HandleFunc("POST /api/sync", h.syncHistory)
	mux.HandleFunc("POST /api/alerts/check", h.checkAlerts)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("dashboard listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("dashboard shutting down")
	return s.httpServer.Shutdown(ctx)
}
