package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/alerting"
	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/fetcher"
	"crypto-price-tracker/internal/scheduler"
	"crypto-price-tracker/internal/storage"
)

// Service orchestrates fetching, persistence, and alerting. One tick fetches a
// snapshot for the configured coins, appends it to the price table, and runs
// the drop check per coin.
type Service struct {
	scheduler *scheduler.Scheduler
	fetch     *fetcher.Fallback
	store     *storage.PriceStore
	evaluator *alerting.Evaluator
	notifier  alerting.Notifier
	logger    zerolog.Logger

	coins     []string
	currency  string
	threshold decimal.Decimal
}

// New constructs the tracking service.
func New(cfg *config.Config, sched *scheduler.Scheduler, fetch *fetcher.Fallback, store *storage.PriceStore, evaluator *alerting.Evaluator, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		fetch:     fetch,
		store:     store,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		coins:     cfg.Tracker.Coins,
		currency:  cfg.Tracker.Currency,
		threshold: decimal.NewFromFloat(cfg.Alerting.Threshold),
	}
}

// Run begins the aligned sampling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Tick)
}

// Snapshot fetches one current price per configured coin and appends the rows
// to the price table, reporting which source served the data.
func (s *Service) Snapshot(ctx context.Context) (map[string]decimal.Decimal, fetcher.Source, error) {
	prices, source, err := s.fetch.Prices(ctx, s.coins, s.currency)
	if err != nil {
		return nil, source, fmt.Errorf("fetch snapshot: %w", err)
	}

	if err := s.store.AppendSnapshot(prices); err != nil {
		return nil, source, fmt.Errorf("append snapshot: %w", err)
	}
	return prices, source, nil
}

// Tick executes a single snapshot-and-check pass.
func (s *Service) Tick(ctx context.Context, at time.Time) error {
	prices, source, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	s.logger.Info().
		Time("tick", at).
		Str("source", string(source)).
		Int("coins", len(prices)).
		Msg("snapshot recorded")

	s.CheckAlerts(ctx)
	return nil
}

// CheckAlerts runs the drop check for every configured coin and dispatches
// fired records through the notifier. Per-coin failures are logged, not fatal.
func (s *Service) CheckAlerts(ctx context.Context) []storage.AlertRecord {
	fired := make([]storage.AlertRecord, 0)
	for _, coin := range s.coins {
		record, err := s.evaluator.CheckFluctuation(coin, s.threshold)
		if err != nil {
			s.logger.Error().Err(err).Str("coin", coin).Msg("drop check failed")
			continue
		}
		if record == nil {
			continue
		}
		fired = append(fired, *record)

		if s.notifier != nil {
			note := alerting.Notification{Record: *record, Threshold: s.threshold}
			if err := s.notifier.Notify(ctx, note); err != nil {
				s.logger.Error().Err(err).Str("coin", coin).Msg("failed to dispatch alert")
			}
		}
	}
	return fired
}

// SyncHistory fetches and upserts a per-day history for each coin. Per-coin
// failures are counted and reported after the sweep completes.
func (s *Service) SyncHistory(ctx context.Context, coins []string, days int) error {
	if len(coins) == 0 {
		coins = s.coins
	}

	failed := 0
	for _, coin := range coins {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chart, source, err := s.fetch.MarketChart(ctx, coin, days, s.currency)
		if err != nil {
			failed++
			s.logger.Error().Err(err).Str("coin", coin).Msg("history fetch failed")
			continue
		}
		if err := s.store.UpsertHistory(coin, chart); err != nil {
			failed++
			s.logger.Error().Err(err).Str("coin", coin).Msg("history upsert failed")
			continue
		}
		s.logger.Info().
			Str("coin", coin).
			Str("source", string(source)).
			Int("days", len(chart)).
			Msg("history synced")
	}

	if failed > 0 {
		return fmt.Errorf("history sync failed for %d of %d coins", failed, len(coins))
	}
	return nil
}
