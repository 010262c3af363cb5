package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"crypto-price-tracker/internal/alerting"
	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/fetcher"
	"crypto-price-tracker/internal/scheduler"
	"crypto-price-tracker/internal/service"
	"crypto-price-tracker/internal/storage"
	"crypto-price-tracker/internal/trend"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetch() *fetcher.Fallback {
	live := fetcher.NewClient(fetcher.Options{
		BaseURL:   a.Config.API.BaseURL,
		Timeout:   a.Config.API.RequestTimeout,
		UserAgent: a.Config.API.UserAgent,
	}, a.Logger)
	mock := fetcher.NewMock(a.Config.API.MockPath, a.Logger)
	return fetcher.NewFallback(live, mock, a.Config.API.UseMock, a.Logger)
}

func (a *App) newStore() *storage.PriceStore {
	return storage.NewPriceStore(a.Config.Storage.PricesCSV, a.Logger)
}

func (a *App) newAlertLog() *storage.AlertLog {
	return storage.NewAlertLog(a.Config.Storage.AlertsJSON, a.Logger)
}

func (a *App) newAnalyzer() *trend.Analyzer {
	return trend.New(a.newStore(), a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newService(sched *scheduler.Scheduler) *service.Service {
	store := a.newStore()
	evaluator := alerting.NewEvaluator(store, a.newAlertLog(), a.Logger)
	return service.New(a.Config, sched, a.newFetch(), store, evaluator, a.newNotifier(), a.Logger)
}

// Run executes the long-running tracking loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := a.newService(sched)

	a.Logger.Info().Msg("starting tracking service")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("tracking service stopped")
	return nil
}

// Fetch performs a one-shot snapshot and prints the recorded prices.
func (a *App) Fetch(ctx context.Context) error {
	svc := a.newService(nil)

	prices, source, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Coin\tPrice")
	for _, coin := range a.Config.Tracker.Coins {
		fmt.Fprintf(writer, "%s\t%s\n", coin, prices[coin].String())
	}
	writer.Flush()
	fmt.Fprintf(os.Stdout, "source: %s\n", source)
	return nil
}

// SyncOptions configure the history sync.
type SyncOptions struct {
	Coins []string
	Days  int
}

// Sync fetches and upserts per-day history for the requested coins.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	days := opts.Days
	if days <= 0 {
		days = a.Config.Tracker.HistoryDays
	}

	coins := config.NormalizeCoins(opts.Coins)
	return a.newService(nil).SyncHistory(ctx, coins, days)
}
