package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"crypto-price-tracker/internal/server"
)

// Serve runs the dashboard HTTP server until interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := a.newService(nil)

	srv := server.NewServer(server.Config{
		Addr:         a.Config.Server.Addr,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, server.Deps{
		Coins:       a.Config.Tracker.Coins,
		Currency:    a.Config.Tracker.Currency,
		SeriesDays:  a.Config.Tracker.SeriesDays,
		HistoryDays: a.Config.Tracker.HistoryDays,
		Analyzer:    a.newAnalyzer(),
		Alerts:      a.newAlertLog(),
		Service:     svc,
	}, a.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
