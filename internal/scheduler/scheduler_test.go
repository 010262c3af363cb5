package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNextTickAligns(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToStart: true}, zerolog.Nop())

	now := time.Date(2024, 3, 1, 10, 25, 13, 0, time.UTC)
	next := s.nextTick(now)
	if want := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

func TestNextTickOnBoundaryMovesForward(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToStart: true}, zerolog.Nop())

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	next := s.nextTick(now)
	if want := now.Add(time.Hour); !next.Equal(want) {
		t.Fatalf("a tick exactly on the boundary must schedule the next one, got %s", next)
	}
}

func TestNextTickUnaligned(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToStart: false}, zerolog.Nop())

	now := time.Date(2024, 3, 1, 10, 25, 0, 0, time.UTC)
	if next := s.nextTick(now); !next.Equal(now.Add(time.Hour)) {
		t.Fatalf("unaligned mode should offset from now, got %s", next)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, tick time.Time) error {
			if ticks.Add(1) >= 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if ticks.Load() < 2 {
		t.Fatalf("expected at least two ticks, got %d", ticks.Load())
	}
}

func TestRunContinuesAfterTickError(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, tick time.Time) error {
			if ticks.Add(1) >= 2 {
				cancel()
			}
			return errors.New("tick failed")
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if ticks.Load() < 2 {
		t.Fatal("a failing tick must not stop the loop")
	}
}
