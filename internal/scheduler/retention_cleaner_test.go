package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

type testRetentionConfig struct {
	interval time.Duration
	window   time.Duration
}

func (c testRetentionConfig) GetRetentionInterval() time.Duration { return c.interval }
func (c testRetentionConfig) GetRetentionWindow() time.Duration   { return c.window }

type fakePurger struct {
	cutoffs []time.Time
	purged  int64
	err     error
}

func (p *fakePurger) PurgeTerminal(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.purged, p.err
}

func TestCleanupPurgesWithWindowCutoff(t *testing.T) {
	now := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	purger := &fakePurger{purged: 7}
	cfg := testRetentionConfig{interval: 24 * time.Hour, window: 48 * time.Hour}
	cleaner := NewRetentionCleaner(cfg, purger, clock.NewFixed(now), logger.New("development"))

	cleaner.Cleanup(context.Background())

	if len(purger.cutoffs) != 1 {
		t.Fatalf("expected 1 purge call, got %d", len(purger.cutoffs))
	}
	want := now.Add(-48 * time.Hour)
	if !purger.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, purger.cutoffs[0])
	}
}

func TestCleanupCutoffTracksClock(t *testing.T) {
	now := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	purger := &fakePurger{}
	clk := clock.NewFixed(now)
	cfg := testRetentionConfig{interval: 24 * time.Hour, window: 48 * time.Hour}
	cleaner := NewRetentionCleaner(cfg, purger, clk, logger.New("development"))

	cleaner.Cleanup(context.Background())
	clk.Advance(24 * time.Hour)
	cleaner.Cleanup(context.Background())

	if len(purger.cutoffs) != 2 {
		t.Fatalf("expected 2 purge calls, got %d", len(purger.cutoffs))
	}
	if got := purger.cutoffs[1].Sub(purger.cutoffs[0]); got != 24*time.Hour {
		t.Fatalf("expected cutoffs 24h apart, got %v", got)
	}
}

func TestCleanupSurvivesPurgeError(t *testing.T) {
	purger := &fakePurger{err: errors.New("connection refused")}
	cfg := testRetentionConfig{interval: 24 * time.Hour, window: 48 * time.Hour}
	cleaner := NewRetentionCleaner(cfg, purger, clock.NewFixed(time.Now()), logger.New("development"))

	// Must not panic; the next tick retries.
	cleaner.Cleanup(context.Background())
	cleaner.Cleanup(context.Background())

	if len(purger.cutoffs) != 2 {
		t.Fatalf("expected cleanup to keep running after an error, got %d calls", len(purger.cutoffs))
	}
}

func TestNewRetentionCleanerAppliesDefaults(t *testing.T) {
	cleaner := NewRetentionCleaner(testRetentionConfig{}, &fakePurger{}, clock.NewFixed(time.Now()), logger.New("development"))

	if cleaner.interval != defaultRetentionInterval {
		t.Fatalf("expected default interval %v, got %v", defaultRetentionInterval, cleaner.interval)
	}
	if cleaner.window != defaultRetentionWindow {
		t.Fatalf("expected default window %v, got %v", defaultRetentionWindow, cleaner.window)
	}
}
