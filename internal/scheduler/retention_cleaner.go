package scheduler

import (
	"context"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

const (
	defaultRetentionInterval = 24 * time.Hour
	defaultRetentionWindow   = 48 * time.Hour
)

// TerminalPurger deletes cancelled and no-show appointments older than the
// cutoff. Satisfied by the appointments repository; completed appointments
// are never touched.
type TerminalPurger interface {
	PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionCleaner periodically purges stale terminal appointments.
type RetentionCleaner struct {
	purger   TerminalPurger
	clk      clock.Clock
	log      *logger.Logger
	interval time.Duration
	window   time.Duration
}

func NewRetentionCleaner(cfg config.RetentionConfig, purger TerminalPurger, clk clock.Clock, log *logger.Logger) *RetentionCleaner {
	interval := cfg.GetRetentionInterval()
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	window := cfg.GetRetentionWindow()
	if window <= 0 {
		window = defaultRetentionWindow
	}

	return &RetentionCleaner{
		purger:   purger,
		clk:      clk,
		log:      log,
		interval: interval,
		window:   window,
	}
}

func (c *RetentionCleaner) Run(ctx context.Context) {
	if c == nil || c.purger == nil {
		return
	}

	c.Cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one purge pass.
func (c *RetentionCleaner) Cleanup(ctx context.Context) {
	cutoff := c.clk.Now().Add(-c.window)

	purged, err := c.purger.PurgeTerminal(ctx, cutoff)
	if err != nil {
		c.log.Warn("retention cleanup failed", "error", err)
		return
	}

	if purged > 0 {
		c.log.Info("retention cleanup purged terminal appointments", "purged", purged)
	}
}
