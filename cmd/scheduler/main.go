package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	apptrepo "github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/email"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/inapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/outbox"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/scheduler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/whatsapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/db"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	clk := clock.NewSystem()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	appointmentRepo := apptrepo.New(pool)

	// Feed entries written here surface on the dashboard through the API
	// process; no SSE hub runs in this binary.
	feedSvc := inapp.NewService(inapp.NewRepository(pool), nil, log)

	notificationModule := notification.New(
		outbox.New(pool),
		sender,
		whatsapp.NewClient(cfg, log),
		appointmentRepo,
		feedSvc,
		clk,
		log,
	)
	notificationModule.RegisterHandlers(eventBus)

	// Presence monitor: flags overdue appointments and settles expired
	// escalation tickets.
	monitor := scheduler.NewPresenceMonitor(cfg, appointmentRepo, eventBus, clk, log)
	go monitor.Run(ctx)

	// Retention cleaner: purges terminal appointments past the data window.
	cleaner := scheduler.NewRetentionCleaner(cfg, appointmentRepo, clk, log)
	go cleaner.Run(ctx)

	// Reminders and outbox delivery ride on asynq. Without Redis the monitor
	// and cleaner still run; queued notifications wait as pending rows.
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; reminders and outbox dispatch disabled")
		<-ctx.Done()
		return
	}

	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
