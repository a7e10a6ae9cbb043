package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/email"
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/http/router"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification"
	notifhandler "github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/inapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/outbox"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/sse"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/scheduler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/whatsapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/db"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	clk := clock.NewSystem()

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, eventBus, val, clk, log)
	clientsModule := clients.NewModule(pool, val, cfg, log)
	servicesModule := services.NewModule(pool, val, log)

	// Appointments consume the catalog, the client directory, the staff
	// directory and the loyalty engine through narrow interfaces.
	appointmentsModule := appointments.NewModule(
		pool,
		val,
		servicesModule.Service(),
		clientsModule.Service(),
		authModule.Service(),
		clientsModule.Service(),
		eventBus,
		reminderScheduler,
		cfg.GetReminderLead(),
		clk,
		log,
	)
	appointmentsModule.RegisterHandlers(eventBus)

	searchModule := search.NewModule(pool, val)

	// Notification module subscribes to domain events and serves the staff
	// dashboard feed, pushing live updates over SSE.
	whatsappClient := whatsapp.NewClient(cfg, log)
	sseHub := sse.New(log)
	defer sseHub.Close()
	feedSvc := inapp.NewService(inapp.NewRepository(pool), sseHub, log)
	notificationModule := notification.New(
		outbox.New(pool),
		sender,
		whatsappClient,
		appointmentsModule.Repository(),
		feedSvc,
		clk,
		log,
	)
	notificationModule.SetHTTPHandler(notifhandler.New(feedSvc, sseHub))
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			clientsModule,
			servicesModule,
			appointmentsModule,
			notificationModule,
			searchModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; appointment reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
