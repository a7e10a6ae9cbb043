package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/outbox"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	outboxPollInterval = 2 * time.Second
	outboxClaimBatch   = 50
)

// NotificationOutboxDispatcher moves due outbox rows onto the task queue.
// Delivery itself happens in the worker so a slow SMTP or WhatsApp call
// never stalls the poll loop.
type NotificationOutboxDispatcher struct {
	client *asynq.Client
	queue  string
	repo   *outbox.Repository
	log    *logger.Logger
}

func NewNotificationOutboxDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*NotificationOutboxDispatcher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &NotificationOutboxDispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
		repo:   outbox.New(pool),
		log:    log,
	}, nil
}

func (d *NotificationOutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Run polls for due outbox rows until the context is cancelled. Rows that
// fail to enqueue are flipped back to pending and picked up again on a
// later tick.
func (d *NotificationOutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := d.repo.ClaimPending(ctx, time.Now().UTC(), outboxClaimBatch)
		if err != nil {
			d.log.Warn("outbox claim failed", "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		d.log.Debug("outbox batch claimed", "count", len(records))
		d.enqueue(ctx, records)
	}
}

func (d *NotificationOutboxDispatcher) enqueue(ctx context.Context, records []outbox.Record) {
	for _, rec := range records {
		task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{
			OutboxID: rec.ID.String(),
			TenantID: rec.TenantID.String(),
		})
		if err != nil {
			d.requeue(ctx, rec, err)
			continue
		}

		if _, err := d.client.EnqueueContext(ctx, task, asynq.ProcessAt(rec.RunAt), asynq.Queue(d.queue)); err != nil {
			d.requeue(ctx, rec, err)
		}
	}
}

// requeue returns a claimed row to pending so the claim is not lost when
// Redis is briefly unavailable.
func (d *NotificationOutboxDispatcher) requeue(ctx context.Context, rec outbox.Record, cause error) {
	msg := cause.Error()
	if err := d.repo.MarkPending(ctx, rec.ID, &msg); err != nil {
		d.log.Error("outbox row stuck in enqueued state", "outboxId", rec.ID, "error", err)
	}
}
