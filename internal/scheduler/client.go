package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// reminderMaxRetry caps delivery attempts for reminder tasks. A reminder
// that keeps failing is worthless once the appointment has started.
const reminderMaxRetry = 5

// Client enqueues delayed tasks from the API process. A nil Client is a
// functional no-op so the API can run without Redis in development.
type Client struct {
	client *asynq.Client
	queue  string
}

// ReminderScheduler is the slice of Client the booking service depends on.
type ReminderScheduler interface {
	ScheduleAppointmentReminder(ctx context.Context, payload AppointmentReminderPayload, runAt time.Time) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleAppointmentReminder enqueues a reminder task to run at runAt,
// normally the appointment start minus the configured lead.
func (c *Client) ScheduleAppointmentReminder(ctx context.Context, payload AppointmentReminderPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAppointmentReminderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.MaxRetry(reminderMaxRetry),
	)
	return err
}

// redisClientOpt translates a redis URL into asynq connection options,
// honoring rediss:// TLS and the insecure override for managed Redis
// providers with self-signed chains.
func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
