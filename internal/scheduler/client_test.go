package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	url         string
	tlsInsecure bool
	queue       string
	concurrency int
	lead        time.Duration
}

func (c testSchedulerConfig) GetRedisURL() string            { return c.url }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool      { return c.tlsInsecure }
func (c testSchedulerConfig) GetAsynqQueueName() string      { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int       { return c.concurrency }
func (c testSchedulerConfig) GetReminderLead() time.Duration { return c.lead }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestNewClientRejectsMalformedURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{url: "localhost:6379"}); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestScheduleAppointmentReminderEnqueues(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{url: "redis://" + srv.Addr(), queue: "salon"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	err = client.ScheduleAppointmentReminder(context.Background(), AppointmentReminderPayload{
		AppointmentID: "0d4f4962-4fb5-4b33-9fe1-26f043e86c27",
		TenantID:      "8c2b7b39-2f0a-4a4f-8af0-200f5a0f1b41",
		StartTime:     time.Now().Add(25 * time.Hour).UTC(),
	}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ScheduleAppointmentReminder returned error: %v", err)
	}

	// asynq stores scheduled tasks under its own key namespace.
	keys := srv.Keys()
	if len(keys) == 0 {
		t.Fatal("expected asynq to write task state to redis")
	}
}

func TestScheduleAppointmentReminderNilClientIsNoop(t *testing.T) {
	var client *Client
	err := client.ScheduleAppointmentReminder(context.Background(), AppointmentReminderPayload{}, time.Now())
	if err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}

func TestRedisClientOptAppliesInsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://example.com:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt returned error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected TLS config with InsecureSkipVerify")
	}
}

func TestRedisClientOptPlainURLHasNoTLS(t *testing.T) {
	opt, err := redisClientOpt("redis://localhost:6379/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt returned error: %v", err)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS config for plain redis url")
	}
	if opt.DB != 2 {
		t.Fatalf("expected db 2 from url, got %d", opt.DB)
	}
}
