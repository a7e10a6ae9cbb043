package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names routed through asynq.
const (
	TaskAppointmentReminder   = "appointments.reminder"
	TaskNotificationOutboxDue = "notification.outbox.due"
)

// AppointmentReminderPayload identifies the appointment a reminder task is
// for. StartTime records the start the reminder was scheduled against; if
// the appointment has moved since, the task is stale and must not fire.
type AppointmentReminderPayload struct {
	AppointmentID string    `json:"appointmentId"`
	TenantID      string    `json:"tenantId"`
	StartTime     time.Time `json:"startTime"`
}

// NotificationOutboxDuePayload identifies an outbox row whose dispatch time
// has arrived.
type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
	TenantID string `json:"tenantId"`
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}
