// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Tenant Domain Events
// =============================================================================

// TenantRegistered is published when a new salon signs up.
type TenantRegistered struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

func (e TenantRegistered) EventName() string { return "tenants.registered" }

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentBooked is published when an appointment is created.
type AppointmentBooked struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	AppointmentID  uuid.UUID `json:"appointmentId"`
	ClientID       uuid.UUID `json:"clientId"`
	ProfessionalID uuid.UUID `json:"professionalId"`
	ServiceID      uuid.UUID `json:"serviceId"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
}

func (e AppointmentBooked) EventName() string { return "appointments.booked" }

// AppointmentStatusChanged is published on every appointment transition.
type AppointmentStatusChanged struct {
	BaseEvent
	TenantID      uuid.UUID `json:"tenantId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	ClientID      uuid.UUID `json:"clientId"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
}

func (e AppointmentStatusChanged) EventName() string { return "appointments.status_changed" }

// EscalationOpened is published when the presence monitor flags an
// appointment whose client has not shown up.
type EscalationOpened struct {
	BaseEvent
	TenantID         uuid.UUID `json:"tenantId"`
	AppointmentID    uuid.UUID `json:"appointmentId"`
	TicketID         uuid.UUID `json:"ticketId"`
	ResponseDeadline time.Time `json:"responseDeadline"`
}

func (e EscalationOpened) EventName() string { return "appointments.escalation_opened" }

// AppointmentReminderDue is published by the scheduler worker when a
// reminder task fires for an upcoming appointment.
type AppointmentReminderDue struct {
	BaseEvent
	TenantID      uuid.UUID `json:"tenantId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
}

func (e AppointmentReminderDue) EventName() string { return "appointments.reminder_due" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationOutboxDue is published synchronously by the scheduler worker
// when a queued outbox record is ready for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e NotificationOutboxDue) EventName() string { return "notifications.outbox_due" }
