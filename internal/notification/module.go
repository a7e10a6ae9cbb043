// Package notification turns domain events into client and salon messages.
// Appointment notifications go through a persistent outbox and are delivered
// asynchronously via WhatsApp and email; staff-relevant events also land in
// the dashboard feed. The signup welcome email is sent directly.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apptrepo "github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/email"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/inapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/outbox"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/sse"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

// Outbox kinds. One per client-facing message.
const (
	KindAppointmentBooked    = "appointment_booked"
	KindAppointmentConfirmed = "appointment_confirmed"
	KindAppointmentCancelled = "appointment_cancelled"
	KindAppointmentCompleted = "appointment_completed"
	KindAppointmentNoShow    = "appointment_no_show"
	KindAppointmentReminder  = "appointment_reminder"
	KindEscalationOpened     = "escalation_opened"
)

const (
	invalidOutboxPayloadPrefix = "invalid payload: "
	maxOutboxRetryAttempts     = 5
	outboxRetryBaseDelay       = time.Minute
	outboxRetryMaxDelay        = 60 * time.Minute
)

// WhatsAppSender sends WhatsApp messages to clients.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// AppointmentDetailsReader loads the contact and display data needed to
// render appointment messages.
type AppointmentDetailsReader interface {
	GetNotificationDetails(ctx context.Context, appointmentID, tenantID uuid.UUID) (*apptrepo.NotificationDetails, error)
}

// FeedWriter posts entries to the staff dashboard feed.
type FeedWriter interface {
	Send(ctx context.Context, p inapp.SendParams) error
}

type appointmentOutboxPayload struct {
	AppointmentID string `json:"appointmentId"`
}

type escalationOutboxPayload struct {
	AppointmentID    string    `json:"appointmentId"`
	TicketID         string    `json:"ticketId"`
	ResponseDeadline time.Time `json:"responseDeadline"`
}

// statusChangeKinds maps appointment target statuses to outbox kinds.
// Transitions missing here produce no client message.
var statusChangeKinds = map[string]string{
	"confirmed": KindAppointmentConfirmed,
	"cancelled": KindAppointmentCancelled,
	"completed": KindAppointmentCompleted,
	"no_show":   KindAppointmentNoShow,
}

// statusFeedEntries maps target statuses to dashboard feed entries. Completed
// appointments are staff-initiated and produce no entry.
var statusFeedEntries = map[string]struct {
	title    string
	category string
}{
	"confirmed": {title: "Presença confirmada", category: inapp.CategoryInfo},
	"cancelled": {title: "Agendamento cancelado", category: inapp.CategoryWarning},
	"no_show":   {title: "Cliente não compareceu", category: inapp.CategoryError},
}

// Module handles all notification-related event subscriptions.
type Module struct {
	outbox      *outbox.Repository
	sender      email.Sender
	whatsapp    WhatsAppSender
	details     AppointmentDetailsReader
	feed        FeedWriter
	httpHandler *handler.Handler
	clk         clock.Clock
	log         *logger.Logger
}

// New creates the notification module.
func New(
	outboxRepo *outbox.Repository,
	sender email.Sender,
	whatsapp WhatsAppSender,
	details AppointmentDetailsReader,
	feed FeedWriter,
	clk clock.Clock,
	log *logger.Logger,
) *Module {
	return &Module{
		outbox:   outboxRepo,
		sender:   sender,
		whatsapp: whatsapp,
		details:  details,
		feed:     feed,
		clk:      clk,
		log:      log,
	}
}

func (m *Module) Name() string { return "notification" }

// SetHTTPHandler wires the dashboard feed endpoints. The scheduler process
// leaves it unset and RegisterRoutes becomes a no-op.
func (m *Module) SetHTTPHandler(h *handler.Handler) {
	m.httpHandler = h
}

// RegisterRoutes mounts the staff feed routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.httpHandler == nil {
		return
	}

	notifications := ctx.Protected.Group("/notifications")
	notifications.GET("", m.httpHandler.List)
	notifications.GET("/unread", m.httpHandler.CountUnread)
	notifications.GET("/stream", m.httpHandler.Stream)
	notifications.PATCH("/:id/read", m.httpHandler.MarkRead)
	notifications.PATCH("/read-all", m.httpHandler.MarkAllRead)
	notifications.DELETE("/:id", m.httpHandler.Delete)
}

// RegisterHandlers subscribes to the domain events the module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TenantRegistered{}.EventName(), m)
	bus.Subscribe(events.AppointmentBooked{}.EventName(), m)
	bus.Subscribe(events.AppointmentStatusChanged{}.EventName(), m)
	bus.Subscribe(events.EscalationOpened{}.EventName(), m)
	bus.Subscribe(events.AppointmentReminderDue{}.EventName(), m)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), m)
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TenantRegistered:
		return m.handleTenantRegistered(ctx, e)
	case events.AppointmentBooked:
		return m.handleAppointmentBooked(ctx, e)
	case events.AppointmentStatusChanged:
		return m.handleAppointmentStatusChanged(ctx, e)
	case events.EscalationOpened:
		return m.handleEscalationOpened(ctx, e)
	case events.AppointmentReminderDue:
		return m.handleAppointmentReminderDue(ctx, e)
	case events.NotificationOutboxDue:
		return m.handleNotificationOutboxDue(ctx, e)
	}
	return nil
}

func (m *Module) handleTenantRegistered(ctx context.Context, e events.TenantRegistered) error {
	if strings.TrimSpace(e.Email) == "" {
		return nil
	}
	if err := m.sender.SendWelcomeEmail(ctx, e.Email, e.Name); err != nil {
		m.log.Error("failed to send welcome email", "tenantId", e.TenantID, "error", err)
	}
	return nil
}

func (m *Module) handleAppointmentBooked(ctx context.Context, e events.AppointmentBooked) error {
	if d := m.loadDetails(ctx, e.AppointmentID, e.TenantID); d != nil {
		m.pushFeed(ctx, e.TenantID, e.AppointmentID, sse.EventAppointmentBooked,
			inapp.CategorySuccess, "Novo agendamento", feedSummary(d))
	}
	return m.queueAppointmentNotification(ctx, e.TenantID, e.AppointmentID, KindAppointmentBooked)
}

func (m *Module) handleAppointmentStatusChanged(ctx context.Context, e events.AppointmentStatusChanged) error {
	kind, ok := statusChangeKinds[e.NewStatus]
	if !ok {
		return nil
	}
	if entry, wanted := statusFeedEntries[e.NewStatus]; wanted {
		if d := m.loadDetails(ctx, e.AppointmentID, e.TenantID); d != nil {
			m.pushFeed(ctx, e.TenantID, e.AppointmentID, sse.EventAppointmentStatusChanged,
				entry.category, entry.title, feedSummary(d))
		}
	}
	return m.queueAppointmentNotification(ctx, e.TenantID, e.AppointmentID, kind)
}

func (m *Module) handleAppointmentReminderDue(ctx context.Context, e events.AppointmentReminderDue) error {
	return m.queueAppointmentNotification(ctx, e.TenantID, e.AppointmentID, KindAppointmentReminder)
}

func (m *Module) handleEscalationOpened(ctx context.Context, e events.EscalationOpened) error {
	// The feed entry is the ask for a human: surface it even when the
	// client-facing channels are unavailable.
	if d := m.loadDetails(ctx, e.AppointmentID, e.TenantID); d != nil {
		m.pushFeed(ctx, e.TenantID, e.AppointmentID, sse.EventEscalationOpened,
			inapp.CategoryWarning, "Confirmação pendente", escalationFeedSummary(d, e.ResponseDeadline))
	}

	if m.outbox == nil {
		m.log.Debug("notification outbox not configured; skipping escalation alert", "appointmentId", e.AppointmentID)
		return nil
	}
	apptID := e.AppointmentID
	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		TenantID:      e.TenantID,
		AppointmentID: &apptID,
		Kind:          KindEscalationOpened,
		Payload: escalationOutboxPayload{
			AppointmentID:    e.AppointmentID.String(),
			TicketID:         e.TicketID.String(),
			ResponseDeadline: e.ResponseDeadline,
		},
		RunAt: m.clk.Now(),
	})
	if err != nil {
		m.log.Error("failed to queue escalation alert", "appointmentId", e.AppointmentID, "error", err)
		return err
	}
	return nil
}

// queueAppointmentNotification writes one outbox row. Delivery happens later
// through the dispatcher and the task worker.
func (m *Module) queueAppointmentNotification(ctx context.Context, tenantID, appointmentID uuid.UUID, kind string) error {
	if m.outbox == nil {
		m.log.Debug("notification outbox not configured; skipping", "kind", kind, "appointmentId", appointmentID)
		return nil
	}
	apptID := appointmentID
	if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
		TenantID:      tenantID,
		AppointmentID: &apptID,
		Kind:          kind,
		Payload:       appointmentOutboxPayload{AppointmentID: appointmentID.String()},
		RunAt:         m.clk.Now(),
	}); err != nil {
		m.log.Error("failed to queue notification", "kind", kind, "appointmentId", appointmentID, "error", err)
		return err
	}
	return nil
}

// loadDetails fetches rendering data for a feed entry. Best effort: a miss
// skips the entry, the outbox row still carries the client-facing message.
func (m *Module) loadDetails(ctx context.Context, appointmentID, tenantID uuid.UUID) *apptrepo.NotificationDetails {
	if m.details == nil {
		return nil
	}
	d, err := m.details.GetNotificationDetails(ctx, appointmentID, tenantID)
	if err != nil {
		m.log.Debug("appointment details unavailable for feed entry", "appointmentId", appointmentID, "error", err)
		return nil
	}
	return d
}

// pushFeed writes a dashboard feed entry. Failures are logged, never returned.
func (m *Module) pushFeed(ctx context.Context, tenantID, appointmentID uuid.UUID, eventType sse.EventType, category, title, content string) {
	if m.feed == nil {
		return
	}
	apptID := appointmentID
	if err := m.feed.Send(ctx, inapp.SendParams{
		TenantID:      tenantID,
		Title:         title,
		Content:       content,
		AppointmentID: &apptID,
		Category:      category,
		EventType:     eventType,
	}); err != nil {
		m.log.Warn("dashboard feed entry failed", "title", title, "appointmentId", appointmentID, "error", err)
	}
}

func (m *Module) handleNotificationOutboxDue(ctx context.Context, e events.NotificationOutboxDue) error {
	if m.outbox == nil {
		m.log.Debug("notification outbox repository not configured; skipping outbox due event", "outboxId", e.OutboxID, "tenantId", e.TenantID)
		return nil
	}
	log := m.log.WithTenantID(e.TenantID.String())
	log.Info("processing outbox due event", "outboxId", e.OutboxID)
	rec, process, err := m.prepareOutboxRecord(ctx, e.OutboxID)
	if err != nil || !process {
		if err != nil {
			log.Error("failed to prepare outbox record", "outboxId", e.OutboxID, "error", err)
		}
		return err
	}

	done, deliverErr := m.deliver(ctx, rec)
	if deliverErr != nil {
		m.handleOutboxDeliveryError(ctx, rec, deliverErr)
		return deliverErr
	}
	if done {
		if err := m.outbox.MarkSent(ctx, rec.ID); err != nil {
			log.Error("failed to mark outbox record sent", "outboxId", rec.ID.String(), "error", err)
			return err
		}
		log.Info("outbox record delivered", "outboxId", rec.ID.String(), "kind", rec.Kind)
	}
	return nil
}

// prepareOutboxRecord loads the record and claims it for processing. Already
// sent records are skipped so replayed tasks stay harmless.
func (m *Module) prepareOutboxRecord(ctx context.Context, outboxID uuid.UUID) (outbox.Record, bool, error) {
	rec, err := m.outbox.GetByID(ctx, outboxID)
	if err != nil {
		return outbox.Record{}, false, err
	}
	if rec.Status == outbox.StatusSent {
		m.log.Debug("outbox record already sent; skipping", "outboxId", rec.ID.String())
		return rec, false, nil
	}
	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return outbox.Record{}, false, err
	}
	m.log.Debug("outbox record marked processing", "outboxId", rec.ID.String(), "kind", rec.Kind)
	return rec, true, nil
}

// deliver sends the messages for one outbox record. It returns done=false
// when it already settled the record's final status itself.
func (m *Module) deliver(ctx context.Context, rec outbox.Record) (bool, error) {
	switch rec.Kind {
	case KindEscalationOpened:
		return m.deliverEscalation(ctx, rec)
	case KindAppointmentBooked, KindAppointmentConfirmed, KindAppointmentCancelled,
		KindAppointmentCompleted, KindAppointmentNoShow, KindAppointmentReminder:
		return m.deliverAppointment(ctx, rec)
	default:
		m.markOutboxUnsupported(ctx, rec)
		return false, nil
	}
}

func (m *Module) deliverAppointment(ctx context.Context, rec outbox.Record) (bool, error) {
	var payload appointmentOutboxPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return false, nil
	}
	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return false, nil
	}

	d, err := m.details.GetNotificationDetails(ctx, apptID, rec.TenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// Appointment purged before delivery; nothing left to say.
			_ = m.outbox.MarkFailed(ctx, rec.ID, "appointment no longer exists")
			return false, nil
		}
		return false, err
	}

	// A reminder for an appointment that was resolved in the meantime is
	// dropped, not delivered.
	if rec.Kind == KindAppointmentReminder && d.Status != "scheduled" && d.Status != "confirmed" {
		m.log.Debug("reminder skipped; appointment no longer active", "appointmentId", apptID, "status", d.Status)
		return true, nil
	}

	if message := appointmentWhatsAppMessage(rec.Kind, d); message != "" {
		if err := m.sendClientWhatsApp(ctx, d.ClientPhone, message); err != nil {
			return false, err
		}
	}
	m.sendAppointmentEmail(ctx, rec.Kind, d)
	return true, nil
}

func (m *Module) deliverEscalation(ctx context.Context, rec outbox.Record) (bool, error) {
	var payload escalationOutboxPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return false, nil
	}
	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return false, nil
	}

	d, err := m.details.GetNotificationDetails(ctx, apptID, rec.TenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			_ = m.outbox.MarkFailed(ctx, rec.ID, "appointment no longer exists")
			return false, nil
		}
		return false, err
	}

	// The salon gets the alert email; the client gets a nudge on WhatsApp.
	if strings.TrimSpace(d.SalonEmail) != "" {
		dateStr, timeStr := localTimes(d.StartTime)
		scheduled := fmt.Sprintf("%s às %s", dateStr, timeStr)
		_, deadlineTime := localTimes(payload.ResponseDeadline)
		if err := m.sender.SendEscalationAlertEmail(ctx, d.SalonEmail, d.ClientName, d.ServiceName, scheduled, deadlineTime); err != nil {
			return false, fmt.Errorf("send escalation alert email: %w", err)
		}
	}
	if err := m.sendClientWhatsApp(ctx, d.ClientPhone, escalationWhatsAppMessage(d, payload.ResponseDeadline)); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Module) sendClientWhatsApp(ctx context.Context, phone, message string) error {
	if m.whatsapp == nil || strings.TrimSpace(phone) == "" || message == "" {
		return nil
	}
	if err := m.whatsapp.SendMessage(ctx, phone, message); err != nil {
		return fmt.Errorf("send whatsapp: %w", err)
	}
	return nil
}

// sendAppointmentEmail mirrors the WhatsApp message over email for the kinds
// that warrant one. Email failure never fails the record; WhatsApp is the
// primary channel for clients.
func (m *Module) sendAppointmentEmail(ctx context.Context, kind string, d *apptrepo.NotificationDetails) {
	toEmail := strings.TrimSpace(d.ClientEmail)
	if toEmail == "" {
		return
	}
	dateStr, timeStr := localTimes(d.StartTime)
	scheduled := fmt.Sprintf("%s às %s", dateStr, timeStr)

	var err error
	switch kind {
	case KindAppointmentBooked:
		err = m.sender.SendAppointmentBookedEmail(ctx, toEmail, d.ClientName, d.ServiceName, d.ProfessionalName, scheduled)
	case KindAppointmentConfirmed:
		err = m.sender.SendAppointmentConfirmedEmail(ctx, toEmail, d.ClientName, d.ServiceName, scheduled)
	case KindAppointmentCancelled:
		err = m.sender.SendAppointmentCancelledEmail(ctx, toEmail, d.ClientName, d.ServiceName, scheduled)
	default:
		return
	}
	if err != nil {
		m.log.Warn("appointment email delivery failed", "kind", kind, "appointmentId", d.AppointmentID, "error", err)
	}
}

func (m *Module) handleOutboxDeliveryError(ctx context.Context, rec outbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Warn("notification outbox exhausted retries",
			"outboxId", rec.ID.String(),
			"kind", rec.Kind,
			"attempt", attempt,
			"maxAttempts", maxOutboxRetryAttempts,
			"error", deliveryErr,
		)
		return
	}

	retryAt := m.clk.Now().Add(computeOutboxRetryDelay(attempt))
	if err := m.outbox.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Error("notification outbox retry scheduling failed; marked failed",
			"outboxId", rec.ID.String(),
			"attempt", attempt,
			"error", err,
		)
		return
	}

	m.log.Warn("notification outbox scheduled retry",
		"outboxId", rec.ID.String(),
		"kind", rec.Kind,
		"attempt", attempt,
		"maxAttempts", maxOutboxRetryAttempts,
		"retryAt", retryAt,
		"error", deliveryErr,
	)
}

func computeOutboxRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		return outboxRetryMaxDelay
	}
	return delay
}

func (m *Module) markOutboxUnsupported(ctx context.Context, rec outbox.Record) {
	msg := fmt.Sprintf("unsupported outbox kind: %s", rec.Kind)
	_ = m.outbox.MarkFailed(ctx, rec.ID, msg)
	m.log.Warn("unsupported outbox record", "outboxId", rec.ID.String(), "kind", rec.Kind)
}
