package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/scheduler"
	servicesrepo "github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/sanitize"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Date/time format constants.
const (
	dateFormat  = "2006-01-02"
	clockFormat = "15:04"
)

const maxSlotRangeDays = 31

// CatalogReader resolves bookable services for appointment creation.
type CatalogReader interface {
	GetBookable(ctx context.Context, tenantID, serviceID uuid.UUID) (servicesrepo.Service, error)
}

// ClientDirectory confirms clients exist before booking.
type ClientDirectory interface {
	Exists(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error)
}

// ProfessionalDirectory confirms professionals exist before booking.
type ProfessionalDirectory interface {
	ExistsProfessional(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}

// LoyaltyAwarder accrues loyalty points when an appointment completes. The
// award runs on the transaction of the completed transition and is idempotent
// per appointment.
type LoyaltyAwarder interface {
	AwardForAppointment(ctx context.Context, tx pgx.Tx, tenantID, appointmentID uuid.UUID) (int64, error)
}

// Store is the slice of the appointments repository the service drives.
type Store interface {
	Create(ctx context.Context, appt *repository.Appointment) (*repository.Appointment, error)
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*repository.Appointment, error)
	Reschedule(ctx context.Context, id, tenantID uuid.UUID, startTime, endTime time.Time, expectedVersion int64) (*repository.Appointment, error)
	UpdateStatusCAS(ctx context.Context, id, tenantID uuid.UUID, target string, expectedVersion int64, now time.Time, inTx repository.TxFunc) (*repository.Appointment, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	ListActiveForRange(ctx context.Context, tenantID, professionalID uuid.UUID, from, to time.Time) ([]repository.Appointment, error)
	ListOpenTickets(ctx context.Context, tenantID uuid.UUID) ([]repository.EscalationTicket, error)
	VoidOpenTicketForAppointment(ctx context.Context, appointmentID uuid.UUID, resolution string, now time.Time) (bool, error)
	ListBusinessHours(ctx context.Context, tenantID uuid.UUID) ([]repository.BusinessHour, error)
	GetBusinessHoursForWeekday(ctx context.Context, tenantID uuid.UUID, weekday int) (*repository.BusinessHour, error)
	ReplaceBusinessHours(ctx context.Context, tenantID uuid.UUID, items []repository.BusinessHour) error
}

// Service provides business logic for appointments.
type Service struct {
	repo              Store
	catalog           CatalogReader
	clients           ClientDirectory
	professionals     ProfessionalDirectory
	loyalty           LoyaltyAwarder
	eventBus          events.Bus
	reminderScheduler scheduler.ReminderScheduler
	reminderLead      time.Duration
	clk               clock.Clock
	log               *logger.Logger
}

// New creates a new appointments service.
func New(
	repo Store,
	catalog CatalogReader,
	clients ClientDirectory,
	professionals ProfessionalDirectory,
	loyalty LoyaltyAwarder,
	eventBus events.Bus,
	reminderScheduler scheduler.ReminderScheduler,
	reminderLead time.Duration,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:              repo,
		catalog:           catalog,
		clients:           clients,
		professionals:     professionals,
		loyalty:           loyalty,
		eventBus:          eventBus,
		reminderScheduler: reminderScheduler,
		reminderLead:      reminderLead,
		clk:               clk,
		log:               log,
	}
}

// Book creates a new appointment. The end time is derived from the service
// duration, the window must fall inside the salon's business hours for that
// weekday, and the professional's agenda must be free. The conflict check and
// insert are atomic, so two rival bookings for the same professional cannot
// both land.
func (s *Service) Book(ctx context.Context, tenantID uuid.UUID, req transport.BookAppointmentRequest) (*transport.AppointmentResponse, error) {
	clientExists, err := s.clients.Exists(ctx, tenantID, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !clientExists {
		return nil, apperr.NotFound("client not found")
	}

	professionalExists, err := s.professionals.ExistsProfessional(ctx, tenantID, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !professionalExists {
		return nil, apperr.NotFound("professional not found")
	}

	svc, err := s.catalog.GetBookable(ctx, tenantID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	startTime := req.StartTime.UTC()
	endTime := startTime.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	if err := s.checkBusinessHours(ctx, tenantID, startTime, endTime); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	appt, err := s.repo.Create(ctx, &repository.Appointment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		StartTime:      startTime,
		EndTime:        endTime,
		Status:         string(transport.AppointmentStatusScheduled),
		Notes:          sanitize.TextPtr(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment booked",
		"appointmentId", appt.ID,
		"tenantId", tenantID,
		"professionalId", appt.ProfessionalID,
		"startTime", appt.StartTime,
	)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.AppointmentBooked{
			BaseEvent:      events.NewBaseEvent(),
			TenantID:       tenantID,
			AppointmentID:  appt.ID,
			ClientID:       appt.ClientID,
			ProfessionalID: appt.ProfessionalID,
			ServiceID:      appt.ServiceID,
			StartTime:      appt.StartTime,
			EndTime:        appt.EndTime,
		})
	}

	s.scheduleReminder(ctx, appt)

	resp := appt.ToResponse()
	return &resp, nil
}

// Reschedule moves an active appointment to a new window derived from its
// service duration. The caller supplies the version it read, a concurrent
// modification surfaces as a stale version conflict.
func (s *Service) Reschedule(ctx context.Context, tenantID, id uuid.UUID, req transport.RescheduleAppointmentRequest) (*transport.AppointmentResponse, error) {
	current, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	status := transport.AppointmentStatus(current.Status)
	if status != transport.AppointmentStatusScheduled && status != transport.AppointmentStatusConfirmed {
		return nil, apperr.InvalidTransition(fmt.Sprintf("cannot reschedule a %s appointment", current.Status))
	}

	duration := current.EndTime.Sub(current.StartTime)
	startTime := req.StartTime.UTC()
	endTime := startTime.Add(duration)

	if err := s.checkBusinessHours(ctx, tenantID, startTime, endTime); err != nil {
		return nil, err
	}

	appt, err := s.repo.Reschedule(ctx, id, tenantID, startTime, endTime, req.Version)
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment rescheduled",
		"appointmentId", appt.ID,
		"tenantId", tenantID,
		"startTime", appt.StartTime,
	)

	s.scheduleReminder(ctx, appt)

	resp := appt.ToResponse()
	return &resp, nil
}

// Transition moves an appointment to a new status under the lifecycle rules.
// Completion awards loyalty points inside the same transaction as the status
// change, so the award and the completed state commit or fail together.
// Leaving the scheduled or confirmed state voids any open escalation ticket,
// the staff decision overrides the pending no-show.
func (s *Service) Transition(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateAppointmentStatusRequest) (*transport.AppointmentResponse, error) {
	current, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	from := transport.AppointmentStatus(current.Status)
	if !CanTransition(from, req.Status) {
		return nil, apperr.InvalidTransition(
			fmt.Sprintf("cannot transition appointment from %s to %s", from, req.Status))
	}

	var inTx repository.TxFunc
	if req.Status == transport.AppointmentStatusCompleted && s.loyalty != nil {
		inTx = func(txCtx context.Context, tx pgx.Tx) error {
			_, err := s.loyalty.AwardForAppointment(txCtx, tx, tenantID, id)
			return err
		}
	}

	appt, err := s.repo.UpdateStatusCAS(ctx, id, tenantID, string(req.Status), req.Version, s.clk.Now(), inTx)
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment status changed",
		"appointmentId", appt.ID,
		"tenantId", tenantID,
		"from", from,
		"to", req.Status,
	)

	s.afterTransition(ctx, tenantID, appt, from, req.Status)

	resp := appt.ToResponse()
	return &resp, nil
}

// afterTransition runs the side effects of a committed status change. They
// are logged, not returned, the transition itself already succeeded.
func (s *Service) afterTransition(ctx context.Context, tenantID uuid.UUID, appt *repository.Appointment, from, to transport.AppointmentStatus) {
	switch to {
	case transport.AppointmentStatusConfirmed,
		transport.AppointmentStatusCancelled,
		transport.AppointmentStatusCompleted:
		voided, err := s.repo.VoidOpenTicketForAppointment(ctx, appt.ID, string(to), s.clk.Now())
		if err != nil {
			s.log.Error("failed to void escalation ticket", "appointmentId", appt.ID, "error", err)
		} else if voided {
			s.log.Info("escalation ticket voided by staff decision", "appointmentId", appt.ID, "resolution", to)
		}
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.AppointmentStatusChanged{
			BaseEvent:     events.NewBaseEvent(),
			TenantID:      tenantID,
			AppointmentID: appt.ID,
			ClientID:      appt.ClientID,
			OldStatus:     string(from),
			NewStatus:     string(to),
		})
	}
}

// GetByID retrieves an appointment by ID.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	resp := appt.ToResponse()
	return &resp, nil
}

// List retrieves appointments with filtering and pagination.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	params := repository.ListParams{
		TenantID:  tenantID,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	if req.ProfessionalID != "" {
		id, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			return nil, apperr.BadRequest("invalid professionalId format")
		}
		params.ProfessionalID = &id
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, apperr.BadRequest("invalid clientId format")
		}
		params.ClientID = &id
	}
	if req.StartFrom != "" {
		from, err := time.Parse(time.RFC3339, req.StartFrom)
		if err != nil {
			return nil, apperr.BadRequest("invalid startFrom format")
		}
		params.StartFrom = &from
	}
	if req.StartTo != "" {
		to, err := time.Parse(time.RFC3339, req.StartTo)
		if err != nil {
			return nil, apperr.BadRequest("invalid startTo format")
		}
		params.StartTo = &to
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.AppointmentResponse, len(result.Items))
	for i := range result.Items {
		items[i] = result.Items[i].ToResponse()
	}

	return &transport.AppointmentListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// ListEscalations returns the open no-show escalations of a salon.
func (s *Service) ListEscalations(ctx context.Context, tenantID uuid.UUID) (*transport.EscalationListResponse, error) {
	tickets, err := s.repo.ListOpenTickets(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	items := make([]transport.EscalationTicketResponse, len(tickets))
	for i, t := range tickets {
		items[i] = transport.EscalationTicketResponse{
			ID:               t.ID,
			AppointmentID:    t.AppointmentID,
			Status:           t.Status,
			ResponseDeadline: t.ResponseDeadline,
			Resolution:       t.Resolution,
			ResolvedAt:       t.ResolvedAt,
			CreatedAt:        t.CreatedAt,
			ClientName:       t.ClientName,
			ServiceName:      t.ServiceName,
			StartTime:        t.StartTime,
		}
	}

	return &transport.EscalationListResponse{Items: items}, nil
}

// checkBusinessHours validates the window against the salon's hours for the
// start weekday. A missing row means the day is closed.
func (s *Service) checkBusinessHours(ctx context.Context, tenantID uuid.UUID, startTime, endTime time.Time) error {
	hours, err := s.repo.GetBusinessHoursForWeekday(ctx, tenantID, int(startTime.Weekday()))
	if err != nil {
		return err
	}
	return validateWithinHours(startTime, endTime, hours)
}

// scheduleReminder enqueues a reminder ahead of the appointment start when
// the reminder instant is still in the future.
func (s *Service) scheduleReminder(ctx context.Context, appt *repository.Appointment) {
	if s.reminderScheduler == nil || s.reminderLead <= 0 {
		return
	}

	reminderAt := appt.StartTime.Add(-s.reminderLead)
	if !reminderAt.After(s.clk.Now()) {
		return
	}

	err := s.reminderScheduler.ScheduleAppointmentReminder(ctx, scheduler.AppointmentReminderPayload{
		AppointmentID: appt.ID.String(),
		TenantID:      appt.TenantID.String(),
		StartTime:     appt.StartTime,
	}, reminderAt)
	if err != nil {
		s.log.Error("failed to schedule appointment reminder", "appointmentId", appt.ID, "error", err)
	}
}
