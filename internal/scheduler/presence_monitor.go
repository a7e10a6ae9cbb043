package scheduler

import (
	"context"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPresenceTick           = 30 * time.Second
	defaultPresenceGrace          = 20 * time.Minute
	defaultPresenceResponseWindow = 5 * time.Minute

	presenceBatchSize = 100
)

// PresenceStore is the slice of the appointments repository the monitor
// needs. Satisfied by *repository.Repository.
type PresenceStore interface {
	ListOverdueScheduled(ctx context.Context, cutoff time.Time, limit int) ([]repository.Appointment, error)
	UpdateStatusCAS(ctx context.Context, id, tenantID uuid.UUID, target string, expectedVersion int64, now time.Time, inTx repository.TxFunc) (*repository.Appointment, error)
	CreateTicketIfAbsent(ctx context.Context, ticket repository.EscalationTicket) (*repository.EscalationTicket, bool, error)
	ListDueTickets(ctx context.Context, now time.Time, limit int) ([]repository.EscalationTicket, error)
	ResolveTicketIfOpen(ctx context.Context, id uuid.UUID, resolution string, now time.Time) (bool, error)
	VoidTicketIfOpen(ctx context.Context, id uuid.UUID, resolution string, now time.Time) (bool, error)
}

// PresenceMonitor watches for clients who have not shown up. A scheduled
// appointment past its start plus the grace period gets an escalation
// ticket; a ticket past its response deadline resolves the appointment to
// no-show, unless a human settled it first.
type PresenceMonitor struct {
	store          PresenceStore
	bus            events.Bus
	clk            clock.Clock
	log            *logger.Logger
	tick           time.Duration
	grace          time.Duration
	responseWindow time.Duration
}

func NewPresenceMonitor(cfg config.PresenceConfig, store PresenceStore, bus events.Bus, clk clock.Clock, log *logger.Logger) *PresenceMonitor {
	tick := cfg.GetPresenceTick()
	if tick <= 0 {
		tick = defaultPresenceTick
	}
	grace := cfg.GetPresenceGrace()
	if grace <= 0 {
		grace = defaultPresenceGrace
	}
	responseWindow := cfg.GetPresenceResponseWindow()
	if responseWindow <= 0 {
		responseWindow = defaultPresenceResponseWindow
	}

	return &PresenceMonitor{
		store:          store,
		bus:            bus,
		clk:            clk,
		log:            log,
		tick:           tick,
		grace:          grace,
		responseWindow: responseWindow,
	}
}

func (m *PresenceMonitor) Run(ctx context.Context) {
	if m == nil || m.store == nil {
		return
	}

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one monitor pass: flag overdue appointments, then settle
// expired tickets. Both passes are idempotent, so overlapping or repeated
// sweeps cannot double-flag or double-resolve.
func (m *PresenceMonitor) Sweep(ctx context.Context) {
	m.flagOverdue(ctx)
	m.settleExpiredTickets(ctx)
}

func (m *PresenceMonitor) flagOverdue(ctx context.Context) {
	now := m.clk.Now()
	cutoff := now.Add(-m.grace)

	overdue, err := m.store.ListOverdueScheduled(ctx, cutoff, presenceBatchSize)
	if err != nil {
		m.log.Warn("presence sweep could not list overdue appointments", "error", err)
		return
	}

	for _, appt := range overdue {
		ticket, created, err := m.store.CreateTicketIfAbsent(ctx, repository.EscalationTicket{
			ID:                 uuid.New(),
			TenantID:           appt.TenantID,
			AppointmentID:      appt.ID,
			AppointmentVersion: appt.Version,
			ResponseDeadline:   now.Add(m.responseWindow),
		})
		if err != nil {
			m.log.Warn("presence sweep could not open escalation ticket", "appointmentId", appt.ID, "error", err)
			continue
		}
		if !created {
			continue
		}

		m.log.Info("escalation ticket opened",
			"appointmentId", appt.ID,
			"ticketId", ticket.ID,
			"responseDeadline", ticket.ResponseDeadline,
		)
		if m.bus != nil {
			m.bus.Publish(ctx, events.EscalationOpened{
				BaseEvent:        events.NewBaseEvent(),
				TenantID:         appt.TenantID,
				AppointmentID:    appt.ID,
				TicketID:         ticket.ID,
				ResponseDeadline: ticket.ResponseDeadline,
			})
		}
	}
}

func (m *PresenceMonitor) settleExpiredTickets(ctx context.Context) {
	now := m.clk.Now()

	due, err := m.store.ListDueTickets(ctx, now, presenceBatchSize)
	if err != nil {
		m.log.Warn("presence sweep could not list due tickets", "error", err)
		return
	}

	for _, ticket := range due {
		m.settleTicket(ctx, ticket, now)
	}
}

// settleTicket marks the appointment no-show with the version captured when
// the ticket was opened. Any transition since then bumped the version, so a
// failed compare means a human settled the appointment and the ticket is
// voided without touching their outcome.
func (m *PresenceMonitor) settleTicket(ctx context.Context, ticket repository.EscalationTicket, now time.Time) {
	appt, err := m.store.UpdateStatusCAS(ctx, ticket.AppointmentID, ticket.TenantID, "no_show", ticket.AppointmentVersion, now, nil)
	if err != nil {
		if apperr.Is(err, apperr.KindStaleVersion) || apperr.Is(err, apperr.KindNotFound) {
			voided, voidErr := m.store.VoidTicketIfOpen(ctx, ticket.ID, repository.ResolutionSuperseded, now)
			if voidErr != nil {
				m.log.Warn("presence sweep could not void superseded ticket", "ticketId", ticket.ID, "error", voidErr)
				return
			}
			if voided {
				m.log.Info("escalation ticket voided; appointment settled elsewhere", "ticketId", ticket.ID, "appointmentId", ticket.AppointmentID)
			}
			return
		}
		m.log.Warn("presence sweep could not mark no-show", "ticketId", ticket.ID, "appointmentId", ticket.AppointmentID, "error", err)
		return
	}

	resolved, err := m.store.ResolveTicketIfOpen(ctx, ticket.ID, repository.ResolutionNoShow, now)
	if err != nil {
		m.log.Warn("presence sweep could not resolve ticket after no-show", "ticketId", ticket.ID, "error", err)
		return
	}
	if !resolved {
		return
	}

	m.log.Info("appointment marked no-show", "appointmentId", ticket.AppointmentID, "ticketId", ticket.ID)
	if m.bus != nil {
		m.bus.Publish(ctx, events.AppointmentStatusChanged{
			BaseEvent:     events.NewBaseEvent(),
			TenantID:      ticket.TenantID,
			AppointmentID: ticket.AppointmentID,
			ClientID:      appt.ClientID,
			OldStatus:     "scheduled",
			NewStatus:     "no_show",
		})
	}
}
