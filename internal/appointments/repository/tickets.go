package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Escalation ticket lifecycle states.
const (
	TicketStatusOpen     = "open"
	TicketStatusResolved = "resolved"
	TicketStatusVoided   = "voided"
)

// Escalation ticket resolutions.
const (
	ResolutionNoShow     = "no_show"
	ResolutionConfirmed  = "confirmed"
	ResolutionCancelled  = "cancelled"
	ResolutionSuperseded = "superseded"
)

// EscalationTicket tracks a client who has not arrived past the grace period.
// AppointmentVersion snapshots the appointment version at flag time, the
// deadline sweep uses it so a staff decision in the meantime wins the race.
type EscalationTicket struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	AppointmentID      uuid.UUID
	AppointmentVersion int64
	Status             string
	ResponseDeadline   time.Time
	Resolution         *string
	ResolvedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined display fields for the escalation dashboard
	ClientName  string
	ServiceName string
	StartTime   time.Time
}

// CreateTicketIfAbsent opens an escalation ticket for an appointment unless
// one is already open. A partial unique index keeps at most one open ticket
// per appointment, so concurrent sweeps cannot double-flag.
func (r *Repository) CreateTicketIfAbsent(ctx context.Context, ticket EscalationTicket) (*EscalationTicket, bool, error) {
	query := `
		INSERT INTO escalation_tickets
			(id, tenant_id, appointment_id, appointment_version, status, response_deadline)
		VALUES
			($1, $2, $3, $4, $5, $6)
		ON CONFLICT (appointment_id) WHERE status = 'open' DO NOTHING
		RETURNING id, tenant_id, appointment_id, appointment_version, status, response_deadline, created_at, updated_at`

	var saved EscalationTicket
	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.TenantID,
		ticket.AppointmentID,
		ticket.AppointmentVersion,
		TicketStatusOpen,
		ticket.ResponseDeadline,
	).Scan(
		&saved.ID,
		&saved.TenantID,
		&saved.AppointmentID,
		&saved.AppointmentVersion,
		&saved.Status,
		&saved.ResponseDeadline,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create escalation ticket: %w", err)
	}

	return &saved, true, nil
}

// ListDueTickets returns open tickets whose response deadline has passed.
func (r *Repository) ListDueTickets(ctx context.Context, now time.Time, limit int) ([]EscalationTicket, error) {
	query := `SELECT id, tenant_id, appointment_id, appointment_version, status, response_deadline,
		resolution, resolved_at, created_at, updated_at
		FROM escalation_tickets
		WHERE status = $1 AND response_deadline <= $2
		ORDER BY response_deadline ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, TicketStatusOpen, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due escalation tickets: %w", err)
	}
	defer rows.Close()

	var items []EscalationTicket
	for rows.Next() {
		var item EscalationTicket
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.AppointmentID,
			&item.AppointmentVersion,
			&item.Status,
			&item.ResponseDeadline,
			&item.Resolution,
			&item.ResolvedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan escalation ticket: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escalation tickets: %w", err)
	}

	return items, nil
}

// ListOpenTickets returns the open escalations of a salon with appointment
// context for the dashboard, most urgent first.
func (r *Repository) ListOpenTickets(ctx context.Context, tenantID uuid.UUID) ([]EscalationTicket, error) {
	query := `SELECT t.id, t.tenant_id, t.appointment_id, t.appointment_version, t.status,
		t.response_deadline, t.resolution, t.resolved_at, t.created_at, t.updated_at,
		c.name, s.name, a.start_time
		FROM escalation_tickets t
		JOIN appointments a ON a.id = t.appointment_id
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE t.tenant_id = $1 AND t.status = $2
		ORDER BY t.response_deadline ASC`

	rows, err := r.pool.Query(ctx, query, tenantID, TicketStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list open escalation tickets: %w", err)
	}
	defer rows.Close()

	var items []EscalationTicket
	for rows.Next() {
		var item EscalationTicket
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.AppointmentID,
			&item.AppointmentVersion,
			&item.Status,
			&item.ResponseDeadline,
			&item.Resolution,
			&item.ResolvedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ClientName,
			&item.ServiceName,
			&item.StartTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan escalation ticket: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escalation tickets: %w", err)
	}

	return items, nil
}

// ResolveTicketIfOpen marks an open ticket resolved with the given resolution.
// Returns false when the ticket is no longer open.
func (r *Repository) ResolveTicketIfOpen(ctx context.Context, id uuid.UUID, resolution string, now time.Time) (bool, error) {
	query := `
		UPDATE escalation_tickets SET
			status = $2, resolution = $3, resolved_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`

	result, err := r.pool.Exec(ctx, query, id, TicketStatusResolved, resolution, now, TicketStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to resolve escalation ticket: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// VoidTicketIfOpen voids an open ticket, recording why it became moot.
// Returns false when the ticket is no longer open.
func (r *Repository) VoidTicketIfOpen(ctx context.Context, id uuid.UUID, resolution string, now time.Time) (bool, error) {
	query := `
		UPDATE escalation_tickets SET
			status = $2, resolution = $3, resolved_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`

	result, err := r.pool.Exec(ctx, query, id, TicketStatusVoided, resolution, now, TicketStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to void escalation ticket: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// VoidOpenTicketForAppointment voids the open ticket of an appointment if one
// exists. Used when staff confirm or cancel while the client-late escalation
// is pending.
func (r *Repository) VoidOpenTicketForAppointment(ctx context.Context, appointmentID uuid.UUID, resolution string, now time.Time) (bool, error) {
	query := `
		UPDATE escalation_tickets SET
			status = $2, resolution = $3, resolved_at = $4, updated_at = $4
		WHERE appointment_id = $1 AND status = $5`

	result, err := r.pool.Exec(ctx, query, appointmentID, TicketStatusVoided, resolution, now, TicketStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to void escalation ticket for appointment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
