package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment represents the appointment database model.
type Appointment struct {
	ID                   uuid.UUID  `db:"id"`
	TenantID             uuid.UUID  `db:"tenant_id"`
	ClientID             uuid.UUID  `db:"client_id"`
	ProfessionalID       uuid.UUID  `db:"professional_id"`
	ServiceID            uuid.UUID  `db:"service_id"`
	StartTime            time.Time  `db:"start_time"`
	EndTime              time.Time  `db:"end_time"`
	Status               string     `db:"status"`
	Version              int64      `db:"version"`
	Notes                *string    `db:"notes"`
	LoyaltyPointsAwarded bool       `db:"loyalty_points_awarded"`
	CompletedAt          *time.Time `db:"completed_at"`
	CancelledAt          *time.Time `db:"cancelled_at"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`

	// Joined display fields
	ClientName       string `db:"client_name"`
	ClientPhone      string `db:"client_phone"`
	ServiceName      string `db:"service_name"`
	ProfessionalName string `db:"professional_name"`
}

// NotificationDetails carries the contact data needed to message the people
// involved in an appointment.
type NotificationDetails struct {
	AppointmentID    uuid.UUID
	TenantID         uuid.UUID
	Status           string
	StartTime        time.Time
	EndTime          time.Time
	ClientName       string
	ClientEmail      string
	ClientPhone      string
	ServiceName      string
	ProfessionalName string
	SalonName        string
	SalonEmail       string
}

// Repository provides database operations for appointments.
type Repository struct {
	pool *pgxpool.Pool
}

const appointmentNotFoundMsg = "appointment not found"

// activeStatuses are the states that block a professional's agenda.
var activeStatuses = []string{
	string(transport.AppointmentStatusScheduled),
	string(transport.AppointmentStatusConfirmed),
}

// New creates a new appointments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentSelect = `
	SELECT a.id, a.tenant_id, a.client_id, a.professional_id, a.service_id,
		a.start_time, a.end_time, a.status, a.version, a.notes,
		a.loyalty_points_awarded, a.completed_at, a.cancelled_at, a.created_at, a.updated_at,
		c.name, c.phone, s.name, u.name
	FROM appointments a
	JOIN clients c ON c.id = a.client_id
	JOIN services s ON s.id = a.service_id
	JOIN users u ON u.id = a.professional_id`

// Create inserts a new appointment after verifying the professional's agenda
// is free for the window. The conflict check and the insert run inside one
// transaction holding an advisory lock keyed on the professional, so two
// concurrent bookings for the same professional serialize and the loser sees
// the winner's row.
func (r *Repository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := acquireAgendaLock(ctx, tx, appt.TenantID, appt.ProfessionalID); err != nil {
		return nil, err
	}

	conflict, err := hasOverlap(ctx, tx, appt.TenantID, appt.ProfessionalID, appt.StartTime, appt.EndTime, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperr.Conflict("timeslot already booked for this professional")
	}

	query := `
		INSERT INTO appointments (
			id, tenant_id, client_id, professional_id, service_id,
			start_time, end_time, status, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err = tx.Exec(ctx, query,
		appt.ID, appt.TenantID, appt.ClientID, appt.ProfessionalID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status, appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit appointment: %w", err)
	}

	return r.GetByID(ctx, appt.ID, appt.TenantID)
}

// GetByID retrieves an appointment by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Appointment, error) {
	query := appointmentSelect + ` WHERE a.id = $1 AND a.tenant_id = $2`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return appt, nil
}

// Reschedule moves an appointment to a new window, re-running the conflict
// check under the agenda lock and bumping the version. The expected version
// guards against concurrent modification.
func (r *Repository) Reschedule(ctx context.Context, id, tenantID uuid.UUID, startTime, endTime time.Time, expectedVersion int64) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var professionalID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT professional_id FROM appointments WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to load appointment for reschedule: %w", err)
	}

	if err := acquireAgendaLock(ctx, tx, tenantID, professionalID); err != nil {
		return nil, err
	}

	conflict, err := hasOverlap(ctx, tx, tenantID, professionalID, startTime, endTime, id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperr.Conflict("timeslot already booked for this professional")
	}

	result, err := tx.Exec(ctx, `
		UPDATE appointments SET
			start_time = $3,
			end_time = $4,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND version = $5`,
		id, tenantID, startTime, endTime, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.StaleVersion("appointment was modified concurrently")
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reschedule: %w", err)
	}

	return r.GetByID(ctx, id, tenantID)
}

// TxFunc is work a caller attaches to a repository transaction. It runs after
// the repository's own writes and before commit, so its effects land or roll
// back together with them.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// UpdateStatusCAS moves an appointment to the target status only when the
// stored version still matches expectedVersion. A version mismatch on an
// existing row reports a stale version. Terminal timestamps are stamped from
// now when the target warrants them. A non-nil inTx runs inside the same
// transaction as the status change, after the row is updated, and an error
// from it rolls the transition back.
func (r *Repository) UpdateStatusCAS(ctx context.Context, id, tenantID uuid.UUID, target string, expectedVersion int64, now time.Time, inTx TxFunc) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE appointments SET
			status = $3,
			version = version + 1,
			completed_at = CASE WHEN $3 = 'completed' THEN $5 ELSE completed_at END,
			cancelled_at = CASE WHEN $3 IN ('cancelled', 'no_show') THEN $5 ELSE cancelled_at END,
			updated_at = $5
		WHERE id = $1 AND tenant_id = $2 AND version = $4`

	result, err := tx.Exec(ctx, query, id, tenantID, target, expectedVersion, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.exists(ctx, id, tenantID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, apperr.StaleVersion("appointment was modified concurrently")
	}

	if inTx != nil {
		if err := inTx(ctx, tx); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return r.GetByID(ctx, id, tenantID)
}

// ListParams contains parameters for listing appointments.
type ListParams struct {
	TenantID       uuid.UUID
	ProfessionalID *uuid.UUID
	ClientID       *uuid.UUID
	Status         *string
	StartFrom      *time.Time
	StartTo        *time.Time
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult contains the result of listing appointments.
type ListResult struct {
	Items      []Appointment
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List retrieves appointments with optional filtering.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	baseQuery := ` FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		JOIN users u ON u.id = a.professional_id
		WHERE a.tenant_id = $1`
	args := []interface{}{params.TenantID}
	argIndex := 2

	addFilter(&baseQuery, &args, &argIndex, params.ProfessionalID != nil, " AND a.professional_id = $%d", derefUUID(params.ProfessionalID))
	addFilter(&baseQuery, &args, &argIndex, params.ClientID != nil, " AND a.client_id = $%d", derefUUID(params.ClientID))
	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND a.status = $%d", derefString(params.Status))
	addFilter(&baseQuery, &args, &argIndex, params.StartFrom != nil, " AND a.start_time >= $%d", derefTime(params.StartFrom))
	addFilter(&baseQuery, &args, &argIndex, params.StartTo != nil, " AND a.start_time <= $%d", derefTime(params.StartTo))

	var total int
	countQuery := "SELECT COUNT(*)" + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	orderBy := "a.start_time"
	if params.SortBy != "" {
		columnMap := map[string]string{
			"startTime": "a.start_time",
			"endTime":   "a.end_time",
			"status":    "a.status",
			"createdAt": "a.created_at",
		}
		col, ok := columnMap[params.SortBy]
		if !ok {
			return nil, apperr.BadRequest("invalid sort field")
		}
		orderBy = col
	}
	sortDir := "ASC"
	if params.SortOrder != "" {
		switch params.SortOrder {
		case "asc":
			sortDir = "ASC"
		case "desc":
			sortDir = "DESC"
		default:
			return nil, apperr.BadRequest("invalid sort order")
		}
	}

	selectQuery := fmt.Sprintf(`SELECT a.id, a.tenant_id, a.client_id, a.professional_id, a.service_id,
		a.start_time, a.end_time, a.status, a.version, a.notes,
		a.loyalty_points_awarded, a.completed_at, a.cancelled_at, a.created_at, a.updated_at,
		c.name, c.phone, s.name, u.name%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		baseQuery, orderBy, sortDir, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var items []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ListActiveForRange retrieves the agenda-blocking appointments of a
// professional that overlap the window. Used for slot computation.
func (r *Repository) ListActiveForRange(ctx context.Context, tenantID, professionalID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	query := appointmentSelect + `
		WHERE a.tenant_id = $1 AND a.professional_id = $2
		AND a.start_time < $4 AND a.end_time > $3
		AND a.status = ANY($5)
		ORDER BY a.start_time ASC`

	rows, err := r.pool.Query(ctx, query, tenantID, professionalID, from, to, activeStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for range: %w", err)
	}
	defer rows.Close()

	var items []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return items, nil
}

// ListOverdueScheduled finds scheduled appointments whose start time lies
// before cutoff and that have no open escalation ticket yet.
func (r *Repository) ListOverdueScheduled(ctx context.Context, cutoff time.Time, limit int) ([]Appointment, error) {
	query := appointmentSelect + `
		WHERE a.status = 'scheduled'
		AND a.start_time < $1
		AND NOT EXISTS (
			SELECT 1 FROM escalation_tickets t
			WHERE t.appointment_id = a.id AND t.status = 'open'
		)
		ORDER BY a.start_time ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue appointments: %w", err)
	}
	defer rows.Close()

	var items []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return items, nil
}

// PurgeTerminal deletes cancelled and no_show appointments not touched since
// cutoff. Completed appointments are never purged, they feed the loyalty and
// visit history.
func (r *Repository) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM appointments
		WHERE status IN ('cancelled', 'no_show')
		AND updated_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge appointments: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetNotificationDetails loads the contact context for messaging about an
// appointment.
func (r *Repository) GetNotificationDetails(ctx context.Context, appointmentID, tenantID uuid.UUID) (*NotificationDetails, error) {
	query := `
		SELECT a.id, a.tenant_id, a.status, a.start_time, a.end_time,
			c.name, c.email, c.phone, s.name, u.name, t.name, t.email
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		JOIN users u ON u.id = a.professional_id
		JOIN tenants t ON t.id = a.tenant_id
		WHERE a.id = $1 AND a.tenant_id = $2`

	var d NotificationDetails
	err := r.pool.QueryRow(ctx, query, appointmentID, tenantID).Scan(
		&d.AppointmentID, &d.TenantID, &d.Status, &d.StartTime, &d.EndTime,
		&d.ClientName, &d.ClientEmail, &d.ClientPhone, &d.ServiceName, &d.ProfessionalName,
		&d.SalonName, &d.SalonEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get notification details: %w", err)
	}

	return &d, nil
}

// exists checks appointment existence without the display joins.
func (r *Repository) exists(ctx context.Context, id, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1 AND tenant_id = $2)`,
		id, tenantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment exists: %w", err)
	}
	return exists, nil
}

// acquireAgendaLock serializes bookings per professional within a tenant.
func acquireAgendaLock(ctx context.Context, tx pgx.Tx, tenantID, professionalID uuid.UUID) error {
	key := tenantID.String() + ":" + professionalID.String()
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire agenda lock: %w", err)
	}
	return nil
}

// hasOverlap reports whether any active appointment of the professional
// overlaps [start, end). Touching boundaries do not overlap.
func hasOverlap(ctx context.Context, tx pgx.Tx, tenantID, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE tenant_id = $1 AND professional_id = $2
			AND status = ANY($3)
			AND start_time < $5 AND end_time > $4
			AND ($6::uuid IS NULL OR id != $6)
		)`

	var excludeParam interface{}
	if excludeID != uuid.Nil {
		excludeParam = excludeID
	}

	var overlap bool
	err := tx.QueryRow(ctx, query, tenantID, professionalID, activeStatuses, start, end, excludeParam).Scan(&overlap)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return overlap, nil
}

// scanAppointment scans one joined appointment row.
func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	err := row.Scan(
		&appt.ID, &appt.TenantID, &appt.ClientID, &appt.ProfessionalID, &appt.ServiceID,
		&appt.StartTime, &appt.EndTime, &appt.Status, &appt.Version, &appt.Notes,
		&appt.LoyaltyPointsAwarded, &appt.CompletedAt, &appt.CancelledAt, &appt.CreatedAt, &appt.UpdatedAt,
		&appt.ClientName, &appt.ClientPhone, &appt.ServiceName, &appt.ProfessionalName,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// ToResponse converts an Appointment to AppointmentResponse.
func (a *Appointment) ToResponse() transport.AppointmentResponse {
	return transport.AppointmentResponse{
		ID:                   a.ID,
		ProfessionalID:       a.ProfessionalID,
		ServiceID:            a.ServiceID,
		StartTime:            a.StartTime,
		EndTime:              a.EndTime,
		Status:               transport.AppointmentStatus(a.Status),
		Version:              a.Version,
		Notes:                a.Notes,
		LoyaltyPointsAwarded: a.LoyaltyPointsAwarded,
		CompletedAt:          a.CompletedAt,
		CancelledAt:          a.CancelledAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
		Client: transport.AppointmentClientInfo{
			ID:    a.ClientID,
			Name:  a.ClientName,
			Phone: a.ClientPhone,
		},
		ServiceName:      a.ServiceName,
		ProfessionalName: a.ProfessionalName,
	}
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.UUID{}
	}
	return *value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
