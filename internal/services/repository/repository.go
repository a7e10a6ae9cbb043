package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

const serviceNotFoundMessage = "service not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog services repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const serviceColumns = `id, tenant_id, name, description, duration_minutes, price_cents, loyalty_points, is_active, created_at, updated_at`

// GetByID retrieves a catalog service by its ID.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE id = $1 AND tenant_id = $2`

	svc, err := scanService(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("get service by id: %w", err)
	}

	return svc, nil
}

// List retrieves all catalog services of a salon ordered by name.
func (r *Repo) List(ctx context.Context, tenantID uuid.UUID) ([]Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE tenant_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListActive retrieves only active catalog services ordered by name.
func (r *Repo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListWithFilters retrieves catalog services with search, active filter, pagination, and sorting.
func (r *Repo) ListWithFilters(ctx context.Context, params ListParams) ([]Service, int, error) {
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}
	var isActiveParam interface{}
	if params.IsActive != nil {
		isActiveParam = *params.IsActive
	}

	sortBy := "name"
	if params.SortBy != "" {
		switch params.SortBy {
		case "name", "priceCents", "durationMinutes", "createdAt":
			sortBy = params.SortBy
		default:
			return nil, 0, apperr.BadRequest("invalid sort field")
		}
	}

	sortOrder := "asc"
	if params.SortOrder != "" {
		switch params.SortOrder {
		case "asc", "desc":
			sortOrder = params.SortOrder
		default:
			return nil, 0, apperr.BadRequest("invalid sort order")
		}
	}

	args := []interface{}{params.TenantID, searchParam, isActiveParam}

	countQuery := `
		SELECT COUNT(*)
		FROM services
		WHERE tenant_id = $1
			AND ($2::text IS NULL OR name ILIKE $2)
			AND ($3::boolean IS NULL OR is_active = $3)
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE tenant_id = $1
			AND ($2::text IS NULL OR name ILIKE $2)
			AND ($3::boolean IS NULL OR is_active = $3)
		ORDER BY
			CASE WHEN $4 = 'name' AND $5 = 'asc' THEN name END ASC,
			CASE WHEN $4 = 'name' AND $5 = 'desc' THEN name END DESC,
			CASE WHEN $4 = 'priceCents' AND $5 = 'asc' THEN price_cents END ASC,
			CASE WHEN $4 = 'priceCents' AND $5 = 'desc' THEN price_cents END DESC,
			CASE WHEN $4 = 'durationMinutes' AND $5 = 'asc' THEN duration_minutes END ASC,
			CASE WHEN $4 = 'durationMinutes' AND $5 = 'desc' THEN duration_minutes END DESC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'asc' THEN created_at END ASC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'desc' THEN created_at END DESC,
			name ASC
		LIMIT $6 OFFSET $7
	`

	args = append(args, sortBy, sortOrder, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	items, err := scanServices(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Exists checks if a catalog service exists by ID.
func (r *Repo) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM services WHERE id = $1 AND tenant_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check service exists: %w", err)
	}

	return exists, nil
}

// HasAppointments checks if a catalog service is referenced by any appointment.
func (r *Repo) HasAppointments(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM appointments WHERE service_id = $1 AND tenant_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check service appointments: %w", err)
	}

	return exists, nil
}

// Create creates a new catalog service.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Service, error) {
	query := `
		INSERT INTO services (id, tenant_id, name, description, duration_minutes, price_cents, loyalty_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + serviceColumns

	svc, err := scanService(r.pool.QueryRow(ctx, query,
		uuid.New(), params.TenantID, params.Name, params.Description, params.DurationMinutes, params.PriceCents, params.LoyaltyPoints,
	))
	if err != nil {
		return Service{}, fmt.Errorf("create service: %w", err)
	}

	return svc, nil
}

// Update updates an existing catalog service.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Service, error) {
	query := `
		UPDATE services SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			duration_minutes = COALESCE($5, duration_minutes),
			price_cents = COALESCE($6, price_cents),
			loyalty_points = COALESCE($7, loyalty_points),
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + serviceColumns

	svc, err := scanService(r.pool.QueryRow(ctx, query,
		params.ID, params.TenantID, params.Name, params.Description, params.DurationMinutes, params.PriceCents, params.LoyaltyPoints,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("update service: %w", err)
	}

	return svc, nil
}

// Delete removes a catalog service by ID (hard delete).
// Use SetActive(false) for soft delete.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM services WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(serviceNotFoundMessage)
	}

	return nil
}

// SetActive sets the is_active flag for a catalog service.
func (r *Repo) SetActive(ctx context.Context, tenantID, id uuid.UUID, isActive bool) error {
	query := `UPDATE services SET is_active = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query, id, tenantID, isActive)
	if err != nil {
		return fmt.Errorf("set service active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(serviceNotFoundMessage)
	}

	return nil
}

// scanService scans a single row into a Service.
func scanService(row pgx.Row) (Service, error) {
	var svc Service
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.DurationMinutes,
		&svc.PriceCents, &svc.LoyaltyPoints, &svc.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return Service{}, err
	}

	svc.CreatedAt = createdAt.Format(time.RFC3339)
	svc.UpdatedAt = updatedAt.Format(time.RFC3339)

	return svc, nil
}

// scanServices is a helper to scan multiple rows into a Service slice.
func scanServices(rows pgx.Rows) ([]Service, error) {
	var results []Service

	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		results = append(results, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return results, nil
}
