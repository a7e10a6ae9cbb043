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

const clientNotFoundMessage = "client not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new clients repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const clientColumns = `id, tenant_id, name, email, phone, notes, loyalty_points, visit_count, last_visit_at, created_at, updated_at`

// GetByID retrieves a client by its ID.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE id = $1 AND tenant_id = $2`

	client, err := scanClient(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("get client by id: %w", err)
	}

	return client, nil
}

// ListWithFilters retrieves clients with search and pagination, newest first.
func (r *Repo) ListWithFilters(ctx context.Context, params ListParams) ([]Client, int, error) {
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	countQuery := `
		SELECT COUNT(*)
		FROM clients
		WHERE tenant_id = $1
			AND ($2::text IS NULL OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, params.TenantID, searchParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1
			AND ($2::text IS NULL OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, params.TenantID, searchParam, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var results []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		results = append(results, client)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clients: %w", err)
	}

	return results, total, nil
}

// Exists checks if a client exists by ID.
func (r *Repo) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND tenant_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check client exists: %w", err)
	}

	return exists, nil
}

// Create registers a new client.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Client, error) {
	query := `
		INSERT INTO clients (id, tenant_id, name, email, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		uuid.New(), params.TenantID, params.Name, params.Email, params.Phone, params.Notes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Client{}, apperr.Conflict("a client with this email already exists")
		}
		return Client{}, fmt.Errorf("create client: %w", err)
	}

	return client, nil
}

// Update updates an existing client.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Client, error) {
	query := `
		UPDATE clients SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			notes = COALESCE($6, notes),
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		params.ID, params.TenantID, params.Name, params.Email, params.Phone, params.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Client{}, apperr.Conflict("a client with this email already exists")
		}
		return Client{}, fmt.Errorf("update client: %w", err)
	}

	return client, nil
}

// Delete removes a client by ID.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(clientNotFoundMessage)
	}

	return nil
}

// scanClient scans a single row into a Client.
func scanClient(row pgx.Row) (Client, error) {
	var client Client
	var lastVisitAt *time.Time
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&client.ID, &client.TenantID, &client.Name, &client.Email, &client.Phone, &client.Notes,
		&client.LoyaltyPoints, &client.VisitCount, &lastVisitAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return Client{}, err
	}

	if lastVisitAt != nil {
		formatted := lastVisitAt.Format(time.RFC3339)
		client.LastVisitAt = &formatted
	}
	client.CreatedAt = createdAt.Format(time.RFC3339)
	client.UpdatedAt = updatedAt.Format(time.RFC3339)

	return client, nil
}
