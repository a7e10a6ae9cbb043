package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BusinessHour is the opening window of a salon for one weekday.
// OpensAt and ClosesAt hold zero-padded "HH:MM" clock strings.
// Both nil means the salon is closed that day.
type BusinessHour struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Weekday   int
	OpensAt   *string
	ClosesAt  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Default opening window seeded for new salons, Monday through Saturday.
const (
	DefaultOpensAt  = "08:00"
	DefaultClosesAt = "18:00"
)

// ListBusinessHours returns the weekly schedule ordered by weekday.
func (r *Repository) ListBusinessHours(ctx context.Context, tenantID uuid.UUID) ([]BusinessHour, error) {
	query := `SELECT id, tenant_id, weekday, opens_at, closes_at, created_at, updated_at
		FROM business_hours WHERE tenant_id = $1 ORDER BY weekday`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list business hours: %w", err)
	}
	defer rows.Close()

	items := make([]BusinessHour, 0, 7)
	for rows.Next() {
		var item BusinessHour
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.Weekday,
			&item.OpensAt,
			&item.ClosesAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan business hours: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate business hours: %w", err)
	}

	return items, nil
}

// GetBusinessHoursForWeekday returns the window of one weekday.
// A missing row returns nil, the caller treats it as closed.
func (r *Repository) GetBusinessHoursForWeekday(ctx context.Context, tenantID uuid.UUID, weekday int) (*BusinessHour, error) {
	query := `SELECT id, tenant_id, weekday, opens_at, closes_at, created_at, updated_at
		FROM business_hours WHERE tenant_id = $1 AND weekday = $2`

	var item BusinessHour
	err := r.pool.QueryRow(ctx, query, tenantID, weekday).Scan(
		&item.ID,
		&item.TenantID,
		&item.Weekday,
		&item.OpensAt,
		&item.ClosesAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business hours: %w", err)
	}

	return &item, nil
}

// ReplaceBusinessHours swaps the full weekly schedule in one transaction.
func (r *Repository) ReplaceBusinessHours(ctx context.Context, tenantID uuid.UUID, items []BusinessHour) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM business_hours WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("failed to clear business hours: %w", err)
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO business_hours (id, tenant_id, weekday, opens_at, closes_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), tenantID, item.Weekday, item.OpensAt, item.ClosesAt,
		); err != nil {
			return fmt.Errorf("failed to insert business hours: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit business hours: %w", err)
	}

	return nil
}

// SeedDefaultBusinessHours writes the default schedule for a new salon:
// Monday through Saturday 08:00-18:00, Sunday closed. Existing rows win.
func (r *Repository) SeedDefaultBusinessHours(ctx context.Context, tenantID uuid.UUID) error {
	opens := DefaultOpensAt
	closes := DefaultClosesAt

	for weekday := 0; weekday < 7; weekday++ {
		var opensAt, closesAt *string
		if weekday != int(time.Sunday) {
			opensAt = &opens
			closesAt = &closes
		}

		if _, err := r.pool.Exec(ctx, `
			INSERT INTO business_hours (id, tenant_id, weekday, opens_at, closes_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, weekday) DO NOTHING`,
			uuid.New(), tenantID, weekday, opensAt, closesAt,
		); err != nil {
			return fmt.Errorf("failed to seed business hours: %w", err)
		}
	}

	return nil
}
