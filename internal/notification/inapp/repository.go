// Package inapp stores the staff notification feed shown on the salon
// dashboard. Rows are scoped to the tenant rather than to individual staff
// accounts: the reception screen is shared between whoever is on shift.
package inapp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

// Category values accepted by the feed.
const (
	CategoryInfo    = "info"
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

// Notification is one feed entry.
type Notification struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenantId"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	Category      string     `json:"category"`
	IsRead        bool       `json:"isRead"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreateParams holds the fields of a new feed entry.
type CreateParams struct {
	TenantID      uuid.UUID
	Title         string
	Content       string
	AppointmentID *uuid.UUID
	Category      string
}

// Repository persists feed entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the feed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, tenant_id, title, content, appointment_id, category, is_read, read_at, created_at`

// Create inserts a feed entry and returns it.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.TenantID == uuid.Nil {
		return Notification{}, apperr.Validation("tenantId is required")
	}
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required")
	}

	category := p.Category
	if category == "" {
		category = CategoryInfo
	}

	query := `
		INSERT INTO in_app_notifications (id, tenant_id, title, content, appointment_id, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.pool.QueryRow(ctx, query,
		uuid.New(), p.TenantID, p.Title, p.Content, p.AppointmentID, category))
	if err != nil {
		return Notification{}, fmt.Errorf("create in-app notification: %w", err)
	}

	return n, nil
}

// List returns the tenant's feed newest first, with the total row count for
// pagination.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM in_app_notifications WHERE tenant_id = $1`, tenantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count in-app notifications: %w", err)
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM in_app_notifications
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list in-app notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan in-app notification: %w", scanErr)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate in-app notifications: %w", err)
	}

	return items, total, nil
}

// CountUnread returns how many feed entries the tenant has not read yet.
func (r *Repository) CountUnread(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM in_app_notifications
		WHERE tenant_id = $1 AND is_read = false
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread in-app notifications: %w", err)
	}

	return count, nil
}

// MarkRead flags one entry as read. Unknown IDs report not found so the
// dashboard can drop stale rows.
func (r *Repository) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications
		SET is_read = true, read_at = now()
		WHERE id = $1 AND tenant_id = $2
	`, notificationID, tenantID)
	if err != nil {
		return fmt.Errorf("mark in-app notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}

	return nil
}

// MarkAllRead flags every unread entry of the tenant as read.
func (r *Repository) MarkAllRead(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications
		SET is_read = true, read_at = now()
		WHERE tenant_id = $1 AND is_read = false
	`, tenantID)
	if err != nil {
		return fmt.Errorf("mark all in-app notifications read: %w", err)
	}

	return nil
}

// Delete removes one entry from the feed.
func (r *Repository) Delete(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM in_app_notifications
		WHERE id = $1 AND tenant_id = $2
	`, notificationID, tenantID)
	if err != nil {
		return fmt.Errorf("delete in-app notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.TenantID, &n.Title, &n.Content, &n.AppointmentID,
		&n.Category, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	return n, err
}
