package repository

import (
	"context"

	"github.com/google/uuid"
)

// Service represents a bookable catalog entry of a salon.
type Service struct {
	ID              uuid.UUID `db:"id"`
	TenantID        uuid.UUID `db:"tenant_id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	DurationMinutes int       `db:"duration_minutes"`
	PriceCents      int64     `db:"price_cents"`
	LoyaltyPoints   int64     `db:"loyalty_points"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       string    `db:"created_at"`
	UpdatedAt       string    `db:"updated_at"`
}

// CreateParams contains parameters for creating a catalog service.
type CreateParams struct {
	TenantID        uuid.UUID
	Name            string
	Description     *string
	DurationMinutes int
	PriceCents      int64
	LoyaltyPoints   int64
}

// UpdateParams contains parameters for updating a catalog service.
type UpdateParams struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            *string
	Description     *string
	DurationMinutes *int
	PriceCents      *int64
	LoyaltyPoints   *int64
}

// ListParams contains filters and pagination for catalog listings.
type ListParams struct {
	TenantID  uuid.UUID
	Search    string
	IsActive  *bool
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

// ServiceReader provides read operations for catalog services.
type ServiceReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (Service, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Service, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]Service, error)
	ListWithFilters(ctx context.Context, params ListParams) ([]Service, int, error)
	Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	HasAppointments(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// ServiceWriter provides write operations for catalog services.
type ServiceWriter interface {
	Create(ctx context.Context, params CreateParams) (Service, error)
	Update(ctx context.Context, params UpdateParams) (Service, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	SetActive(ctx context.Context, tenantID, id uuid.UUID, isActive bool) error
}

// Repository combines all catalog service repository operations.
type Repository interface {
	ServiceReader
	ServiceWriter
}
