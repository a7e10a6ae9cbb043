package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/loyalty"
)

// Client represents a salon client with their loyalty balance.
type Client struct {
	ID            uuid.UUID `db:"id"`
	TenantID      uuid.UUID `db:"tenant_id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Notes         *string   `db:"notes"`
	LoyaltyPoints int64     `db:"loyalty_points"`
	VisitCount    int       `db:"visit_count"`
	LastVisitAt   *string   `db:"last_visit_at"`
	CreatedAt     string    `db:"created_at"`
	UpdatedAt     string    `db:"updated_at"`
}

// CreateParams contains parameters for registering a client.
type CreateParams struct {
	TenantID uuid.UUID
	Name     string
	Email    string
	Phone    string
	Notes    *string
}

// UpdateParams contains parameters for updating a client.
type UpdateParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     *string
	Email    *string
	Phone    *string
	Notes    *string
}

// ListParams contains filters and pagination for client listings.
type ListParams struct {
	TenantID uuid.UUID
	Search   string
	Offset   int
	Limit    int
}

// LoyaltyEntry represents one row of the loyalty ledger.
type LoyaltyEntry struct {
	ID            uuid.UUID  `db:"id"`
	EntryType     string     `db:"entry_type"`
	Points        int64      `db:"points"`
	BalanceAfter  int64      `db:"balance_after"`
	AppointmentID *uuid.UUID `db:"appointment_id"`
	CreatedAt     string     `db:"created_at"`
}

// AwardResult reports the outcome of a completed-appointment accrual.
type AwardResult struct {
	ClientID uuid.UUID
	// Points granted by this call. Zero when the appointment was already awarded.
	Points  int64
	Balance int64
	Awarded bool
}

// ClientReader provides read operations for clients.
type ClientReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (Client, error)
	ListWithFilters(ctx context.Context, params ListParams) ([]Client, int, error)
	Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// ClientWriter provides write operations for clients.
type ClientWriter interface {
	Create(ctx context.Context, params CreateParams) (Client, error)
	Update(ctx context.Context, params UpdateParams) (Client, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// LoyaltyStore provides the transactional loyalty operations. The award rides
// on the transaction of the appointment transition that triggers it.
type LoyaltyStore interface {
	AwardForAppointment(ctx context.Context, tx pgx.Tx, tenantID, appointmentID uuid.UUID, table loyalty.Table) (AwardResult, error)
	Redeem(ctx context.Context, tenantID, clientID uuid.UUID, points int64) (balance int64, err error)
	ListEntries(ctx context.Context, tenantID, clientID uuid.UUID, limit int) ([]LoyaltyEntry, error)
}

// Repository combines all client repository operations.
type Repository interface {
	ClientReader
	ClientWriter
	LoyaltyStore
}
