package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role values accepted by the users table.
const (
	RoleOwner        = "owner"
	RoleProfessional = "professional"
)

// Tenant represents a salon account.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents a staff account belonging to a salon. Email is unique
// across all salons so it can serve as the login identifier.
type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterTenantParams carries the data for creating a salon together with
// its owner account.
type RegisterTenantParams struct {
	TenantName   string
	TenantEmail  string
	TenantPhone  string
	Address      string
	OwnerName    string
	OwnerEmail   string
	PasswordHash string
}

// CreateUserParams carries the data for adding a staff account to a salon.
type CreateUserParams struct {
	TenantID     uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// UserStore provides persistence for salon and staff accounts.
type UserStore interface {
	CreateTenantWithOwner(ctx context.Context, params RegisterTenantParams) (Tenant, User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, tenantID, userID uuid.UUID) (User, error)
	ListStaff(ctx context.Context, tenantID uuid.UUID) ([]User, error)
	ExistsActiveStaff(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
	SetUserActive(ctx context.Context, tenantID, userID uuid.UUID, active bool) (User, error)
}
