package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

const userNotFoundMessage = "user not found"

// Repo implements the UserStore interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements UserStore.
var _ UserStore = (*Repo)(nil)

const userColumns = `id, tenant_id, name, email, password_hash, role, is_active, created_at, updated_at`

// CreateTenantWithOwner registers a salon and its owner account in a single
// transaction so a failed owner insert never leaves an orphan salon behind.
func (r *Repo) CreateTenantWithOwner(ctx context.Context, params RegisterTenantParams) (Tenant, User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Tenant{}, User{}, fmt.Errorf("begin register tenant: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tenant Tenant
	err = tx.QueryRow(ctx, `
		INSERT INTO tenants (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, phone, address, created_at, updated_at
	`, uuid.New(), params.TenantName, params.TenantEmail, params.TenantPhone, params.Address).Scan(
		&tenant.ID, &tenant.Name, &tenant.Email, &tenant.Phone, &tenant.Address,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Tenant{}, User{}, apperr.Conflict("a salon with this email already exists")
		}
		return Tenant{}, User{}, fmt.Errorf("insert tenant: %w", err)
	}

	owner, err := insertUser(ctx, tx, CreateUserParams{
		TenantID:     tenant.ID,
		Name:         params.OwnerName,
		Email:        params.OwnerEmail,
		PasswordHash: params.PasswordHash,
		Role:         RoleOwner,
	})
	if err != nil {
		return Tenant{}, User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Tenant{}, User{}, fmt.Errorf("commit register tenant: %w", err)
	}

	return tenant, owner, nil
}

// CreateUser adds a staff account to an existing salon.
func (r *Repo) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	return insertUser(ctx, r.pool, params)
}

// GetUserByEmail looks up a user for login.
func (r *Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a staff account scoped to its salon.
func (r *Repo) GetUserByID(ctx context.Context, tenantID, userID uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tenant_id = $2`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// ListStaff returns every staff account of a salon, owner included.
func (r *Repo) ListStaff(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}

	return users, nil
}

// ExistsActiveStaff reports whether the user is an active member of the
// salon. Owners count as bookable staff so solo salons need no second
// account.
func (r *Repo) ExistsActiveStaff(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND tenant_id = $2 AND is_active)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check staff exists: %w", err)
	}

	return exists, nil
}

// SetUserActive enables or disables a staff account.
func (r *Repo) SetUserActive(ctx context.Context, tenantID, userID uuid.UUID, active bool) (User, error) {
	query := `
		UPDATE users SET is_active = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, tenantID, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("set user active: %w", err)
	}

	return user, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q rowQuerier, params CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (id, tenant_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	user, err := scanUser(q.QueryRow(ctx, query,
		uuid.New(), params.TenantID, params.Name, params.Email, params.PasswordHash, params.Role,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperr.Conflict("an account with this email already exists")
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
