package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/loyalty"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

const (
	// EntryTypeAward records points granted for a completed appointment.
	EntryTypeAward = "award"
	// EntryTypeRedeem records points converted into a discount.
	EntryTypeRedeem = "redeem"
)

// AwardForAppointment grants the loyalty points of a completed appointment to
// its client. It runs on the caller's transaction, which the appointment
// transition owns, so the award commits or rolls back together with the move
// into completed. The appointment row carries a set-once awarded flag, so
// calling this twice for the same appointment is a no-op. The multiplier band
// is read from the balance before the award.
func (r *Repo) AwardForAppointment(ctx context.Context, tx pgx.Tx, tenantID, appointmentID uuid.UUID, table loyalty.Table) (AwardResult, error) {
	var clientID uuid.UUID
	var alreadyAwarded bool
	var basePoints int64
	err := tx.QueryRow(ctx, `
		SELECT a.client_id, a.loyalty_points_awarded, s.loyalty_points
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.id = $1 AND a.tenant_id = $2
		FOR UPDATE OF a`,
		appointmentID, tenantID,
	).Scan(&clientID, &alreadyAwarded, &basePoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AwardResult{}, apperr.NotFound("appointment not found")
		}
		return AwardResult{}, fmt.Errorf("load appointment for award: %w", err)
	}

	if alreadyAwarded {
		return AwardResult{ClientID: clientID, Awarded: false}, nil
	}

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT loyalty_points FROM clients WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		clientID, tenantID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AwardResult{}, apperr.NotFound(clientNotFoundMessage)
		}
		return AwardResult{}, fmt.Errorf("load client balance: %w", err)
	}

	points := table.Award(balance, basePoints)

	if _, err = tx.Exec(ctx,
		`UPDATE appointments SET loyalty_points_awarded = true, updated_at = now() WHERE id = $1`,
		appointmentID,
	); err != nil {
		return AwardResult{}, fmt.Errorf("mark appointment awarded: %w", err)
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE clients SET
			loyalty_points = loyalty_points + $3,
			visit_count = visit_count + 1,
			last_visit_at = now(),
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING loyalty_points`,
		clientID, tenantID, points,
	).Scan(&newBalance)
	if err != nil {
		return AwardResult{}, fmt.Errorf("apply loyalty award: %w", err)
	}

	if points > 0 {
		if _, err = tx.Exec(ctx, `
			INSERT INTO loyalty_ledger (id, tenant_id, client_id, appointment_id, entry_type, points, balance_after)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), tenantID, clientID, appointmentID, EntryTypeAward, points, newBalance,
		); err != nil {
			return AwardResult{}, fmt.Errorf("insert loyalty ledger entry: %w", err)
		}
	}

	return AwardResult{ClientID: clientID, Points: points, Balance: newBalance, Awarded: true}, nil
}

// Redeem subtracts points from a client balance. The balance can never go
// negative; a short balance returns an insufficient points error and leaves
// the ledger untouched.
func (r *Repo) Redeem(ctx context.Context, tenantID, clientID uuid.UUID, points int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT loyalty_points FROM clients WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		clientID, tenantID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound(clientNotFoundMessage)
		}
		return 0, fmt.Errorf("load client balance: %w", err)
	}

	if balance < points {
		return 0, apperr.InsufficientPoints(fmt.Sprintf("client has %d points, %d requested", balance, points))
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE clients SET loyalty_points = loyalty_points - $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING loyalty_points`,
		clientID, tenantID, points,
	).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("apply loyalty redemption: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO loyalty_ledger (id, tenant_id, client_id, entry_type, points, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), tenantID, clientID, EntryTypeRedeem, points, newBalance,
	); err != nil {
		return 0, fmt.Errorf("insert loyalty ledger entry: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit loyalty redemption: %w", err)
	}

	return newBalance, nil
}

// ListEntries retrieves the most recent ledger entries of a client.
func (r *Repo) ListEntries(ctx context.Context, tenantID, clientID uuid.UUID, limit int) ([]LoyaltyEntry, error) {
	query := `
		SELECT id, entry_type, points, balance_after, appointment_id, created_at
		FROM loyalty_ledger
		WHERE tenant_id = $1 AND client_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, tenantID, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list loyalty entries: %w", err)
	}
	defer rows.Close()

	var results []LoyaltyEntry
	for rows.Next() {
		var entry LoyaltyEntry
		var createdAt time.Time
		if err := rows.Scan(&entry.ID, &entry.EntryType, &entry.Points, &entry.BalanceAfter, &entry.AppointmentID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan loyalty entry: %w", err)
		}
		entry.CreatedAt = createdAt.Format(time.RFC3339)
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loyalty entries: %w", err)
	}

	return results, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
