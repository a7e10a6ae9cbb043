// Command noshow-sweep is a one-off backfill for salons whose scheduler
// daemon was down: it marks stale scheduled appointments as no-shows and
// settles any escalation tickets left open for them. Appointments are only
// touched once they are past the grace period plus the response window, so
// the sweep never races a ticket the monitor could still settle.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/db"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting no-show sweep")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	cutoff := time.Now().Add(-(cfg.GetPresenceGrace() + cfg.GetPresenceResponseWindow()))

	const batchSize = 200
	var swept int
	for {
		ids, err := sweepBatch(ctx, pool, cutoff, batchSize)
		if err != nil {
			log.Error("sweep batch failed", "error", err)
			return
		}
		if len(ids) == 0 {
			break
		}

		if err := settleOpenTickets(ctx, pool, ids); err != nil {
			log.Error("failed to settle escalation tickets", "error", err)
			return
		}

		swept += len(ids)
		log.Info("swept batch", "count", len(ids))
	}

	log.Info("no-show sweep complete", "total", swept)
}

// sweepBatch flips one batch of stale scheduled appointments to no_show.
// The version bump keeps optimistic-concurrency readers honest; SKIP LOCKED
// keeps the sweep off rows the API is transitioning right now.
func sweepBatch(ctx context.Context, pool *pgxpool.Pool, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		UPDATE appointments a
		SET status = 'no_show', version = version + 1, updated_at = now()
		WHERE a.id IN (
			SELECT id FROM appointments
			WHERE status = 'scheduled' AND start_time < $1
			ORDER BY start_time ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING a.id
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func settleOpenTickets(ctx context.Context, pool *pgxpool.Pool, appointmentIDs []uuid.UUID) error {
	_, err := pool.Exec(ctx, `
		UPDATE escalation_tickets
		SET status = 'resolved', resolution = 'no_show', resolved_at = now(), updated_at = now()
		WHERE appointment_id = ANY($1) AND status = 'open'
	`, appointmentIDs)
	return err
}
