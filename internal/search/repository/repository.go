// Package repository runs the cross-entity full-text search query.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is one search hit. Total carries the window count of the whole
// result set so the service can report it without a second query.
type Result struct {
	ID           uuid.UUID
	Type         string
	Title        string
	Subtitle     string
	Preview      string
	Status       string
	MatchedField string
	Score        float32
	CreatedAt    time.Time
	Total        int64
}

// Repository runs search queries for a salon.
type Repository interface {
	GlobalSearch(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]Result, error)
}

// Repo implements the Repository interface with PostgreSQL full-text search.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new search repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GlobalSearch matches clients, catalog services and appointments against the
// query. Names, emails and phones go through the 'simple' config so they are
// matched literally; free text (notes, descriptions) goes through 'portuguese'
// for stemming. Everything is unaccented first: receptionists rarely type the
// cedillas and tildes the records carry.
func (r *Repo) GlobalSearch(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]Result, error) {
	querySQL := `
		WITH search_query AS (
			SELECT
				websearch_to_tsquery('simple', immutable_unaccent($2)) AS q_simple,
				websearch_to_tsquery('portuguese', immutable_unaccent($2)) AS q_pt
		),
		results AS (
			-- 1) CLIENTS
			SELECT
				c.id,
				'client'::text AS type,
				c.name AS title,
				concat_ws(' • ', NULLIF(c.phone, ''), NULLIF(c.email, '')) AS subtitle,
				CASE
					WHEN to_tsvector('portuguese', immutable_unaccent(coalesce(c.notes, ''))) @@ (sq.q_simple || sq.q_pt) THEN ts_headline(
						'portuguese',
						immutable_unaccent(coalesce(c.notes, '')),
						(sq.q_simple || sq.q_pt),
						'MaxWords=18, MinWords=6, ShortWord=2, StartSel=[, StopSel=]'
					)
					ELSE COALESCE(NULLIF(c.email, ''), NULLIF(c.phone, ''), '')
				END AS preview,
				CASE WHEN c.visit_count > 0 THEN 'returning' ELSE 'new' END AS status,
				CASE
					WHEN to_tsvector('simple', immutable_unaccent(c.name)) @@ (sq.q_simple || sq.q_pt) THEN 'name'
					WHEN to_tsvector('simple', immutable_unaccent(coalesce(c.email, ''))) @@ (sq.q_simple || sq.q_pt) THEN 'email'
					WHEN to_tsvector('simple', immutable_unaccent(coalesce(c.phone, ''))) @@ (sq.q_simple || sq.q_pt) THEN 'phone'
					ELSE 'notes'
				END AS matched_field,
				ts_rank(
					setweight(to_tsvector('simple', immutable_unaccent(c.name)), 'A') ||
					setweight(to_tsvector('simple', immutable_unaccent(coalesce(c.email, ''))), 'B') ||
					setweight(to_tsvector('simple', immutable_unaccent(coalesce(c.phone, ''))), 'B') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(c.notes, ''))), 'C'),
					(sq.q_simple || sq.q_pt)
				) AS rank,
				c.created_at
			FROM clients c
			CROSS JOIN search_query sq
			WHERE c.tenant_id = $1
				AND (
					setweight(to_tsvector('simple', immutable_unaccent(c.name)), 'A') ||
					setweight(to_tsvector('simple', immutable_unaccent(coalesce(c.email, ''))), 'B') ||
					setweight(to_tsvector('simple', immutable_unaccent(coalesce(c.phone, ''))), 'B') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(c.notes, ''))), 'C')
				) @@ (sq.q_simple || sq.q_pt)

			UNION ALL

			-- 2) CATALOG SERVICES
			SELECT
				s.id,
				'service'::text AS type,
				s.name AS title,
				concat_ws(' • ', (s.duration_minutes::text || ' min'), ('R$ ' || (s.price_cents / 100.0)::text)) AS subtitle,
				CASE
					WHEN to_tsvector('portuguese', immutable_unaccent(coalesce(s.description, ''))) @@ (sq.q_simple || sq.q_pt) THEN ts_headline(
						'portuguese',
						immutable_unaccent(coalesce(s.description, '')),
						(sq.q_simple || sq.q_pt),
						'MaxWords=18, MinWords=6, ShortWord=2, StartSel=[, StopSel=]'
					)
					ELSE COALESCE(s.description, '')
				END AS preview,
				CASE WHEN s.is_active THEN 'active' ELSE 'inactive' END AS status,
				CASE
					WHEN to_tsvector('simple', immutable_unaccent(s.name)) @@ (sq.q_simple || sq.q_pt) THEN 'name'
					ELSE 'description'
				END AS matched_field,
				ts_rank(
					setweight(to_tsvector('simple', immutable_unaccent(s.name)), 'A') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(s.description, ''))), 'C'),
					(sq.q_simple || sq.q_pt)
				) AS rank,
				s.created_at
			FROM services s
			CROSS JOIN search_query sq
			WHERE s.tenant_id = $1
				AND (
					setweight(to_tsvector('simple', immutable_unaccent(s.name)), 'A') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(s.description, ''))), 'C')
				) @@ (sq.q_simple || sq.q_pt)

			UNION ALL

			-- 3) APPOINTMENTS, matched through the client, the service or the notes
			SELECT
				a.id,
				'appointment'::text AS type,
				s.name AS title,
				concat_ws(' • ', c.name, to_char(a.start_time AT TIME ZONE 'America/Sao_Paulo', 'DD/MM/YYYY HH24:MI')) AS subtitle,
				CASE
					WHEN to_tsvector('portuguese', immutable_unaccent(coalesce(a.notes, ''))) @@ (sq.q_simple || sq.q_pt) THEN ts_headline(
						'portuguese',
						immutable_unaccent(coalesce(a.notes, '')),
						(sq.q_simple || sq.q_pt),
						'MaxWords=18, MinWords=6, ShortWord=2, StartSel=[, StopSel=]'
					)
					ELSE u.name
				END AS preview,
				a.status::text AS status,
				CASE
					WHEN to_tsvector('simple', immutable_unaccent(c.name)) @@ (sq.q_simple || sq.q_pt) THEN 'client'
					WHEN to_tsvector('simple', immutable_unaccent(s.name)) @@ (sq.q_simple || sq.q_pt) THEN 'service'
					ELSE 'notes'
				END AS matched_field,
				ts_rank(
					setweight(to_tsvector('simple', immutable_unaccent(c.name)), 'A') ||
					setweight(to_tsvector('simple', immutable_unaccent(s.name)), 'B') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(a.notes, ''))), 'D'),
					(sq.q_simple || sq.q_pt)
				) AS rank,
				a.created_at
			FROM appointments a
			JOIN clients c ON c.id = a.client_id
			JOIN services s ON s.id = a.service_id
			JOIN users u ON u.id = a.professional_id
			CROSS JOIN search_query sq
			WHERE a.tenant_id = $1
				AND (
					setweight(to_tsvector('simple', immutable_unaccent(c.name)), 'A') ||
					setweight(to_tsvector('simple', immutable_unaccent(s.name)), 'B') ||
					setweight(to_tsvector('portuguese', immutable_unaccent(coalesce(a.notes, ''))), 'D')
				) @@ (sq.q_simple || sq.q_pt)
		)
		SELECT
			id, type, title, subtitle, preview, status, matched_field, rank, created_at,
			COUNT(*) OVER() AS total
		FROM results
		ORDER BY rank DESC, created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, querySQL, tenantID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("global search query: %w", err)
	}
	defer rows.Close()

	items := make([]Result, 0)
	for rows.Next() {
		var item Result
		if err := rows.Scan(
			&item.ID,
			&item.Type,
			&item.Title,
			&item.Subtitle,
			&item.Preview,
			&item.Status,
			&item.MatchedField,
			&item.Score,
			&item.CreatedAt,
			&item.Total,
		); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	return items, nil
}
