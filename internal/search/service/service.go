// Package service implements search orchestration and result shaping.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/transport"
)

const defaultLimit = 10

// Service runs the cross-entity search for a salon.
type Service struct {
	repo repository.Repository
}

// New creates a new search service.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// GlobalSearch matches clients, catalog services and appointments against
// the query. A blank query returns an empty result instead of an error.
func (s *Service) GlobalSearch(ctx context.Context, tenantID uuid.UUID, req transport.SearchRequest) (*transport.SearchResponse, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return &transport.SearchResponse{Items: []transport.SearchResultItem{}, Total: 0}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := s.repo.GlobalSearch(ctx, tenantID, q, limit)
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}

	total := 0
	if len(results) > 0 {
		total = int(results[0].Total)
	}

	items := make([]transport.SearchResultItem, len(results))
	for i, r := range results {
		items[i] = transport.SearchResultItem{
			ID:           r.ID.String(),
			Type:         r.Type,
			Title:        r.Title,
			Subtitle:     r.Subtitle,
			Preview:      r.Preview,
			Status:       r.Status,
			Score:        float64(r.Score),
			MatchedField: r.MatchedField,
			CreatedAt:    r.CreatedAt,
		}
	}

	return &transport.SearchResponse{Items: items, Total: total}, nil
}
