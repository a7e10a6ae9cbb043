package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/transport"
)

type fakeRepo struct {
	results   []repository.Result
	calls     int
	lastQuery string
	lastLimit int
}

func (f *fakeRepo) GlobalSearch(_ context.Context, _ uuid.UUID, query string, limit int) ([]repository.Result, error) {
	f.calls++
	f.lastQuery = query
	f.lastLimit = limit
	return f.results, nil
}

func TestGlobalSearchBlankQueryShortCircuits(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	resp, err := svc.GlobalSearch(context.Background(), uuid.New(), transport.SearchRequest{Query: "   "})
	if err != nil {
		t.Fatalf("GlobalSearch returned error: %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no repository call for blank query, got %d", repo.calls)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty response, got %d items, total %d", len(resp.Items), resp.Total)
	}
}

func TestGlobalSearchTrimsQueryAndDefaultsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	_, err := svc.GlobalSearch(context.Background(), uuid.New(), transport.SearchRequest{Query: "  corte  "})
	if err != nil {
		t.Fatalf("GlobalSearch returned error: %v", err)
	}
	if repo.lastQuery != "corte" {
		t.Errorf("expected trimmed query %q, got %q", "corte", repo.lastQuery)
	}
	if repo.lastLimit != defaultLimit {
		t.Errorf("expected default limit %d, got %d", defaultLimit, repo.lastLimit)
	}
}

func TestGlobalSearchMapsResultsAndTotal(t *testing.T) {
	created := time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)
	repo := &fakeRepo{
		results: []repository.Result{
			{
				ID:           uuid.New(),
				Type:         "client",
				Title:        "Mariana Costa",
				Subtitle:     "+55 11 99999-0000 • mariana@example.com",
				Preview:      "mariana@example.com",
				Status:       "returning",
				MatchedField: "name",
				Score:        0.6,
				CreatedAt:    created,
				Total:        7,
			},
			{
				ID:           uuid.New(),
				Type:         "service",
				Title:        "Corte Feminino",
				Status:       "active",
				MatchedField: "name",
				Score:        0.4,
				CreatedAt:    created,
				Total:        7,
			},
		},
	}
	svc := New(repo)

	resp, err := svc.GlobalSearch(context.Background(), uuid.New(), transport.SearchRequest{Query: "mariana", Limit: 5})
	if err != nil {
		t.Fatalf("GlobalSearch returned error: %v", err)
	}
	if repo.lastLimit != 5 {
		t.Errorf("expected limit 5 passed through, got %d", repo.lastLimit)
	}
	if resp.Total != 7 {
		t.Errorf("expected total 7 from window count, got %d", resp.Total)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Type != "client" || resp.Items[0].Title != "Mariana Costa" {
		t.Errorf("unexpected first item: %+v", resp.Items[0])
	}
	if resp.Items[1].Status != "active" {
		t.Errorf("expected service status carried through, got %q", resp.Items[1].Status)
	}
}
