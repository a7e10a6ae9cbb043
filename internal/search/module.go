// Package search provides cross-entity full-text search over the salon's
// clients, catalog services and appointments.
package search

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"
)

// Module wires the search feature.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the search module with its full dependency chain.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "search"
}

// RegisterRoutes mounts the search endpoint on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/search", m.handler.GlobalSearch)
}

// Compile-time check that Module implements the HTTP module contract.
var _ apphttp.Module = (*Module)(nil)
