// Package services provides the salon service catalog bounded context module.
// It manages the bookable services of each salon including duration, price,
// and the loyalty points granted on completion.
package services

import (
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "services"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Read endpoints available to every authenticated staff member
	ctx.Protected.GET("/services", m.handler.List)
	ctx.Protected.GET("/services/active", m.handler.ListActive)
	ctx.Protected.GET("/services/:id", m.handler.GetByID)

	// Catalog management is restricted to the salon owner
	ownerGroup := ctx.Owner.Group("/services")
	ownerGroup.POST("", m.handler.Create)
	ownerGroup.PUT("/:id", m.handler.Update)
	ownerGroup.DELETE("/:id", m.handler.Delete)
	ownerGroup.PATCH("/:id/toggle-active", m.handler.ToggleActive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
