// Package auth provides the authentication bounded context module.
// It owns salon registration, staff accounts and JWT session management.
package auth

import (
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, eventBus events.Bus, val *validator.Validator, clk clock.Clock, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, eventBus, clk, log)
	h := handler.New(svc, cfg, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service, used by the appointments module as its
// professional directory.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterAuthRoutes(authGroup)

	ctx.Protected.GET("/auth/me", m.handler.Me)
	ctx.Protected.GET("/professionals", m.handler.ListStaff)

	// Staff management is restricted to the salon owner
	ctx.Owner.POST("/professionals", m.handler.CreateProfessional)
	ctx.Owner.PATCH("/professionals/:id/active", m.handler.SetProfessionalActive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
