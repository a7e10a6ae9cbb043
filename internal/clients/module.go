// Package clients provides the salon clients bounded context module.
// It owns client records, the loyalty points balance, and the accrual and
// redemption ledger.
package clients

import (
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/service"
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the clients module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.LoyaltyConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts client routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/clients")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.GetByID)
	group.PUT("/:id", m.handler.Update)
	group.GET("/:id/loyalty", m.handler.LoyaltyStatement)
	group.POST("/:id/loyalty/redeem", m.handler.Redeem)

	// Removing a client erases their history, owner only
	ctx.Owner.DELETE("/clients/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
