// Package appointments provides the appointment booking bounded context
// module. It owns the booking flow, the appointment lifecycle, business
// hours, no-show escalations, and available slot computation.
package appointments

import (
	"context"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/handler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	apphttp "github.com/ArthurRodrigues4433/aluviagendamentos/internal/http"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/scheduler"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the appointments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the appointments module with all its
// dependencies.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	catalog service.CatalogReader,
	clients service.ClientDirectory,
	professionals service.ProfessionalDirectory,
	loyalty service.LoyaltyAwarder,
	eventBus events.Bus,
	reminderScheduler scheduler.ReminderScheduler,
	reminderLead time.Duration,
	clk clock.Clock,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, clients, professionals, loyalty, eventBus, reminderScheduler, reminderLead, clk, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "appointments"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for scheduler jobs that share it.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts appointment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	appointments := ctx.Protected.Group("/appointments")
	appointments.POST("", m.handler.Book)
	appointments.GET("", m.handler.List)
	appointments.GET("/slots", m.handler.GetAvailableSlots)
	appointments.GET("/:id", m.handler.GetByID)
	appointments.PUT("/:id", m.handler.Reschedule)
	appointments.PATCH("/:id/status", m.handler.UpdateStatus)

	ctx.Protected.GET("/business-hours", m.handler.GetBusinessHours)
	ctx.Protected.GET("/escalations", m.handler.ListEscalations)

	// Changing the weekly schedule is restricted to the salon owner
	ctx.Owner.PUT("/business-hours", m.handler.UpdateBusinessHours)
}

// RegisterHandlers subscribes to the domain events the module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TenantRegistered{}.EventName(), m)
}

// Handle seeds the default weekly schedule when a new salon registers, so
// bookings work out of the box.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TenantRegistered:
		if err := m.repo.SeedDefaultBusinessHours(ctx, e.TenantID); err != nil {
			return err
		}
		m.log.Info("seeded default business hours", "tenantId", e.TenantID)
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
