package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/services/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

// Service provides business logic for the salon service catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves a catalog service by ID.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toResponse(svc), nil
}

// GetBookable retrieves a catalog service for booking. The service must be active.
// Returned records are consumed by the appointments module to derive duration,
// price, and loyalty points at booking time.
func (s *Service) GetBookable(ctx context.Context, tenantID, id uuid.UUID) (repository.Service, error) {
	svc, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Service{}, err
	}
	if !svc.IsActive {
		return repository.Service{}, apperr.Validation("service is not available for booking")
	}
	return svc, nil
}

// ListWithFilters retrieves catalog services with search, filters, and pagination.
func (s *Service) ListWithFilters(ctx context.Context, tenantID uuid.UUID, req transport.ListServicesRequest) (transport.ServiceListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		TenantID:  tenantID,
		Search:    req.Search,
		IsActive:  req.IsActive,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	items, total, err := s.repo.ListWithFilters(ctx, params)
	if err != nil {
		return transport.ServiceListResponse{}, err
	}

	return toListResponseWithPagination(items, total, page, pageSize), nil
}

// ListActive retrieves only active catalog services.
func (s *Service) ListActive(ctx context.Context, tenantID uuid.UUID) (transport.ServiceListResponse, error) {
	items, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return transport.ServiceListResponse{}, err
	}
	return toListResponseWithPagination(items, len(items), 1, len(items)), nil
}

// Create adds a new service to the salon catalog.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateServiceRequest) (transport.ServiceResponse, error) {
	params := repository.CreateParams{
		TenantID:        tenantID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		LoyaltyPoints:   req.LoyaltyPoints,
	}

	svc, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("service created", "id", svc.ID, "name", svc.Name, "durationMinutes", svc.DurationMinutes)
	return toResponse(svc), nil
}

// Update updates an existing catalog service.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateServiceRequest) (transport.ServiceResponse, error) {
	params := repository.UpdateParams{
		ID:              id,
		TenantID:        tenantID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		LoyaltyPoints:   req.LoyaltyPoints,
	}

	svc, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("service updated", "id", svc.ID, "name", svc.Name)
	return toResponse(svc), nil
}

// Delete removes or deactivates a catalog service based on usage.
// Services already referenced by appointments are deactivated to keep history intact.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) (transport.DeleteServiceResponse, error) {
	used, err := s.repo.HasAppointments(ctx, tenantID, id)
	if err != nil {
		return transport.DeleteServiceResponse{}, err
	}

	if used {
		if err := s.repo.SetActive(ctx, tenantID, id, false); err != nil {
			return transport.DeleteServiceResponse{}, err
		}
		s.log.Info("service deactivated", "id", id)
		return transport.DeleteServiceResponse{Status: "deactivated"}, nil
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return transport.DeleteServiceResponse{}, err
	}

	s.log.Info("service deleted", "id", id)
	return transport.DeleteServiceResponse{Status: "deleted"}, nil
}

// ToggleActive toggles the is_active flag for a catalog service.
func (s *Service) ToggleActive(ctx context.Context, tenantID, id uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	newActive := !svc.IsActive
	if err := s.repo.SetActive(ctx, tenantID, id, newActive); err != nil {
		return transport.ServiceResponse{}, err
	}

	svc, err = s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("service active toggled", "id", id, "isActive", newActive)
	return toResponse(svc), nil
}

// toResponse converts a repository Service to a transport response.
func toResponse(svc repository.Service) transport.ServiceResponse {
	return transport.ServiceResponse{
		ID:              svc.ID,
		Name:            svc.Name,
		Description:     svc.Description,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		LoyaltyPoints:   svc.LoyaltyPoints,
		IsActive:        svc.IsActive,
		CreatedAt:       svc.CreatedAt,
		UpdatedAt:       svc.UpdatedAt,
	}
}

// toListResponseWithPagination converts a slice of repository Services to a transport response.
func toListResponseWithPagination(items []repository.Service, total int, page int, pageSize int) transport.ServiceListResponse {
	responses := make([]transport.ServiceResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	if pageSize < 1 {
		pageSize = len(items)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return transport.ServiceListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
