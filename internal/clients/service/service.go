package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/loyalty"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/clients/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/phone"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/sanitize"
)

// Service provides business logic for salon clients and their loyalty program.
type Service struct {
	repo            repository.Repository
	table           loyalty.Table
	redeemCentsP100 int64
	log             *logger.Logger
}

// New creates a new clients service. The loyalty accrual bands and the
// redemption rate come from configuration.
func New(repo repository.Repository, cfg config.LoyaltyConfig, log *logger.Logger) *Service {
	return &Service{
		repo:            repo,
		table:           loyalty.NewTable(cfg.GetLoyaltyBands()),
		redeemCentsP100: cfg.GetRedeemCentsPer100(),
		log:             log,
	}
}

// GetByID retrieves a client by ID.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.ClientResponse, error) {
	client, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toResponse(client), nil
}

// Exists checks if a client belongs to the salon.
func (s *Service) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, tenantID, id)
}

// ListWithFilters retrieves clients with search and pagination.
func (s *Service) ListWithFilters(ctx context.Context, tenantID uuid.UUID, req transport.ListClientsRequest) (transport.ClientListResponse, error) {
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
		TenantID: tenantID,
		Search:   req.Search,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}

	items, total, err := s.repo.ListWithFilters(ctx, params)
	if err != nil {
		return transport.ClientListResponse{}, err
	}

	return toListResponse(items, total, page, pageSize), nil
}

// Create registers a new client for the salon.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	params := repository.CreateParams{
		TenantID: tenantID,
		Name:     sanitize.Text(req.Name),
		Email:    req.Email,
		Phone:    phone.NormalizeE164(req.Phone),
		Notes:    sanitize.TextPtr(req.Notes),
	}

	client, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.ClientResponse{}, err
	}

	s.log.Info("client created", "id", client.ID, "email", client.Email)
	return toResponse(client), nil
}

// Update updates an existing client.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateClientRequest) (transport.ClientResponse, error) {
	params := repository.UpdateParams{
		ID:       id,
		TenantID: tenantID,
		Email:    req.Email,
		Notes:    sanitize.TextPtr(req.Notes),
	}
	if req.Name != nil {
		cleaned := sanitize.Text(*req.Name)
		params.Name = &cleaned
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	client, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.ClientResponse{}, err
	}

	s.log.Info("client updated", "id", client.ID)
	return toResponse(client), nil
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("client deleted", "id", id)
	return nil
}

// AwardForAppointment grants the loyalty points of a completed appointment on
// the caller's transaction, so the award and the completed transition commit
// as one. The award is keyed on the appointment, so repeat calls are no-ops.
func (s *Service) AwardForAppointment(ctx context.Context, tx pgx.Tx, tenantID, appointmentID uuid.UUID) (int64, error) {
	result, err := s.repo.AwardForAppointment(ctx, tx, tenantID, appointmentID, s.table)
	if err != nil {
		return 0, err
	}
	if !result.Awarded {
		s.log.Info("loyalty award skipped, appointment already awarded", "appointmentId", appointmentID)
		return 0, nil
	}

	s.log.Info("loyalty points awarded",
		"appointmentId", appointmentID,
		"clientId", result.ClientID,
		"points", result.Points,
		"balance", result.Balance,
	)
	return result.Points, nil
}

// Redeem converts loyalty points into a discount value for the client.
func (s *Service) Redeem(ctx context.Context, tenantID, clientID uuid.UUID, req transport.RedeemPointsRequest) (transport.RedeemPointsResponse, error) {
	balance, err := s.repo.Redeem(ctx, tenantID, clientID, req.Points)
	if err != nil {
		return transport.RedeemPointsResponse{}, err
	}

	discount := req.Points * s.redeemCentsP100 / 100

	s.log.Info("loyalty points redeemed",
		"clientId", clientID,
		"points", req.Points,
		"discountCents", discount,
		"balance", balance,
	)
	return transport.RedeemPointsResponse{
		PointsRedeemed: req.Points,
		DiscountCents:  discount,
		Balance:        balance,
	}, nil
}

// LoyaltyStatement returns the client balance, the multiplier of their
// current band, and their recent ledger entries.
func (s *Service) LoyaltyStatement(ctx context.Context, tenantID, clientID uuid.UUID) (transport.LoyaltyStatementResponse, error) {
	client, err := s.repo.GetByID(ctx, tenantID, clientID)
	if err != nil {
		return transport.LoyaltyStatementResponse{}, err
	}

	entries, err := s.repo.ListEntries(ctx, tenantID, clientID, 50)
	if err != nil {
		return transport.LoyaltyStatementResponse{}, err
	}

	resp := transport.LoyaltyStatementResponse{
		Balance:    client.LoyaltyPoints,
		Multiplier: s.table.MultiplierFor(client.LoyaltyPoints),
		Entries:    make([]transport.LoyaltyEntryResponse, len(entries)),
	}
	for i, entry := range entries {
		resp.Entries[i] = transport.LoyaltyEntryResponse{
			ID:            entry.ID,
			EntryType:     entry.EntryType,
			Points:        entry.Points,
			BalanceAfter:  entry.BalanceAfter,
			AppointmentID: entry.AppointmentID,
			CreatedAt:     entry.CreatedAt,
		}
	}
	return resp, nil
}

// toResponse converts a repository Client to a transport response.
func toResponse(client repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:            client.ID,
		Name:          client.Name,
		Email:         client.Email,
		Phone:         client.Phone,
		Notes:         client.Notes,
		LoyaltyPoints: client.LoyaltyPoints,
		VisitCount:    client.VisitCount,
		LastVisitAt:   client.LastVisitAt,
		CreatedAt:     client.CreatedAt,
		UpdatedAt:     client.UpdatedAt,
	}
}

// toListResponse converts a slice of repository Clients to a transport response.
func toListResponse(items []repository.Client, total int, page int, pageSize int) transport.ClientListResponse {
	responses := make([]transport.ClientResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return transport.ClientListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
