package inapp

import (
	"context"

	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/sse"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

// Service persists feed entries and pushes them to open dashboard sessions.
type Service struct {
	repo *Repository
	sse  *sse.Service
	log  *logger.Logger
}

// NewService creates the feed service. The SSE hub is optional: the
// scheduler process persists entries without pushing them.
func NewService(repo *Repository, sseSvc *sse.Service, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		sse:  sseSvc,
		log:  log,
	}
}

// SendParams holds a feed entry to deliver.
type SendParams struct {
	TenantID      uuid.UUID
	Title         string
	Content       string
	AppointmentID *uuid.UUID
	Category      string
	EventType     sse.EventType
}

// Send persists the entry and pushes it to connected dashboard sessions.
// The feed row is the source of truth; the SSE push is best effort.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if p.Category == "" {
		p.Category = CategoryInfo
	}

	notif, err := s.repo.Create(ctx, CreateParams{
		TenantID:      p.TenantID,
		Title:         p.Title,
		Content:       p.Content,
		AppointmentID: p.AppointmentID,
		Category:      p.Category,
	})
	if err != nil {
		s.log.Error("persist in-app notification failed", "tenantId", p.TenantID, "error", err)
		return err
	}

	if s.sse != nil {
		eventType := p.EventType
		if eventType == "" {
			eventType = sse.EventInAppNotification
		}
		event := sse.Event{
			Type:    eventType,
			Message: p.Title,
			Data:    notif,
		}
		if p.AppointmentID != nil {
			event.AppointmentID = *p.AppointmentID
		}
		s.sse.PublishToTenant(p.TenantID, event)
	}

	return nil
}

// List returns one page of the tenant's feed, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, tenantID, pageSize, offset)
}

// CountUnread returns the tenant's unread badge count.
func (s *Service) CountUnread(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, tenantID)
}

// MarkRead flags one entry as read.
func (s *Service) MarkRead(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, tenantID, id)
}

// MarkAllRead clears the tenant's unread badge.
func (s *Service) MarkAllRead(ctx context.Context, tenantID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, tenantID)
}

// Delete removes one entry from the feed.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}
