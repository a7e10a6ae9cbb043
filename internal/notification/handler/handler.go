// Package handler exposes the staff notification feed over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/inapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/sse"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/httpkit"
)

// Handler handles HTTP requests for the staff notification feed.
type Handler struct {
	svc *inapp.Service
	sse *sse.Service
}

const msgInvalidID = "invalid notification ID"

// New creates a new notification feed handler.
func New(svc *inapp.Service, sseSvc *sse.Service) *Handler {
	return &Handler{svc: svc, sse: sseSvc}
}

// List returns one page of the tenant's feed, newest first.
// GET /api/v1/notifications
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, total, err := h.svc.List(c.Request.Context(), identity.TenantID(), page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"items": items,
		"total": total,
		"page":  page,
	})
}

// CountUnread returns the unread badge count.
// GET /api/v1/notifications/unread
func (h *Handler) CountUnread(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.svc.CountUnread(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"count": count})
}

// MarkRead flags one entry as read.
// PATCH /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), identity.TenantID(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

// MarkAllRead clears the unread badge.
// PATCH /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.MarkAllRead(c.Request.Context(), identity.TenantID()); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

// Delete removes one entry from the feed.
// DELETE /api/v1/notifications/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), identity.TenantID(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

// Stream upgrades the request into an SSE stream of dashboard events.
// GET /api/v1/notifications/stream
func (h *Handler) Stream(c *gin.Context) {
	h.sse.Handler(func(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return uuid.Nil, uuid.Nil, false
		}
		return identity.TenantID(), identity.UserID(), true
	})(c)
}
