// Package handler exposes the global search endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/search/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/httpkit"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for search.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new search handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GlobalSearch matches clients, services and appointments against a query.
// GET /api/v1/search?q=
func (h *Handler) GlobalSearch(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GlobalSearch(c.Request.Context(), identity.TenantID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
