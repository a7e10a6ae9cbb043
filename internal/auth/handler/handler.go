package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/service"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/httpkit"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/validator"
)

// Handler handles HTTP requests for authentication and staff accounts.
type Handler struct {
	svc    *service.Service
	cookie config.CookieConfig
	val    *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid user ID"
)

// New creates a new auth handler.
func New(svc *service.Service, cookie config.CookieConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, cookie: cookie, val: val}
}

// RegisterAuthRoutes mounts the public authentication endpoints.
func (h *Handler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", h.Logout)
}

// Register creates a salon with its owner account and signs the owner in.
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	session, err := h.svc.Register(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	httpkit.JSON(c, http.StatusCreated, session.Response)
}

// Login verifies credentials and starts a session.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	httpkit.OK(c, session.Response)
}

// Refresh exchanges the refresh cookie for a new session.
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.cookie.GetRefreshCookieName())
	if err != nil || refreshToken == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	session, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	httpkit.OK(c, session.Response)
}

// Logout clears the refresh cookie. Access tokens simply expire.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	h.clearRefreshCookie(c)
	httpkit.OK(c, gin.H{"message": "signed out"})
}

// Me returns the signed-in user's account.
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Me(c.Request.Context(), identity.TenantID(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListStaff returns the salon's team.
// GET /api/v1/professionals
func (h *Handler) ListStaff(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListStaff(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateProfessional adds a staff account to the salon.
// POST /api/v1/owner/professionals
func (h *Handler) CreateProfessional(c *gin.Context) {
	var req transport.CreateProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.CreateProfessional(c.Request.Context(), identity.TenantID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// SetProfessionalActive enables or disables a staff account.
// PATCH /api/v1/owner/professionals/:id/active
func (h *Handler) SetProfessionalActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.SetProfessionalActive(c.Request.Context(), identity.TenantID(), id, *req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string) {
	maxAge := int(h.cookie.GetRefreshTokenTTL() / time.Second)
	c.SetSameSite(h.cookie.GetRefreshCookieSameSite())
	c.SetCookie(
		h.cookie.GetRefreshCookieName(),
		value,
		maxAge,
		h.cookie.GetRefreshCookiePath(),
		h.cookie.GetRefreshCookieDomain(),
		h.cookie.GetRefreshCookieSecure(),
		true,
	)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.GetRefreshCookieSameSite())
	c.SetCookie(
		h.cookie.GetRefreshCookieName(),
		"",
		-1,
		h.cookie.GetRefreshCookiePath(),
		h.cookie.GetRefreshCookieDomain(),
		h.cookie.GetRefreshCookieSecure(),
		true,
	)
}
