package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/password"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/phone"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/sanitize"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

const (
	invalidCredentialsMessage  = "invalid credentials"
	invalidRefreshTokenMessage = "invalid refresh token"
)

// Service implements registration, login and token issuance for salon staff.
// Refresh tokens are self-contained JWTs signed with a dedicated secret, so
// no token state is kept server side.
type Service struct {
	repo repository.UserStore
	cfg  config.AuthServiceConfig
	bus  events.Bus
	clk  clock.Clock
	log  *logger.Logger
}

// New creates a new auth service.
func New(repo repository.UserStore, cfg config.AuthServiceConfig, bus events.Bus, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, clk: clk, log: log}
}

// Session is the outcome of a successful authentication. The refresh token
// is kept out of the response body so the handler can move it into an
// HttpOnly cookie.
type Session struct {
	Response     transport.AuthResponse
	RefreshToken string
}

// Register creates a salon with its owner account and signs the owner in.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (Session, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	tenant, owner, err := s.repo.CreateTenantWithOwner(ctx, repository.RegisterTenantParams{
		TenantName:   sanitize.Text(req.SalonName),
		TenantEmail:  normalizeEmail(req.SalonEmail),
		TenantPhone:  phone.NormalizeE164(req.SalonPhone),
		Address:      sanitize.Text(req.Address),
		OwnerName:    sanitize.Text(req.OwnerName),
		OwnerEmail:   normalizeEmail(req.OwnerEmail),
		PasswordHash: hash,
	})
	if err != nil {
		return Session{}, err
	}

	s.log.Info("salon registered", "tenantId", tenant.ID, "email", tenant.Email)

	s.bus.Publish(ctx, events.TenantRegistered{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenant.ID,
		Name:      tenant.Name,
		Email:     tenant.Email,
	})

	return s.startSession(owner)
}

// Login verifies credentials and starts a session. Unknown email, wrong
// password and deactivated accounts all return the same error so the
// response does not reveal which check failed; the log keeps the reason.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (Session, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return Session{}, apperr.Unauthorized(invalidCredentialsMessage)
	}
	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return Session{}, apperr.Unauthorized(invalidCredentialsMessage)
	}
	if !user.IsActive {
		s.log.AuthEvent("login", email, false, "account deactivated")
		return Session{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	s.log.AuthEvent("login", email, true, "")
	return s.startSession(user)
}

// Refresh exchanges a valid refresh token for a fresh session. The account
// is reloaded so a deactivation takes effect at the next refresh even
// though the token itself is still valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tenantID, userID, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return Session{}, apperr.Unauthorized(invalidRefreshTokenMessage)
	}

	user, err := s.repo.GetUserByID(ctx, tenantID, userID)
	if err != nil {
		return Session{}, apperr.Unauthorized(invalidRefreshTokenMessage)
	}
	if !user.IsActive {
		return Session{}, apperr.Unauthorized(invalidRefreshTokenMessage)
	}

	return s.startSession(user)
}

// Me returns the signed-in user's account.
func (s *Service) Me(ctx context.Context, tenantID, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, tenantID, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// CreateProfessional adds a staff account to the salon. Professionals sign
// in with their own credentials and share the salon's agenda.
func (s *Service) CreateProfessional(ctx context.Context, tenantID uuid.UUID, req transport.CreateProfessionalRequest) (transport.UserResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		TenantID:     tenantID,
		Name:         sanitize.Text(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         repository.RoleProfessional,
	})
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("professional created", "tenantId", tenantID, "userId", user.ID)
	return toUserResponse(user), nil
}

// ListStaff returns the salon's team, owner included.
func (s *Service) ListStaff(ctx context.Context, tenantID uuid.UUID) (transport.StaffListResponse, error) {
	users, err := s.repo.ListStaff(ctx, tenantID)
	if err != nil {
		return transport.StaffListResponse{}, err
	}

	items := make([]transport.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}
	return transport.StaffListResponse{Staff: items, Total: len(items)}, nil
}

// SetProfessionalActive enables or disables a staff account. A deactivated
// account cannot sign in and stops being bookable. The owner account cannot
// be deactivated.
func (s *Service) SetProfessionalActive(ctx context.Context, tenantID, userID uuid.UUID, active bool) (transport.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, tenantID, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	if user.Role == repository.RoleOwner && !active {
		return transport.UserResponse{}, apperr.Conflict("the owner account cannot be deactivated")
	}

	updated, err := s.repo.SetUserActive(ctx, tenantID, userID, active)
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("staff account updated", "userId", updated.ID, "active", updated.IsActive)
	return toUserResponse(updated), nil
}

// ExistsProfessional reports whether the user is an active member of the
// salon and therefore bookable for appointments.
func (s *Service) ExistsProfessional(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	return s.repo.ExistsActiveStaff(ctx, tenantID, userID)
}

func (s *Service) startSession(user repository.User) (Session, error) {
	access, err := s.signToken(user, accessTokenType, s.cfg.GetJWTAccessSecret(), s.cfg.GetAccessTokenTTL())
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.signToken(user, refreshTokenType, s.cfg.GetJWTRefreshSecret(), s.cfg.GetRefreshTokenTTL())
	if err != nil {
		return Session{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Session{
		Response: transport.AuthResponse{
			AccessToken: access,
			User:        toUserResponse(user),
		},
		RefreshToken: refresh,
	}, nil
}

func (s *Service) signToken(user repository.User, tokenType, secret string, ttl time.Duration) (string, error) {
	now := s.clk.Now()
	claims := jwt.MapClaims{
		"sub":       user.ID.String(),
		"tenant_id": user.TenantID.String(),
		"type":      tokenType,
		"roles":     []string{user.Role},
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) parseRefreshToken(raw string) (tenantID, userID uuid.UUID, err error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.cfg.GetJWTRefreshSecret()), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, uuid.Nil, errors.New(invalidRefreshTokenMessage)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, errors.New(invalidRefreshTokenMessage)
	}
	if tokenType, _ := claims["type"].(string); tokenType != refreshTokenType {
		return uuid.Nil, uuid.Nil, errors.New(invalidRefreshTokenMessage)
	}

	sub, _ := claims["sub"].(string)
	userID, err = uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New(invalidRefreshTokenMessage)
	}

	rawTenant, _ := claims["tenant_id"].(string)
	tenantID, err = uuid.Parse(rawTenant)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New(invalidRefreshTokenMessage)
	}

	return tenantID, userID, nil
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID.String(),
		TenantID:  user.TenantID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
