package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/password"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/auth/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

type testAuthConfig struct{}

func (testAuthConfig) GetJWTAccessSecret() string        { return "access-secret" }
func (testAuthConfig) GetJWTRefreshSecret() string       { return "refresh-secret" }
func (testAuthConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testAuthConfig) GetRefreshTokenTTL() time.Duration { return 30 * 24 * time.Hour }

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

type fakeUserStore struct {
	usersByEmail  map[string]repository.User
	usersByID     map[uuid.UUID]repository.User
	createdTenant *repository.RegisterTenantParams
	createdUsers  []repository.CreateUserParams
	staffExists   bool
	setActiveTo   []bool
}

func (f *fakeUserStore) CreateTenantWithOwner(_ context.Context, params repository.RegisterTenantParams) (repository.Tenant, repository.User, error) {
	f.createdTenant = &params
	tenant := repository.Tenant{
		ID:    uuid.New(),
		Name:  params.TenantName,
		Email: params.TenantEmail,
	}
	owner := repository.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Name:         params.OwnerName,
		Email:        params.OwnerEmail,
		PasswordHash: params.PasswordHash,
		Role:         repository.RoleOwner,
		IsActive:     true,
	}
	return tenant, owner, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, params repository.CreateUserParams) (repository.User, error) {
	f.createdUsers = append(f.createdUsers, params)
	return repository.User{
		ID:           uuid.New(),
		TenantID:     params.TenantID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		IsActive:     true,
	}, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, tenantID, userID uuid.UUID) (repository.User, error) {
	user, ok := f.usersByID[userID]
	if !ok || user.TenantID != tenantID {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUserStore) ListStaff(_ context.Context, tenantID uuid.UUID) ([]repository.User, error) {
	var users []repository.User
	for _, user := range f.usersByID {
		if user.TenantID == tenantID {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeUserStore) ExistsActiveStaff(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.staffExists, nil
}

func (f *fakeUserStore) SetUserActive(_ context.Context, _, userID uuid.UUID, active bool) (repository.User, error) {
	f.setActiveTo = append(f.setActiveTo, active)
	user := f.usersByID[userID]
	user.IsActive = active
	f.usersByID[userID] = user
	return user, nil
}

var _ repository.UserStore = (*fakeUserStore)(nil)

func newTestService(store *fakeUserStore, bus *fakeBus) *Service {
	log := logger.New("development")
	clk := clock.NewFixed(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return New(store, testAuthConfig{}, bus, clk, log)
}

func storedUser(t *testing.T, plainPassword string) repository.User {
	t.Helper()
	hash, err := password.Hash(plainPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return repository.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Name:         "Paula Ribeiro",
		Email:        "paula@studioaluvi.com.br",
		PasswordHash: hash,
		Role:         repository.RoleOwner,
		IsActive:     true,
	}
}

func TestRegisterHashesPasswordAndPublishesEvent(t *testing.T) {
	store := &fakeUserStore{}
	bus := &fakeBus{}
	svc := newTestService(store, bus)

	session, err := svc.Register(context.Background(), transport.RegisterRequest{
		SalonName:  "Studio Aluvi",
		SalonEmail: "Contato@StudioAluvi.com.br",
		OwnerName:  "Paula Ribeiro",
		OwnerEmail: "paula@studioaluvi.com.br",
		Password:   "segredo-forte",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if store.createdTenant == nil {
		t.Fatal("expected tenant to be created")
	}
	if store.createdTenant.PasswordHash == "segredo-forte" {
		t.Error("password stored in plaintext")
	}
	if err := password.Compare(store.createdTenant.PasswordHash, "segredo-forte"); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if got := store.createdTenant.TenantEmail; got != "contato@studioaluvi.com.br" {
		t.Errorf("tenant email not normalized: %q", got)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if _, ok := bus.published[0].(events.TenantRegistered); !ok {
		t.Errorf("published event %T, want TenantRegistered", bus.published[0])
	}

	if session.Response.AccessToken == "" || session.RefreshToken == "" {
		t.Error("expected both tokens to be issued")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := storedUser(t, "senha-correta")
	store := &fakeUserStore{usersByEmail: map[string]repository.User{user.Email: user}}
	svc := newTestService(store, &fakeBus{})

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-errada",
	})
	assertUnauthorized(t, err, "invalid credentials")
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	store := &fakeUserStore{usersByEmail: map[string]repository.User{}}
	svc := newTestService(store, &fakeBus{})

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "ninguem@studioaluvi.com.br",
		Password: "tanto-faz",
	})
	assertUnauthorized(t, err, "invalid credentials")
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := storedUser(t, "senha-correta")
	user.IsActive = false
	store := &fakeUserStore{usersByEmail: map[string]repository.User{user.Email: user}}
	svc := newTestService(store, &fakeBus{})

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-correta",
	})
	assertUnauthorized(t, err, "invalid credentials")
}

func TestLoginIssuesAccessTokenWithSessionClaims(t *testing.T) {
	user := storedUser(t, "senha-correta")
	store := &fakeUserStore{usersByEmail: map[string]repository.User{user.Email: user}}
	svc := newTestService(store, &fakeBus{})

	session, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := parseClaims(t, session.Response.AccessToken, "access-secret")
	if got := claims["type"]; got != "access" {
		t.Errorf("type claim = %v, want access", got)
	}
	if got := claims["sub"]; got != user.ID.String() {
		t.Errorf("sub claim = %v, want %s", got, user.ID)
	}
	if got := claims["tenant_id"]; got != user.TenantID.String() {
		t.Errorf("tenant_id claim = %v, want %s", got, user.TenantID)
	}

	roles, _ := claims["roles"].([]interface{})
	if len(roles) != 1 || roles[0] != repository.RoleOwner {
		t.Errorf("roles claim = %v, want [owner]", claims["roles"])
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	user := storedUser(t, "senha-correta")
	store := &fakeUserStore{
		usersByEmail: map[string]repository.User{user.Email: user},
		usersByID:    map[uuid.UUID]repository.User{user.ID: user},
	}
	svc := newTestService(store, &fakeBus{})

	first, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.Response.User.ID != user.ID.String() {
		t.Errorf("refreshed session user = %s, want %s", second.Response.User.ID, user.ID)
	}
	if second.Response.AccessToken == "" || second.RefreshToken == "" {
		t.Error("expected a fresh token pair")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := storedUser(t, "senha-correta")
	store := &fakeUserStore{
		usersByEmail: map[string]repository.User{user.Email: user},
		usersByID:    map[uuid.UUID]repository.User{user.ID: user},
	}
	svc := newTestService(store, &fakeBus{})

	session, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), session.Response.AccessToken)
	assertUnauthorized(t, err, "invalid refresh token")
}

func TestRefreshRejectsDeactivatedAccount(t *testing.T) {
	user := storedUser(t, "senha-correta")
	store := &fakeUserStore{
		usersByEmail: map[string]repository.User{user.Email: user},
		usersByID:    map[uuid.UUID]repository.User{user.ID: user},
	}
	svc := newTestService(store, &fakeBus{})

	session, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    user.Email,
		Password: "senha-correta",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user.IsActive = false
	store.usersByID[user.ID] = user

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	assertUnauthorized(t, err, "invalid refresh token")
}

func TestCreateProfessionalAssignsRole(t *testing.T) {
	store := &fakeUserStore{}
	svc := newTestService(store, &fakeBus{})
	tenantID := uuid.New()

	created, err := svc.CreateProfessional(context.Background(), tenantID, transport.CreateProfessionalRequest{
		Name:     "Juliana Alves",
		Email:    "juliana@studioaluvi.com.br",
		Password: "senha-segura",
	})
	if err != nil {
		t.Fatalf("CreateProfessional: %v", err)
	}

	if len(store.createdUsers) != 1 {
		t.Fatalf("created %d users, want 1", len(store.createdUsers))
	}
	if got := store.createdUsers[0].Role; got != repository.RoleProfessional {
		t.Errorf("role = %q, want %q", got, repository.RoleProfessional)
	}
	if created.Role != repository.RoleProfessional {
		t.Errorf("response role = %q, want %q", created.Role, repository.RoleProfessional)
	}
}

func TestSetProfessionalActiveRefusesOwnerDeactivation(t *testing.T) {
	owner := storedUser(t, "senha-correta")
	store := &fakeUserStore{usersByID: map[uuid.UUID]repository.User{owner.ID: owner}}
	svc := newTestService(store, &fakeBus{})

	_, err := svc.SetProfessionalActive(context.Background(), owner.TenantID, owner.ID, false)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(store.setActiveTo) != 0 {
		t.Error("owner deactivation reached the store")
	}
}

func TestSetProfessionalActiveDeactivatesStaff(t *testing.T) {
	professional := storedUser(t, "senha-correta")
	professional.Role = repository.RoleProfessional
	store := &fakeUserStore{usersByID: map[uuid.UUID]repository.User{professional.ID: professional}}
	svc := newTestService(store, &fakeBus{})

	updated, err := svc.SetProfessionalActive(context.Background(), professional.TenantID, professional.ID, false)
	if err != nil {
		t.Fatalf("SetProfessionalActive: %v", err)
	}
	if updated.IsActive {
		t.Error("account still active after deactivation")
	}
}

func assertUnauthorized(t *testing.T, err error, message string) {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr, got %v", err)
	}
	if appErr.Kind != apperr.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized", appErr.Kind)
	}
	if appErr.Message != message {
		t.Errorf("message = %q, want %q", appErr.Message, message)
	}
}

func parseClaims(t *testing.T, rawToken, secret string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	return claims
}
