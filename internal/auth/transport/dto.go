package transport

import "time"

// RegisterRequest creates a salon together with its owner account.
type RegisterRequest struct {
	SalonName  string `json:"salonName" validate:"required,min=2,max=120"`
	SalonEmail string `json:"salonEmail" validate:"required,email"`
	SalonPhone string `json:"salonPhone" validate:"omitempty,max=32"`
	Address    string `json:"address" validate:"omitempty,max=255"`
	OwnerName  string `json:"ownerName" validate:"required,min=2,max=120"`
	OwnerEmail string `json:"ownerEmail" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateProfessionalRequest adds a staff account to the salon.
type CreateProfessionalRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SetActiveRequest enables or disables a staff account.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserResponse is the public shape of a staff account.
type UserResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// StaffListResponse lists the salon's team.
type StaffListResponse struct {
	Staff []UserResponse `json:"staff"`
	Total int            `json:"total"`
}

// AuthResponse returns the signed-in account and its access token. The
// refresh token travels in an HttpOnly cookie, never in the body.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}
