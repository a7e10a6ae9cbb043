package transport

import "github.com/google/uuid"

// CreateClientRequest contains data for registering a salon client.
type CreateClientRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=150"`
	Email string  `json:"email" validate:"required,email,max=255"`
	Phone string  `json:"phone" validate:"required,min=8,max=20"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateClientRequest contains data for updating an existing client.
// Nil fields are left unchanged.
type UpdateClientRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListClientsRequest contains query parameters for the client list endpoint.
type ListClientsRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// RedeemPointsRequest asks to convert loyalty points into a discount.
type RedeemPointsRequest struct {
	Points int64 `json:"points" validate:"required,min=1"`
}

// RedeemPointsResponse reports the outcome of a redemption.
type RedeemPointsResponse struct {
	PointsRedeemed int64 `json:"pointsRedeemed"`
	DiscountCents  int64 `json:"discountCents"`
	Balance        int64 `json:"balance"`
}

// ClientResponse represents a salon client in API responses.
type ClientResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Notes         *string   `json:"notes,omitempty"`
	LoyaltyPoints int64     `json:"loyaltyPoints"`
	VisitCount    int       `json:"visitCount"`
	LastVisitAt   *string   `json:"lastVisitAt,omitempty"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

// ClientListResponse wraps a paginated list of clients.
type ClientListResponse struct {
	Items      []ClientResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// LoyaltyEntryResponse represents one ledger movement of a client balance.
type LoyaltyEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EntryType     string     `json:"entryType"`
	Points        int64      `json:"points"`
	BalanceAfter  int64      `json:"balanceAfter"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	CreatedAt     string     `json:"createdAt"`
}

// LoyaltyStatementResponse summarizes a client loyalty position.
type LoyaltyStatementResponse struct {
	Balance    int64                  `json:"balance"`
	Multiplier float64                `json:"multiplier"`
	Entries    []LoyaltyEntryResponse `json:"entries"`
}
