package transport

import "github.com/google/uuid"

// CreateServiceRequest contains data for adding a service to the salon catalog.
type CreateServiceRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=100"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DurationMinutes int     `json:"durationMinutes" validate:"required,min=5,max=480"`
	PriceCents      int64   `json:"priceCents" validate:"min=0"`
	LoyaltyPoints   int64   `json:"loyaltyPoints" validate:"min=0"`
}

// UpdateServiceRequest contains data for updating an existing service.
// Nil fields are left unchanged.
type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DurationMinutes *int    `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=480"`
	PriceCents      *int64  `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	LoyaltyPoints   *int64  `json:"loyaltyPoints,omitempty" validate:"omitempty,min=0"`
}

// ListServicesRequest contains query parameters for the catalog list endpoint.
type ListServicesRequest struct {
	Search    string `form:"search"`
	IsActive  *bool  `form:"isActive"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// ServiceResponse represents a catalog service in API responses.
type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
	LoyaltyPoints   int64     `json:"loyaltyPoints"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

// ServiceListResponse wraps a paginated list of catalog services.
type ServiceListResponse struct {
	Items      []ServiceResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// DeleteServiceResponse reports whether the service was deleted or deactivated.
type DeleteServiceResponse struct {
	Status string `json:"status"`
}
