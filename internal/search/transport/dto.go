// Package transport defines request and response DTOs for search.
package transport

import "time"

// SearchRequest is the query-string contract of the search endpoint.
type SearchRequest struct {
	Query string `form:"q" validate:"required,min=2,max=100"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=50"`
}

// SearchResultItem is one hit in the response.
type SearchResultItem struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`         // "client", "service", "appointment"
	Title        string    `json:"title"`        // primary display text
	Subtitle     string    `json:"subtitle"`     // secondary context (phone, price, date)
	Preview      string    `json:"preview"`      // snippet of what matched
	Status       string    `json:"status"`       // badge text
	Score        float64   `json:"score"`        // relevance
	MatchedField string    `json:"matchedField"` // which field matched
	CreatedAt    time.Time `json:"createdAt"`
}

// SearchResponse is the search endpoint payload.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}
