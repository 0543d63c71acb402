package listing

import (
	"time"

	"github.com/nestspace/marketplace-service/internal/pagination"
	"github.com/shopspring/decimal"
)

// Listing statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Listing represents a rentable unit offered by an organization
type Listing struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	CategoryID     string          `json:"category_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	NightlyPrice   decimal.Decimal `json:"nightly_price"`
	Currency       string          `json:"currency"`
	City           string          `json:"city"`
	Region         string          `json:"region,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateListingRequest represents the request to create a new listing
type CreateListingRequest struct {
	OrganizationID string          `json:"organization_id"`
	CategoryID     string          `json:"category_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	NightlyPrice   decimal.Decimal `json:"nightly_price"`
	Currency       string          `json:"currency"`
	City           string          `json:"city"`
	Region         string          `json:"region,omitempty"`
}

// UpdateListingRequest represents a partial listing update
type UpdateListingRequest struct {
	CategoryID   *string          `json:"category_id,omitempty"`
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	NightlyPrice *decimal.Decimal `json:"nightly_price,omitempty"`
	City         *string          `json:"city,omitempty"`
	Region       *string          `json:"region,omitempty"`
	Status       *string          `json:"status,omitempty"`
}

// Filter narrows listing queries
type Filter struct {
	OrganizationID string
	CategoryID     string
	Search         string
	Status         string
	City           string
}

// PaginatedListResponse is the payload for paginated listing queries
type PaginatedListResponse struct {
	Success    bool            `json:"success"`
	Listings   []Listing       `json:"listings"`
	Pagination pagination.Meta `json:"pagination"`
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}
