package listing

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// ServiceInterface defines the contract for listing business logic
type ServiceInterface interface {
	CreateListing(ctx context.Context, callerID string, req CreateListingRequest) (*Listing, error)
	GetListing(ctx context.Context, callerID, id string) (*Listing, error)
	ListListings(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error)
	UpdateListing(ctx context.Context, callerID, id string, req UpdateListingRequest) (*Listing, error)
	DeleteListing(ctx context.Context, callerID, id string) error
}

var _ ServiceInterface = (*Service)(nil)
