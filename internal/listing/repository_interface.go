package listing

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// RepositoryInterface defines the contract for listing data access
type RepositoryInterface interface {
	Create(ctx context.Context, req CreateListingRequest) (*Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	ListWithPagination(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error)
	Update(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error)
	CountActiveBookings(ctx context.Context, listingID string) (int, error)
	Delete(ctx context.Context, id string) error
}

var _ RepositoryInterface = (*Repository)(nil)
