package category

import "context"

// RepositoryInterface defines the contract for category data access
type RepositoryInterface interface {
	Create(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, id string, req UpdateCategoryRequest) (*Category, error)
	CountListings(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
