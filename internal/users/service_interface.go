package users

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/auth"
)

// ServiceInterface defines the contract for user business logic
type ServiceInterface interface {
	EnsureUser(ctx context.Context, principal *auth.Principal) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
