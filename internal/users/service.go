package users

import (
	"context"
	"fmt"

	"github.com/nestspace/marketplace-service/internal/auth"
)

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// EnsureUser mirrors the authenticated principal into the users table.
// First and last name come from the token's profile claims when present.
func (s *Service) EnsureUser(ctx context.Context, principal *auth.Principal) (*User, error) {
	if principal.Email == "" {
		return nil, ErrMissingEmail
	}

	u := User{
		ID:    principal.UserID,
		Email: principal.Email,
	}
	if given, ok := principal.Claims["given_name"].(string); ok {
		u.FirstName = given
	}
	if family, ok := principal.Claims["family_name"].(string); ok {
		u.LastName = family
	}

	out, err := s.repo.Upsert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return u, nil
}
