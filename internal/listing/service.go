package listing

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/pagination"
	"github.com/shopspring/decimal"
)

// MembershipChecker resolves the caller's role in an organization.
// Implemented by the organization service.
type MembershipChecker interface {
	GetMemberRole(ctx context.Context, orgID, userID string) (string, error)
}

// Service handles business logic for listings
type Service struct {
	repo      RepositoryInterface
	members   MembershipChecker
	publisher events.PublisherInterface
}

// NewService creates a new listing service
func NewService(repo RepositoryInterface, members MembershipChecker, publisher events.PublisherInterface) *Service {
	return &Service{repo: repo, members: members, publisher: publisher}
}

// CreateListing validates the request, checks the caller's membership and creates a draft listing
func (s *Service) CreateListing(ctx context.Context, callerID string, req CreateListingRequest) (*Listing, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	if req.OrganizationID == "" {
		return nil, ErrMissingOrg
	}
	if req.CategoryID == "" {
		return nil, ErrMissingCategory
	}
	if req.Title == "" {
		return nil, ErrMissingTitle
	}
	if !req.NightlyPrice.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if len(req.Currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	if err := s.requireMembership(ctx, req.OrganizationID, callerID); err != nil {
		return nil, err
	}

	l, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	event := events.ListingCreatedEvent{
		BaseEvent: events.NewBaseEvent(events.EventListingCreated),
		Data: events.ListingCreatedData{
			ListingID:      l.ID,
			OrganizationID: l.OrganizationID,
			CategoryID:     l.CategoryID,
			CreatedAt:      time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventListingCreated, event); err != nil {
		log.Printf("Warning: failed to publish listing.created event for %s: %v", l.ID, err)
	}

	return l, nil
}

// GetListing retrieves a listing by ID. Unpublished listings are only
// visible to members of the owning organization; everyone else gets
// ErrListingNotFound so drafts do not leak their existence.
func (s *Service) GetListing(ctx context.Context, callerID, id string) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == StatusPublished {
		return l, nil
	}
	if callerID == "" {
		return nil, ErrListingNotFound
	}
	if err := s.requireMembership(ctx, l.OrganizationID, callerID); err != nil {
		if errors.Is(err, ErrNotMember) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

// ListListings retrieves listings matching the filter with pagination.
// Anonymous callers only see published listings. Authenticated callers see
// drafts and archived listings of an organization they belong to when
// filtering by that organization.
func (s *Service) ListListings(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}

	switch {
	case filter.Status == StatusPublished:
		// public browse, nothing to check
	case callerID != "" && filter.OrganizationID != "":
		if err := s.requireMembership(ctx, filter.OrganizationID, callerID); err != nil {
			return nil, 0, err
		}
	case filter.Status == "" || callerID == "":
		filter.Status = StatusPublished
	default:
		return nil, 0, ErrMemberOnlyStatus
	}

	return s.repo.ListWithPagination(ctx, filter, params)
}

// UpdateListing applies a partial update after checking membership
func (s *Service) UpdateListing(ctx context.Context, callerID, id string, req UpdateListingRequest) (*Listing, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireMembership(ctx, existing.OrganizationID, callerID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, ErrMissingTitle
		}
		req.Title = &trimmed
	}
	if req.NightlyPrice != nil && !req.NightlyPrice.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if req.Status != nil && !validStatus(*req.Status) {
		return nil, ErrInvalidStatus
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != existing.Status {
		event := events.ListingStatusEvent{
			BaseEvent: events.NewBaseEvent(events.EventListingStatusChanged),
			Data: events.ListingStatusData{
				ListingID:      updated.ID,
				OrganizationID: updated.OrganizationID,
				OldStatus:      existing.Status,
				NewStatus:      updated.Status,
				ChangedAt:      time.Now().UTC(),
			},
		}
		if err := s.publisher.Publish(ctx, events.EventListingStatusChanged, event); err != nil {
			log.Printf("Warning: failed to publish listing.status_changed event for %s: %v", updated.ID, err)
		}
	}

	return updated, nil
}

// DeleteListing soft-deletes a listing unless it has active bookings
func (s *Service) DeleteListing(ctx context.Context, callerID, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireMembership(ctx, existing.OrganizationID, callerID); err != nil {
		return err
	}

	count, err := s.repo.CountActiveBookings(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrListingHasBookings
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) requireMembership(ctx context.Context, orgID, userID string) error {
	role, err := s.members.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrNotMember
	}
	return nil
}
