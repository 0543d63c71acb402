package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/pagination"
	"github.com/nestspace/marketplace-service/internal/testutil"
	"github.com/shopspring/decimal"
)

type mockRepository struct {
	createFunc              func(ctx context.Context, req CreateListingRequest) (*Listing, error)
	getByIDFunc             func(ctx context.Context, id string) (*Listing, error)
	listWithPaginationFunc  func(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error)
	updateFunc              func(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error)
	countActiveBookingsFunc func(ctx context.Context, listingID string) (int, error)
	deleteFunc              func(ctx context.Context, id string) error
}

func (m *mockRepository) Create(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &Listing{
		ID:             "listing-1",
		OrganizationID: req.OrganizationID,
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		NightlyPrice:   req.NightlyPrice,
		Currency:       req.Currency,
		Status:         StatusDraft,
	}, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &Listing{ID: id, OrganizationID: "org-1", Status: StatusPublished}, nil
}

func (m *mockRepository) ListWithPagination(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error) {
	if m.listWithPaginationFunc != nil {
		return m.listWithPaginationFunc(ctx, filter, params)
	}
	return nil, 0, nil
}

func (m *mockRepository) Update(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return &Listing{ID: id, OrganizationID: "org-1"}, nil
}

func (m *mockRepository) CountActiveBookings(ctx context.Context, listingID string) (int, error) {
	if m.countActiveBookingsFunc != nil {
		return m.countActiveBookingsFunc(ctx, listingID)
	}
	return 0, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type stubMembers struct {
	role string
	err  error
}

func (s stubMembers) GetMemberRole(ctx context.Context, orgID, userID string) (string, error) {
	return s.role, s.err
}

func newTestService(repo *mockRepository, members stubMembers) (*Service, *testutil.MockPublisher) {
	publisher := testutil.NewMockPublisher()
	return NewService(repo, members, publisher), publisher
}

func validCreateRequest() CreateListingRequest {
	return CreateListingRequest{
		OrganizationID: "org-1",
		CategoryID:     "cat-1",
		Title:          "Canal view loft",
		NightlyPrice:   decimal.NewFromInt(120),
		Currency:       "EUR",
		City:           "Amsterdam",
	}
}

// TestCreateListing_Success tests creation by an organization member
func TestCreateListing_Success(t *testing.T) {
	service, publisher := newTestService(&mockRepository{}, stubMembers{role: "MANAGER"})

	l, err := service.CreateListing(context.Background(), "user-1", validCreateRequest())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if l.Status != StatusDraft {
		t.Errorf("Expected draft status, got '%s'", l.Status)
	}
	publisher.AssertEventPublished(t, events.EventListingCreated)
}

// TestCreateListing_NotMember tests that non-members cannot create listings
func TestCreateListing_NotMember(t *testing.T) {
	service, publisher := newTestService(&mockRepository{}, stubMembers{role: ""})

	_, err := service.CreateListing(context.Background(), "outsider", validCreateRequest())

	if !errors.Is(err, ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got: %v", err)
	}
	publisher.AssertEventNotPublished(t, events.EventListingCreated)
}

// TestCreateListing_Validation tests request validation
func TestCreateListing_Validation(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: "ADMIN"})

	cases := []struct {
		name    string
		mutate  func(*CreateListingRequest)
		wantErr error
	}{
		{"missing org", func(r *CreateListingRequest) { r.OrganizationID = "" }, ErrMissingOrg},
		{"missing category", func(r *CreateListingRequest) { r.CategoryID = "" }, ErrMissingCategory},
		{"blank title", func(r *CreateListingRequest) { r.Title = "   " }, ErrMissingTitle},
		{"zero price", func(r *CreateListingRequest) { r.NightlyPrice = decimal.Zero }, ErrInvalidPrice},
		{"negative price", func(r *CreateListingRequest) { r.NightlyPrice = decimal.NewFromInt(-10) }, ErrInvalidPrice},
		{"bad currency", func(r *CreateListingRequest) { r.Currency = "EURO" }, ErrInvalidCurrency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			_, err := service.CreateListing(context.Background(), "user-1", req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

// TestCreateListing_NormalizesCurrency tests that the currency is uppercased
func TestCreateListing_NormalizesCurrency(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, req CreateListingRequest) (*Listing, error) {
			if req.Currency != "EUR" {
				t.Errorf("Expected currency 'EUR', got '%s'", req.Currency)
			}
			return &Listing{ID: "listing-1", Currency: req.Currency}, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "MANAGER"})

	req := validCreateRequest()
	req.Currency = " eur "
	if _, err := service.CreateListing(context.Background(), "user-1", req); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// TestGetListing_Published tests that published listings are visible to anyone
func TestGetListing_Published(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: ""})

	l, err := service.GetListing(context.Background(), "", "listing-1")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if l.ID != "listing-1" {
		t.Errorf("Expected listing 'listing-1', got '%s'", l.ID)
	}
}

// TestGetListing_DraftHiddenFromAnonymous tests that anonymous callers cannot
// fetch an unpublished listing by ID
func TestGetListing_DraftHiddenFromAnonymous(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: StatusDraft}, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "OWNER"})

	_, err := service.GetListing(context.Background(), "", "listing-1")

	if !errors.Is(err, ErrListingNotFound) {
		t.Errorf("Expected ErrListingNotFound, got: %v", err)
	}
}

// TestGetListing_DraftHiddenFromNonMember tests that drafts read as not found
// for authenticated callers outside the organization
func TestGetListing_DraftHiddenFromNonMember(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: StatusDraft}, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: ""})

	_, err := service.GetListing(context.Background(), "outsider", "listing-1")

	if !errors.Is(err, ErrListingNotFound) {
		t.Errorf("Expected ErrListingNotFound, got: %v", err)
	}
}

// TestGetListing_DraftVisibleToMember tests that organization members can
// fetch their own drafts
func TestGetListing_DraftVisibleToMember(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: StatusDraft}, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "MANAGER"})

	l, err := service.GetListing(context.Background(), "user-1", "listing-1")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if l.Status != StatusDraft {
		t.Errorf("Expected draft status, got '%s'", l.Status)
	}
}

// TestListListings_InvalidStatus tests status filter validation
func TestListListings_InvalidStatus(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{})

	_, _, err := service.ListListings(context.Background(), "user-1", Filter{Status: "pending"}, pagination.Params{Page: 1, Limit: 10})

	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got: %v", err)
	}
}

// TestListListings_AnonymousDefaultsToPublished tests that anonymous browsing
// is limited to published listings
func TestListListings_AnonymousDefaultsToPublished(t *testing.T) {
	repo := &mockRepository{
		listWithPaginationFunc: func(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error) {
			if filter.Status != StatusPublished {
				t.Errorf("Expected status filter '%s', got '%s'", StatusPublished, filter.Status)
			}
			return nil, 0, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{})

	if _, _, err := service.ListListings(context.Background(), "", Filter{Status: StatusDraft}, pagination.Params{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// TestListListings_MemberSeesDrafts tests that a draft filter scoped to the
// caller's organization is passed through unchanged
func TestListListings_MemberSeesDrafts(t *testing.T) {
	repo := &mockRepository{
		listWithPaginationFunc: func(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error) {
			if filter.Status != StatusDraft {
				t.Errorf("Expected status filter '%s', got '%s'", StatusDraft, filter.Status)
			}
			return []Listing{{ID: "listing-1", Status: StatusDraft}}, 1, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "MANAGER"})

	listings, total, err := service.ListListings(context.Background(), "user-1", Filter{OrganizationID: "org-1", Status: StatusDraft}, pagination.Params{Page: 1, Limit: 10})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if total != 1 || len(listings) != 1 {
		t.Errorf("Expected 1 listing, got %d (total %d)", len(listings), total)
	}
}

// TestListListings_DraftRequiresOrgFilter tests that draft queries without an
// organization scope are rejected instead of silently rewritten
func TestListListings_DraftRequiresOrgFilter(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: "MANAGER"})

	_, _, err := service.ListListings(context.Background(), "user-1", Filter{Status: StatusDraft}, pagination.Params{Page: 1, Limit: 10})

	if !errors.Is(err, ErrMemberOnlyStatus) {
		t.Errorf("Expected ErrMemberOnlyStatus, got: %v", err)
	}
}

// TestListListings_NonMemberOrgScope tests the membership gate on
// organization-scoped queries
func TestListListings_NonMemberOrgScope(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: ""})

	_, _, err := service.ListListings(context.Background(), "outsider", Filter{OrganizationID: "org-1", Status: StatusDraft}, pagination.Params{Page: 1, Limit: 10})

	if !errors.Is(err, ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got: %v", err)
	}
}

// TestUpdateListing_NotMember tests the membership gate on updates
func TestUpdateListing_NotMember(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: ""})

	title := "New title"
	_, err := service.UpdateListing(context.Background(), "outsider", "listing-1", UpdateListingRequest{Title: &title})

	if !errors.Is(err, ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got: %v", err)
	}
}

// TestUpdateListing_InvalidStatus tests status validation on updates
func TestUpdateListing_InvalidStatus(t *testing.T) {
	service, _ := newTestService(&mockRepository{}, stubMembers{role: "ADMIN"})

	status := "live"
	_, err := service.UpdateListing(context.Background(), "user-1", "listing-1", UpdateListingRequest{Status: &status})

	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got: %v", err)
	}
}

// TestUpdateListing_StatusChangePublishesEvent tests that publishing a draft
// emits listing.status_changed with both statuses
func TestUpdateListing_StatusChangePublishesEvent(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: StatusDraft}, nil
		},
		updateFunc: func(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: *req.Status}, nil
		},
	}
	service, publisher := newTestService(repo, stubMembers{role: "MANAGER"})

	status := StatusPublished
	if _, err := service.UpdateListing(context.Background(), "user-1", "listing-1", UpdateListingRequest{Status: &status}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	captured := publisher.GetLastEventByKey(events.EventListingStatusChanged)
	if captured == nil {
		t.Fatal("Expected a listing.status_changed event")
	}
	event, ok := captured.EventData.(events.ListingStatusEvent)
	if !ok {
		t.Fatalf("Expected ListingStatusEvent, got %T", captured.EventData)
	}
	if event.Data.OldStatus != StatusDraft || event.Data.NewStatus != StatusPublished {
		t.Errorf("Expected transition %s -> %s, got %s -> %s",
			StatusDraft, StatusPublished, event.Data.OldStatus, event.Data.NewStatus)
	}
}

// TestUpdateListing_SameStatusNoEvent tests that a no-op status update does
// not emit an event
func TestUpdateListing_SameStatusNoEvent(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*Listing, error) {
			return &Listing{ID: id, OrganizationID: "org-1", Status: StatusPublished}, nil
		},
	}
	service, publisher := newTestService(repo, stubMembers{role: "MANAGER"})

	status := StatusPublished
	if _, err := service.UpdateListing(context.Background(), "user-1", "listing-1", UpdateListingRequest{Status: &status}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	publisher.AssertEventNotPublished(t, events.EventListingStatusChanged)
}

// TestDeleteListing_WithActiveBookings tests the delete guard
func TestDeleteListing_WithActiveBookings(t *testing.T) {
	repo := &mockRepository{
		countActiveBookingsFunc: func(ctx context.Context, listingID string) (int, error) {
			return 2, nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "OWNER"})

	err := service.DeleteListing(context.Background(), "user-1", "listing-1")

	if !errors.Is(err, ErrListingHasBookings) {
		t.Errorf("Expected ErrListingHasBookings, got: %v", err)
	}
}

// TestDeleteListing_Success tests soft delete when no bookings are active
func TestDeleteListing_Success(t *testing.T) {
	deleted := false
	repo := &mockRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	service, _ := newTestService(repo, stubMembers{role: "OWNER"})

	if err := service.DeleteListing(context.Background(), "user-1", "listing-1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !deleted {
		t.Error("Expected the listing to be deleted")
	}
}
