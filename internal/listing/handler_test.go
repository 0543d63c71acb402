package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/nestspace/marketplace-service/internal/auth"
	"github.com/nestspace/marketplace-service/internal/pagination"
)

type mockService struct {
	getListingFunc   func(ctx context.Context, callerID, id string) (*Listing, error)
	listListingsFunc func(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error)
}

func (m *mockService) CreateListing(ctx context.Context, callerID string, req CreateListingRequest) (*Listing, error) {
	return &Listing{ID: "listing-1"}, nil
}

func (m *mockService) GetListing(ctx context.Context, callerID, id string) (*Listing, error) {
	if m.getListingFunc != nil {
		return m.getListingFunc(ctx, callerID, id)
	}
	return &Listing{ID: id, Status: StatusPublished}, nil
}

func (m *mockService) ListListings(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error) {
	if m.listListingsFunc != nil {
		return m.listListingsFunc(ctx, callerID, filter, params)
	}
	return nil, 0, nil
}

func (m *mockService) UpdateListing(ctx context.Context, callerID, id string, req UpdateListingRequest) (*Listing, error) {
	return &Listing{ID: id}, nil
}

func (m *mockService) DeleteListing(ctx context.Context, callerID, id string) error {
	return nil
}

var _ ServiceInterface = (*mockService)(nil)

// TestListListings_ForwardsPrincipal tests that an authenticated draft query
// reaches the service with the caller's identity and filter intact
func TestListListings_ForwardsPrincipal(t *testing.T) {
	var gotCaller, gotStatus string
	service := &mockService{
		listListingsFunc: func(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error) {
			gotCaller = callerID
			gotStatus = filter.Status
			return nil, 0, nil
		},
	}
	handler := NewHandler(service)

	req := httptest.NewRequest("GET", "/listings?status=draft&organization_id=org-1", nil)
	principal := &auth.Principal{UserID: "user-1", Email: "member@example.com"}
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
	rec := httptest.NewRecorder()

	handler.ListListings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotCaller != "user-1" {
		t.Errorf("Expected caller 'user-1', got '%s'", gotCaller)
	}
	if gotStatus != StatusDraft {
		t.Errorf("Expected status filter '%s', got '%s'", StatusDraft, gotStatus)
	}
}

// TestListListings_AnonymousCaller tests that requests without a principal
// reach the service with an empty caller ID
func TestListListings_AnonymousCaller(t *testing.T) {
	var gotCaller string
	called := false
	service := &mockService{
		listListingsFunc: func(ctx context.Context, callerID string, filter Filter, params pagination.Params) ([]Listing, int, error) {
			called = true
			gotCaller = callerID
			return nil, 0, nil
		},
	}
	handler := NewHandler(service)

	req := httptest.NewRequest("GET", "/listings", nil)
	rec := httptest.NewRecorder()

	handler.ListListings(rec, req)

	if !called {
		t.Fatal("Expected the service to be called")
	}
	if gotCaller != "" {
		t.Errorf("Expected empty caller ID, got '%s'", gotCaller)
	}
}

// TestGetListing_HiddenListing tests the not-found mapping for listings the
// caller may not see
func TestGetListing_HiddenListing(t *testing.T) {
	service := &mockService{
		getListingFunc: func(ctx context.Context, callerID, id string) (*Listing, error) {
			return nil, ErrListingNotFound
		},
	}
	handler := NewHandler(service)

	req := httptest.NewRequest("GET", "/listings/listing-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "listing-1"})
	rec := httptest.NewRecorder()

	handler.GetListing(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
