package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nestspace/marketplace-service/internal/cache"
)

type mockRepository struct {
	createFunc        func(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	slugExistsFunc    func(ctx context.Context, slug string) (bool, error)
	getByIDFunc       func(ctx context.Context, id string) (*Category, error)
	getBySlugFunc     func(ctx context.Context, slug string) (*Category, error)
	listFunc          func(ctx context.Context) ([]Category, error)
	updateFunc        func(ctx context.Context, id string, req UpdateCategoryRequest) (*Category, error)
	countListingsFunc func(ctx context.Context, id string) (int, error)
	deleteFunc        func(ctx context.Context, id string) error

	getByIDCalls int
}

func (m *mockRepository) Create(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &Category{ID: "cat-1", Name: req.Name, Slug: req.Slug, Description: req.Description}, nil
}

func (m *mockRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFunc != nil {
		return m.slugExistsFunc(ctx, slug)
	}
	return false, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	m.getByIDCalls++
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &Category{ID: id, Name: "Apartments", Slug: "apartments"}, nil
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	if m.getBySlugFunc != nil {
		return m.getBySlugFunc(ctx, slug)
	}
	return &Category{ID: "cat-1", Name: "Apartments", Slug: slug}, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Category, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepository) Update(ctx context.Context, id string, req UpdateCategoryRequest) (*Category, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return &Category{ID: id, Name: "Apartments", Slug: "apartments"}, nil
}

func (m *mockRepository) CountListings(ctx context.Context, id string) (int, error) {
	if m.countListingsFunc != nil {
		return m.countListingsFunc(ctx, id)
	}
	return 0, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// memStore is an in-memory cache.Store for tests
type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStore) Close() error { return nil }

// TestCreateCategory_DerivesSlug tests that an empty slug is derived from
// the name
func TestCreateCategory_DerivesSlug(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
			if req.Slug != "camper-vans" {
				t.Errorf("Expected slug 'camper-vans', got '%s'", req.Slug)
			}
			return &Category{ID: "cat-1", Name: req.Name, Slug: req.Slug}, nil
		},
	}
	service := NewService(repo, nil)

	_, err := service.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Camper Vans"})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// TestCreateCategory_SlugTaken tests the duplicate slug check
func TestCreateCategory_SlugTaken(t *testing.T) {
	repo := &mockRepository{
		slugExistsFunc: func(ctx context.Context, slug string) (bool, error) {
			return true, nil
		},
	}
	service := NewService(repo, nil)

	_, err := service.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Apartments"})

	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("Expected ErrSlugTaken, got: %v", err)
	}
}

// TestCreateCategory_InvalidSlug tests slug format validation
func TestCreateCategory_InvalidSlug(t *testing.T) {
	service := NewService(&mockRepository{}, nil)

	cases := []string{"Has Spaces", "UPPER", "trailing-", "-leading", "double--hyphen"}
	for _, slug := range cases {
		_, err := service.CreateCategory(context.Background(), CreateCategoryRequest{Name: "X", Slug: slug})
		if !errors.Is(err, ErrInvalidSlug) {
			t.Errorf("Slug '%s': expected ErrInvalidSlug, got: %v", slug, err)
		}
	}
}

// TestCreateCategory_MissingName tests that a name is required
func TestCreateCategory_MissingName(t *testing.T) {
	service := NewService(&mockRepository{}, nil)

	_, err := service.CreateCategory(context.Background(), CreateCategoryRequest{})

	if !errors.Is(err, ErrMissingName) {
		t.Errorf("Expected ErrMissingName, got: %v", err)
	}
}

// TestGetCategory_CacheHit tests that a second fetch is served from the cache
// without touching the repository
func TestGetCategory_CacheHit(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo, newMemStore())

	if _, err := service.GetCategory(context.Background(), "cat-1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	cat, err := service.GetCategory(context.Background(), "cat-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cat.ID != "cat-1" {
		t.Errorf("Expected cat-1, got '%s'", cat.ID)
	}
	if repo.getByIDCalls != 1 {
		t.Errorf("Expected 1 repository call, got %d", repo.getByIDCalls)
	}
}

// TestGetCategory_CorruptCacheEntry tests that a corrupt cache entry falls
// through to the repository
func TestGetCategory_CorruptCacheEntry(t *testing.T) {
	store := newMemStore()
	store.data["category:id:cat-1"] = "{not json"

	repo := &mockRepository{}
	service := NewService(repo, store)

	cat, err := service.GetCategory(context.Background(), "cat-1")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cat.ID != "cat-1" {
		t.Errorf("Expected cat-1, got '%s'", cat.ID)
	}
	if repo.getByIDCalls != 1 {
		t.Errorf("Expected the repository to be hit, got %d calls", repo.getByIDCalls)
	}
}

// TestUpdateCategory_InvalidatesCache tests that updates drop both cache keys
func TestUpdateCategory_InvalidatesCache(t *testing.T) {
	store := newMemStore()
	repo := &mockRepository{}
	service := NewService(repo, store)

	// warm the cache
	if _, err := service.GetCategory(context.Background(), "cat-1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name := "Flats"
	if _, err := service.UpdateCategory(context.Background(), "cat-1", UpdateCategoryRequest{Name: &name}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, ok := store.data["category:id:cat-1"]; ok {
		t.Error("Expected id cache key to be invalidated")
	}
	if _, ok := store.data["category:slug:apartments"]; ok {
		t.Error("Expected slug cache key to be invalidated")
	}
}

// TestDeleteCategory_InUse tests the delete guard for referenced categories
func TestDeleteCategory_InUse(t *testing.T) {
	repo := &mockRepository{
		countListingsFunc: func(ctx context.Context, id string) (int, error) {
			return 5, nil
		},
	}
	service := NewService(repo, nil)

	err := service.DeleteCategory(context.Background(), "cat-1")

	if !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse, got: %v", err)
	}
}

// TestSlugify covers name to slug derivation
func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Camper Vans", "camper-vans"},
		{"  Apartments  ", "apartments"},
		{"E-Bikes & Scooters", "e-bikes-scooters"},
		{"véhicules", "v-hicules"},
		{"---", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.name); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
