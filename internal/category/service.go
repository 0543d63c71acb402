package category

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/nestspace/marketplace-service/internal/cache"
)

const cacheTTL = 10 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CacheMetricsRecorder interface for recording cache hit/miss metrics
type CacheMetricsRecorder interface {
	RecordCacheLookup(ctx context.Context, keyspace string, hit bool)
}

type Service struct {
	repo    RepositoryInterface
	cache   cache.Store
	metrics CacheMetricsRecorder
}

func NewService(repo RepositoryInterface, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

// NewServiceWithMetrics creates a service that also records cache lookups
func NewServiceWithMetrics(repo RepositoryInterface, store cache.Store, metrics CacheMetricsRecorder) *Service {
	return &Service{repo: repo, cache: store, metrics: metrics}
}

func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.Slug == "" {
		req.Slug = Slugify(req.Name)
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, ErrInvalidSlug
	}

	// Check before insert for a friendly error; the unique index still backs
	// this up against concurrent creators.
	taken, err := s.repo.SlugExists(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	cat, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	return cat, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	if cat := s.cacheGet(ctx, idKey(id)); cat != nil {
		return cat, nil
	}

	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cat)
	return cat, nil
}

func (s *Service) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	if cat := s.cacheGet(ctx, slugKey(slug)); cat != nil {
		return cat, nil
	}

	cat, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cat)
	return cat, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req UpdateCategoryRequest) (*Category, error) {
	cat, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cat)
	return cat, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountListings(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count listings: %w", err)
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, cat)
	return nil
}

// cacheGet reads a category from the cache. Cache failures are best-effort:
// a miss or error just falls through to the repository.
func (s *Service) cacheGet(ctx context.Context, key string) *Category {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrMiss {
			log.Printf("Warning: cache get failed for %s: %v", key, err)
		}
		s.recordLookup(ctx, false)
		return nil
	}

	var cat Category
	if err := json.Unmarshal([]byte(raw), &cat); err != nil {
		log.Printf("Warning: cache entry for %s is corrupt, dropping: %v", key, err)
		_ = s.cache.Delete(ctx, key)
		s.recordLookup(ctx, false)
		return nil
	}

	s.recordLookup(ctx, true)
	return &cat
}

func (s *Service) cacheSet(ctx context.Context, cat *Category) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(cat)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, idKey(cat.ID), string(raw), cacheTTL); err != nil {
		log.Printf("Warning: cache set failed for category %s: %v", cat.ID, err)
		return
	}
	if err := s.cache.Set(ctx, slugKey(cat.Slug), string(raw), cacheTTL); err != nil {
		log.Printf("Warning: cache set failed for category slug %s: %v", cat.Slug, err)
	}
}

// invalidate drops both cache keys after a mutation
func (s *Service) invalidate(ctx context.Context, cat *Category) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, idKey(cat.ID), slugKey(cat.Slug)); err != nil {
		log.Printf("Warning: cache invalidation failed for category %s: %v", cat.ID, err)
	}
}

func (s *Service) recordLookup(ctx context.Context, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(ctx, "category", hit)
	}
}

func idKey(id string) string {
	return "category:id:" + id
}

func slugKey(slug string) string {
	return "category:slug:" + slug
}

// Slugify lowercases a name and collapses runs of non-alphanumerics to hyphens
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
