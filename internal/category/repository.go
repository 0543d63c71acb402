package category

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	query := `
		INSERT INTO marketplace.categories (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, name, slug, COALESCE(description, ''), created_at, updated_at
	`

	var cat Category
	err := r.db.QueryRowContext(ctx, query,
		uuid.New(), req.Name, req.Slug, nullable(req.Description), time.Now(),
	).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	return &cat, nil
}

// SlugExists reports whether a live category already uses the slug
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM marketplace.categories
			WHERE slug = $1 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Category, error) {
	query := `
		SELECT id, name, slug, COALESCE(description, ''), created_at, updated_at
		FROM marketplace.categories
		WHERE id = $1 AND deleted_at IS NULL
	`

	var cat Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `
		SELECT id, name, slug, COALESCE(description, ''), created_at, updated_at
		FROM marketplace.categories
		WHERE slug = $1 AND deleted_at IS NULL
	`

	var cat Category
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category by slug: %w", err)
	}

	return &cat, nil
}

func (r *Repository) List(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, COALESCE(description, ''), created_at, updated_at
		FROM marketplace.categories
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, cat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return cats, nil
}

func (r *Repository) Update(ctx context.Context, id string, req UpdateCategoryRequest) (*Category, error) {
	var updates []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}

	if len(updates) == 0 {
		return nil, ErrNoFields
	}

	updates = append(updates, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE marketplace.categories
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING id, name, slug, COALESCE(description, ''), created_at, updated_at
	`, strings.Join(updates, ", "), argIndex)

	var cat Category
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return &cat, nil
}

// CountListings returns the number of live listings referencing the category
func (r *Repository) CountListings(ctx context.Context, id string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM marketplace.listings
		WHERE category_id = $1 AND deleted_at IS NULL
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE marketplace.categories
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
