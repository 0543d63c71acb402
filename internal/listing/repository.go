package listing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nestspace/marketplace-service/internal/pagination"
)

// Repository handles database operations for listings
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new listing repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new listing
func (r *Repository) Create(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO marketplace.listings (id, organization_id, category_id, title, description, nightly_price, currency, city, region, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, organization_id, category_id, title, COALESCE(description, ''), nightly_price, currency, city, COALESCE(region, ''), status, created_at, updated_at`

	var l Listing
	err := r.db.QueryRowContext(ctx, query,
		id, req.OrganizationID, req.CategoryID, req.Title, nullable(req.Description),
		req.NightlyPrice, req.Currency, req.City, nullable(req.Region), StatusDraft,
	).Scan(&l.ID, &l.OrganizationID, &l.CategoryID, &l.Title, &l.Description,
		&l.NightlyPrice, &l.Currency, &l.City, &l.Region, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrUnknownCategory
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return &l, nil
}

// GetByID retrieves a listing by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := `
		SELECT id, organization_id, category_id, title, COALESCE(description, ''), nightly_price, currency, city, COALESCE(region, ''), status, created_at, updated_at
		FROM marketplace.listings
		WHERE id = $1 AND deleted_at IS NULL`

	var l Listing
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.OrganizationID, &l.CategoryID, &l.Title, &l.Description,
		&l.NightlyPrice, &l.Currency, &l.City, &l.Region, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &l, nil
}

// ListWithPagination retrieves listings matching the filter with total count
func (r *Repository) ListWithPagination(ctx context.Context, filter Filter, params pagination.Params) ([]Listing, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argIndex := 1

	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", argIndex))
		args = append(args, filter.OrganizationID)
		argIndex++
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, filter.CategoryID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("lower(city) = lower($%d)", argIndex))
		args = append(args, filter.City)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM marketplace.listings WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, organization_id, category_id, title, COALESCE(description, ''), nightly_price, currency, city, COALESCE(region, ''), status, created_at, updated_at
		FROM marketplace.listings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIndex, argIndex+1)
	args = append(args, params.Limit, params.CalculateOffset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.CategoryID, &l.Title, &l.Description,
			&l.NightlyPrice, &l.Currency, &l.City, &l.Region, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate listings: %w", err)
	}

	return listings, total, nil
}

// Update applies a partial update to a listing
func (r *Repository) Update(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if req.CategoryID != nil {
		setClauses = append(setClauses, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *req.CategoryID)
		argIndex++
	}
	if req.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *req.Title)
		argIndex++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, nullable(*req.Description))
		argIndex++
	}
	if req.NightlyPrice != nil {
		setClauses = append(setClauses, fmt.Sprintf("nightly_price = $%d", argIndex))
		args = append(args, *req.NightlyPrice)
		argIndex++
	}
	if req.City != nil {
		setClauses = append(setClauses, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, *req.City)
		argIndex++
	}
	if req.Region != nil {
		setClauses = append(setClauses, fmt.Sprintf("region = $%d", argIndex))
		args = append(args, nullable(*req.Region))
		argIndex++
	}
	if req.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *req.Status)
		argIndex++
	}

	if len(setClauses) == 0 {
		return nil, ErrNoFields
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE marketplace.listings
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING id, organization_id, category_id, title, COALESCE(description, ''), nightly_price, currency, city, COALESCE(region, ''), status, created_at, updated_at`,
		strings.Join(setClauses, ", "), argIndex)

	var l Listing
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&l.ID, &l.OrganizationID, &l.CategoryID, &l.Title, &l.Description,
		&l.NightlyPrice, &l.Currency, &l.City, &l.Region, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrUnknownCategory
		}
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return &l, nil
}

// CountActiveBookings counts non-terminal bookings against a listing
func (r *Repository) CountActiveBookings(ctx context.Context, listingID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM marketplace.bookings
		WHERE listing_id = $1 AND status IN ('pending', 'confirmed')`

	var count int
	if err := r.db.QueryRowContext(ctx, query, listingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// Delete soft-deletes a listing
func (r *Repository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE marketplace.listings
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrListingNotFound
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
