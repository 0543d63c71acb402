package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or refreshes a user record keyed by the token subject.
// Called on first authenticated request so memberships and chat can
// reference the user.
func (r *Repository) Upsert(ctx context.Context, u User) (*User, error) {
	query := `
		INSERT INTO marketplace.users (id, email, first_name, last_name, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, email, first_name, last_name, COALESCE(phone_number, ''), created_at, updated_at
	`

	now := time.Now()
	var out User
	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.Email, u.FirstName, u.LastName, nullable(u.PhoneNumber), now,
	).Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.PhoneNumber, &out.CreatedAt, &out.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &out, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, first_name, last_name, COALESCE(phone_number, ''), created_at, updated_at
		FROM marketplace.users
		WHERE id = $1
	`

	var u User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, first_name, last_name, COALESCE(phone_number, ''), created_at, updated_at
		FROM marketplace.users
		WHERE lower(email) = lower($1)
	`

	var u User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return &u, nil
}

// UpdateProfile applies a partial update to the user's profile fields
func (r *Repository) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	var updates []string
	var args []interface{}
	argIndex := 1

	if req.FirstName != nil {
		updates = append(updates, fmt.Sprintf("first_name = $%d", argIndex))
		args = append(args, *req.FirstName)
		argIndex++
	}
	if req.LastName != nil {
		updates = append(updates, fmt.Sprintf("last_name = $%d", argIndex))
		args = append(args, *req.LastName)
		argIndex++
	}
	if req.PhoneNumber != nil {
		updates = append(updates, fmt.Sprintf("phone_number = $%d", argIndex))
		args = append(args, *req.PhoneNumber)
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
		UPDATE marketplace.users
		SET %s
		WHERE id = $%d
		RETURNING id, email, first_name, last_name, COALESCE(phone_number, ''), created_at, updated_at
	`, strings.Join(updates, ", "), argIndex)

	var u User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &u, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
