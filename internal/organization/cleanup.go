package organization

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// RetentionPeriod defines how long soft-deleted organizations are retained
// before permanent removal
const RetentionPeriod = 90 * 24 * time.Hour

// CleanupService permanently removes expired soft-deleted organizations and
// stale invitations
type CleanupService struct {
	db *sql.DB
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(db *sql.DB) *CleanupService {
	return &CleanupService{db: db}
}

// CleanupExpiredOrganizations permanently deletes organizations that have been
// soft-deleted longer than the retention period. Memberships, invitations and
// listings cascade via foreign keys.
func (s *CleanupService) CleanupExpiredOrganizations(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-RetentionPeriod)
	log.Printf("Starting cleanup of organizations deleted before %s", cutoff.Format(time.RFC3339))

	query := `
		SELECT id, name
		FROM marketplace.organizations
		WHERE deleted_at IS NOT NULL
		AND deleted_at < $1
		ORDER BY deleted_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired organizations: %w", err)
	}
	defer rows.Close()

	var expired []struct {
		ID   string
		Name string
	}

	for rows.Next() {
		var org struct {
			ID   string
			Name string
		}
		if err := rows.Scan(&org.ID, &org.Name); err != nil {
			return 0, fmt.Errorf("failed to scan organization: %w", err)
		}
		expired = append(expired, org)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating organizations: %w", err)
	}

	if len(expired) == 0 {
		log.Println("No expired organizations found for cleanup")
		return 0, nil
	}

	log.Printf("Found %d organizations to permanently delete", len(expired))

	deletedCount := 0
	for _, org := range expired {
		if err := s.permanentlyDeleteOrganization(ctx, org.ID); err != nil {
			log.Printf("Failed to delete organization %s: %v", org.ID, err)
			continue
		}
		log.Printf("Permanently deleted organization %s (%s)", org.ID, org.Name)
		deletedCount++
	}

	log.Printf("Successfully cleaned up %d/%d expired organizations", deletedCount, len(expired))
	return deletedCount, nil
}

func (s *CleanupService) permanentlyDeleteOrganization(ctx context.Context, orgID string) error {
	query := `
		DELETE FROM marketplace.organizations
		WHERE id = $1 AND deleted_at IS NOT NULL
	`
	result, err := s.db.ExecContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organization record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization not found or not soft-deleted")
	}

	return nil
}

// CleanupExpiredInvitations deletes pending invitations past their expiry
func (s *CleanupService) CleanupExpiredInvitations(ctx context.Context) (int, error) {
	query := `
		DELETE FROM marketplace.organization_invitations
		WHERE status = 'pending' AND expires_at < NOW()
	`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Printf("Cleaned up %d expired invitations", rows)
	return int(rows), nil
}

// GetExpiredOrganizationsCount returns the number of organizations eligible
// for cleanup
func (s *CleanupService) GetExpiredOrganizationsCount(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-RetentionPeriod)

	var count int
	query := `
		SELECT COUNT(*)
		FROM marketplace.organizations
		WHERE deleted_at IS NOT NULL
		AND deleted_at < $1
	`

	if err := s.db.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expired organizations: %w", err)
	}

	return count, nil
}
