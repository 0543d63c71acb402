package organization

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository handles database operations for organizations, members and invitations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new organization repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrganization inserts a new organization and seeds the creator as OWNER
// in a single transaction
func (r *Repository) CreateOrganization(ctx context.Context, req CreateOrganizationRequest, creatorID string) (*Organization, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	query := `
		INSERT INTO marketplace.organizations (id, name, contact_email, contact_phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, contact_email, COALESCE(contact_phone, ''), COALESCE(address, ''), created_at, updated_at`

	var org Organization
	err = tx.QueryRowContext(ctx, query,
		id, req.Name, req.ContactEmail, nullable(req.ContactPhone), nullable(req.Address),
	).Scan(&org.ID, &org.Name, &org.ContactEmail, &org.ContactPhone, &org.Address, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	memberQuery := `
		INSERT INTO marketplace.organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, memberQuery, org.ID, creatorID, RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to seed owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &org, nil
}

// GetOrganization retrieves an organization by ID
func (r *Repository) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	query := `
		SELECT id, name, contact_email, COALESCE(contact_phone, ''), COALESCE(address, ''), created_at, updated_at
		FROM marketplace.organizations
		WHERE id = $1 AND deleted_at IS NULL`

	var org Organization
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.ContactEmail, &org.ContactPhone, &org.Address, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// ListOrganizationsWithPagination retrieves organizations with a total count
func (r *Repository) ListOrganizationsWithPagination(ctx context.Context, limit, offset int) ([]Organization, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM marketplace.organizations WHERE deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	query := `
		SELECT id, name, contact_email, COALESCE(contact_phone, ''), COALESCE(address, ''), created_at, updated_at
		FROM marketplace.organizations
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []Organization{}
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.ContactEmail, &org.ContactPhone, &org.Address, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate organizations: %w", err)
	}

	return orgs, total, nil
}

// UpdateOrganization applies a partial update to an organization
func (r *Repository) UpdateOrganization(ctx context.Context, id string, req UpdateOrganizationRequest) (*Organization, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.ContactEmail != nil {
		setClauses = append(setClauses, fmt.Sprintf("contact_email = $%d", argIndex))
		args = append(args, *req.ContactEmail)
		argIndex++
	}
	if req.ContactPhone != nil {
		setClauses = append(setClauses, fmt.Sprintf("contact_phone = $%d", argIndex))
		args = append(args, nullable(*req.ContactPhone))
		argIndex++
	}
	if req.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", argIndex))
		args = append(args, nullable(*req.Address))
		argIndex++
	}

	if len(setClauses) == 0 {
		return nil, ErrNoFields
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE marketplace.organizations
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING id, name, contact_email, COALESCE(contact_phone, ''), COALESCE(address, ''), created_at, updated_at`,
		strings.Join(setClauses, ", "), argIndex)

	var org Organization
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&org.ID, &org.Name, &org.ContactEmail, &org.ContactPhone, &org.Address, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return &org, nil
}

// DeleteOrganization soft-deletes an organization
func (r *Repository) DeleteOrganization(ctx context.Context, id string) error {
	query := `
		UPDATE marketplace.organizations
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrOrgNotFound
	}

	return nil
}

// ListMembers retrieves all members of an organization
func (r *Repository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	query := `
		SELECT organization_id, user_id, role, joined_at
		FROM marketplace.organization_members
		WHERE organization_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// GetMemberRole returns the user's role in the organization, or "" when the
// user is not a member
func (r *Repository) GetMemberRole(ctx context.Context, orgID, userID string) (string, error) {
	query := `
		SELECT role FROM marketplace.organization_members
		WHERE organization_id = $1 AND user_id = $2`

	var role string
	err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get member role: %w", err)
	}

	return role, nil
}

// AddMember inserts a membership record
func (r *Repository) AddMember(ctx context.Context, orgID, userID, role string) (*Member, error) {
	query := `
		INSERT INTO marketplace.organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING organization_id, user_id, role, joined_at`

	var m Member
	err := r.db.QueryRowContext(ctx, query, orgID, userID, role).Scan(
		&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return &m, nil
}

// RemoveMember deletes a membership record
func (r *Repository) RemoveMember(ctx context.Context, orgID, userID string) error {
	query := `
		DELETE FROM marketplace.organization_members
		WHERE organization_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if rows == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// UpdateMemberRole changes a member's role
func (r *Repository) UpdateMemberRole(ctx context.Context, orgID, userID, role string) (*Member, error) {
	query := `
		UPDATE marketplace.organization_members
		SET role = $3
		WHERE organization_id = $1 AND user_id = $2
		RETURNING organization_id, user_id, role, joined_at`

	var m Member
	err := r.db.QueryRowContext(ctx, query, orgID, userID, role).Scan(
		&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	return &m, nil
}

// TransferOwnership promotes newOwnerID to OWNER and demotes oldOwnerID to
// ADMIN in a single transaction so the single-owner rule holds throughout
func (r *Repository) TransferOwnership(ctx context.Context, orgID, oldOwnerID, newOwnerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	demote := `
		UPDATE marketplace.organization_members
		SET role = $3
		WHERE organization_id = $1 AND user_id = $2 AND role = $4`
	result, err := tx.ExecContext(ctx, demote, orgID, oldOwnerID, RoleAdmin, RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to demote previous owner: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check demote result: %w", err)
	}
	if rows == 0 {
		return ErrMemberNotFound
	}

	promote := `
		UPDATE marketplace.organization_members
		SET role = $3
		WHERE organization_id = $1 AND user_id = $2`
	result, err = tx.ExecContext(ctx, promote, orgID, newOwnerID, RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check promote result: %w", err)
	}
	if rows == 0 {
		return ErrMemberNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ownership transfer: %w", err)
	}

	return nil
}

// UpsertInvitation refreshes an existing pending invitation for the email or
// creates a new one
func (r *Repository) UpsertInvitation(ctx context.Context, orgID, email, role, invitedBy string, expiresAt time.Time) (*Invitation, error) {
	refresh := `
		UPDATE marketplace.organization_invitations
		SET role = $3, invited_by = $4, expires_at = $5, updated_at = NOW()
		WHERE organization_id = $1 AND lower(email) = lower($2) AND status = 'pending'
		RETURNING id, organization_id, email, role, status, invited_by, expires_at, created_at, updated_at`

	var inv Invitation
	err := r.db.QueryRowContext(ctx, refresh, orgID, email, role, invitedBy, expiresAt).Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err == nil {
		return &inv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to refresh invitation: %w", err)
	}

	id := uuid.New().String()
	insert := `
		INSERT INTO marketplace.organization_invitations (id, organization_id, email, role, status, invited_by, expires_at)
		VALUES ($1, $2, lower($3), $4, 'pending', $5, $6)
		RETURNING id, organization_id, email, role, status, invited_by, expires_at, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, insert, id, orgID, email, role, invitedBy, expiresAt).Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &inv, nil
}

// GetInvitation retrieves an invitation by ID
func (r *Repository) GetInvitation(ctx context.Context, id string) (*Invitation, error) {
	query := `
		SELECT id, organization_id, email, role, status, invited_by, expires_at, created_at, updated_at
		FROM marketplace.organization_invitations
		WHERE id = $1`

	var inv Invitation
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

// ListInvitations retrieves all invitations for an organization
func (r *Repository) ListInvitations(ctx context.Context, orgID string) ([]Invitation, error) {
	query := `
		SELECT id, organization_id, email, role, status, invited_by, expires_at, created_at, updated_at
		FROM marketplace.organization_invitations
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invites := []Invitation{}
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Status,
			&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invitations: %w", err)
	}

	return invites, nil
}

// UpdateInvitationStatus moves a pending invitation to a resolved status
func (r *Repository) UpdateInvitationStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE marketplace.organization_invitations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrInviteResolved
	}

	return nil
}

// AcceptInvitation marks the invitation accepted and adds the membership in a
// single transaction
func (r *Repository) AcceptInvitation(ctx context.Context, inviteID, userID string) (*Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resolve := `
		UPDATE marketplace.organization_invitations
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING organization_id, role`

	var orgID, role string
	err = tx.QueryRowContext(ctx, resolve, inviteID).Scan(&orgID, &role)
	if err == sql.ErrNoRows {
		return nil, ErrInviteResolved
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invitation: %w", err)
	}

	insert := `
		INSERT INTO marketplace.organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING organization_id, user_id, role, joined_at`

	var m Member
	err = tx.QueryRowContext(ctx, insert, orgID, userID, role).Scan(
		&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation acceptance: %w", err)
	}

	return &m, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
