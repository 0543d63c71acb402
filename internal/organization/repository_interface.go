package organization

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for organization data access
type RepositoryInterface interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest, creatorID string) (*Organization, error)
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	ListOrganizationsWithPagination(ctx context.Context, limit, offset int) ([]Organization, int, error)
	UpdateOrganization(ctx context.Context, id string, req UpdateOrganizationRequest) (*Organization, error)
	DeleteOrganization(ctx context.Context, id string) error

	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	GetMemberRole(ctx context.Context, orgID, userID string) (string, error)
	AddMember(ctx context.Context, orgID, userID, role string) (*Member, error)
	RemoveMember(ctx context.Context, orgID, userID string) error
	UpdateMemberRole(ctx context.Context, orgID, userID, role string) (*Member, error)
	TransferOwnership(ctx context.Context, orgID, oldOwnerID, newOwnerID string) error

	UpsertInvitation(ctx context.Context, orgID, email, role, invitedBy string, expiresAt time.Time) (*Invitation, error)
	GetInvitation(ctx context.Context, id string) (*Invitation, error)
	ListInvitations(ctx context.Context, orgID string) ([]Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id, status string) error
	AcceptInvitation(ctx context.Context, inviteID, userID string) (*Member, error)
}

var _ RepositoryInterface = (*Repository)(nil)
