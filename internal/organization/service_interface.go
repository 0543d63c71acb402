package organization

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// ServiceInterface defines the contract for organization business logic
type ServiceInterface interface {
	CreateOrganization(ctx context.Context, creatorID string, req CreateOrganizationRequest) (*Organization, error)
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	ListOrganizations(ctx context.Context, params pagination.Params) ([]Organization, int, error)
	UpdateOrganization(ctx context.Context, callerID, id string, req UpdateOrganizationRequest) (*Organization, error)
	DeleteOrganization(ctx context.Context, callerID, id string) error

	ListMembers(ctx context.Context, callerID, orgID string) ([]Member, error)
	GetMemberRole(ctx context.Context, orgID, userID string) (string, error)
	RemoveMember(ctx context.Context, callerID, orgID, userID string) error
	ChangeMemberRole(ctx context.Context, callerID, orgID, userID, newRole string) (*Member, error)

	InviteMember(ctx context.Context, callerID, orgID string, req InviteRequest) (*Invitation, error)
	ListInvitations(ctx context.Context, callerID, orgID string) ([]Invitation, error)
	AcceptInvitation(ctx context.Context, callerID, callerEmail, inviteID string) (*Member, error)
	DeclineInvitation(ctx context.Context, callerEmail, inviteID string) error
	RevokeInvitation(ctx context.Context, callerID, inviteID string) error
}

var _ ServiceInterface = (*Service)(nil)
