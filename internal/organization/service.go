package organization

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/mailer"
	"github.com/nestspace/marketplace-service/internal/pagination"
	"github.com/nestspace/marketplace-service/internal/users"
)

// Service handles business logic for organizations, members and invitations
type Service struct {
	repo          RepositoryInterface
	users         users.ServiceInterface
	mail          mailer.SenderInterface
	publisher     events.PublisherInterface
	inviteBaseURL string
}

// NewService creates a new organization service
func NewService(repo RepositoryInterface, userSvc users.ServiceInterface, mail mailer.SenderInterface, publisher events.PublisherInterface, inviteBaseURL string) *Service {
	return &Service{
		repo:          repo,
		users:         userSvc,
		mail:          mail,
		publisher:     publisher,
		inviteBaseURL: inviteBaseURL,
	}
}

func roleRank(role string) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleManager:
		return 1
	}
	return 0
}

// requireRole checks that the caller holds at least minRole in the organization
func (s *Service) requireRole(ctx context.Context, orgID, userID, minRole string) (string, error) {
	role, err := s.repo.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return "", err
	}
	if roleRank(role) < roleRank(minRole) {
		return "", ErrNotAuthorized
	}
	return role, nil
}

// CreateOrganization creates an organization with the caller seeded as OWNER
func (s *Service) CreateOrganization(ctx context.Context, creatorID string, req CreateOrganizationRequest) (*Organization, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)

	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.ContactEmail == "" {
		return nil, ErrMissingEmail
	}

	return s.repo.CreateOrganization(ctx, req, creatorID)
}

// GetOrganization retrieves an organization by ID
func (s *Service) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	return s.repo.GetOrganization(ctx, id)
}

// ListOrganizations retrieves organizations with pagination
func (s *Service) ListOrganizations(ctx context.Context, params pagination.Params) ([]Organization, int, error) {
	return s.repo.ListOrganizationsWithPagination(ctx, params.Limit, params.CalculateOffset())
}

// UpdateOrganization applies a partial update. Requires ADMIN or above.
func (s *Service) UpdateOrganization(ctx context.Context, callerID, id string, req UpdateOrganizationRequest) (*Organization, error) {
	if _, err := s.requireRole(ctx, id, callerID, RoleAdmin); err != nil {
		return nil, err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, ErrMissingName
		}
		req.Name = &trimmed
	}

	return s.repo.UpdateOrganization(ctx, id, req)
}

// DeleteOrganization soft-deletes an organization. Only the OWNER may delete.
func (s *Service) DeleteOrganization(ctx context.Context, callerID, id string) error {
	if _, err := s.requireRole(ctx, id, callerID, RoleOwner); err != nil {
		return err
	}

	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteOrganization(ctx, id); err != nil {
		return err
	}

	event := events.OrganizationDeletedEvent{
		BaseEvent: events.NewBaseEvent(events.EventOrganizationDeleted),
		Data: events.OrganizationDeletedData{
			OrganizationID:   org.ID,
			OrganizationName: org.Name,
			DeletedAt:        time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventOrganizationDeleted, event); err != nil {
		log.Printf("Warning: failed to publish organization.deleted event for %s: %v", org.ID, err)
	}

	return nil
}

// ListMembers retrieves the members of an organization. Any member may view.
func (s *Service) ListMembers(ctx context.Context, callerID, orgID string) ([]Member, error) {
	if _, err := s.requireRole(ctx, orgID, callerID, RoleManager); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}

// GetMemberRole exposes the membership lookup for other services
func (s *Service) GetMemberRole(ctx context.Context, orgID, userID string) (string, error) {
	return s.repo.GetMemberRole(ctx, orgID, userID)
}

// RemoveMember removes a member. Requires ADMIN or above, or the member
// removing themselves. The OWNER can never be removed.
func (s *Service) RemoveMember(ctx context.Context, callerID, orgID, userID string) error {
	targetRole, err := s.repo.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if targetRole == "" {
		return ErrMemberNotFound
	}
	if targetRole == RoleOwner {
		return ErrOwnerRemoval
	}

	if callerID != userID {
		if _, err := s.requireRole(ctx, orgID, callerID, RoleAdmin); err != nil {
			return err
		}
	}

	if err := s.repo.RemoveMember(ctx, orgID, userID); err != nil {
		return err
	}

	event := events.MemberRemovedEvent{
		BaseEvent: events.NewBaseEvent(events.EventOrganizationMemberRemoved),
		Data: events.MemberData{
			OrganizationID: orgID,
			UserID:         userID,
			Role:           targetRole,
			ChangedAt:      time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventOrganizationMemberRemoved, event); err != nil {
		log.Printf("Warning: failed to publish member_removed event for %s: %v", userID, err)
	}

	return nil
}

// ChangeMemberRole updates a member's role. Requires ADMIN or above.
// Demoting the OWNER is forbidden. Promoting a member to OWNER transfers
// ownership: the previous owner becomes ADMIN. Only the OWNER may transfer.
func (s *Service) ChangeMemberRole(ctx context.Context, callerID, orgID, userID, newRole string) (*Member, error) {
	if !validRole(newRole) {
		return nil, ErrInvalidRole
	}

	targetRole, err := s.repo.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if targetRole == "" {
		return nil, ErrMemberNotFound
	}
	if targetRole == RoleOwner {
		return nil, ErrOwnerDemotion
	}

	if newRole == RoleOwner {
		if _, err := s.requireRole(ctx, orgID, callerID, RoleOwner); err != nil {
			return nil, err
		}

		if err := s.repo.TransferOwnership(ctx, orgID, callerID, userID); err != nil {
			return nil, err
		}

		event := events.OwnerChangedEvent{
			BaseEvent: events.NewBaseEvent(events.EventOrganizationOwnerChanged),
			Data: events.OwnerChangedData{
				OrganizationID: orgID,
				OldOwnerID:     callerID,
				NewOwnerID:     userID,
				ChangedAt:      time.Now().UTC(),
			},
		}
		if err := s.publisher.Publish(ctx, events.EventOrganizationOwnerChanged, event); err != nil {
			log.Printf("Warning: failed to publish owner_changed event for %s: %v", orgID, err)
		}

		return &Member{OrganizationID: orgID, UserID: userID, Role: RoleOwner}, nil
	}

	if _, err := s.requireRole(ctx, orgID, callerID, RoleAdmin); err != nil {
		return nil, err
	}

	return s.repo.UpdateMemberRole(ctx, orgID, userID, newRole)
}

// InviteMember looks up the user by email, creates or refreshes a pending
// invitation and sends the templated invite email. Requires ADMIN or above.
func (s *Service) InviteMember(ctx context.Context, callerID, orgID string, req InviteRequest) (*Invitation, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" {
		return nil, ErrMissingEmail
	}
	if req.Role == RoleOwner {
		return nil, ErrInviteOwnerRole
	}
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.requireRole(ctx, orgID, callerID, RoleAdmin); err != nil {
		return nil, err
	}

	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	invitee, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrUserNotRegistered
	}

	existingRole, err := s.repo.GetMemberRole(ctx, orgID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if existingRole != "" {
		return nil, ErrAlreadyMember
	}

	inv, err := s.repo.UpsertInvitation(ctx, orgID, req.Email, req.Role, callerID, time.Now().Add(InvitationTTL))
	if err != nil {
		return nil, err
	}

	inviterName := ""
	if inviter, err := s.users.GetUser(ctx, callerID); err == nil {
		inviterName = strings.TrimSpace(inviter.FirstName + " " + inviter.LastName)
	}

	mail := mailer.Invitation{
		ToEmail:          req.Email,
		OrganizationName: org.Name,
		InviterName:      inviterName,
		Role:             req.Role,
		AcceptURL:        fmt.Sprintf("%s/invitations/%s", s.inviteBaseURL, inv.ID),
	}
	if err := s.mail.SendInvitation(ctx, mail); err != nil {
		log.Printf("Warning: failed to send invitation email to %s: %v", req.Email, err)
	}

	event := events.InvitationCreatedEvent{
		BaseEvent: events.NewBaseEvent(events.EventInvitationCreated),
		Data: events.InvitationData{
			InvitationID:   inv.ID,
			OrganizationID: orgID,
			Email:          req.Email,
			Role:           req.Role,
			OccurredAt:     time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventInvitationCreated, event); err != nil {
		log.Printf("Warning: failed to publish invitation.created event for %s: %v", inv.ID, err)
	}

	return inv, nil
}

// ListInvitations retrieves invitations for an organization. Requires ADMIN.
func (s *Service) ListInvitations(ctx context.Context, callerID, orgID string) ([]Invitation, error) {
	if _, err := s.requireRole(ctx, orgID, callerID, RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListInvitations(ctx, orgID)
}

// AcceptInvitation resolves a pending invitation addressed to the caller's
// email and adds the membership
func (s *Service) AcceptInvitation(ctx context.Context, callerID, callerEmail, inviteID string) (*Member, error) {
	inv, err := s.repo.GetInvitation(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv.Status != InviteStatusPending {
		return nil, ErrInviteResolved
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, ErrInviteExpired
	}
	if !strings.EqualFold(inv.Email, callerEmail) {
		return nil, ErrInviteWrongUser
	}

	member, err := s.repo.AcceptInvitation(ctx, inviteID, callerID)
	if err != nil {
		return nil, err
	}

	accepted := events.InvitationAcceptedEvent{
		BaseEvent: events.NewBaseEvent(events.EventInvitationAccepted),
		Data: events.InvitationData{
			InvitationID:   inv.ID,
			OrganizationID: inv.OrganizationID,
			Email:          inv.Email,
			Role:           inv.Role,
			OccurredAt:     time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventInvitationAccepted, accepted); err != nil {
		log.Printf("Warning: failed to publish invitation.accepted event for %s: %v", inv.ID, err)
	}

	added := events.MemberAddedEvent{
		BaseEvent: events.NewBaseEvent(events.EventOrganizationMemberAdded),
		Data: events.MemberData{
			OrganizationID: inv.OrganizationID,
			UserID:         callerID,
			Role:           inv.Role,
			ChangedAt:      time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventOrganizationMemberAdded, added); err != nil {
		log.Printf("Warning: failed to publish member_added event for %s: %v", callerID, err)
	}

	return member, nil
}

// DeclineInvitation marks a pending invitation addressed to the caller declined
func (s *Service) DeclineInvitation(ctx context.Context, callerEmail, inviteID string) error {
	inv, err := s.repo.GetInvitation(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.Status != InviteStatusPending {
		return ErrInviteResolved
	}
	if !strings.EqualFold(inv.Email, callerEmail) {
		return ErrInviteWrongUser
	}

	return s.repo.UpdateInvitationStatus(ctx, inviteID, InviteStatusDeclined)
}

// RevokeInvitation revokes a pending invitation. Requires ADMIN or above.
func (s *Service) RevokeInvitation(ctx context.Context, callerID, inviteID string) error {
	inv, err := s.repo.GetInvitation(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.Status != InviteStatusPending {
		return ErrInviteResolved
	}

	if _, err := s.requireRole(ctx, inv.OrganizationID, callerID, RoleAdmin); err != nil {
		return err
	}

	return s.repo.UpdateInvitationStatus(ctx, inviteID, InviteStatusRevoked)
}
