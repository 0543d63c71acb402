package organization

import (
	"time"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// Member roles
const (
	RoleOwner   = "OWNER"
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
)

// Invitation statuses
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusRevoked  = "revoked"
)

// InvitationTTL defines how long a pending invitation stays valid
const InvitationTTL = 7 * 24 * time.Hour

// Organization represents a rental provider on the marketplace
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Member represents a user's membership in an organization
type Member struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Invitation represents a pending or resolved invite to join an organization
type Invitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	InvitedBy      string    `json:"invited_by"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateOrganizationRequest represents the request to create a new organization
type CreateOrganizationRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
}

// UpdateOrganizationRequest represents a partial organization update
type UpdateOrganizationRequest struct {
	Name         *string `json:"name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

// InviteRequest represents the request to invite a user by email
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ChangeRoleRequest represents the request to change a member's role
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// PaginatedListResponse is the payload for paginated organization queries
type PaginatedListResponse struct {
	Success       bool            `json:"success"`
	Organizations []Organization  `json:"organizations"`
	Pagination    pagination.Meta `json:"pagination"`
}

func validRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleManager:
		return true
	}
	return false
}
