package organization

import "errors"

var (
	ErrOrgNotFound        = errors.New("organization not found")
	ErrMissingName        = errors.New("organization name is required")
	ErrMissingEmail       = errors.New("contact_email is required")
	ErrNoFields           = errors.New("no fields to update")
	ErrNameTaken          = errors.New("an organization with this name already exists")

	ErrMemberNotFound     = errors.New("member not found")
	ErrAlreadyMember      = errors.New("user is already a member of the organization")
	ErrInvalidRole        = errors.New("role must be OWNER, ADMIN or MANAGER")
	ErrOwnerRemoval       = errors.New("the organization owner cannot be removed")
	ErrOwnerDemotion      = errors.New("the organization owner cannot be demoted")
	ErrNotAuthorized      = errors.New("caller does not have the required role in this organization")

	ErrInviteNotFound     = errors.New("invitation not found")
	ErrInviteExpired      = errors.New("invitation has expired")
	ErrInviteResolved     = errors.New("invitation has already been resolved")
	ErrInviteWrongUser    = errors.New("invitation is addressed to a different email")
	ErrUserNotRegistered  = errors.New("no user registered with this email")
	ErrInviteOwnerRole    = errors.New("cannot invite a user as OWNER")
)
