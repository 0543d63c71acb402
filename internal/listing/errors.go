package listing

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingOrg         = errors.New("organization_id is required")
	ErrMissingCategory    = errors.New("category_id is required")
	ErrInvalidPrice       = errors.New("nightly_price must be greater than zero")
	ErrInvalidStatus      = errors.New("status must be draft, published or archived")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO code")
	ErrNoFields           = errors.New("no fields to update")
	ErrNotMember          = errors.New("caller is not a member of the organization")
	ErrMemberOnlyStatus   = errors.New("draft and archived listings require an organization_id filter")
	ErrUnknownCategory    = errors.New("category does not exist")
	ErrListingHasBookings = errors.New("listing has active bookings and cannot be deleted")
)
