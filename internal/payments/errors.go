package payments

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrMissingListing    = errors.New("listing_id is required")
	ErrInvalidDates      = errors.New("start_date must be before end_date")
	ErrInvalidDateFormat = errors.New("dates must be in YYYY-MM-DD format")
	ErrListingNotOpen    = errors.New("listing is not published")
	ErrNotRenter         = errors.New("caller does not own this booking")
	ErrNotCancelable     = errors.New("only pending bookings can be canceled")
	ErrTransition        = errors.New("payment status transition not allowed")
	ErrSignature         = errors.New("webhook signature verification failed")
)
