package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentCanceled  = "canceled"
	PaymentRefunded  = "refunded"
)

// Booking statuses
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCanceled  = "canceled"
	BookingRefunded  = "refunded"
)

// Booking reserves a listing for a date range
type Booking struct {
	ID         string          `json:"id"`
	ListingID  string          `json:"listing_id"`
	RenterID   string          `json:"renter_id"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Payment tracks the Stripe payment backing a booking
type Payment struct {
	ID                    string          `json:"id"`
	BookingID             string          `json:"booking_id"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Refund tracks a Stripe refund against a payment
type Refund struct {
	ID             string          `json:"id"`
	PaymentID      string          `json:"payment_id"`
	StripeRefundID string          `json:"stripe_refund_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateBookingRequest represents the request to book a listing.
// The total is computed from the listing's nightly price.
type CreateBookingRequest struct {
	ListingID string `json:"listing_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// BookingWithPayment is returned on booking creation so the client can
// confirm the Stripe payment intent
type BookingWithPayment struct {
	Booking      *Booking `json:"booking"`
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
}

// paymentTransitions lists the allowed status moves. Terminal states
// (canceled, refunded) have no outgoing edges and never regress.
var paymentTransitions = map[string][]string{
	PaymentPending:   {PaymentSucceeded, PaymentFailed, PaymentCanceled},
	PaymentFailed:    {PaymentSucceeded, PaymentCanceled},
	PaymentSucceeded: {PaymentRefunded},
}

// CanTransition reports whether a payment may move from to status "to"
func CanTransition(from, to string) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// BookingStatusFor maps a payment status to the booking status it implies
func BookingStatusFor(paymentStatus string) string {
	switch paymentStatus {
	case PaymentSucceeded:
		return BookingConfirmed
	case PaymentFailed, PaymentCanceled:
		return BookingCanceled
	case PaymentRefunded:
		return BookingRefunded
	}
	return ""
}
