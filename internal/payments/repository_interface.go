package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// RepositoryInterface defines the contract for payments data access
type RepositoryInterface interface {
	CreateBookingWithPayment(ctx context.Context, b Booking, intentID string) (*Booking, *Payment, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookingsByRenter(ctx context.Context, renterID string) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status string) error

	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByIntentID(ctx context.Context, intentID string) (*Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID string) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, id, oldStatus, newStatus string) (bool, error)

	CreateRefund(ctx context.Context, paymentID, stripeRefundID string, amount decimal.Decimal, currency string) (*Refund, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

var _ RepositoryInterface = (*Repository)(nil)
