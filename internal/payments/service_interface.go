package payments

import "context"

// ServiceInterface defines the contract for booking and payment business logic
type ServiceInterface interface {
	CreateBooking(ctx context.Context, renterID string, req CreateBookingRequest) (*BookingWithPayment, error)
	GetBooking(ctx context.Context, callerID, id string) (*Booking, error)
	ListMyBookings(ctx context.Context, callerID string) ([]Booking, error)
	CancelBooking(ctx context.Context, callerID, id string) (*Booking, error)
	GetPaymentForBooking(ctx context.Context, callerID, bookingID string) (*Payment, error)
}

var _ ServiceInterface = (*Service)(nil)
