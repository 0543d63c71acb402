package payments

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/listing"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Service handles business logic for bookings and payments
type Service struct {
	repo      RepositoryInterface
	listings  listing.ServiceInterface
	gateway   Gateway
	publisher events.PublisherInterface
}

// NewService creates a new payments service
func NewService(repo RepositoryInterface, listings listing.ServiceInterface, gateway Gateway, publisher events.PublisherInterface) *Service {
	return &Service{
		repo:      repo,
		listings:  listings,
		gateway:   gateway,
		publisher: publisher,
	}
}

// CreateBooking books a published listing for the date range. The total is
// the listing's nightly price times the number of nights, and a pending
// payment with a Stripe intent is opened alongside.
func (s *Service) CreateBooking(ctx context.Context, renterID string, req CreateBookingRequest) (*BookingWithPayment, error) {
	if req.ListingID == "" {
		return nil, ErrMissingListing
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if !start.Before(end) {
		return nil, ErrInvalidDates
	}

	l, err := s.listings.GetListing(ctx, renterID, req.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Status != listing.StatusPublished {
		return nil, ErrListingNotOpen
	}

	nights := int64(end.Sub(start).Hours() / 24)
	total := l.NightlyPrice.Mul(decimal.NewFromInt(nights))

	intentID, clientSecret, err := s.gateway.CreateIntent(ctx, total, strings.ToLower(l.Currency), req.ListingID)
	if err != nil {
		return nil, err
	}

	booking, payment, err := s.repo.CreateBookingWithPayment(ctx, Booking{
		ListingID:  req.ListingID,
		RenterID:   renterID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: total,
		Currency:   l.Currency,
	}, intentID)
	if err != nil {
		return nil, err
	}

	return &BookingWithPayment{
		Booking:      booking,
		Payment:      payment,
		ClientSecret: clientSecret,
	}, nil
}

// GetBooking retrieves a booking owned by the caller
func (s *Service) GetBooking(ctx context.Context, callerID, id string) (*Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != callerID {
		return nil, ErrNotRenter
	}
	return booking, nil
}

// ListMyBookings retrieves the caller's bookings
func (s *Service) ListMyBookings(ctx context.Context, callerID string) ([]Booking, error) {
	return s.repo.ListBookingsByRenter(ctx, callerID)
}

// CancelBooking cancels a pending booking and its payment
func (s *Service) CancelBooking(ctx context.Context, callerID, id string) (*Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != callerID {
		return nil, ErrNotRenter
	}
	if booking.Status != BookingPending {
		return nil, ErrNotCancelable
	}

	payment, err := s.repo.GetPaymentByBookingID(ctx, id)
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, payment.Status, PaymentCanceled)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrNotCancelable
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, BookingCanceled); err != nil {
		return nil, err
	}

	s.publishBookingStatus(ctx, booking, BookingCanceled)

	booking.Status = BookingCanceled
	return booking, nil
}

// GetPaymentForBooking retrieves the payment backing the caller's booking
func (s *Service) GetPaymentForBooking(ctx context.Context, callerID, bookingID string) (*Payment, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != callerID {
		return nil, ErrNotRenter
	}
	return s.repo.GetPaymentByBookingID(ctx, bookingID)
}

func (s *Service) publishBookingStatus(ctx context.Context, booking *Booking, newStatus string) {
	event := events.BookingStatusEvent{
		BaseEvent: events.NewBaseEvent(events.EventBookingStatusChanged),
		Data: events.BookingStatusData{
			BookingID: booking.ID,
			ListingID: booking.ListingID,
			OldStatus: booking.Status,
			NewStatus: newStatus,
			ChangedAt: time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventBookingStatusChanged, event); err != nil {
		log.Printf("Warning: failed to publish booking.status_changed event for %s: %v", booking.ID, err)
	}
}
