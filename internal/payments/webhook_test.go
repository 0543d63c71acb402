package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/testutil"
	"github.com/shopspring/decimal"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload produces a Stripe-Signature header for the payload
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type mockPaymentsRepo struct {
	createBookingFunc   func(ctx context.Context, b Booking, intentID string) (*Booking, *Payment, error)
	getBookingFunc      func(ctx context.Context, id string) (*Booking, error)
	listBookingsFunc    func(ctx context.Context, renterID string) ([]Booking, error)
	updateBookingFunc   func(ctx context.Context, id, status string) error
	getPaymentFunc      func(ctx context.Context, id string) (*Payment, error)
	getByIntentFunc     func(ctx context.Context, intentID string) (*Payment, error)
	getByBookingFunc    func(ctx context.Context, bookingID string) (*Payment, error)
	updatePaymentFunc   func(ctx context.Context, id, oldStatus, newStatus string) (bool, error)
	createRefundFunc    func(ctx context.Context, paymentID, stripeRefundID string, amount decimal.Decimal, currency string) (*Refund, error)
	markEventFunc       func(ctx context.Context, eventID, eventType string) (bool, error)
}

func (m *mockPaymentsRepo) CreateBookingWithPayment(ctx context.Context, b Booking, intentID string) (*Booking, *Payment, error) {
	if m.createBookingFunc != nil {
		return m.createBookingFunc(ctx, b, intentID)
	}
	return nil, nil, errors.New("unexpected call to CreateBookingWithPayment")
}

func (m *mockPaymentsRepo) GetBooking(ctx context.Context, id string) (*Booking, error) {
	if m.getBookingFunc != nil {
		return m.getBookingFunc(ctx, id)
	}
	return &Booking{ID: id, ListingID: "listing-1", RenterID: "renter-1", Status: BookingPending}, nil
}

func (m *mockPaymentsRepo) ListBookingsByRenter(ctx context.Context, renterID string) ([]Booking, error) {
	if m.listBookingsFunc != nil {
		return m.listBookingsFunc(ctx, renterID)
	}
	return nil, nil
}

func (m *mockPaymentsRepo) UpdateBookingStatus(ctx context.Context, id, status string) error {
	if m.updateBookingFunc != nil {
		return m.updateBookingFunc(ctx, id, status)
	}
	return nil
}

func (m *mockPaymentsRepo) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if m.getPaymentFunc != nil {
		return m.getPaymentFunc(ctx, id)
	}
	return nil, ErrPaymentNotFound
}

func (m *mockPaymentsRepo) GetPaymentByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	if m.getByIntentFunc != nil {
		return m.getByIntentFunc(ctx, intentID)
	}
	return nil, ErrPaymentNotFound
}

func (m *mockPaymentsRepo) GetPaymentByBookingID(ctx context.Context, bookingID string) (*Payment, error) {
	if m.getByBookingFunc != nil {
		return m.getByBookingFunc(ctx, bookingID)
	}
	return nil, ErrPaymentNotFound
}

func (m *mockPaymentsRepo) UpdatePaymentStatus(ctx context.Context, id, oldStatus, newStatus string) (bool, error) {
	if m.updatePaymentFunc != nil {
		return m.updatePaymentFunc(ctx, id, oldStatus, newStatus)
	}
	return true, nil
}

func (m *mockPaymentsRepo) CreateRefund(ctx context.Context, paymentID, stripeRefundID string, amount decimal.Decimal, currency string) (*Refund, error) {
	if m.createRefundFunc != nil {
		return m.createRefundFunc(ctx, paymentID, stripeRefundID, amount, currency)
	}
	return &Refund{ID: "refund-1", PaymentID: paymentID, StripeRefundID: stripeRefundID, Amount: amount, Currency: currency}, nil
}

func (m *mockPaymentsRepo) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	if m.markEventFunc != nil {
		return m.markEventFunc(ctx, eventID, eventType)
	}
	return true, nil
}

func intentEventPayload(eventID, eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": %q,
		"api_version": "2023-10-16",
		"data": {"object": {"id": %q, "object": "payment_intent"}}
	}`, eventID, eventType, intentID))
}

// TestHandleDelivery_InvalidSignature tests that a bad signature is rejected
func TestHandleDelivery_InvalidSignature(t *testing.T) {
	svc := NewWebhookService(&mockPaymentsRepo{}, testutil.NewMockPublisher(), testWebhookSecret)

	payload := intentEventPayload("evt_1", "payment_intent.succeeded", "pi_1")
	err := svc.HandleDelivery(context.Background(), payload, "t=1,v1=deadbeef")

	if !errors.Is(err, ErrSignature) {
		t.Errorf("Expected ErrSignature, got: %v", err)
	}
}

// TestHandleDelivery_SucceededConfirmsBooking tests the happy path: payment
// moves to succeeded and the booking is confirmed
func TestHandleDelivery_SucceededConfirmsBooking(t *testing.T) {
	var bookingStatus string
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return &Payment{
				ID:                    "pay-1",
				BookingID:             "booking-1",
				StripePaymentIntentID: intentID,
				Amount:                decimal.NewFromInt(300),
				Currency:              "EUR",
				Status:                PaymentPending,
			}, nil
		},
		updateBookingFunc: func(ctx context.Context, id, status string) error {
			bookingStatus = status
			return nil
		},
	}

	publisher := testutil.NewMockPublisher()
	svc := NewWebhookService(repo, publisher, testWebhookSecret)

	payload := intentEventPayload("evt_1", "payment_intent.succeeded", "pi_1")
	err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if bookingStatus != BookingConfirmed {
		t.Errorf("Expected booking confirmed, got '%s'", bookingStatus)
	}
	publisher.AssertEventPublished(t, events.EventPaymentSucceeded)
	publisher.AssertEventPublished(t, events.EventBookingStatusChanged)
}

// TestHandleDelivery_DuplicateEventSkipped tests that a re-delivered event ID
// is a no-op
func TestHandleDelivery_DuplicateEventSkipped(t *testing.T) {
	transitioned := false
	repo := &mockPaymentsRepo{
		markEventFunc: func(ctx context.Context, eventID, eventType string) (bool, error) {
			return false, nil
		},
		updatePaymentFunc: func(ctx context.Context, id, oldStatus, newStatus string) (bool, error) {
			transitioned = true
			return true, nil
		},
	}

	publisher := testutil.NewMockPublisher()
	svc := NewWebhookService(repo, publisher, testWebhookSecret)

	payload := intentEventPayload("evt_dup", "payment_intent.succeeded", "pi_1")
	err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if transitioned {
		t.Error("Expected duplicate event to skip the transition")
	}
	publisher.AssertEventNotPublished(t, events.EventPaymentSucceeded)
}

// TestHandleDelivery_TerminalStateNeverRegresses tests that a canceled payment
// ignores a late success event
func TestHandleDelivery_TerminalStateNeverRegresses(t *testing.T) {
	transitioned := false
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return &Payment{
				ID:        "pay-1",
				BookingID: "booking-1",
				Status:    PaymentCanceled,
			}, nil
		},
		updatePaymentFunc: func(ctx context.Context, id, oldStatus, newStatus string) (bool, error) {
			transitioned = true
			return true, nil
		},
	}

	publisher := testutil.NewMockPublisher()
	svc := NewWebhookService(repo, publisher, testWebhookSecret)

	payload := intentEventPayload("evt_late", "payment_intent.succeeded", "pi_1")
	err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if transitioned {
		t.Error("Expected terminal state to block the transition")
	}
	publisher.AssertEventNotPublished(t, events.EventPaymentSucceeded)
}

// TestHandleDelivery_FailedAfterSuccessBlocked tests that a succeeded payment
// ignores a late failure event
func TestHandleDelivery_FailedAfterSuccessBlocked(t *testing.T) {
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return &Payment{ID: "pay-1", BookingID: "booking-1", Status: PaymentSucceeded}, nil
		},
		updatePaymentFunc: func(ctx context.Context, id, oldStatus, newStatus string) (bool, error) {
			t.Error("Unexpected transition for succeeded -> failed")
			return false, nil
		},
	}

	svc := NewWebhookService(repo, testutil.NewMockPublisher(), testWebhookSecret)

	payload := intentEventPayload("evt_fail", "payment_intent.payment_failed", "pi_1")
	if err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// TestHandleDelivery_HandlerErrorSwallowed tests that a failing handler still
// acknowledges the delivery
func TestHandleDelivery_HandlerErrorSwallowed(t *testing.T) {
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return nil, errors.New("database down")
		},
	}

	svc := NewWebhookService(repo, testutil.NewMockPublisher(), testWebhookSecret)

	payload := intentEventPayload("evt_err", "payment_intent.succeeded", "pi_1")
	if err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret)); err != nil {
		t.Errorf("Expected handler error to be swallowed, got: %v", err)
	}
}

// TestHandleDelivery_UnhandledTypeIgnored tests unknown event types are acknowledged
func TestHandleDelivery_UnhandledTypeIgnored(t *testing.T) {
	svc := NewWebhookService(&mockPaymentsRepo{}, testutil.NewMockPublisher(), testWebhookSecret)

	payload := intentEventPayload("evt_other", "customer.created", "cus_1")
	if err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret)); err != nil {
		t.Errorf("Expected no error for unhandled type, got: %v", err)
	}
}

// TestHandleDelivery_ChargeRefunded tests the refund flow: refund recorded,
// payment and booking move to refunded
func TestHandleDelivery_ChargeRefunded(t *testing.T) {
	var refundAmount decimal.Decimal
	var bookingStatus string
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return &Payment{
				ID:        "pay-1",
				BookingID: "booking-1",
				Amount:    decimal.NewFromInt(300),
				Currency:  "EUR",
				Status:    PaymentSucceeded,
			}, nil
		},
		createRefundFunc: func(ctx context.Context, paymentID, stripeRefundID string, amount decimal.Decimal, currency string) (*Refund, error) {
			refundAmount = amount
			return &Refund{ID: "refund-1"}, nil
		},
		updateBookingFunc: func(ctx context.Context, id, status string) error {
			bookingStatus = status
			return nil
		},
	}

	publisher := testutil.NewMockPublisher()
	svc := NewWebhookService(repo, publisher, testWebhookSecret)

	payload := []byte(`{
		"id": "evt_refund",
		"type": "charge.refunded",
		"api_version": "2023-10-16",
		"data": {"object": {
			"id": "ch_1",
			"object": "charge",
			"amount_refunded": 30000,
			"currency": "eur",
			"payment_intent": "pi_1"
		}}
	}`)

	err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !refundAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected refund amount 300, got %s", refundAmount)
	}
	if bookingStatus != BookingRefunded {
		t.Errorf("Expected booking refunded, got '%s'", bookingStatus)
	}
	publisher.AssertEventPublished(t, events.EventPaymentRefunded)
}

// TestHandleDelivery_BookingEventUsesBookingStatuses tests that the
// booking.status_changed event carries the booking's prior status, not the
// payment's
func TestHandleDelivery_BookingEventUsesBookingStatuses(t *testing.T) {
	repo := &mockPaymentsRepo{
		getByIntentFunc: func(ctx context.Context, intentID string) (*Payment, error) {
			return &Payment{
				ID:        "pay-1",
				BookingID: "booking-1",
				Amount:    decimal.NewFromInt(300),
				Currency:  "EUR",
				Status:    PaymentSucceeded,
			}, nil
		},
		getBookingFunc: func(ctx context.Context, id string) (*Booking, error) {
			return &Booking{
				ID:        id,
				ListingID: "listing-1",
				RenterID:  "renter-1",
				Status:    BookingConfirmed,
			}, nil
		},
	}

	publisher := testutil.NewMockPublisher()
	svc := NewWebhookService(repo, publisher, testWebhookSecret)

	payload := []byte(`{
		"id": "evt_refund",
		"type": "charge.refunded",
		"api_version": "2023-10-16",
		"data": {"object": {
			"id": "ch_1",
			"object": "charge",
			"amount_refunded": 30000,
			"currency": "eur",
			"payment_intent": "pi_1"
		}}
	}`)

	if err := svc.HandleDelivery(context.Background(), payload, signPayload(payload, testWebhookSecret)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	captured := publisher.GetLastEventByKey(events.EventBookingStatusChanged)
	if captured == nil {
		t.Fatal("Expected a booking.status_changed event")
	}
	event, ok := captured.EventData.(events.BookingStatusEvent)
	if !ok {
		t.Fatalf("Expected BookingStatusEvent, got %T", captured.EventData)
	}
	if event.Data.OldStatus != BookingConfirmed {
		t.Errorf("Expected old status '%s', got '%s'", BookingConfirmed, event.Data.OldStatus)
	}
	if event.Data.NewStatus != BookingRefunded {
		t.Errorf("Expected new status '%s', got '%s'", BookingRefunded, event.Data.NewStatus)
	}
}

// TestCanTransition covers the status transition table
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{PaymentPending, PaymentSucceeded, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentCanceled, true},
		{PaymentFailed, PaymentSucceeded, true},
		{PaymentSucceeded, PaymentRefunded, true},
		{PaymentSucceeded, PaymentFailed, false},
		{PaymentCanceled, PaymentSucceeded, false},
		{PaymentRefunded, PaymentSucceeded, false},
		{PaymentRefunded, PaymentPending, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}
