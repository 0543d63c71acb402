package payments

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository handles database operations for bookings, payments, refunds and
// the processed-webhook-event ledger
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new payments repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateBookingWithPayment inserts the booking and its pending payment in one
// transaction
func (r *Repository) CreateBookingWithPayment(ctx context.Context, b Booking, intentID string) (*Booking, *Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookingID := uuid.New().String()

	bookingQuery := `
		INSERT INTO marketplace.bookings (id, listing_id, renter_id, start_date, end_date, total_price, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, listing_id, renter_id, start_date, end_date, total_price, currency, status, created_at, updated_at`

	var booking Booking
	err = tx.QueryRowContext(ctx, bookingQuery,
		bookingID, b.ListingID, b.RenterID, b.StartDate, b.EndDate, b.TotalPrice, b.Currency, BookingPending,
	).Scan(&booking.ID, &booking.ListingID, &booking.RenterID, &booking.StartDate, &booking.EndDate,
		&booking.TotalPrice, &booking.Currency, &booking.Status, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create booking: %w", err)
	}

	paymentID := uuid.New().String()

	paymentQuery := `
		INSERT INTO marketplace.payments (id, booking_id, stripe_payment_intent_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, booking_id, stripe_payment_intent_id, amount, currency, status, created_at, updated_at`

	var payment Payment
	err = tx.QueryRowContext(ctx, paymentQuery,
		paymentID, booking.ID, intentID, b.TotalPrice, b.Currency, PaymentPending,
	).Scan(&payment.ID, &payment.BookingID, &payment.StripePaymentIntentID, &payment.Amount,
		&payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	return &booking, &payment, nil
}

// GetBooking retrieves a booking by ID
func (r *Repository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	query := `
		SELECT id, listing_id, renter_id, start_date, end_date, total_price, currency, status, created_at, updated_at
		FROM marketplace.bookings
		WHERE id = $1`

	var b Booking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.ListingID, &b.RenterID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.Currency, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}

// ListBookingsByRenter retrieves the renter's bookings, newest first
func (r *Repository) ListBookingsByRenter(ctx context.Context, renterID string) ([]Booking, error) {
	query := `
		SELECT id, listing_id, renter_id, start_date, end_date, total_price, currency, status, created_at, updated_at
		FROM marketplace.bookings
		WHERE renter_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.ListingID, &b.RenterID, &b.StartDate, &b.EndDate,
			&b.TotalPrice, &b.Currency, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// UpdateBookingStatus moves a booking to a new status
func (r *Repository) UpdateBookingStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE marketplace.bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// GetPayment retrieves a payment by ID
func (r *Repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	query := `
		SELECT id, booking_id, stripe_payment_intent_id, amount, currency, status, created_at, updated_at
		FROM marketplace.payments
		WHERE id = $1`

	var p Payment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.BookingID, &p.StripePaymentIntentID, &p.Amount,
		&p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

// GetPaymentByIntentID retrieves a payment by its Stripe payment intent ID
func (r *Repository) GetPaymentByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	query := `
		SELECT id, booking_id, stripe_payment_intent_id, amount, currency, status, created_at, updated_at
		FROM marketplace.payments
		WHERE stripe_payment_intent_id = $1`

	var p Payment
	err := r.db.QueryRowContext(ctx, query, intentID).Scan(
		&p.ID, &p.BookingID, &p.StripePaymentIntentID, &p.Amount,
		&p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by intent: %w", err)
	}

	return &p, nil
}

// GetPaymentByBookingID retrieves the payment backing a booking
func (r *Repository) GetPaymentByBookingID(ctx context.Context, bookingID string) (*Payment, error) {
	query := `
		SELECT id, booking_id, stripe_payment_intent_id, amount, currency, status, created_at, updated_at
		FROM marketplace.payments
		WHERE booking_id = $1`

	var p Payment
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&p.ID, &p.BookingID, &p.StripePaymentIntentID, &p.Amount,
		&p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by booking: %w", err)
	}

	return &p, nil
}

// UpdatePaymentStatus moves a payment from oldStatus to newStatus. The guard
// on the current status makes concurrent webhook deliveries race-safe: only
// one of them wins the row.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id, oldStatus, newStatus string) (bool, error) {
	query := `
		UPDATE marketplace.payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, oldStatus, newStatus)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}

	return rows > 0, nil
}

// CreateRefund records a refund against a payment
func (r *Repository) CreateRefund(ctx context.Context, paymentID, stripeRefundID string, amount decimal.Decimal, currency string) (*Refund, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO marketplace.refunds (id, payment_id, stripe_refund_id, amount, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stripe_refund_id) DO NOTHING
		RETURNING id, payment_id, stripe_refund_id, amount, currency, created_at`

	var refund Refund
	err := r.db.QueryRowContext(ctx, query, id, paymentID, stripeRefundID, amount, currency).Scan(
		&refund.ID, &refund.PaymentID, &refund.StripeRefundID, &refund.Amount, &refund.Currency, &refund.CreatedAt)
	if err == sql.ErrNoRows {
		// refund already recorded by an earlier delivery
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &refund, nil
}

// MarkEventProcessed records a webhook event ID and reports whether this
// delivery is the first. Re-deliveries return false.
func (r *Repository) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO marketplace.webhook_events (stripe_event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (stripe_event_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}

	return rows > 0, nil
}
