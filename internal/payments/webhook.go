package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe event types the dispatcher handles
const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
	eventPaymentCanceled  = "payment_intent.canceled"
	eventChargeRefunded   = "charge.refunded"
)

// WebhookMetricsRecorder records webhook processing outcomes
type WebhookMetricsRecorder interface {
	RecordWebhookEvent(ctx context.Context, eventType, outcome string)
}

// WebhookService verifies and applies Stripe webhook deliveries
type WebhookService struct {
	repo      RepositoryInterface
	publisher events.PublisherInterface
	secret    string
	metrics   WebhookMetricsRecorder
}

// NewWebhookService creates a webhook service with the signing secret
func NewWebhookService(repo RepositoryInterface, publisher events.PublisherInterface, secret string) *WebhookService {
	return &WebhookService{repo: repo, publisher: publisher, secret: secret}
}

// NewWebhookServiceWithMetrics creates a webhook service that records
// processing outcomes
func NewWebhookServiceWithMetrics(repo RepositoryInterface, publisher events.PublisherInterface, secret string, metrics WebhookMetricsRecorder) *WebhookService {
	return &WebhookService{repo: repo, publisher: publisher, secret: secret, metrics: metrics}
}

func (s *WebhookService) record(ctx context.Context, eventType, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(ctx, eventType, outcome)
	}
}

// HandleDelivery verifies the signature, deduplicates the event and
// dispatches it. Handler failures are logged and swallowed so one bad event
// cannot take down the endpoint; only signature failures propagate.
func (s *WebhookService) HandleDelivery(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.secret)
	if err != nil {
		s.record(ctx, "unknown", "signature_failed")
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}

	eventType := string(event.Type)

	first, err := s.repo.MarkEventProcessed(ctx, event.ID, eventType)
	if err != nil {
		log.Printf("Warning: failed to record webhook event %s: %v", event.ID, err)
		s.record(ctx, eventType, "ledger_error")
		return nil
	}
	if !first {
		log.Printf("Skipping already processed webhook event %s (%s)", event.ID, eventType)
		s.record(ctx, eventType, "duplicate")
		return nil
	}

	switch eventType {
	case eventPaymentSucceeded:
		err = s.applyIntentStatus(ctx, event, PaymentSucceeded, events.EventPaymentSucceeded)
	case eventPaymentFailed:
		err = s.applyIntentStatus(ctx, event, PaymentFailed, events.EventPaymentFailed)
	case eventPaymentCanceled:
		err = s.applyIntentStatus(ctx, event, PaymentCanceled, events.EventPaymentCanceled)
	case eventChargeRefunded:
		err = s.applyChargeRefunded(ctx, event)
	default:
		log.Printf("Ignoring unhandled webhook event type %s", eventType)
		s.record(ctx, eventType, "ignored")
		return nil
	}

	if err != nil {
		log.Printf("Warning: webhook handler for %s (%s) failed: %v", event.ID, eventType, err)
		s.record(ctx, eventType, "handler_error")
		return nil
	}

	s.record(ctx, eventType, "applied")
	return nil
}

// applyIntentStatus moves the payment matching the event's intent to the
// target status and reconciles the booking
func (s *WebhookService) applyIntentStatus(ctx context.Context, event stripe.Event, target, routingKey string) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to parse payment intent: %w", err)
	}

	payment, err := s.repo.GetPaymentByIntentID(ctx, intent.ID)
	if err != nil {
		return err
	}

	return s.transition(ctx, payment, target, routingKey)
}

// applyChargeRefunded records the refund and moves the payment to refunded
func (s *WebhookService) applyChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return fmt.Errorf("failed to parse charge: %w", err)
	}
	if charge.PaymentIntent == nil {
		return fmt.Errorf("charge %s has no payment intent", charge.ID)
	}

	payment, err := s.repo.GetPaymentByIntentID(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return err
	}

	refundRef := charge.ID
	if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
		refundRef = charge.Refunds.Data[0].ID
	}

	amount := decimal.NewFromInt(charge.AmountRefunded).Div(decimal.NewFromInt(100))
	if _, err := s.repo.CreateRefund(ctx, payment.ID, refundRef, amount, string(charge.Currency)); err != nil {
		return err
	}

	return s.transition(ctx, payment, PaymentRefunded, events.EventPaymentRefunded)
}

// transition applies an idempotent payment status move and reconciles the
// booking. Already-applied and disallowed transitions are no-ops.
func (s *WebhookService) transition(ctx context.Context, payment *Payment, target, routingKey string) error {
	if payment.Status == target {
		log.Printf("Payment %s already %s, skipping", payment.ID, target)
		return nil
	}
	if !CanTransition(payment.Status, target) {
		log.Printf("Payment %s: transition %s -> %s not allowed, skipping", payment.ID, payment.Status, target)
		return nil
	}

	applied, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, payment.Status, target)
	if err != nil {
		return err
	}
	if !applied {
		// lost the race to a concurrent delivery
		return nil
	}

	bookingStatus := BookingStatusFor(target)
	// Fetch before the update so the event carries the booking's prior status
	booking, bookingErr := s.repo.GetBooking(ctx, payment.BookingID)
	if err := s.repo.UpdateBookingStatus(ctx, payment.BookingID, bookingStatus); err != nil {
		return err
	}

	paymentEvent := events.PaymentStatusEvent{
		BaseEvent: events.NewBaseEvent(routingKey),
		Data: events.PaymentStatusData{
			PaymentID:             payment.ID,
			BookingID:             payment.BookingID,
			StripePaymentIntentID: payment.StripePaymentIntentID,
			OldStatus:             payment.Status,
			NewStatus:             target,
			Amount:                payment.Amount.String(),
			Currency:              payment.Currency,
			ChangedAt:             time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, routingKey, paymentEvent); err != nil {
		log.Printf("Warning: failed to publish %s event for payment %s: %v", routingKey, payment.ID, err)
	}

	if bookingErr == nil {
		bookingEvent := events.BookingStatusEvent{
			BaseEvent: events.NewBaseEvent(events.EventBookingStatusChanged),
			Data: events.BookingStatusData{
				BookingID: booking.ID,
				ListingID: booking.ListingID,
				OldStatus: booking.Status,
				NewStatus: bookingStatus,
				ChangedAt: time.Now().UTC(),
			},
		}
		if err := s.publisher.Publish(ctx, events.EventBookingStatusChanged, bookingEvent); err != nil {
			log.Printf("Warning: failed to publish booking.status_changed event for %s: %v", booking.ID, err)
		}
	}

	return nil
}
