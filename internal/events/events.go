package events

import (
	"fmt"
	"time"
)

// Event routing keys as constants
const (
	// Organization events
	EventOrganizationDeleted       = "organization.deleted"
	EventOrganizationMemberAdded   = "organization.member_added"
	EventOrganizationMemberRemoved = "organization.member_removed"
	EventOrganizationOwnerChanged  = "organization.owner_changed"

	// Invitation events
	EventInvitationCreated  = "invitation.created"
	EventInvitationAccepted = "invitation.accepted"

	// Listing events
	EventListingCreated       = "listing.created"
	EventListingStatusChanged = "listing.status_changed"

	// Chat events
	EventMessageCreated = "message.created"

	// Payment events
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentCanceled  = "payment.canceled"
	EventPaymentRefunded  = "payment.refunded"

	// Booking events
	EventBookingStatusChanged = "booking.status_changed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// OrganizationDeletedEvent represents an organization deletion event
type OrganizationDeletedEvent struct {
	BaseEvent
	Data OrganizationDeletedData `json:"data"`
}

type OrganizationDeletedData struct {
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	DeletedAt        time.Time `json:"deleted_at"`
}

// MemberAddedEvent represents a membership creation event
type MemberAddedEvent struct {
	BaseEvent
	Data MemberData `json:"data"`
}

// MemberRemovedEvent represents a membership removal event
type MemberRemovedEvent struct {
	BaseEvent
	Data MemberData `json:"data"`
}

type MemberData struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	ChangedAt      time.Time `json:"changed_at"`
}

// OwnerChangedEvent represents an ownership transfer event
type OwnerChangedEvent struct {
	BaseEvent
	Data OwnerChangedData `json:"data"`
}

type OwnerChangedData struct {
	OrganizationID string    `json:"organization_id"`
	OldOwnerID     string    `json:"old_owner_id"`
	NewOwnerID     string    `json:"new_owner_id"`
	ChangedAt      time.Time `json:"changed_at"`
}

// InvitationCreatedEvent represents an invitation creation event
type InvitationCreatedEvent struct {
	BaseEvent
	Data InvitationData `json:"data"`
}

// InvitationAcceptedEvent represents an invitation acceptance event
type InvitationAcceptedEvent struct {
	BaseEvent
	Data InvitationData `json:"data"`
}

type InvitationData struct {
	InvitationID   string    `json:"invitation_id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ListingCreatedEvent represents a listing creation event
type ListingCreatedEvent struct {
	BaseEvent
	Data ListingCreatedData `json:"data"`
}

type ListingCreatedData struct {
	ListingID      string    `json:"listing_id"`
	OrganizationID string    `json:"organization_id"`
	CategoryID     string    `json:"category_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListingStatusEvent represents a listing status transition
type ListingStatusEvent struct {
	BaseEvent
	Data ListingStatusData `json:"data"`
}

type ListingStatusData struct {
	ListingID      string    `json:"listing_id"`
	OrganizationID string    `json:"organization_id"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	ChangedAt      time.Time `json:"changed_at"`
}

// MessageCreatedEvent represents a chat message creation event
type MessageCreatedEvent struct {
	BaseEvent
	Data MessageCreatedData `json:"data"`
}

type MessageCreatedData struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SentAt         time.Time `json:"sent_at"`
}

// PaymentStatusEvent represents a payment status transition applied from a webhook
type PaymentStatusEvent struct {
	BaseEvent
	Data PaymentStatusData `json:"data"`
}

type PaymentStatusData struct {
	PaymentID             string    `json:"payment_id"`
	BookingID             string    `json:"booking_id,omitempty"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id"`
	OldStatus             string    `json:"old_status"`
	NewStatus             string    `json:"new_status"`
	Amount                string    `json:"amount"`
	Currency              string    `json:"currency"`
	ChangedAt             time.Time `json:"changed_at"`
}

// BookingStatusEvent represents a booking status transition
type BookingStatusEvent struct {
	BaseEvent
	Data BookingStatusData `json:"data"`
}

type BookingStatusData struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     fmt.Sprintf("%d", time.Now().UnixNano()),
		Timestamp:   time.Now().UTC(),
		ServiceName: "marketplace-service",
	}
}
