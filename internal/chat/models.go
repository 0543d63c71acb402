package chat

import "time"

// Conversation groups messages between a fixed set of participants
type Conversation struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject,omitempty"`
	ListingID string    `json:"listing_id,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participant links a user to a conversation
type Participant struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Message is a single chat message
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReadReceipt records that a user has read a message
type ReadReceipt struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// CreateConversationRequest represents the request to open a conversation.
// The creator is always included as a participant.
type CreateConversationRequest struct {
	Subject        string   `json:"subject,omitempty"`
	ListingID      string   `json:"listing_id,omitempty"`
	ParticipantIDs []string `json:"participant_ids"`
}

// SendMessageRequest represents the request to post a message
type SendMessageRequest struct {
	Body string `json:"body"`
}

// MessagesPage is a windowed slice of a conversation's messages
type MessagesPage struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
}
