package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/pagination"
)

// Service handles business logic for conversations and messages.
// Every read and write is gated on the caller's participation.
type Service struct {
	repo      RepositoryInterface
	publisher events.PublisherInterface
}

// NewService creates a new chat service
func NewService(repo RepositoryInterface, publisher events.PublisherInterface) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// CreateConversation opens a conversation with the caller and the given
// participants
func (s *Service) CreateConversation(ctx context.Context, callerID string, req CreateConversationRequest) (*Conversation, error) {
	others := 0
	for _, id := range req.ParticipantIDs {
		if id != "" && id != callerID {
			others++
		}
	}
	if others == 0 {
		return nil, ErrNoParticipants
	}

	return s.repo.CreateConversation(ctx, callerID, req)
}

// ListConversations retrieves the caller's conversations
func (s *Service) ListConversations(ctx context.Context, callerID string) ([]Conversation, error) {
	return s.repo.ListConversations(ctx, callerID)
}

// GetConversation retrieves a conversation the caller participates in
func (s *Service) GetConversation(ctx context.Context, callerID, id string) (*Conversation, error) {
	if err := s.requireParticipant(ctx, id, callerID); err != nil {
		return nil, err
	}
	return s.repo.GetConversation(ctx, id)
}

// ListParticipants retrieves the participants of a conversation the caller
// belongs to
func (s *Service) ListParticipants(ctx context.Context, callerID, conversationID string) ([]Participant, error) {
	if err := s.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, conversationID)
}

// SendMessage posts a message to a conversation the caller participates in
func (s *Service) SendMessage(ctx context.Context, callerID, conversationID string, req SendMessageRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	if err := s.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}

	msg, err := s.repo.CreateMessage(ctx, conversationID, callerID, body)
	if err != nil {
		return nil, err
	}

	event := events.MessageCreatedEvent{
		BaseEvent: events.NewBaseEvent(events.EventMessageCreated),
		Data: events.MessageCreatedData{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			SentAt:         time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, events.EventMessageCreated, event); err != nil {
		log.Printf("Warning: failed to publish message.created event for %s: %v", msg.ID, err)
	}

	return msg, nil
}

// ListMessages retrieves a window of a conversation's messages, newest first,
// and reports whether older messages remain
func (s *Service) ListMessages(ctx context.Context, callerID, conversationID string, window pagination.Window) ([]Message, bool, error) {
	if err := s.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, false, err
	}

	rows, err := s.repo.ListMessages(ctx, conversationID, window)
	if err != nil {
		return nil, false, err
	}

	messages, hasMore := pagination.Trim(rows, window.Limit)
	return messages, hasMore, nil
}

// MarkMessageRead records a read receipt for the caller. Senders cannot mark
// their own messages as read.
func (s *Service) MarkMessageRead(ctx context.Context, callerID, messageID string) (*ReadReceipt, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == callerID {
		return nil, ErrOwnMessageRead
	}

	if err := s.requireParticipant(ctx, msg.ConversationID, callerID); err != nil {
		return nil, err
	}

	return s.repo.UpsertReadReceipt(ctx, messageID, callerID)
}

// ListReadReceipts retrieves the read receipts for a message in a
// conversation the caller belongs to
func (s *Service) ListReadReceipts(ctx context.Context, callerID, messageID string) ([]ReadReceipt, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := s.requireParticipant(ctx, msg.ConversationID, callerID); err != nil {
		return nil, err
	}

	return s.repo.ListReadReceipts(ctx, messageID)
}

func (s *Service) requireParticipant(ctx context.Context, conversationID, userID string) error {
	ok, err := s.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}
