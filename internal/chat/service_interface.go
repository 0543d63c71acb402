package chat

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// ServiceInterface defines the contract for chat business logic
type ServiceInterface interface {
	CreateConversation(ctx context.Context, callerID string, req CreateConversationRequest) (*Conversation, error)
	ListConversations(ctx context.Context, callerID string) ([]Conversation, error)
	GetConversation(ctx context.Context, callerID, id string) (*Conversation, error)
	ListParticipants(ctx context.Context, callerID, conversationID string) ([]Participant, error)

	SendMessage(ctx context.Context, callerID, conversationID string, req SendMessageRequest) (*Message, error)
	ListMessages(ctx context.Context, callerID, conversationID string, window pagination.Window) ([]Message, bool, error)

	MarkMessageRead(ctx context.Context, callerID, messageID string) (*ReadReceipt, error)
	ListReadReceipts(ctx context.Context, callerID, messageID string) ([]ReadReceipt, error)
}

var _ ServiceInterface = (*Service)(nil)
