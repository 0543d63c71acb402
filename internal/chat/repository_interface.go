package chat

import (
	"context"

	"github.com/nestspace/marketplace-service/internal/pagination"
)

// RepositoryInterface defines the contract for chat data access
type RepositoryInterface interface {
	CreateConversation(ctx context.Context, creatorID string, req CreateConversationRequest) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListParticipants(ctx context.Context, conversationID string) ([]Participant, error)

	CreateMessage(ctx context.Context, conversationID, senderID, body string) (*Message, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListMessages(ctx context.Context, conversationID string, window pagination.Window) ([]Message, error)

	UpsertReadReceipt(ctx context.Context, messageID, userID string) (*ReadReceipt, error)
	ListReadReceipts(ctx context.Context, messageID string) ([]ReadReceipt, error)
}

var _ RepositoryInterface = (*Repository)(nil)
