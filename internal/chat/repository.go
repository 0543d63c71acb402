package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/nestspace/marketplace-service/internal/pagination"
)

// Repository handles database operations for conversations and messages
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new chat repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateConversation inserts a conversation and its participants in one
// transaction. Duplicate participant IDs are absorbed by ON CONFLICT.
func (r *Repository) CreateConversation(ctx context.Context, creatorID string, req CreateConversationRequest) (*Conversation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	query := `
		INSERT INTO marketplace.conversations (id, subject, listing_id, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, COALESCE(subject, ''), COALESCE(listing_id::text, ''), created_by, created_at, updated_at`

	var conv Conversation
	err = tx.QueryRowContext(ctx, query, id, nullable(req.Subject), nullable(req.ListingID), creatorID).Scan(
		&conv.ID, &conv.Subject, &conv.ListingID, &conv.CreatedBy, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	participantQuery := `
		INSERT INTO marketplace.conversation_participants (conversation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING`

	members := append([]string{creatorID}, req.ParticipantIDs...)
	for _, userID := range members {
		if _, err := tx.ExecContext(ctx, participantQuery, conv.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to add participant %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit conversation: %w", err)
	}

	return &conv, nil
}

// GetConversation retrieves a conversation by ID
func (r *Repository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, COALESCE(subject, ''), COALESCE(listing_id::text, ''), created_by, created_at, updated_at
		FROM marketplace.conversations
		WHERE id = $1`

	var conv Conversation
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID, &conv.Subject, &conv.ListingID, &conv.CreatedBy, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations retrieves the conversations the user participates in,
// most recently active first
func (r *Repository) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	query := `
		SELECT c.id, COALESCE(c.subject, ''), COALESCE(c.listing_id::text, ''), c.created_by, c.created_at, c.updated_at
		FROM marketplace.conversations c
		JOIN marketplace.conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.Subject, &conv.ListingID, &conv.CreatedBy, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return convs, nil
}

// IsParticipant reports whether the user belongs to the conversation
func (r *Repository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM marketplace.conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// ListParticipants retrieves the participants of a conversation
func (r *Repository) ListParticipants(ctx context.Context, conversationID string) ([]Participant, error) {
	query := `
		SELECT conversation_id, user_id, joined_at
		FROM marketplace.conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ConversationID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// CreateMessage inserts a message and bumps the conversation's updated_at
func (r *Repository) CreateMessage(ctx context.Context, conversationID, senderID, body string) (*Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	query := `
		INSERT INTO marketplace.messages (id, conversation_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, sender_id, body, created_at`

	var m Message
	err = tx.QueryRowContext(ctx, query, id, conversationID, senderID, body).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	touch := `UPDATE marketplace.conversations SET updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touch, conversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return &m, nil
}

// GetMessage retrieves a message by ID
func (r *Repository) GetMessage(ctx context.Context, id string) (*Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, body, created_at
		FROM marketplace.messages
		WHERE id = $1`

	var m Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &m, nil
}

// ListMessages retrieves a window of messages, newest first. One extra row is
// fetched so the caller can detect whether more remain.
func (r *Repository) ListMessages(ctx context.Context, conversationID string, window pagination.Window) ([]Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, body, created_at
		FROM marketplace.messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, conversationID, window.FetchLimit(), window.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// UpsertReadReceipt records that the user read the message. Re-reading
// refreshes the timestamp.
func (r *Repository) UpsertReadReceipt(ctx context.Context, messageID, userID string) (*ReadReceipt, error) {
	query := `
		INSERT INTO marketplace.message_read_receipts (message_id, user_id, read_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (message_id, user_id) DO UPDATE SET read_at = NOW()
		RETURNING message_id, user_id, read_at`

	var receipt ReadReceipt
	err := r.db.QueryRowContext(ctx, query, messageID, userID).Scan(
		&receipt.MessageID, &receipt.UserID, &receipt.ReadAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert read receipt: %w", err)
	}

	return &receipt, nil
}

// ListReadReceipts retrieves the read receipts for a message
func (r *Repository) ListReadReceipts(ctx context.Context, messageID string) ([]ReadReceipt, error) {
	query := `
		SELECT message_id, user_id, read_at
		FROM marketplace.message_read_receipts
		WHERE message_id = $1
		ORDER BY read_at ASC`

	rows, err := r.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list read receipts: %w", err)
	}
	defer rows.Close()

	receipts := []ReadReceipt{}
	for rows.Next() {
		var receipt ReadReceipt
		if err := rows.Scan(&receipt.MessageID, &receipt.UserID, &receipt.ReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan read receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate read receipts: %w", err)
	}

	return receipts, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
