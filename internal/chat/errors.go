package chat

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("caller is not a participant in this conversation")
	ErrNoParticipants       = errors.New("at least one other participant is required")
	ErrEmptyBody            = errors.New("message body is required")
	ErrOwnMessageRead       = errors.New("cannot mark your own message as read")
)
