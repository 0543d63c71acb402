package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nestspace/marketplace-service/internal/auth"
	"github.com/nestspace/marketplace-service/internal/pagination"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message,omitempty"`
	Conversation  *Conversation  `json:"conversation,omitempty"`
	Conversations []Conversation `json:"conversations,omitempty"`
	Participants  []Participant  `json:"participants,omitempty"`
	ChatMessage   *Message       `json:"chat_message,omitempty"`
	Receipt       *ReadReceipt   `json:"receipt,omitempty"`
	Receipts      []ReadReceipt  `json:"receipts,omitempty"`
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	conv, err := h.service.CreateConversation(r.Context(), principal.UserID, req)
	if err != nil {
		if errors.Is(err, ErrNoParticipants) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "creation_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success:      true,
		Message:      "Conversation created successfully",
		Conversation: conv,
	})
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	convs, err := h.service.ListConversations(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Conversations: convs})
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]

	conv, err := h.service.GetConversation(r.Context(), principal.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Conversation not found")
		case errors.Is(err, ErrNotParticipant):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Conversation: conv})
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	conversationID := vars["id"]

	participants, err := h.service.ListParticipants(r.Context(), principal.UserID, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Participants: participants})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	conversationID := vars["id"]

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	msg, err := h.service.SendMessage(r.Context(), principal.UserID, conversationID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyBody):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrNotParticipant):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "send_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success:     true,
		Message:     "Message sent",
		ChatMessage: msg,
	})
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	conversationID := vars["id"]
	window := pagination.ParseWindow(r)

	messages, hasMore, err := h.service.ListMessages(r.Context(), principal.UserID, conversationID, window)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessagesPage{
		Success:  true,
		Messages: messages,
		HasMore:  hasMore,
		Offset:   window.Offset,
		Limit:    window.Limit,
	})
}

func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	messageID := vars["messageId"]

	receipt, err := h.service.MarkMessageRead(r.Context(), principal.UserID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMessageNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Message not found")
		case errors.Is(err, ErrOwnMessageRead):
			respondError(w, http.StatusBadRequest, "own_message", err.Error())
		case errors.Is(err, ErrNotParticipant):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "read_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Message marked as read",
		Receipt: receipt,
	})
}

func (h *Handler) ListReadReceipts(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	messageID := vars["messageId"]

	receipts, err := h.service.ListReadReceipts(r.Context(), principal.UserID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMessageNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Message not found")
		case errors.Is(err, ErrNotParticipant):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Receipts: receipts})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
