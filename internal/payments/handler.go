package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nestspace/marketplace-service/internal/auth"
	"github.com/nestspace/marketplace-service/internal/listing"
)

// maxWebhookBody caps webhook payloads, matching Stripe's own limit
const maxWebhookBody = 65536

type Handler struct {
	service ServiceInterface
	webhook *WebhookService
}

func NewHandler(service ServiceInterface, webhook *WebhookService) *Handler {
	return &Handler{service: service, webhook: webhook}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Booking  *Booking  `json:"booking,omitempty"`
	Bookings []Booking `json:"bookings,omitempty"`
	Payment  *Payment  `json:"payment,omitempty"`
}

type createBookingResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message,omitempty"`
	Booking      *Booking `json:"booking"`
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	result, err := h.service.CreateBooking(r.Context(), principal.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingListing), errors.Is(err, ErrInvalidDates), errors.Is(err, ErrInvalidDateFormat):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, listing.ErrListingNotFound):
			respondError(w, http.StatusNotFound, "listing_not_found", err.Error())
		case errors.Is(err, ErrListingNotOpen):
			respondError(w, http.StatusBadRequest, "listing_not_open", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "booking_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createBookingResponse{
		Success:      true,
		Message:      "Booking created successfully",
		Booking:      result.Booking,
		Payment:      result.Payment,
		ClientSecret: result.ClientSecret,
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]

	booking, err := h.service.GetBooking(r.Context(), principal.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Booking not found")
		case errors.Is(err, ErrNotRenter):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Booking: booking})
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	bookings, err := h.service.ListMyBookings(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Bookings: bookings})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]

	booking, err := h.service.CancelBooking(r.Context(), principal.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Booking not found")
		case errors.Is(err, ErrNotRenter):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, ErrNotCancelable):
			respondError(w, http.StatusBadRequest, "not_cancelable", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "cancel_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Booking canceled",
		Booking: booking,
	})
}

func (h *Handler) GetBookingPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	bookingID := vars["id"]

	payment, err := h.service.GetPaymentForBooking(r.Context(), principal.UserID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrPaymentNotFound):
			respondError(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, ErrNotRenter):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Payment: payment})
}

// StripeWebhook receives Stripe deliveries. It reads the raw body before any
// JSON decoding because signature verification runs over the exact bytes.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")

	if err := h.webhook.HandleDelivery(r.Context(), payload, sigHeader); err != nil {
		if errors.Is(err, ErrSignature) {
			respondError(w, http.StatusBadRequest, "invalid_signature", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "webhook_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
