package listing

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
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Listing *Listing `json:"listing,omitempty"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	l, err := h.service.CreateListing(r.Context(), principal.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingOrg), errors.Is(err, ErrMissingCategory),
			errors.Is(err, ErrMissingTitle), errors.Is(err, ErrInvalidPrice),
			errors.Is(err, ErrInvalidCurrency):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrUnknownCategory):
			respondError(w, http.StatusBadRequest, "unknown_category", err.Error())
		case errors.Is(err, ErrNotMember):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "creation_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Listing created successfully",
		Listing: l,
	})
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Listing ID is required")
		return
	}

	var callerID string
	if principal, ok := auth.FromContext(r.Context()); ok {
		callerID = principal.UserID
	}

	l, err := h.service.GetListing(r.Context(), callerID, id)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Listing not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Listing: l})
}

// ListListings supports search, status, category, city and organization filters.
// Unauthenticated callers only see published listings.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r)
	params.Validate()

	q := r.URL.Query()
	filter := Filter{
		OrganizationID: q.Get("organization_id"),
		CategoryID:     q.Get("category_id"),
		Search:         q.Get("search"),
		Status:         q.Get("status"),
		City:           q.Get("city"),
	}

	var callerID string
	if principal, ok := auth.FromContext(r.Context()); ok {
		callerID = principal.UserID
	}

	listings, total, err := h.service.ListListings(r.Context(), callerID, filter, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrMemberOnlyStatus):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrNotMember):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PaginatedListResponse{
		Success:    true,
		Listings:   listings,
		Pagination: params.CalculateMeta(total),
	})
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Listing ID is required")
		return
	}

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	l, err := h.service.UpdateListing(r.Context(), principal.UserID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrListingNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Listing not found")
		case errors.Is(err, ErrNotMember):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, ErrMissingTitle), errors.Is(err, ErrInvalidPrice),
			errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNoFields):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrUnknownCategory):
			respondError(w, http.StatusBadRequest, "unknown_category", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "update_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Listing updated successfully",
		Listing: l,
	})
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Listing ID is required")
		return
	}

	if err := h.service.DeleteListing(r.Context(), principal.UserID, id); err != nil {
		switch {
		case errors.Is(err, ErrListingNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Listing not found")
		case errors.Is(err, ErrNotMember):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, ErrListingHasBookings):
			respondError(w, http.StatusBadRequest, "listing_in_use", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "deletion_failed", err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
