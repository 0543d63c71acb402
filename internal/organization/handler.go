package organization

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
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	Member       *Member       `json:"member,omitempty"`
	Members      []Member      `json:"members,omitempty"`
	Invitation   *Invitation   `json:"invitation,omitempty"`
	Invitations  []Invitation  `json:"invitations,omitempty"`
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	org, err := h.service.CreateOrganization(r.Context(), principal.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingEmail):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrNameTaken):
			respondError(w, http.StatusBadRequest, "name_taken", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "creation_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success:      true,
		Message:      "Organization created successfully",
		Organization: org,
	})
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r)
	params.Validate()

	orgs, total, err := h.service.ListOrganizations(r.Context(), params)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PaginatedListResponse{
		Success:       true,
		Organizations: orgs,
		Pagination:    params.CalculateMeta(total),
	})
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Organization ID is required")
		return
	}

	org, err := h.service.GetOrganization(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrgNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Organization not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Organization: org})
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]

	var req UpdateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	org, err := h.service.UpdateOrganization(r.Context(), principal.UserID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrgNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Organization not found")
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, ErrMissingName), errors.Is(err, ErrNoFields):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrNameTaken):
			respondError(w, http.StatusBadRequest, "name_taken", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "update_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success:      true,
		Message:      "Organization updated successfully",
		Organization: org,
	})
}

func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]

	if err := h.service.DeleteOrganization(r.Context(), principal.UserID, id); err != nil {
		switch {
		case errors.Is(err, ErrOrgNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Organization not found")
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "deletion_failed", err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	orgID := vars["id"]

	members, err := h.service.ListMembers(r.Context(), principal.UserID, orgID)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Members: members})
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	orgID := vars["id"]
	userID := vars["userId"]

	if err := h.service.RemoveMember(r.Context(), principal.UserID, orgID, userID); err != nil {
		switch {
		case errors.Is(err, ErrMemberNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Member not found")
		case errors.Is(err, ErrOwnerRemoval):
			respondError(w, http.StatusBadRequest, "owner_removal", err.Error())
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "removal_failed", err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	orgID := vars["id"]
	userID := vars["userId"]

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	member, err := h.service.ChangeMemberRole(r.Context(), principal.UserID, orgID, userID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrMemberNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Member not found")
		case errors.Is(err, ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrOwnerDemotion):
			respondError(w, http.StatusBadRequest, "owner_demotion", err.Error())
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "update_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Member role updated successfully",
		Member:  member,
	})
}

func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	orgID := vars["id"]

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	inv, err := h.service.InviteMember(r.Context(), principal.UserID, orgID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrgNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Organization not found")
		case errors.Is(err, ErrMissingEmail), errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInviteOwnerRole):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrUserNotRegistered):
			respondError(w, http.StatusNotFound, "user_not_found", err.Error())
		case errors.Is(err, ErrAlreadyMember):
			respondError(w, http.StatusBadRequest, "already_member", err.Error())
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "invite_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SuccessResponse{
		Success:    true,
		Message:    "Invitation sent successfully",
		Invitation: inv,
	})
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	orgID := vars["id"]

	invites, err := h.service.ListInvitations(r.Context(), principal.UserID, orgID)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Invitations: invites})
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	inviteID := vars["id"]

	member, err := h.service.AcceptInvitation(r.Context(), principal.UserID, principal.Email, inviteID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Invitation not found")
		case errors.Is(err, ErrInviteResolved):
			respondError(w, http.StatusBadRequest, "invite_resolved", err.Error())
		case errors.Is(err, ErrInviteExpired):
			respondError(w, http.StatusBadRequest, "invite_expired", err.Error())
		case errors.Is(err, ErrInviteWrongUser):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		case errors.Is(err, ErrAlreadyMember):
			respondError(w, http.StatusBadRequest, "already_member", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "accept_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: "Invitation accepted",
		Member:  member,
	})
}

func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	inviteID := vars["id"]

	if err := h.service.DeclineInvitation(r.Context(), principal.Email, inviteID); err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Invitation not found")
		case errors.Is(err, ErrInviteResolved):
			respondError(w, http.StatusBadRequest, "invite_resolved", err.Error())
		case errors.Is(err, ErrInviteWrongUser):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "decline_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Message: "Invitation declined"})
}

func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	inviteID := vars["id"]

	if err := h.service.RevokeInvitation(r.Context(), principal.UserID, inviteID); err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Invitation not found")
		case errors.Is(err, ErrInviteResolved):
			respondError(w, http.StatusBadRequest, "invite_resolved", err.Error())
		case errors.Is(err, ErrNotAuthorized):
			respondError(w, http.StatusForbidden, "forbidden", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "revoke_failed", err.Error())
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
