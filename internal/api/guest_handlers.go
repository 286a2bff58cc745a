package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/api/helpers"
)

type guestUserRequest struct {
	Email     string    `json:"email"`
	RoleID    uuid.UUID `json:"role_id"`
	AccountID uuid.UUID `json:"account_id"`
	InviteURL string    `json:"invite_url"`
}

// GuestUser handles POST /api/v1/guests: grants a guest role on an
// account to an email (spec §4.7 GuestService.GuestUser).
func (s *Server) GuestUser(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req guestUserRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if mErr := s.Guest.GuestUser(r.Context(), actorID, req.Email, req.RoleID, req.AccountID, req.InviteURL); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type revokeGuestRequest struct {
	Email     string    `json:"email"`
	RoleID    uuid.UUID `json:"role_id"`
	AccountID uuid.UUID `json:"account_id"`
}

// RevokeGuest handles DELETE /api/v1/guests.
func (s *Server) RevokeGuest(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req revokeGuestRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if mErr := s.Guest.RevokeGuest(r.Context(), actorID, req.Email, req.RoleID, req.AccountID); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
