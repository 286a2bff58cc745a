package api

import (
	"net/http"

	"github.com/mycelium-platform/mycelium/internal/api/helpers"
)

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword handles PUT /api/v1/password (spec §4.7
// PasswordService.Change).
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req changePasswordRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if mErr := s.Pass.Change(r.Context(), actorID, req.OldPassword, req.NewPassword); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
