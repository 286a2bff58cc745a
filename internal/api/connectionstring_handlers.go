package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/api/helpers"
	customMiddleware "github.com/mycelium-platform/mycelium/internal/api/middleware"
)

// ListMyConnectionStrings handles GET /api/v1/connection-strings (spec
// §4.5/§4.7 ConnectionStringService.ListMine): renders one signed
// connection string per licensed resource the caller currently holds.
// Optional query params: tenant_id, role (repeatable), verified_only.
func (s *Server) ListMyConnectionStrings(w http.ResponseWriter, r *http.Request) {
	email, err := customMiddleware.GetEmail(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var tenantID *uuid.UUID
	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			helpers.RespondError(w, http.StatusBadRequest, "invalid tenant_id")
			return
		}
		tenantID = &id
	}

	var roles []string
	if raw := r.URL.Query().Get("role"); raw != "" {
		roles = strings.Split(raw, ",")
	}
	verifiedOnly := r.URL.Query().Get("verified_only") == "true"

	strs, mErr := s.ConnStr.ListMine(r.Context(), email, tenantID, roles, verifiedOnly)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string][]string{"connection_strings": strs})
}
