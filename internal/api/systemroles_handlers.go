package api

import "net/http"

// SeedSystemRoles handles POST /api/v1/system-roles/seed: idempotently
// creates the built-in guest roles (spec §4.7
// SystemRolesService.Seed), an operator bootstrap action with no
// per-tenant scope.
func (s *Server) SeedSystemRoles(w http.ResponseWriter, r *http.Request) {
	if mErr := s.Roles.Seed(r.Context()); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
