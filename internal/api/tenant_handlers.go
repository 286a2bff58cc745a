package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/api/helpers"

	"github.com/go-chi/chi/v5"
)

type createTenantRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CreateTenant handles POST /api/v1/tenants, owned by the caller.
func (s *Server) CreateTenant(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req createTenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, mErr := s.Tenant.CreateTenant(r.Context(), actorID, req.Name, req.Description)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, tenant)
}

// RegisterTenantOwner handles POST /api/v1/tenants/{tenantID}/owners/{userID}.
func (s *Server) RegisterTenantOwner(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid tenantID")
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid userID")
		return
	}

	tenant, mErr := s.Tenant.RegisterOwner(r.Context(), actorID, tenantID, userID)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, tenant)
}

// DeleteTenant handles DELETE /api/v1/tenants/{tenantID}.
func (s *Server) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid tenantID")
		return
	}

	if mErr := s.Tenant.DeleteTenant(r.Context(), actorID, tenantID); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
