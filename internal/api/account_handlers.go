package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/api/helpers"
	customMiddleware "github.com/mycelium-platform/mycelium/internal/api/middleware"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/usecase"

	"github.com/go-chi/chi/v5"
)

// resolveActor looks up the gateway-verified caller email against the
// user store to get the uuid.UUID actor ID the C7 services expect,
// since the gateway's trusted headers (spec §4.9) carry an email, not a
// raw user ID.
func (s *Server) resolveActor(r *http.Request) (uuid.UUID, *domain.MappedError) {
	email, err := customMiddleware.GetEmail(r.Context())
	if err != nil {
		return uuid.Nil, domain.ForbiddenErr("authentication required: %v", err)
	}
	result, mErr := s.Users.FetchByEmail(r.Context(), email)
	if mErr != nil {
		return uuid.Nil, mErr
	}
	if !result.Found {
		return uuid.Nil, domain.UserNotFoundErr(email)
	}
	return result.Record.ID, nil
}

type createUserAccountRequest struct {
	Name   string           `json:"name"`
	Slug   string           `json:"slug"`
	Owners []domain.UserRef `json:"owners"`
}

// CreateUserAccount handles POST /api/v1/accounts: a plain "user"
// account type (spec §4.1(a)).
func (s *Server) CreateUserAccount(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req createUserAccountRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, mErr := s.Account.CreateUserAccount(r.Context(), usecase.CreateUserInput{
		ActorID: actorID,
		Name:    req.Name,
		Slug:    req.Slug,
		Owners:  req.Owners,
	})
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, account)
}

type createRoleAssociatedAccountRequest struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	TenantID    uuid.UUID        `json:"tenant_id"`
	ReadRoleID  uuid.UUID        `json:"read_role_id"`
	WriteRoleID uuid.UUID        `json:"write_role_id"`
	RoleName    string           `json:"role_name"`
	Owners      []domain.UserRef `json:"owners"`
}

// CreateRoleAssociatedAccount handles POST /api/v1/accounts/role-associated
// (spec §4.1(a): an account scoped to a tenant, carrying a read-role and
// a write-role).
func (s *Server) CreateRoleAssociatedAccount(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req createRoleAssociatedAccountRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, mErr := s.Account.CreateRoleAssociatedAccount(r.Context(), usecase.CreateRoleAssociatedInput{
		ActorID:     actorID,
		Name:        req.Name,
		Slug:        req.Slug,
		TenantID:    req.TenantID,
		ReadRoleID:  req.ReadRoleID,
		WriteRoleID: req.WriteRoleID,
		RoleName:    req.RoleName,
		Owners:      req.Owners,
	})
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, account)
}

type updateAccountStatusRequest struct {
	Desired domain.VerboseStatus `json:"desired"`
}

// UpdateAccountStatus handles PATCH /api/v1/accounts/{accountID}/status,
// walking the account status lattice (spec §4.1(b)).
func (s *Server) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid accountID")
		return
	}

	var req updateAccountStatusRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, mErr := s.Account.UpdateAccountStatus(r.Context(), actorID, accountID, req.Desired)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, account)
}

// DeleteAccount handles DELETE /api/v1/accounts/{accountID}.
func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid accountID")
		return
	}

	if mErr := s.Account.DeleteAccount(r.Context(), actorID, accountID); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
