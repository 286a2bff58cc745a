package api

import (
	"net/http"

	"github.com/mycelium-platform/mycelium/internal/api/helpers"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// writeMappedError translates a *domain.MappedError into an HTTP
// response, the same Kind-to-status mapping the teacher applied ad hoc
// per handler (http.Error with a hardcoded status) generalized into one
// place since every C7 service returns the same error shape. A
// non-UserVisible error never leaks its Message to the client (spec §7:
// "UserVisible gates whether Message may reach an external caller").
func writeMappedError(w http.ResponseWriter, mErr *domain.MappedError) {
	status := statusForKind(mErr.Kind)
	message := "internal error"
	if mErr.UserVisible {
		message = mErr.Message
	}
	body := map[string]string{"error": message}
	if mErr.Code != nil {
		body["code"] = string(*mErr.Code)
	}
	helpers.RespondJSON(w, status, body)
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindInvalidArgument, domain.KindDto:
		return http.StatusBadRequest
	case domain.KindFetching:
		return http.StatusNotFound
	case domain.KindCreation, domain.KindUpdating, domain.KindDeletion, domain.KindUseCase:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
