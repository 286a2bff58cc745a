package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/api/helpers"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type registerWebHookRequest struct {
	Name        string                `json:"name"`
	Description *string               `json:"description"`
	URL         string                `json:"url"`
	Trigger     domain.WebHookTrigger `json:"trigger"`
	Secret      *domain.HttpSecret    `json:"secret"`
}

// RegisterWebHook handles POST /api/v1/webhooks (spec §4.8
// WebHookService.Register).
func (s *Server) RegisterWebHook(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req registerWebHookRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hook, mErr := s.Hook.Register(r.Context(), usecase.RegisterInput{
		ActorID:     actorID,
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		Trigger:     req.Trigger,
		Secret:      req.Secret,
	})
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, hook)
}

// UnregisterWebHook handles DELETE /api/v1/webhooks/{hookID}.
func (s *Server) UnregisterWebHook(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	hookID, err := uuid.Parse(chi.URLParam(r, "hookID"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid hookID")
		return
	}

	if mErr := s.Hook.Unregister(r.Context(), actorID, hookID); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
