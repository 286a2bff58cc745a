package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/mycelium-platform/mycelium/internal/webhook"
)

// WebHookService registers and removes delivery targets (spec §4.7's
// "webhook registration" use case, operated on by the outbox worker in
// internal/webhook). The HttpSecret is encrypted at rest with the same
// SecretBox used for TOTP secrets (spec §4.3).
type WebHookService struct {
	registration ports.WebHookRegistration
	deletion     ports.WebHookDeletion
	box          *cryptox.SecretBox
	audit        audit.AuditLogger
}

func NewWebHookService(registration ports.WebHookRegistration, deletion ports.WebHookDeletion, box *cryptox.SecretBox, auditLogger audit.AuditLogger) *WebHookService {
	return &WebHookService{registration: registration, deletion: deletion, box: box, audit: auditLogger}
}

// RegisterInput is the request shape for Register.
type RegisterInput struct {
	ActorID     uuid.UUID
	Name        string
	Description *string
	URL         string
	Trigger     domain.WebHookTrigger
	Secret      *domain.HttpSecret // plaintext; encrypted before persisting
}

func (s *WebHookService) Register(ctx context.Context, in RegisterInput) (domain.WebHook, *domain.MappedError) {
	hook := domain.WebHook{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		URL:         in.URL,
		Trigger:     in.Trigger,
		IsActive:    true,
		Created:     time.Now().UTC(),
		Updated:     time.Now().UTC(),
	}

	if in.Secret != nil {
		plain, err := webhook.EncodeSecretJSON(*in.Secret)
		if err != nil {
			return domain.WebHook{}, domain.CreationErr(false, "failed to encode webhook secret: %v", err)
		}
		enc, err := s.box.Encrypt(plain)
		if err != nil {
			return domain.WebHook{}, domain.CreationErr(false, "failed to encrypt webhook secret: %v", err)
		}
		hook.SecretEnc = &enc
	}

	result, mErr := s.registration.Create(ctx, hook)
	if mErr != nil {
		return domain.WebHook{}, mErr
	}
	if !result.Created {
		return domain.WebHook{}, domain.CreationErr(true, "webhook could not be registered: %s", result.Reason)
	}

	s.audit.Log(ctx, in.ActorID, audit.EventWebHookRegistered, result.Record.ID.String(), map[string]string{
		"trigger": string(in.Trigger),
		"url":     in.URL,
	})
	return result.Record, nil
}

func (s *WebHookService) Unregister(ctx context.Context, actorID, hookID uuid.UUID) *domain.MappedError {
	result, mErr := s.deletion.Delete(ctx, hookID)
	if mErr != nil {
		return mErr
	}
	if !result.Deleted {
		return domain.DeletionErr(true, "webhook could not be removed: %s", result.Reason)
	}
	return nil
}
