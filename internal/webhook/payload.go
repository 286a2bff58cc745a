package webhook

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// BuildArtifact JSON-serialises dto and base64-wraps it into a pending
// outbox row (spec §4.8 "Payload": full account/guest DTO, JSON then
// base64 for opaque transport). Callers append the result inside the
// same transaction as the business write (spec §4.7 step (e)).
func BuildArtifact(trigger domain.WebHookTrigger, dto any) (domain.WebHookPayloadArtifact, error) {
	raw, err := json.Marshal(dto)
	if err != nil {
		return domain.WebHookPayloadArtifact{}, fmt.Errorf("failed to serialise webhook payload: %w", err)
	}
	return domain.WebHookPayloadArtifact{
		ID:         uuid.New(),
		PayloadB64: base64.StdEncoding.EncodeToString(raw),
		Trigger:    trigger,
		Status:     domain.ArtifactPending,
	}, nil
}
