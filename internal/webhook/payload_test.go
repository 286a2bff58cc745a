package webhook

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArtifact_EncodesPayloadAsBase64JSON(t *testing.T) {
	type dto struct {
		Name string `json:"name"`
	}

	artifact, err := BuildArtifact(domain.TriggerUserAccountCreated, dto{Name: "ada"})
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactPending, artifact.Status)
	assert.NotEqual(t, uuid.Nil, artifact.ID)

	raw, err := base64.StdEncoding.DecodeString(artifact.PayloadB64)
	require.NoError(t, err)

	var decoded dto
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ada", decoded.Name)
}
