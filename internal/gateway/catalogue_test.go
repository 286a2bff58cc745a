package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalogue = `
services:
  - id: svc-1
    name: svc
    host: ["10.0.0.1:8080", "10.0.0.2:8080"]
    protocol: http
    routes:
      - id: users
        service: svc
        security_group:
          kind: Public
        methods: [GET]
        path: users/*
      - id: admin
        service: svc
        security_group:
          kind: ProtectedByPermissionedRoles
          pairs:
            - role: admin
              permission: write
        methods: [POST]
        path: admin
`

func writeCatalogue(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCatalogueFromYAML(t *testing.T) {
	path := writeCatalogue(t, sampleCatalogue)

	cat, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)
	require.Len(t, cat.Services, 1)

	svc, ok := cat.ServiceByName("svc")
	require.True(t, ok)
	assert.Equal(t, []string{"10.0.0.1:8080", "10.0.0.2:8080"}, svc.Host)
	require.Len(t, svc.Routes, 2)
	assert.Equal(t, domain.PermissionWrite, svc.Routes[1].SecurityGroup.Pairs[0].Permission)
}

func TestLoadCatalogueFromYAML_MissingFile(t *testing.T) {
	_, err := LoadCatalogueFromYAML("/no/such/file.yaml")
	assert.Error(t, err)
}

func TestMatchRoute_WildcardMatch(t *testing.T) {
	path := writeCatalogue(t, sampleCatalogue)
	cat, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)
	svc, _ := cat.ServiceByName("svc")

	route, err := MatchRoute(svc, "GET", "users/42")
	require.NoError(t, err)
	assert.Equal(t, "users", route.ID)
}

func TestMatchRoute_MethodNotAllowed(t *testing.T) {
	path := writeCatalogue(t, sampleCatalogue)
	cat, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)
	svc, _ := cat.ServiceByName("svc")

	_, err = MatchRoute(svc, "POST", "users/42")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestMatchRoute_NoMatch(t *testing.T) {
	path := writeCatalogue(t, sampleCatalogue)
	cat, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)
	svc, _ := cat.ServiceByName("svc")

	_, err = MatchRoute(svc, "GET", "nope")
	assert.ErrorIs(t, err, ErrNoRouteMatch)
}

func TestMatchRoute_Conflict(t *testing.T) {
	svc := Service{
		Routes: []Route{
			{ID: "a", Path: "users/*", Methods: []string{"All"}},
			{ID: "b", Path: "users/42", Methods: []string{"All"}},
		},
	}

	_, err := MatchRoute(svc, "GET", "users/42")
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, conflict.Routes, 2)
}

func TestMatchRoute_NoneDisablesRoute(t *testing.T) {
	svc := Service{
		Routes: []Route{
			{ID: "a", Path: "users/*", Methods: []string{"None"}},
		},
	}

	_, err := MatchRoute(svc, "GET", "users/42")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestPathMatches_ExactRequiresFullMatch(t *testing.T) {
	assert.True(t, pathMatches("admin", "admin"))
	assert.False(t, pathMatches("admin", "admin/sub"))
}
