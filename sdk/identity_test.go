package sdk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIdentity(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIdentityLoader_Load(t *testing.T) {
	t.Run("success - valid identity file", func(t *testing.T) {
		path := writeIdentity(t, `
identity:
  id: "client-1"
  api_endpoint: "https://api.timeherenow.com:8443"
  webhook_url: "https://demo.example.com:3444/webhook"
  jwt_duration: 3600
  max_requests: 100
  maxrq_window: 60
  permissioned_routes: '{"entities":{"/api/timezone":{},"/api/ip":{}}}'
`)

		loader := sdk.NewIdentityLoader()
		require.NoError(t, loader.Load(path))

		id, err := loader.Identity()
		require.NoError(t, err)
		assert.Equal(t, "client-1", id.ID)
		assert.Equal(t, "https://demo.example.com:3444/webhook", id.WebhookURL)
		assert.Equal(t, 3600, id.JWTDuration)
		assert.Equal(t, 60, id.MaxRequestsWindow)

		n, err := id.PermissionedRouteCount()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("missing file", func(t *testing.T) {
		err := sdk.NewIdentityLoader().Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		err := sdk.NewIdentityLoader().Load(writeIdentity(t, "identity: ["))
		assert.Error(t, err)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		err := sdk.NewIdentityLoader().Load(writeIdentity(t, "identity:\n  id: x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_endpoint")
	})

	t.Run("not loaded", func(t *testing.T) {
		_, err := sdk.NewIdentityLoader().Identity()
		assert.Error(t, err)
	})
}

func TestIdentity_Validate(t *testing.T) {
	base := sdk.Identity{ID: "c", APIEndpoint: "https://api.example.com"}

	tests := []struct {
		name    string
		mutate  func(*sdk.Identity)
		wantErr bool
	}{
		{"valid", func(*sdk.Identity) {}, false},
		{"empty id", func(i *sdk.Identity) { i.ID = "" }, true},
		{"negative jwt duration", func(i *sdk.Identity) { i.JWTDuration = -1 }, true},
		{"negative rate limit", func(i *sdk.Identity) { i.MaxRequests = -5 }, true},
		{"bad permissions json", func(i *sdk.Identity) { i.PermissionedRoutes = "{" }, true},
		{"empty permissions", func(i *sdk.Identity) { i.PermissionedRoutes = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := base
			tt.mutate(&id)
			err := id.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
