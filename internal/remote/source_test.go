package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

const statusDoc = `{
	"cluster": {"name": "production", "alias": "Production", "quorate": true, "votes": 3, "min_quorum": 2},
	"nodes": [
		{"name": "node01", "state": "member", "clustered": true, "votes": 1},
		{"name": "node02", "state": "dead", "clustered": false, "votes": 1},
		{"name": "node03", "state": "weird", "clustered": false, "votes": 1}
	],
	"services": [
		{"name": "webserver", "state": "started", "owner": "node01", "autostart": true, "restart_count": 2, "last_transition": 1724600000},
		{"name": "database", "state": "recovering", "last_owner": "node02"}
	]
}`

func statusServer(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/cluster/status", r.URL.Path)
		_, _ = w.Write([]byte(doc))
	}))
}

// TestSource_Fetch tests parsing of a full status document
func TestSource_Fetch(t *testing.T) {
	server := statusServer(t, statusDoc)
	defer server.Close()

	source, err := NewSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	snap, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "production", snap.Cluster.Name)
	assert.Equal(t, "Production", snap.Cluster.Alias)
	assert.True(t, snap.Cluster.Quorate)
	assert.Equal(t, 3, snap.Cluster.Votes)
	assert.Equal(t, 2, snap.Cluster.MinQuorum)
	assert.False(t, snap.Taken.IsZero())

	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, types.NodeStateMember, snap.Nodes[0].State)
	assert.True(t, snap.Nodes[0].Clustered)
	assert.Equal(t, types.NodeStateDead, snap.Nodes[1].State)
	assert.Equal(t, types.NodeStateUnknown, snap.Nodes[2].State, "unrecognized states map to unknown")

	require.Len(t, snap.Services, 2)
	web := snap.Services[0]
	assert.Equal(t, types.ServiceStateStarted, web.State)
	assert.Equal(t, "node01", web.Owner)
	assert.Equal(t, 2, web.RestartCount)
	assert.Equal(t, time.Unix(1724600000, 0), web.LastTransition)

	db := snap.Services[1]
	assert.Equal(t, types.ServiceStateRecovering, db.State)
	assert.Equal(t, "node02", db.LastOwner)
	assert.True(t, db.LastTransition.IsZero())
}

// TestSource_Fetch_InvalidJSON tests rejection of malformed documents
func TestSource_Fetch_InvalidJSON(t *testing.T) {
	server := statusServer(t, "{not json")
	defer server.Close()

	source, err := NewSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

// TestSource_Fetch_MissingClusterName tests rejection of empty documents
func TestSource_Fetch_MissingClusterName(t *testing.T) {
	server := statusServer(t, `{"nodes": []}`)
	defer server.Close()

	source, err := NewSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cluster name")
}

// TestSource_Fetch_Unreachable tests the unavailable error classification
func TestSource_Fetch_Unreachable(t *testing.T) {
	source, err := NewSource(Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	require.Error(t, err)

	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrCodeUnavailable, pe.Code)
}

// TestSource_Fetch_OAuth tests that client credentials produce bearer tokens
func TestSource_Fetch_OAuth(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(statusDoc))
	}))
	defer server.Close()

	source, err := NewSource(Config{
		BaseURL:      server.URL,
		ClientID:     "provider",
		ClientSecret: "secret",
		TokenURL:     tokenServer.URL + "/token",
	})
	require.NoError(t, err)

	snap, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "production", snap.Cluster.Name)
}

// TestNewSource_Validation tests constructor parameter checks
func TestNewSource_Validation(t *testing.T) {
	_, err := NewSource(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")

	_, err = NewSource(Config{BaseURL: "http://localhost", ClientID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token URL is required")
}
