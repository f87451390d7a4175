package statusdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// TestParse tests the happy path with a complete document
func TestParse(t *testing.T) {
	doc := `{
		"cluster": {"name": "production", "quorate": true, "votes": 3, "min_quorum": 2},
		"nodes": [{"name": "node01", "state": "member", "clustered": true, "votes": 1}],
		"services": [{"name": "webserver", "state": "started", "owner": "node01", "autostart": true}]
	}`

	snap, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "production", snap.Cluster.Name)
	assert.True(t, snap.Cluster.Quorate)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, types.NodeStateMember, snap.Nodes[0].State)
	require.Len(t, snap.Services, 1)
	assert.True(t, snap.Services[0].Running())
	assert.False(t, snap.Taken.IsZero())
}

// TestParse_MinimalDocument tests that nodes and services are optional
func TestParse_MinimalDocument(t *testing.T) {
	snap, err := Parse([]byte(`{"cluster": {"name": "tiny"}}`))
	require.NoError(t, err)

	assert.Equal(t, "tiny", snap.Cluster.Name)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Services)
}

// TestParse_Errors tests malformed documents
func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{"invalid json", `{broken`, "not valid JSON"},
		{"empty object", `{}`, "no cluster name"},
		{"missing cluster name", `{"cluster": {"quorate": true}}`, "no cluster name"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
