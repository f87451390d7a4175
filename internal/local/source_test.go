package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// TestSource_Fetch tests reading a status file from disk
func TestSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	doc := `{"cluster": {"name": "local", "quorate": true}, "nodes": [{"name": "node01", "state": "member"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	source := NewSource(path)
	snap, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "local", snap.Cluster.Name)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, types.NodeStateMember, snap.Nodes[0].State)
}

// TestSource_Fetch_MissingFile tests the unavailable classification when
// the cluster manager is not running
func TestSource_Fetch_MissingFile(t *testing.T) {
	source := NewSource(filepath.Join(t.TempDir(), "missing.json"))

	_, err := source.Fetch(context.Background())
	require.Error(t, err)

	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrCodeUnavailable, pe.Code)
}

// TestSource_Fetch_BadDocument tests parse errors carry the file path
func TestSource_Fetch_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	source := NewSource(path)
	_, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

// TestSource_Fetch_Cancelled tests context cancellation
func TestSource_Fetch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewSource("")
	_, err := source.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestNewSource_DefaultPath tests the default status path
func TestNewSource_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultStatusPath, NewSource("").path)
	assert.Equal(t, "/tmp/x.json", NewSource("/tmp/x.json").path)
}
