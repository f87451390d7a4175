// Package local implements a cluster status source backed by the status
// document the cluster manager maintains on local disk.
package local

import (
	"context"
	"fmt"
	"os"

	"github.com/clustermon/cim-provider-kit/internal/statusdoc"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// DefaultStatusPath is where the cluster manager writes its status document
const DefaultStatusPath = "/var/run/cluster/status.json"

// Source reads cluster state from a status file. Safe for concurrent use;
// the file is re-read on every fetch.
type Source struct {
	path string
}

// NewSource creates a source reading from path, or DefaultStatusPath when
// path is empty
func NewSource(path string) *Source {
	if path == "" {
		path = DefaultStatusPath
	}
	return &Source{path: path}
}

// Fetch implements the monitor.StatusSource contract
func (s *Source) Fetch(ctx context.Context) (*types.ClusterSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewUnavailableError("cluster", "cluster manager is not running").WithOriginalErr(err)
		}
		return nil, fmt.Errorf("failed to read status file %s: %w", s.path, err)
	}

	snap, err := statusdoc.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("status file %s: %w", s.path, err)
	}

	return snap, nil
}
