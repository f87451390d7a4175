// Package testutil provides shared testing utilities, mocks, and fixtures
// for use across the cim-provider-kit test suite.
package testutil

import (
	"context"
	"sync"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// MockStatusSource is a configurable StatusSource for tests. It serves a
// queue of snapshots, repeating the last one once the queue is drained,
// and can be switched to an error at any point.
type MockStatusSource struct {
	mu sync.Mutex

	queue      []*types.ClusterSnapshot
	err        error
	fetchCount int
}

// NewMockStatusSource creates a source serving the given snapshots in order
func NewMockStatusSource(snapshots ...*types.ClusterSnapshot) *MockStatusSource {
	return &MockStatusSource{queue: snapshots}
}

// Fetch implements the monitor.StatusSource contract
func (s *MockStatusSource) Fetch(ctx context.Context) (*types.ClusterSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCount++

	if s.err != nil {
		return nil, s.err
	}
	if len(s.queue) == 0 {
		return nil, types.NewUnavailableError("mock", "no snapshots queued")
	}

	snap := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}

	// Each fetch returns a copy so callers can mutate freely
	copied := *snap
	copied.Nodes = append([]types.Node(nil), snap.Nodes...)
	copied.Services = append([]types.Service(nil), snap.Services...)

	return &copied, nil
}

// SetError makes every subsequent Fetch fail with err; pass nil to recover
func (s *MockStatusSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Push appends a snapshot to the queue
func (s *MockStatusSource) Push(snap *types.ClusterSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, snap)
}

// FetchCount returns how many times Fetch was called
func (s *MockStatusSource) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCount
}

// MockIndicationSink collects indications delivered to a subscription
type MockIndicationSink struct {
	mu          sync.Mutex
	indications []types.Indication
}

// Handler returns an IndicationHandler recording into the sink
func (s *MockIndicationSink) Handler() types.IndicationHandler {
	return func(ind types.Indication) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.indications = append(s.indications, ind)
	}
}

// Indications returns a copy of everything received so far
func (s *MockIndicationSink) Indications() []types.Indication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Indication(nil), s.indications...)
}

// Count returns how many indications were received
func (s *MockIndicationSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indications)
}
