// Package monitor implements the cluster state polling engine behind the
// cluster provider. It keeps a cached snapshot of cluster state current by
// polling a status source, and notifies listeners when state changes.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/clustermon/cim-provider-kit/pkg/metrics"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// StatusSource produces cluster state snapshots. Implementations must be
// safe for concurrent use; the monitor may force a refresh from a broker
// operation while the poll loop is running.
type StatusSource interface {
	Fetch(ctx context.Context) (*types.ClusterSnapshot, error)
}

const (
	// DefaultPollInterval is used when no poll interval is configured
	DefaultPollInterval = 5 * time.Second

	// DefaultStaleAfter marks a snapshot stale when no refresh succeeded
	// for this long
	DefaultStaleAfter = 30 * time.Second
)

// Monitor polls a status source and caches the latest cluster snapshot.
// All methods are safe for concurrent use.
type Monitor struct {
	name       string
	source     StatusSource
	interval   time.Duration
	staleAfter time.Duration
	limiter    *rate.Limiter
	log        logrus.FieldLogger
	facts      bool

	mu     sync.RWMutex
	latest *types.ClusterSnapshot
	seq    uint64

	updates chan *types.ClusterSnapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Monitor
type Option func(*Monitor)

// WithLogger sets the logger used by the poll loop
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Monitor) { m.log = log }
}

// WithPollInterval sets how often the source is polled
func WithPollInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithStaleAfter sets the age at which a cached snapshot is considered stale
func WithStaleAfter(age time.Duration) Option {
	return func(m *Monitor) {
		if age > 0 {
			m.staleAfter = age
		}
	}
}

// WithLocalFacts enables local node resource fact gathering on every poll
func WithLocalFacts() Option {
	return func(m *Monitor) { m.facts = true }
}

// New creates a monitor for the named provider polling the given source
func New(name string, source StatusSource, opts ...Option) *Monitor {
	m := &Monitor{
		name:       name,
		source:     source,
		interval:   DefaultPollInterval,
		staleAfter: DefaultStaleAfter,
		log:        logrus.New().WithField("component", "monitor"),
		updates:    make(chan *types.ClusterSnapshot, 16),
	}

	for _, opt := range opts {
		opt(m)
	}

	// Forced refreshes share the poll budget so a chatty broker cannot
	// hammer the status source
	m.limiter = rate.NewLimiter(rate.Every(m.interval/2), 2)

	return m
}

// Start launches the poll loop. It performs one synchronous refresh so a
// snapshot is available as soon as Start returns without error.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := m.refresh(ctx); err != nil {
		return fmt.Errorf("initial cluster state refresh: %w", err)
	}

	// The passed context only bounds the initial refresh. The loop runs
	// on its own context so a bounded init context does not end polling.
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(runCtx)

	return nil
}

// Stop terminates the poll loop and waits for it to exit
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

// Latest returns the most recent snapshot, and false when none exists yet
func (m *Monitor) Latest() (*types.ClusterSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return nil, false
	}
	return m.latest, true
}

// Fresh returns the most recent snapshot, refreshing first when the cache
// is empty or older than the stale threshold
func (m *Monitor) Fresh(ctx context.Context) (*types.ClusterSnapshot, error) {
	m.mu.RLock()
	snap := m.latest
	m.mu.RUnlock()

	if snap != nil && snap.Age(time.Now()) < m.staleAfter {
		return snap, nil
	}

	refreshed, err := m.refresh(ctx)
	if err != nil {
		if snap != nil {
			return nil, types.NewStaleError(m.name, "cluster state is stale and refresh failed").WithOriginalErr(err)
		}
		return nil, err
	}

	return refreshed, nil
}

// Updates returns the channel on which new snapshots are announced. The
// channel is buffered; the monitor drops announcements rather than block
// when the consumer falls behind.
func (m *Monitor) Updates() <-chan *types.ClusterSnapshot {
	return m.updates
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				m.log.WithError(err).Warn("Cluster state refresh failed")
			}
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) (*types.ClusterSnapshot, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(metrics.PollTime.WithLabelValues(m.name))
	snap, err := m.source.Fetch(ctx)
	timer.ObserveDuration()

	if err != nil {
		metrics.PollFailureCount.WithLabelValues(m.name).Inc()
		return nil, err
	}

	if snap.Taken.IsZero() {
		snap.Taken = time.Now()
	}

	if m.facts {
		m.enrichLocalNode(ctx, snap)
	}

	m.mu.Lock()
	m.seq++
	snap.Sequence = m.seq
	m.latest = snap
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"sequence": snap.Sequence,
		"nodes":    len(snap.Nodes),
		"services": len(snap.Services),
		"quorate":  snap.Cluster.Quorate,
	}).Debug("Refreshed cluster state")

	select {
	case m.updates <- snap:
	default:
		m.log.Debug("Dropping snapshot announcement, consumer is behind")
	}

	return snap, nil
}
