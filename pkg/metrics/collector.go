package metrics

import (
	"sync"
	"time"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// Collector is the default implementation of types.MetricsCollector.
// It aggregates per-provider metrics and mirrors every observation into
// the package prometheus collectors. Safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	providers map[string]*types.ProviderMetrics
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{
		providers: make(map[string]*types.ProviderMetrics),
	}
}

// RecordOperation records one broker operation served by a provider
func (c *Collector) RecordOperation(provider string, operation string, latency time.Duration, err error) {
	OperationTime.WithLabelValues(provider, operation).Observe(latency.Seconds())
	if err != nil {
		OperationErrorCount.WithLabelValues(provider, operation).Inc()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.metricsLocked(provider)
	m.RequestCount++
	m.TotalLatency += latency
	m.AverageLatency = m.TotalLatency / time.Duration(m.RequestCount)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.ErrorCount++
		m.LastErrorTime = time.Now()
		m.LastError = err.Error()
	} else {
		m.SuccessCount++
	}
}

// RecordIndication records one delivered lifecycle indication
func (c *Collector) RecordIndication(provider string, indicationType string) {
	IndicationCount.WithLabelValues(provider, indicationType).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsLocked(provider).IndicationsSent++
}

// RecordSnapshot records the age of a snapshot served to the broker
func (c *Collector) RecordSnapshot(provider string, age time.Duration) {
	SnapshotAge.WithLabelValues(provider).Set(age.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.metricsLocked(provider)
	m.SnapshotsServed++
	m.HealthStatus.SnapshotAge = age.Seconds()
}

// ProviderMetrics returns a copy of the aggregated metrics for a provider
func (c *Collector) ProviderMetrics(provider string) types.ProviderMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.providers[provider]
	if !ok {
		return types.ProviderMetrics{}
	}
	return *m
}

// Providers returns the names of all providers that reported metrics
func (c *Collector) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	return names
}

func (c *Collector) metricsLocked(provider string) *types.ProviderMetrics {
	m, ok := c.providers[provider]
	if !ok {
		m = &types.ProviderMetrics{}
		c.providers[provider] = m
	}
	return m
}
