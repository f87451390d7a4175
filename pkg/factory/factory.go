// Package factory provides registration and creation of CIM providers.
// Provider names are matched case-insensitively, the way the CIM broker
// requests them.
package factory

import (
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

type registration struct {
	name        string
	factoryFunc func(types.ProviderConfig) types.Provider
}

// DefaultProviderFactory is the default factory implementation
type DefaultProviderFactory struct {
	providers        map[string]registration
	mutex            sync.RWMutex
	metricsCollector types.MetricsCollector
	logger           logrus.FieldLogger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *DefaultProviderFactory {
	return &DefaultProviderFactory{
		providers: make(map[string]registration),
	}
}

// SetMetricsCollector sets the metrics collector for the factory.
// When set, all providers created by this factory will have the collector
// configured.
func (f *DefaultProviderFactory) SetMetricsCollector(collector types.MetricsCollector) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.metricsCollector = collector
}

// SetLogger sets the logger handed to providers created by this factory
func (f *DefaultProviderFactory) SetLogger(logger logrus.FieldLogger) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.logger = logger
}

// RegisterProvider registers a provider constructor under the name.
// Registering the same name again, in any casing, replaces the previous
// registration.
func (f *DefaultProviderFactory) RegisterProvider(name string, factoryFunc func(types.ProviderConfig) types.Provider) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.providers[foldName(name)] = registration{name: name, factoryFunc: factoryFunc}
}

// CreateProvider creates a fresh provider instance for the name. The name
// is matched case-insensitively against the registered providers; the
// second return value reports whether the name matched. An unknown name is
// not an error, the broker probes every factory it loads.
func (f *DefaultProviderFactory) CreateProvider(name string, config types.ProviderConfig) (types.Provider, bool) {
	f.mutex.RLock()
	reg, exists := f.providers[foldName(name)]
	collector := f.metricsCollector
	logger := f.logger
	f.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	provider := reg.factoryFunc(config)

	if collector != nil {
		if metricProvider, ok := provider.(interface{ SetMetricsCollector(types.MetricsCollector) }); ok {
			metricProvider.SetMetricsCollector(collector)
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"provider":  reg.name,
			"requested": name,
		}).Debug("Created provider instance")
	}

	return provider, true
}

// SupportedProviders returns the registered provider names, sorted, in
// their registered casing
func (f *DefaultProviderFactory) SupportedProviders() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	names := make([]string, 0, len(f.providers))
	for _, reg := range f.providers {
		names = append(names, reg.name)
	}
	sort.Strings(names)

	return names
}

// foldName maps a provider name to its registry key. Matching is ASCII
// case-insensitive; names never carry non-ASCII characters.
func foldName(name string) string {
	return strings.ToLower(name)
}
