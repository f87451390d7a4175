package factory

import (
	"sync"

	"github.com/clustermon/cim-provider-kit/pkg/providers/cluster"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// RegisterDefaultProviders registers all built-in providers with the factory
func RegisterDefaultProviders(factory *DefaultProviderFactory) {
	factory.RegisterProvider(types.ProviderNameCluster, func(config types.ProviderConfig) types.Provider {
		return cluster.New(config)
	})
}

var (
	defaultFactory     *DefaultProviderFactory
	defaultFactoryOnce sync.Once
)

// DefaultFactory returns the process-wide factory with all built-in
// providers registered
func DefaultFactory() *DefaultProviderFactory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = NewProviderFactory()
		RegisterDefaultProviders(defaultFactory)
	})
	return defaultFactory
}

// CreateProvider is the entry point the hosting broker calls to obtain a
// provider by name. The name is matched case-insensitively against the
// built-in providers; every call returns a distinct instance. An unknown
// name returns nil, which tells the broker this library does not serve
// that provider.
func CreateProvider(name string) types.Provider {
	provider, ok := DefaultFactory().CreateProvider(name, types.ProviderConfig{})
	if !ok {
		return nil
	}
	return provider
}
