package factory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// mockProvider records the injected collector; the embedded interface
// covers the methods these tests never call
type mockProvider struct {
	types.Provider
	name      string
	collector types.MetricsCollector
}

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) SetMetricsCollector(collector types.MetricsCollector) {
	p.collector = collector
}

type nopCollector struct{}

func (nopCollector) RecordOperation(string, string, time.Duration, error) {}
func (nopCollector) RecordIndication(string, string)                      {}
func (nopCollector) RecordSnapshot(string, time.Duration)                 {}

// TestNewProviderFactory tests factory creation and initialization
func TestNewProviderFactory(t *testing.T) {
	factory := NewProviderFactory()

	assert.NotNil(t, factory)
	assert.Empty(t, factory.SupportedProviders())
}

// TestDefaultProviderFactory_RegisterProvider tests provider registration
func TestDefaultProviderFactory_RegisterProvider(t *testing.T) {
	factory := NewProviderFactory()

	factory.RegisterProvider("TestProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "test"}
	})

	assert.Equal(t, []string{"TestProvider"}, factory.SupportedProviders())
}

// TestDefaultProviderFactory_RegisterProvider_Replaces tests that
// re-registering a name in a different casing replaces the registration
func TestDefaultProviderFactory_RegisterProvider_Replaces(t *testing.T) {
	factory := NewProviderFactory()

	factory.RegisterProvider("TestProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "first"}
	})
	factory.RegisterProvider("TESTPROVIDER", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "second"}
	})

	require.Len(t, factory.SupportedProviders(), 1)

	provider, ok := factory.CreateProvider("testprovider", types.ProviderConfig{})
	require.True(t, ok)
	assert.Equal(t, "second", provider.Name())
}

// TestDefaultProviderFactory_CreateProvider_CaseInsensitive tests that a
// registered name matches regardless of the requested casing
func TestDefaultProviderFactory_CreateProvider_CaseInsensitive(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("RedHatClusterProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "cluster"}
	})

	names := []string{
		"RedHatClusterProvider",
		"redhatclusterprovider",
		"REDHATCLUSTERPROVIDER",
		"redHatClusterProvider",
		"rEdHaTcLuStErPrOvIdEr",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			provider, ok := factory.CreateProvider(name, types.ProviderConfig{})
			require.True(t, ok)
			require.NotNil(t, provider)
			assert.Equal(t, "cluster", provider.Name())
		})
	}
}

// TestDefaultProviderFactory_CreateProvider_Unknown tests that names that
// do not match exactly produce an absent result, not an error
func TestDefaultProviderFactory_CreateProvider_Unknown(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("RedHatClusterProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "cluster"}
	})

	names := []string{
		"",
		"RedHatCluster",
		"ClusterProvider",
		"RedHatClusterProviders",
		"XRedHatClusterProvider",
		" RedHatClusterProvider",
		"RedHatClusterProvider ",
		"SomeOtherProvider",
	}

	for _, name := range names {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			provider, ok := factory.CreateProvider(name, types.ProviderConfig{})
			assert.False(t, ok)
			assert.Nil(t, provider)
		})
	}
}

// TestDefaultProviderFactory_CreateProvider_DistinctInstances tests that
// every call constructs a fresh instance
func TestDefaultProviderFactory_CreateProvider_DistinctInstances(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("TestProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "test"}
	})

	first, ok := factory.CreateProvider("TestProvider", types.ProviderConfig{})
	require.True(t, ok)
	second, ok := factory.CreateProvider("testprovider", types.ProviderConfig{})
	require.True(t, ok)

	assert.NotSame(t, first, second)
}

// TestDefaultProviderFactory_SetMetricsCollector tests that a configured
// collector is injected into created providers
func TestDefaultProviderFactory_SetMetricsCollector(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("TestProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "test"}
	})

	collector := nopCollector{}
	factory.SetMetricsCollector(collector)

	provider, ok := factory.CreateProvider("TestProvider", types.ProviderConfig{})
	require.True(t, ok)
	assert.Equal(t, collector, provider.(*mockProvider).collector)
}

// TestDefaultProviderFactory_SupportedProviders_Sorted tests that names
// come back sorted in their registered casing
func TestDefaultProviderFactory_SupportedProviders_Sorted(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("ZetaProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "zeta"}
	})
	factory.RegisterProvider("AlphaProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "alpha"}
	})

	assert.Equal(t, []string{"AlphaProvider", "ZetaProvider"}, factory.SupportedProviders())
}

// TestDefaultProviderFactory_ConcurrentAccess tests thread safety of
// registration and creation
func TestDefaultProviderFactory_ConcurrentAccess(t *testing.T) {
	factory := NewProviderFactory()
	factory.RegisterProvider("RedHatClusterProvider", func(config types.ProviderConfig) types.Provider {
		return &mockProvider{name: "cluster"}
	})

	var wg sync.WaitGroup
	numGoroutines := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			name := fmt.Sprintf("provider-%d", i)
			factory.RegisterProvider(name, func(config types.ProviderConfig) types.Provider {
				return &mockProvider{name: name}
			})

			provider, ok := factory.CreateProvider("redhatclusterprovider", types.ProviderConfig{})
			assert.True(t, ok)
			assert.NotNil(t, provider)
		}(i)
	}

	wg.Wait()
	assert.Len(t, factory.SupportedProviders(), numGoroutines+1)
}
