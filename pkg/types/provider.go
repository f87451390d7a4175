package types

import (
	"context"
	"time"
)

// ProviderType represents the type of CIM provider
type ProviderType string

const (
	// ProviderTypeCluster is the Red Hat cluster monitoring provider
	ProviderTypeCluster ProviderType = "cluster"
)

// ProviderNameCluster is the provider name the host broker requests when
// loading the cluster monitoring provider. Matching against it is always
// case-insensitive.
const ProviderNameCluster = "RedHatClusterProvider"

// ProviderConfig represents configuration for a specific provider
type ProviderConfig struct {
	Type ProviderType `yaml:"type" json:"type"`
	Name string       `yaml:"name" json:"name" validate:"required"`

	// Description is an optional human readable summary shown to operators
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// PollInterval controls how often cluster state is refreshed
	PollInterval time.Duration `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty" validate:"omitempty,min=1s"`

	// StaleAfter marks a cached snapshot unusable once it is older than this
	StaleAfter time.Duration `yaml:"stale_after,omitempty" json:"stale_after,omitempty"`

	// StatusFile is the local cluster manager status document; used only
	// when no BaseURL is configured. Empty means the manager's default
	// location.
	StatusFile string `yaml:"status_file,omitempty" json:"status_file,omitempty"`

	// Remote management API settings; when BaseURL is empty the provider
	// monitors the local cluster only
	BaseURL      string   `yaml:"base_url,omitempty" json:"base_url,omitempty" validate:"omitempty,url"`
	ClientID     string   `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty" json:"client_secret,omitempty"`
	TokenURL     string   `yaml:"token_url,omitempty" json:"token_url,omitempty" validate:"omitempty,url"`
	Scopes       []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`

	// Timeout bounds a single status fetch
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// GatherLocalFacts enriches the local node instance with host
	// resource usage
	GatherLocalFacts bool `yaml:"gather_local_facts,omitempty" json:"gather_local_facts,omitempty"`

	// Indication delivery settings
	Indications IndicationConfig `yaml:"indications,omitempty" json:"indications,omitempty"`
}

// IndicationConfig configures lifecycle indication delivery
type IndicationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// NATSURL, when set, publishes every indication to a NATS subject in
	// addition to in-process subscribers
	NATSURL     string `yaml:"nats_url,omitempty" json:"nats_url,omitempty"`
	NATSSubject string `yaml:"nats_subject,omitempty" json:"nats_subject,omitempty"`
}

// HealthStatus represents the health status of a provider
type HealthStatus struct {
	Healthy     bool      `json:"healthy"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message"`
	SnapshotAge float64   `json:"snapshot_age"`
}

// ProviderMetrics represents metrics for a provider
type ProviderMetrics struct {
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalLatency    time.Duration `json:"total_latency"`
	AverageLatency  time.Duration `json:"average_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	LastErrorTime   time.Time     `json:"last_error_time"`
	LastError       string        `json:"last_error"`
	SnapshotsServed int64         `json:"snapshots_served"`
	IndicationsSent int64         `json:"indications_sent"`
	HealthStatus    HealthStatus  `json:"health_status"`
}

// MetricsCollector receives per-operation observations from providers.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	RecordOperation(provider string, operation string, latency time.Duration, err error)
	RecordIndication(provider string, indicationType string)
	RecordSnapshot(provider string, age time.Duration)
}

// ============================================================================
// Interface Segregation - Focused Provider Interfaces
// ============================================================================

// CoreProvider defines the essential identity methods that all providers
// must implement.
type CoreProvider interface {
	Name() string
	Type() ProviderType
	Description() string
}

// LifecycleProvider defines broker-driven lifecycle management. The host
// calls Initialize once after creation and Shutdown once before unload.
type LifecycleProvider interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// InstanceProvider defines instance read operations for the CIM classes a
// provider serves.
type InstanceProvider interface {
	// EnumerateInstanceNames returns the object paths of every instance
	// of the class
	EnumerateInstanceNames(ctx context.Context, class ClassName) ([]ObjectPath, error)

	// EnumerateInstances returns full instances of the class
	EnumerateInstances(ctx context.Context, class ClassName) ([]*Instance, error)

	// GetInstance returns the single instance identified by path
	GetInstance(ctx context.Context, path ObjectPath) (*Instance, error)
}

// MethodProvider defines extrinsic method invocation on an instance.
type MethodProvider interface {
	InvokeMethod(ctx context.Context, path ObjectPath, method string, params map[string]any) (any, error)
}

// IndicationProvider defines lifecycle indication subscription management.
type IndicationProvider interface {
	// Subscribe registers a handler for indications of the class and
	// returns an opaque subscription id
	Subscribe(class ClassName, handler IndicationHandler) (string, error)

	// Unsubscribe removes a previously registered subscription
	Unsubscribe(id string) error

	// EnableIndications starts indication generation
	EnableIndications() error

	// DisableIndications stops indication generation; subscriptions are
	// retained
	DisableIndications() error
}

// HealthCheckProvider defines methods for health monitoring and metrics.
type HealthCheckProvider interface {
	HealthCheck(ctx context.Context) error
	GetMetrics() ProviderMetrics
}

// ConfigurableProvider defines methods for configuration management.
type ConfigurableProvider interface {
	Configure(config ProviderConfig) error
	GetConfig() ProviderConfig
}

// ============================================================================
// Composite Provider Interface
// ============================================================================

// Provider represents a complete CIM provider with all capabilities.
// This interface composes the smaller interfaces; clients that only need a
// subset should depend on the focused interface instead.
type Provider interface {
	CoreProvider
	LifecycleProvider
	InstanceProvider
	MethodProvider
	IndicationProvider
	ConfigurableProvider
	HealthCheckProvider
}

// IndicationHandler receives lifecycle indications for a subscription.
// Handlers must not block; slow consumers should buffer internally.
type IndicationHandler func(Indication)

// ProviderFactory represents a factory for creating providers
type ProviderFactory interface {
	RegisterProvider(name string, factoryFunc func(ProviderConfig) Provider)
	CreateProvider(name string, config ProviderConfig) (Provider, bool)
	SupportedProviders() []string
}
