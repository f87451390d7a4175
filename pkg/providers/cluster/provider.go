// Package cluster implements the Red Hat cluster monitoring CIM provider.
// It surfaces cluster, node and service state as CIM instances, supports
// service control through extrinsic methods, and emits lifecycle
// indications when monitored state changes.
package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clustermon/cim-provider-kit/internal/local"
	"github.com/clustermon/cim-provider-kit/internal/monitor"
	"github.com/clustermon/cim-provider-kit/internal/remote"
	"github.com/clustermon/cim-provider-kit/pkg/indications"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// ServiceController performs service control operations on the cluster.
// Implementations talk to the cluster manager; the provider only routes
// extrinsic method calls to it.
type ServiceController interface {
	Start(ctx context.Context, service string) error
	Stop(ctx context.Context, service string) error
	Restart(ctx context.Context, service string) error
	Migrate(ctx context.Context, service string, targetNode string) error
}

// Provider is the cluster monitoring CIM provider
type Provider struct {
	name       string
	log        logrus.FieldLogger
	collector  types.MetricsCollector
	controller ServiceController
	source     monitor.StatusSource

	mu      sync.RWMutex
	config  types.ProviderConfig
	mon     *monitor.Monitor
	engine  *indications.Engine
	running bool
	cancel  context.CancelFunc
	bridged chan struct{}

	metricsMu sync.RWMutex
	metrics   types.ProviderMetrics
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = log }
}

// WithCollector forwards provider observations to the collector
func WithCollector(collector types.MetricsCollector) Option {
	return func(p *Provider) { p.collector = collector }
}

// SetMetricsCollector attaches a metrics collector after construction.
// The factory calls this when it has a collector configured.
func (p *Provider) SetMetricsCollector(collector types.MetricsCollector) {
	p.mu.Lock()
	p.collector = collector
	engine := p.engine
	p.mu.Unlock()

	if engine != nil {
		engine.SetCollector(collector)
	}
}

// WithServiceController replaces the default clusvcadm controller behind
// the extrinsic service control methods. A nil controller disables
// service control.
func WithServiceController(controller ServiceController) Option {
	return func(p *Provider) { p.controller = controller }
}

// WithStatusSource overrides the status source derived from configuration;
// mainly for tests and embedding
func WithStatusSource(source monitor.StatusSource) Option {
	return func(p *Provider) { p.source = source }
}

// New creates a cluster provider from the configuration. Construction
// never fails; configuration problems surface from Initialize.
func New(config types.ProviderConfig, opts ...Option) *Provider {
	name := config.Name
	if name == "" {
		name = types.ProviderNameCluster
	}

	p := &Provider{
		name:   name,
		config: config,
		log:    logrus.New().WithField("provider", name),
	}
	p.controller = NewClusvcadmController(p.log)

	for _, opt := range opts {
		opt(p)
	}

	p.engine = indications.New(name,
		indications.WithLogger(p.log),
		indications.WithCollector(p.collector))

	return p
}

// Name returns the provider name
func (p *Provider) Name() string { return p.name }

// Type returns the provider type
func (p *Provider) Type() types.ProviderType { return types.ProviderTypeCluster }

// Description returns a human readable summary
func (p *Provider) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.config.Description != "" {
		return p.config.Description
	}
	return "Red Hat cluster monitoring provider"
}

// Configure replaces the provider configuration. Only allowed before
// Initialize or after Shutdown.
func (p *Provider) Configure(config types.ProviderConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return types.NewProviderError(p.name, types.ErrCodeFailed, "cannot reconfigure a running provider")
	}

	p.config = config
	return nil
}

// GetConfig returns the current configuration
func (p *Provider) GetConfig() types.ProviderConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// Initialize builds the status source and starts monitoring. The broker
// calls this once after the factory hands the provider over.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return types.NewProviderError(p.name, types.ErrCodeFailed, "provider is already initialized")
	}

	source := p.source
	if source == nil {
		var err error
		source, err = p.buildSource()
		if err != nil {
			return fmt.Errorf("failed to build status source: %w", err)
		}
	}

	monOpts := []monitor.Option{
		monitor.WithLogger(p.log),
		monitor.WithPollInterval(p.config.PollInterval),
		monitor.WithStaleAfter(p.config.StaleAfter),
	}
	if p.config.GatherLocalFacts {
		monOpts = append(monOpts, monitor.WithLocalFacts())
	}

	mon := monitor.New(p.name, source, monOpts...)
	if err := mon.Start(ctx); err != nil {
		return err
	}

	if p.config.Indications.NATSURL != "" {
		publisher, err := indications.NewNATSPublisher(p.config.Indications.NATSURL, p.config.Indications.NATSSubject)
		if err != nil {
			mon.Stop()
			return fmt.Errorf("failed to set up indication publisher: %w", err)
		}
		p.engine.SetPublisher(publisher)
	}

	if p.config.Indications.Enabled {
		p.engine.Enable()
	}

	bridgeCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.bridged = make(chan struct{})
	go p.bridge(bridgeCtx, mon.Updates())

	p.mon = mon
	p.running = true

	p.log.WithFields(logrus.Fields{
		"poll_interval": p.config.PollInterval,
		"indications":   p.config.Indications.Enabled,
	}).Info("Cluster provider initialized")

	return nil
}

// Shutdown stops monitoring and indication delivery. The broker calls
// this once before unloading the provider module.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.cancel()
	<-p.bridged
	p.mon.Stop()
	p.mon = nil
	p.running = false

	if err := p.engine.Close(); err != nil {
		p.log.WithError(err).Warn("Failed to close indication engine")
	}

	p.log.Info("Cluster provider shut down")
	return nil
}

// bridge feeds monitor snapshots into the indication engine
func (p *Provider) bridge(ctx context.Context, updates <-chan *types.ClusterSnapshot) {
	defer close(p.bridged)

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			p.engine.Observe(MapSnapshot(snap))
		}
	}
}

// EnumerateInstanceNames returns the object paths of every instance of
// the class
func (p *Provider) EnumerateInstanceNames(ctx context.Context, class types.ClassName) ([]types.ObjectPath, error) {
	instances, err := p.EnumerateInstances(ctx, class)
	if err != nil {
		return nil, err
	}

	paths := make([]types.ObjectPath, 0, len(instances))
	for _, inst := range instances {
		paths = append(paths, inst.Path)
	}
	return paths, nil
}

// EnumerateInstances returns full instances of the class
func (p *Provider) EnumerateInstances(ctx context.Context, class types.ClassName) (result []*types.Instance, err error) {
	defer p.observe("enumerate_instances", time.Now(), &err)

	if !servesClass(class) {
		return nil, types.NewInvalidClassError(p.name, class)
	}

	snap, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return MapClass(snap, class), nil
}

// GetInstance returns the single instance identified by path
func (p *Provider) GetInstance(ctx context.Context, path types.ObjectPath) (result *types.Instance, err error) {
	defer p.observe("get_instance", time.Now(), &err)

	if !servesClass(path.Class) {
		return nil, types.NewInvalidClassError(p.name, path.Class)
	}

	snap, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for _, inst := range MapClass(snap, path.Class) {
		if inst.Path.Matches(path) {
			return inst, nil
		}
	}

	return nil, types.NewNotFoundError(p.name, fmt.Sprintf("no instance %s", path)).WithClass(path.Class)
}

// Service control methods accepted by InvokeMethod
const (
	MethodStartService   = "StartService"
	MethodStopService    = "StopService"
	MethodRestartService = "RestartService"
	MethodMigrateService = "MigrateService"
)

// InvokeMethod dispatches an extrinsic method call on an instance
func (p *Provider) InvokeMethod(ctx context.Context, path types.ObjectPath, method string, params map[string]any) (result any, err error) {
	defer p.observe("invoke_method", time.Now(), &err)

	if !path.Class.Equal(types.ClassClusterService) {
		return nil, types.NewNotSupportedError(p.name, fmt.Sprintf("class %s has no methods", path.Class)).WithClass(path.Class)
	}

	if p.controller == nil {
		return nil, types.NewNotSupportedError(p.name, "service control is not configured")
	}

	name, ok := path.Key("Name")
	if !ok || name == "" {
		return nil, types.NewInvalidParameterError(p.name, "service path has no Name key")
	}

	// Reject methods on services the cluster does not know
	snap, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Service(name); !ok {
		return nil, types.NewNotFoundError(p.name, fmt.Sprintf("no service %q", name)).WithClass(path.Class)
	}

	switch method {
	case MethodStartService:
		err = p.controller.Start(ctx, name)
	case MethodStopService:
		err = p.controller.Stop(ctx, name)
	case MethodRestartService:
		err = p.controller.Restart(ctx, name)
	case MethodMigrateService:
		target, _ := params["TargetNode"].(string)
		if target == "" {
			return nil, types.NewInvalidParameterError(p.name, "MigrateService requires a TargetNode parameter")
		}
		if _, ok := snap.Node(target); !ok {
			return nil, types.NewInvalidParameterError(p.name, fmt.Sprintf("unknown target node %q", target))
		}
		err = p.controller.Migrate(ctx, name, target)
	default:
		return nil, types.NewNotSupportedError(p.name, fmt.Sprintf("unknown method %q", method))
	}

	if err != nil {
		return nil, types.NewProviderError(p.name, types.ErrCodeFailed, fmt.Sprintf("%s on %q failed", method, name)).
			WithOperation("invoke_method").
			WithOriginalErr(err)
	}

	return uint32(0), nil
}

// Subscribe registers an indication handler for the class
func (p *Provider) Subscribe(class types.ClassName, handler types.IndicationHandler) (string, error) {
	if class != "" && !servesClass(class) {
		return "", types.NewInvalidClassError(p.name, class)
	}
	return p.engine.Subscribe(class, handler)
}

// Unsubscribe removes a subscription
func (p *Provider) Unsubscribe(id string) error {
	return p.engine.Unsubscribe(id)
}

// EnableIndications starts indication generation
func (p *Provider) EnableIndications() error {
	p.engine.Enable()
	return nil
}

// DisableIndications stops indication generation, keeping subscriptions
func (p *Provider) DisableIndications() error {
	p.engine.Disable()
	return nil
}

// HealthCheck verifies the provider can serve current cluster state
func (p *Provider) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	mon := p.mon
	running := p.running
	p.mu.RUnlock()

	if !running {
		return types.NewUnavailableError(p.name, "provider is not initialized")
	}

	snap, err := mon.Fresh(ctx)
	if err != nil {
		p.setHealth(false, err.Error(), 0)
		return err
	}

	age := snap.Age(time.Now())
	p.setHealth(true, "", age.Seconds())

	return nil
}

// GetMetrics returns a copy of the provider metrics
func (p *Provider) GetMetrics() types.ProviderMetrics {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()
	return p.metrics
}

// snapshot returns current cluster state, refreshing stale caches
func (p *Provider) snapshot(ctx context.Context) (*types.ClusterSnapshot, error) {
	p.mu.RLock()
	mon := p.mon
	running := p.running
	collector := p.collector
	p.mu.RUnlock()

	if !running {
		return nil, types.NewUnavailableError(p.name, "provider is not initialized")
	}

	snap, err := mon.Fresh(ctx)
	if err != nil {
		return nil, err
	}

	age := snap.Age(time.Now())
	if collector != nil {
		collector.RecordSnapshot(p.name, age)
	}

	p.metricsMu.Lock()
	p.metrics.SnapshotsServed++
	p.metricsMu.Unlock()

	return snap, nil
}

func (p *Provider) buildSource() (monitor.StatusSource, error) {
	if p.config.BaseURL != "" {
		return remote.NewSource(remote.Config{
			BaseURL:      p.config.BaseURL,
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			TokenURL:     p.config.TokenURL,
			Scopes:       p.config.Scopes,
			Timeout:      p.config.Timeout,
		}, remote.WithLogger(p.log))
	}

	return local.NewSource(p.config.StatusFile), nil
}

func (p *Provider) observe(operation string, started time.Time, errp *error) {
	latency := time.Since(started)
	err := *errp

	p.mu.RLock()
	collector := p.collector
	p.mu.RUnlock()

	if collector != nil {
		collector.RecordOperation(p.name, operation, latency, err)
	}

	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()

	p.metrics.RequestCount++
	p.metrics.TotalLatency += latency
	p.metrics.AverageLatency = p.metrics.TotalLatency / time.Duration(p.metrics.RequestCount)
	p.metrics.LastRequestTime = time.Now()

	if err != nil {
		p.metrics.ErrorCount++
		p.metrics.LastErrorTime = time.Now()
		p.metrics.LastError = err.Error()
	} else {
		p.metrics.SuccessCount++
	}
}

func (p *Provider) setHealth(healthy bool, message string, age float64) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()

	p.metrics.HealthStatus = types.HealthStatus{
		Healthy:     healthy,
		LastChecked: time.Now(),
		Message:     message,
		SnapshotAge: age,
	}
}
