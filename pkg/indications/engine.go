// Package indications generates and delivers CIM lifecycle indications.
// An engine observes successive sets of instances, diffs them, and fans the
// resulting creation, modification and deletion indications out to
// subscribers and an optional publisher.
package indications

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// Publisher delivers indications to an external transport in addition to
// in-process subscribers
type Publisher interface {
	Publish(ind types.Indication) error
	Close() error
}

type subscription struct {
	class   types.ClassName
	handler types.IndicationHandler
}

// Engine diffs instance sets and delivers lifecycle indications.
// All methods are safe for concurrent use.
type Engine struct {
	provider string
	log      logrus.FieldLogger

	mu        sync.RWMutex
	collector types.MetricsCollector
	publisher Publisher
	subs      map[string]subscription
	enabled   bool
	prev      map[string]*types.Instance
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithCollector records delivered indications into the collector
func WithCollector(collector types.MetricsCollector) Option {
	return func(e *Engine) { e.collector = collector }
}

// WithPublisher additionally publishes every indication to the publisher
func WithPublisher(publisher Publisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// SetPublisher attaches a publisher after construction; used when the
// transport only becomes available at provider initialization
func (e *Engine) SetPublisher(publisher Publisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publisher = publisher
}

// SetCollector attaches a metrics collector after construction
func (e *Engine) SetCollector(collector types.MetricsCollector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collector = collector
}

// New creates an engine for the named provider. Indication generation
// starts disabled; call Enable once subscriptions are in place.
func New(provider string, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		log:      logrus.New().WithField("component", "indications"),
		subs:     make(map[string]subscription),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Subscribe registers a handler for indications of the class and returns
// the subscription id
func (e *Engine) Subscribe(class types.ClassName, handler types.IndicationHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("indication handler is required")
	}

	id := uuid.NewString()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[id] = subscription{class: class, handler: handler}

	return id, nil
}

// Unsubscribe removes a subscription
func (e *Engine) Unsubscribe(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.subs[id]; !ok {
		return fmt.Errorf("unknown subscription %s", id)
	}
	delete(e.subs, id)

	return nil
}

// Enable starts indication generation. The next observed instance set
// becomes the baseline; changes are reported from then on.
func (e *Engine) Enable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = true
}

// Disable stops indication generation and drops the baseline.
// Subscriptions are retained.
func (e *Engine) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	e.prev = nil
}

// Close disables the engine and closes the publisher, if any
func (e *Engine) Close() error {
	e.Disable()

	e.mu.RLock()
	publisher := e.publisher
	e.mu.RUnlock()

	if publisher != nil {
		return publisher.Close()
	}
	return nil
}

// Observe diffs the instance set against the previously observed one and
// delivers indications for every difference. The first observation after
// Enable establishes the baseline and delivers nothing.
func (e *Engine) Observe(instances []*types.Instance) {
	e.mu.Lock()

	if !e.enabled {
		e.mu.Unlock()
		return
	}

	current := make(map[string]*types.Instance, len(instances))
	for _, inst := range instances {
		current[inst.Path.String()] = inst
	}

	prev := e.prev
	e.prev = current

	if prev == nil {
		e.mu.Unlock()
		return
	}

	var indications []types.Indication
	now := time.Now()

	for key, inst := range current {
		old, ok := prev[key]
		if !ok {
			indications = append(indications, e.indication(types.IndicationCreation, inst, nil, now))
			continue
		}
		if !reflect.DeepEqual(old.Properties, inst.Properties) {
			indications = append(indications, e.indication(types.IndicationModification, inst, old, now))
		}
	}

	for key, old := range prev {
		if _, ok := current[key]; !ok {
			indications = append(indications, e.indication(types.IndicationDeletion, nil, old, now))
		}
	}

	subs := make([]subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	publisher := e.publisher
	collector := e.collector
	e.mu.Unlock()

	for _, ind := range indications {
		e.deliver(ind, subs, publisher, collector)
	}
}

func (e *Engine) indication(indType types.IndicationType, current, previous *types.Instance, now time.Time) types.Indication {
	ind := types.Indication{
		ID:        ksuid.New().String(),
		Type:      indType,
		Current:   current,
		Previous:  previous,
		Timestamp: now,
	}

	if current != nil {
		ind.Class = current.Path.Class
		ind.Path = current.Path
	} else {
		ind.Class = previous.Path.Class
		ind.Path = previous.Path
	}

	return ind
}

func (e *Engine) deliver(ind types.Indication, subs []subscription, publisher Publisher, collector types.MetricsCollector) {
	for _, sub := range subs {
		if sub.class != "" && !sub.class.Equal(ind.Class) {
			continue
		}
		sub.handler(ind)
	}

	if publisher != nil {
		if err := publisher.Publish(ind); err != nil {
			e.log.WithError(err).WithField("indication", ind.ID).Warn("Failed to publish indication")
		}
	}

	if collector != nil {
		collector.RecordIndication(e.provider, string(ind.Type))
	}

	e.log.WithFields(logrus.Fields{
		"indication": ind.ID,
		"type":       ind.Type,
		"path":       ind.Path.String(),
	}).Debug("Delivered indication")
}
