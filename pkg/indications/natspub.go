package indications

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// DefaultNATSSubject is used when no subject is configured
const DefaultNATSSubject = "clustermon.indications"

// NATSPublisher publishes indications to a NATS subject as JSON
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url and publishes to
// subject, or DefaultNATSSubject when subject is empty
func NewNATSPublisher(url string, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}

	nc, err := nats.Connect(url,
		nats.Name("cim-provider-kit"),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, subject: subject}, nil
}

// Publish implements Publisher
func (p *NATSPublisher) Publish(ind types.Indication) error {
	data, err := json.Marshal(ind)
	if err != nil {
		return fmt.Errorf("failed to marshal indication: %w", err)
	}

	return p.nc.Publish(p.subject, data)
}

// Close drains the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
