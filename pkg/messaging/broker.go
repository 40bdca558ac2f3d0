package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// BrokerPublisher sends every message to a single broker channel.
type BrokerPublisher struct {
	broker  Broker
	channel string
	metrics *metrics.Metrics
}

// NewBrokerPublisher returns a Publisher writing to channel. m may be nil.
func NewBrokerPublisher(broker Broker, channel string, m *metrics.Metrics) *BrokerPublisher {
	return &BrokerPublisher{broker: broker, channel: channel, metrics: m}
}

func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload interface{}) (err error) {
	defer func() { p.metrics.ObserveEvent(eventType, err) }()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return p.broker.Publish(ctx, p.channel, Message{Type: eventType, Payload: raw})
}

// NopPublisher discards every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
