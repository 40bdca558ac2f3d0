package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

type recordingBroker struct {
	channel string
	message interface{}
	err     error
}

func (b *recordingBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.channel = channel
	b.message = message
	return b.err
}

func (b *recordingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBroker) Close() error { return nil }

func TestBrokerPublisherWrapsPayload(t *testing.T) {
	broker := &recordingBroker{}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	pub := NewBrokerPublisher(broker, AnamneseChannel, m)

	event := LifecycleEvent{AnamneseID: uuid.New(), UserID: uuid.New(), OccurredAt: time.Now().UTC()}
	require.NoError(t, pub.Publish(context.Background(), EventAnamneseCreated, event))

	assert.Equal(t, AnamneseChannel, broker.channel)
	msg, ok := broker.message.(Message)
	require.True(t, ok)
	assert.Equal(t, EventAnamneseCreated, msg.Type)

	var decoded LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, event.AnamneseID, decoded.AnamneseID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(EventAnamneseCreated, "success")))
}

func TestBrokerPublisherReportsFailures(t *testing.T) {
	broker := &recordingBroker{err: errors.New("down")}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	pub := NewBrokerPublisher(broker, AnamneseChannel, m)

	assert.Error(t, pub.Publish(context.Background(), EventAnamneseDeleted, LifecycleEvent{}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(EventAnamneseDeleted, "error")))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), EventAnamneseUpdated, nil))
}
