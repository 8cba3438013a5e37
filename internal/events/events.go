// Package events publishes record mutation notices to an MQTT broker.
// Publishing is best effort: a failed publish never fails the write that
// caused it.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/metrics"
)

// Kind names a mutation. It doubles as the topic suffix.
type Kind string

const (
	VehicleCreated Kind = "vehicles/created"
	VehicleUpdated Kind = "vehicles/updated"
	VehicleDeleted Kind = "vehicles/deleted"
	ExpenseCreated Kind = "expenses/created"
	ExpenseUpdated Kind = "expenses/updated"
	ExpenseDeleted Kind = "expenses/deleted"
	TripCreated    Kind = "trips/created"
	TripUpdated    Kind = "trips/updated"
	TripDeleted    Kind = "trips/deleted"
	PostCreated    Kind = "posts/created"
)

// Event is the JSON payload sent for one mutation.
type Event struct {
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id"`
	VehicleID  string    `json:"vehicle_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"kind":      e.Kind,
			"entity_id": e.EntityID,
		}).Warn("Failed to publish event")
	}
}

const (
	publishQoS     = 1
	publishTimeout = 5 * time.Second
)

var errPublishTimeout = errors.New("publish timed out")

// publishClient is the part of mqtt.Client used here.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events to <prefix>/<kind>.
type MQTTPublisher struct {
	client publishClient
	prefix string
}

// NewMQTTPublisher connects to broker and returns a publisher for it.
func NewMQTTPublisher(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to MQTT broker %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, prefix), nil
}

func newMQTTPublisher(client publishClient, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix}
}

// Topic returns the topic events of kind are published on.
func (p *MQTTPublisher) Topic(kind Kind) string {
	if p.prefix == "" {
		return string(kind)
	}
	return p.prefix + "/" + string(kind)
}

// Publish sends e and waits for the broker's acknowledgement, bounded by
// ctx and a fixed timeout.
func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(e.Kind), metrics.OutcomeFailed).Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(e.Kind), publishQoS, false, payload)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		err = token.Error()
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = errPublishTimeout
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(e.Kind), metrics.OutcomeFailed).Inc()
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	metrics.EventsPublished.WithLabelValues(string(e.Kind), metrics.OutcomePublished).Inc()
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
