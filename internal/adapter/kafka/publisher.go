// Package kafka publishes urgent alerts to a Kafka topic so downstream
// notifiers (push, SMS, dashboards) can deliver them out-of-band.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/brisalabs/air-advisor/internal/domain"
)

// Publisher produces one message per alert to the alerts topic.
// It implements advisor.AlertSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alerts topic. The Hash
// balancer keys partitions by location, so alerts for one place arrive
// in the order they were published.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes the alerts in a single
// WriteMessages call. An empty batch is a no-op.
func (p *Publisher) PublishAlerts(ctx context.Context, loc domain.Location, observedAt time.Time, alerts []domain.AlertEvent) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs, err := alertMessages(loc, observedAt, alerts)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	p.logger.Debug("published alerts",
		"location", loc.Label(),
		"count", len(alerts),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// alertRecord is the wire form of one published alert.
type alertRecord struct {
	Kind       domain.AlertKind `json:"kind"`
	Severity   domain.Severity  `json:"severity"`
	Message    string           `json:"message"`
	Place      string           `json:"place,omitempty"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	ObservedAt time.Time        `json:"observed_at"`
}

// alertMessages marshals each alert into a Kafka message keyed by the
// location label, with kind and severity mirrored into headers so
// consumers can filter without decoding the body.
func alertMessages(loc domain.Location, observedAt time.Time, alerts []domain.AlertEvent) ([]kafkago.Message, error) {
	key := []byte(loc.Label())
	msgs := make([]kafkago.Message, len(alerts))
	for i, a := range alerts {
		data, err := json.Marshal(alertRecord{
			Kind:       a.Kind,
			Severity:   a.Severity,
			Message:    a.Message,
			Place:      loc.Name,
			Lat:        loc.Lat,
			Lon:        loc.Lon,
			ObservedAt: observedAt.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("serialize alert: %w", err)
		}
		msgs[i] = kafkago.Message{
			Key:   key,
			Value: data,
			Headers: []kafkago.Header{
				{Key: "kind", Value: []byte(a.Kind)},
				{Key: "severity", Value: []byte(a.Severity)},
			},
		}
	}
	return msgs, nil
}
