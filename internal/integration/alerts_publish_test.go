//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/brisalabs/air-advisor/internal/adapter/kafka"
	"github.com/brisalabs/air-advisor/internal/advisor"
	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/observability"
)

const testAlertsTopic = "test-alerts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID(fmt.Sprintf("test-%d", time.Now().UnixNano())))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// publishedAlert holds a deserialized message read from the alerts topic.
type publishedAlert struct {
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	Place      string    `json:"place"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ObservedAt time.Time `json:"observed_at"`

	Key     string            `json:"-"`
	Headers map[string]string `json:"-"`
}

// readAlert reads a single message from the alerts consumer and
// deserializes it.
func readAlert(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedAlert {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from alerts topic")

	var alert publishedAlert
	require.NoError(t, json.Unmarshal(msg.Value, &alert), "unmarshal alert message")

	alert.Key = string(msg.Key)
	alert.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		alert.Headers[h.Key] = string(h.Value)
	}
	return alert
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAlertsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestAlertPublisherRoundTrip verifies the adapter layer: alerts derived
// from a hazardous observation round-trip through Kafka with their keys,
// headers, and body intact.
func TestAlertPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertsTopic)

	obs := domain.NormalizedObservation{
		Location:        domain.Location{Name: "Denver", Lat: 39.74, Lon: -104.99},
		FetchedAt:       time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC),
		TempC:           39,
		FeelsLikeC:      41,
		Humidity:        45,
		WindSpeed:       13,
		Pressure:        1008,
		Condition:       domain.ConditionStorm,
		PollutantSource: domain.SourceNone,
	}
	alerts := domain.Alerts(obs, domain.DefaultRuleset())
	require.Len(t, alerts, 3, "expected storm, heat, and wind alerts")

	publisher := kafka.NewPublisher([]string{broker}, testAlertsTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.PublishAlerts(ctx, obs.Location, obs.FetchedAt, alerts))

	consumer := newConsumer(t, broker)

	kinds := map[string]publishedAlert{}
	for range alerts {
		alert := readAlert(ctx, t, consumer)
		kinds[alert.Kind] = alert

		assert.Equal(t, "Denver", alert.Key)
		assert.Equal(t, alert.Kind, alert.Headers["kind"])
		assert.Equal(t, alert.Severity, alert.Headers["severity"])
		assert.Equal(t, "Denver", alert.Place)
		assert.Equal(t, 39.74, alert.Lat)
		assert.Equal(t, -104.99, alert.Lon)
		assert.Equal(t, obs.FetchedAt, alert.ObservedAt)
		assert.NotEmpty(t, alert.Message)
	}

	require.Contains(t, kinds, "storm")
	require.Contains(t, kinds, "extreme-heat")
	require.Contains(t, kinds, "high-wind")
	assert.Equal(t, "severe", kinds["storm"].Severity)
	assert.Equal(t, "severe", kinds["extreme-heat"].Severity)
	assert.Equal(t, "warning", kinds["high-wind"].Severity)
}

type stubResolver struct {
	obs domain.NormalizedObservation
}

func (s *stubResolver) Resolve(_ context.Context, loc domain.Location, _ time.Time) (domain.NormalizedObservation, error) {
	obs := s.obs
	obs.Location = loc
	return obs, nil
}

// TestAdviseDeliversUrgentAlerts wires the advice service to a real Kafka
// publisher and verifies that a request against hazardous conditions lands
// the urgent alerts on the topic while info alerts stay out of it.
func TestAdviseDeliversUrgentAlerts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertsTopic)

	// 35°C is a heat warning; 9 m/s wind is info-grade and must not be
	// published.
	resolver := &stubResolver{obs: domain.NormalizedObservation{
		FetchedAt:       time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC),
		TempC:           35,
		FeelsLikeC:      37,
		Humidity:        40,
		WindSpeed:       9,
		Pressure:        1012,
		Condition:       domain.ConditionClear,
		PollutantSource: domain.SourceNone,
	}}

	publisher := kafka.NewPublisher([]string{broker}, testAlertsTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	svc := advisor.New(resolver, nil, publisher, advisor.Config{
		Rules:          domain.DefaultRuleset(),
		RequestTimeout: 10 * time.Second,
	}, discardLogger(), observability.NewMetricsForTesting())

	denver := domain.Location{Name: "Denver", Lat: 39.74, Lon: -104.99}
	advice, err := svc.Advise(ctx, advisor.AdviceRequest{
		Location: &denver,
		Profile:  domain.UserProfile{Activity: domain.ActivityRunning},
	})
	require.NoError(t, err)
	require.Len(t, advice.Alerts, 2, "expected heat warning and wind info alerts")

	consumer := newConsumer(t, broker)

	alert := readAlert(ctx, t, consumer)
	assert.Equal(t, "extreme-heat", alert.Kind)
	assert.Equal(t, "warning", alert.Severity)
	assert.Equal(t, "Denver", alert.Key)

	// The info-grade wind alert must not arrive.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on alerts topic")
}
