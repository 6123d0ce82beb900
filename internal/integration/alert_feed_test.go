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
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/disaster-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-risk-engine/internal/config"
	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/engine"
	"github.com/couchcryptid/disaster-risk-engine/internal/mockdata"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
	"github.com/couchcryptid/disaster-risk-engine/internal/observability"
)

const testAlertTopic = "test-risk-alerts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

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

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// alertMessage holds a deserialized message read from the alert topic.
type alertMessage struct {
	Assessment domain.RiskAssessment
	Key        string
	Headers    map[string]string
}

func readAlert(ctx context.Context, t *testing.T, consumer *kafkago.Reader) alertMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from alert topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.RiskAssessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal alert message")

	return alertMessage{Assessment: a, Key: string(msg.Key), Headers: headers}
}

// TestAlertFeedEndToEnd refreshes the engine against real Kafka and
// verifies every assessment at or above the minimum severity arrives on
// the alert topic with its headers intact.
func TestAlertFeedEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaAlertTopic: testAlertTopic,
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	source := mockdata.NewGenerator(42, 30, 50)
	source.Base = time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

	e := engine.New(source, domain.DefaultEngineConfig(), model.DefaultConfig(), discardLogger(), observability.NewMetricsForTesting())
	e.SetAlertFeed(publisher, domain.SeverityHigh)

	require.NoError(t, e.Refresh(ctx))

	var want []domain.RiskAssessment
	for _, a := range e.Assessments() {
		if a.Severity >= domain.SeverityHigh {
			want = append(want, a)
		}
	}
	require.NotEmpty(t, want, "generated record set should contain high-severity assessments")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAlertTopic,
		GroupID:     fmt.Sprintf("test-alerts-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]alertMessage, len(want))
	for len(received) < len(want) {
		am := readAlert(ctx, t, consumer)
		received[am.Key] = am
	}

	for _, expected := range want {
		am, ok := received[expected.SourceID]
		require.Truef(t, ok, "no alert for %s", expected.SourceID)

		assert.Equal(t, expected.SourceID, am.Assessment.SourceID)
		assert.Equal(t, expected.RegionID, am.Assessment.RegionID)
		assert.Equal(t, expected.Category, am.Assessment.Category)
		assert.Equal(t, expected.Severity, am.Assessment.Severity)
		assert.InDelta(t, expected.Score, am.Assessment.Score, 1e-9)

		assert.Equal(t, expected.RegionID, am.Headers["region_id"])
		assert.Equal(t, expected.Severity.String(), am.Headers["severity"])
		_, err := time.Parse(time.RFC3339, am.Headers["assessed_at"])
		assert.NoError(t, err, "assessed_at should be valid RFC3339")
	}

	// A second refresh over the same deterministic record set republishes
	// the same alert keys; compaction by source ID keeps consumers
	// idempotent.
	require.NoError(t, e.Refresh(ctx))
	am := readAlert(ctx, t, consumer)
	_, seen := received[am.Key]
	assert.True(t, seen, "republished alert should reuse a known source ID")
}
