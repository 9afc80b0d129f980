//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/cyclone-track-service/internal/adapter/kafka"
	"github.com/couchcryptid/cyclone-track-service/internal/adapter/source"
	"github.com/couchcryptid/cyclone-track-service/internal/config"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
	"github.com/couchcryptid/cyclone-track-service/internal/pipeline"
	"github.com/couchcryptid/cyclone-track-service/internal/viewer"
)

const testSinkTopic = "test-cyclone-observations"

const fixtureDoc = `[
  {"latitude-lat": "10.5", "longitude-long": "75.0", "maximumsustainedsurfacewind-kt": "50",
   "estimatedcentralpressurehpaorecp": "990", "serialnumberofsystemduringyear": "3",
   "date-dd-mm-yyyy": "05-06-2001", "time-utc": "0300", "grade-text": "SCS", "name": "ARB 01"},
  {"latitude-lat": "11.0", "longitude-long": "75.5", "maximumsustainedsurfacewind-kt": "65",
   "estimatedcentralpressurehpaorecp": "984", "serialnumberofsystemduringyear": "3",
   "date-dd-mm-yyyy": "05-06-2001", "time-utc": "0600", "grade-text": "VSCS", "name": "ARB 01"},
  {"latitude-lat": "abc", "longitude-long": "75.5", "serialnumberofsystemduringyear": "3",
   "date-dd-mm-yyyy": "05-06-2001", "time-utc": "0900"}
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

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

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cyclones.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDoc), 0o600))
	return path
}

// TestPipelineToKafka runs the load stage against a real broker and checks
// that every kept point reaches the sink topic with its key and headers.
func TestPipelineToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	v, err := viewer.New(2001, metrics)
	require.NoError(t, err)

	loader := source.NewLoader(5*time.Second, discardLogger())
	p := pipeline.New(loader, writeFixture(t), v, discardLogger(), metrics, writer)
	require.NoError(t, p.Run(ctx))
	require.NoError(t, p.CheckReadiness(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var received []domain.Point
	for len(received) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		assert.Equal(t, "2001-3", string(msg.Key))
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "3", headers["storm_id"])
		assert.NotEmpty(t, headers["grade"])

		var point domain.Point
		require.NoError(t, json.Unmarshal(msg.Value, &point))
		assert.Equal(t, point.Timestamp(), headers["timestamp"])
		received = append(received, point)
	}

	assert.Equal(t, "05-06-20010300", received[0].Timestamp())
	assert.InDelta(t, 92.6, received[0].WindSpeed, 1e-9)
	assert.Equal(t, "05-06-20010600", received[1].Timestamp())
	assert.Equal(t, "#ffc140", received[1].Color)

	// The dropped record must not follow.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no third message on sink topic")

	assert.Equal(t, 1, v.Snapshot().SliderMax)
}
