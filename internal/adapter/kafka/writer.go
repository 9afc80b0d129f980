package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cyclone-track-service/internal/config"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

// Writer produces normalized points to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer    *kafkago.Writer
	logger    *slog.Logger
	batchSize int
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, batchSize: 500}
}

// Publish writes every point, chunked into WriteMessages calls. Points of the
// same storm share a key so they land on one partition in order.
func (w *Writer) Publish(ctx context.Context, points []domain.Point) error {
	for start := 0; start < len(points); start += w.batchSize {
		end := min(start+w.batchSize, len(points))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, p := range points[start:end] {
			msg, err := serializeToMessage(p)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write messages %d-%d: %w", start, end, err)
		}
		w.logger.Debug("published batch", "topic", w.writer.Topic, "messages", len(msgs))
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey groups observations by year and storm, since serial numbers
// restart every year.
func messageKey(p domain.Point) string {
	return strconv.Itoa(p.Year()) + "-" + strconv.Itoa(p.StormID)
}

// serializeToMessage marshals a Point into a Kafka message.
func serializeToMessage(p domain.Point) (kafkago.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize point: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(p)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "storm_id", Value: []byte(strconv.Itoa(p.StormID))},
			{Key: "grade", Value: []byte(p.Grade)},
			{Key: "timestamp", Value: []byte(p.Timestamp())},
		},
	}, nil
}
