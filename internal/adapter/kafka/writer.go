package kafka

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/config"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes hazard reports to the live feed topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes reports in a single WriteMessages call. Reports with
// the same ID hash to the same partition.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.HazardReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d reports: %w", len(msgs), err)
	}
	w.logger.Debug("reports published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a HazardReport into a Kafka message.
func serializeToMessage(report domain.HazardReport) (kafkago.Message, error) {
	data, err := json.Marshal(domain.ToWire(report))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard report: %w", err)
	}
	return kafkago.Message{
		Key:   messageKey(report),
		Value: data,
		Time:  report.Time,
		Headers: []kafkago.Header{
			{Key: "hazard_type", Value: []byte(report.HazardType)},
			{Key: "severity", Value: []byte(report.Severity)},
			{Key: "published_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}

// messageKey is the hex SHA-256 of the report ID.
func messageKey(report domain.HazardReport) []byte {
	sum := sha256.Sum256([]byte(report.ID))
	return []byte(hex.EncodeToString(sum[:]))
}
