package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/config"
	"github.com/couchcryptid/daymet-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier publishes one message per finished output file.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes the report of one finished output.
func (n *Notifier) Notify(ctx context.Context, report domain.OutputReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish output report: %w", err)
	}
	n.logger.Debug("output report published", "path", report.Path, "topic", n.writer.Topic)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message keyed by the
// output file name, so reports for the same output share a partition.
func serializeToMessage(report domain.OutputReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize output report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.DataType + "/" + report.Parameter),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "data_type", Value: []byte(report.DataType)},
			{Key: "finished_at", Value: []byte(report.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}
