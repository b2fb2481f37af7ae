package report

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
)

// EventWriter is the Kafka producer surface the publisher needs.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher announces finished reports. Delivery is retried; a final
// failure is returned but never undoes the report.
type Publisher struct {
	writer EventWriter
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewPublisher(writer EventWriter, retry resilience.RetryConfig) *Publisher {
	return &Publisher{
		writer: writer,
		retry:  retry,
		logger: slog.Default().With("component", "report-publisher"),
	}
}

// Completed publishes event keyed by report ID so every event for one report
// lands on the same partition.
func (p *Publisher) Completed(ctx context.Context, event CompletedEvent) error {
	msg := kafka.Event{Key: event.ReportID, Value: event}
	err := resilience.Retry(ctx, "publish-completed", p.retry, func(ctx context.Context) error {
		return p.writer.Publish(ctx, msg)
	})
	if err != nil {
		p.logger.Error("completion event lost", "report_id", event.ReportID, "error", err)
		return err
	}
	return nil
}
