// Package kafka publishes merged stress events to a Kafka topic. Publishing
// is optional; runs without brokers configured skip it entirely.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// eventMessage is the published JSON shape of one merged event.
type eventMessage struct {
	EventType     string   `json:"event_type"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	DurationDays  int      `json:"duration_days"`
	PeakDate      string   `json:"peak_date"`
	PeakValue     *float64 `json:"peak_value"` // null when no intensity was computable
	PeakMetric    string   `json:"peak_metric"`
	ReasonSummary string   `json:"reason_summary"`
	SeverityScore float64  `json:"severity_score"`
	SeverityLevel string   `json:"severity_level"`
}

// Publisher produces merged events to the events topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the configured events topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishEvents serializes and publishes the merged events in a single
// WriteMessages call. Messages are keyed by event type and start date so
// re-runs over the same period overwrite rather than duplicate under
// compaction.
func (p *Publisher) PublishEvents(ctx context.Context, events []domain.MergedEvent) error {
	if len(events) == 0 {
		return nil
	}
	generatedAt := domain.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(events))
	for i, ev := range events {
		msg, err := serializeEvent(ev, generatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish events: %w", err)
	}
	p.logger.Info("events published", "count", len(events))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeEvent(ev domain.MergedEvent, generatedAt string) (kafkago.Message, error) {
	const layout = "2006-01-02"
	payload := eventMessage{
		EventType:     string(ev.EventType),
		StartDate:     ev.StartDate.Format(layout),
		EndDate:       ev.EndDate.Format(layout),
		DurationDays:  ev.DurationDays,
		PeakDate:      ev.PeakDate.Format(layout),
		PeakMetric:    ev.PeakMetric,
		ReasonSummary: ev.ReasonSummary,
		SeverityScore: ev.SeverityScore,
		SeverityLevel: ev.SeverityLevel,
	}
	if !math.IsNaN(ev.PeakValue) {
		v := ev.PeakValue
		payload.PeakValue = &v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize merged event: %w", err)
	}
	key := fmt.Sprintf("%s-%s", ev.EventType, ev.StartDate.Format(layout))
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "generated_at", Value: []byte(generatedAt)},
		},
	}, nil
}
