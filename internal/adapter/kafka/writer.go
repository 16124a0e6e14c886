package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes assessment summaries to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the assessment topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// AssessmentEvent is the published form of an assessment. Only HIGH markers
// are carried; the full marker set stays with the HTTP response.
type AssessmentEvent struct {
	RunID            string                `json:"run_id"`
	ProcessedAt      time.Time             `json:"processed_at"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
	Parameters       pipeline.Parameters   `json:"parameters"`
	Statistics       domain.Statistics     `json:"statistics"`
	DEMInfo          pipeline.DEMInfo      `json:"dem_info"`
	Scores           pipeline.ScoreSummary `json:"scores"`
	HighRiskMarkers  []domain.RiskMarker   `json:"high_risk_markers"`
}

// Publish serializes the assessment and writes it keyed by run ID.
func (w *Writer) Publish(ctx context.Context, a pipeline.Assessment) error {
	msg, err := serializeToMessage(a, w.clock.Now().UTC())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish assessment %s: %w", a.RunID, err)
	}
	w.logger.Debug("assessment published", "run_id", a.RunID, "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func newEvent(a pipeline.Assessment, processedAt time.Time) AssessmentEvent {
	high := make([]domain.RiskMarker, 0, a.Statistics.High)
	for _, m := range a.RiskMarkers {
		if m.Level == domain.RiskHigh {
			high = append(high, m)
		}
	}
	return AssessmentEvent{
		RunID:            a.RunID,
		ProcessedAt:      processedAt,
		ProcessingTimeMs: a.ProcessingTimeMs,
		Parameters:       a.Parameters,
		Statistics:       a.Statistics,
		DEMInfo:          a.DEMInfo,
		Scores:           a.Scores,
		HighRiskMarkers:  high,
	}
}

// serializeToMessage marshals an assessment into a Kafka message.
func serializeToMessage(a pipeline.Assessment, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(newEvent(a, processedAt))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "formula", Value: []byte(a.Parameters.Formula)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
