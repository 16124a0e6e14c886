package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessageWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockMessageWriter) Close() error {
	m.closed = true
	return nil
}

func testAssessment() pipeline.Assessment {
	high := domain.NewRiskMarker(domain.ScoredPoint{SamplePoint: domain.SamplePoint{ID: 1, Lat: 29.7, Lon: -95.4}, RiskScore: 4.2}, domain.RiskHigh)
	low := domain.NewRiskMarker(domain.ScoredPoint{SamplePoint: domain.SamplePoint{ID: 2, Lat: 29.8, Lon: -95.3}, RiskScore: 0.1}, domain.RiskLow)
	markers := []domain.RiskMarker{high, low}
	return pipeline.Assessment{
		RunID:       "run-1",
		RiskMarkers: markers,
		Parameters:  pipeline.Parameters{Formula: domain.FormulaEnhanced},
		Statistics:  domain.Summarize(markers),
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	msg, err := serializeToMessage(testAssessment(), now)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "formula", msg.Headers[0].Key)
	assert.Equal(t, []byte("enhanced"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var event AssessmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, 1, event.Statistics.High)
	require.Len(t, event.HighRiskMarkers, 1)
	assert.Equal(t, 1, event.HighRiskMarkers[0].ID)
}

func TestWriter_Publish(t *testing.T) {
	mw := &mockMessageWriter{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC))
	w := &Writer{writer: mw, clock: clock, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testAssessment()))

	require.Len(t, mw.msgs, 1)
	assert.Equal(t, []byte("2025-08-25T12:00:00Z"), mw.msgs[0].Headers[1].Value)

	require.NoError(t, w.Close())
	assert.True(t, mw.closed)
}

func TestWriter_PublishError(t *testing.T) {
	mw := &mockMessageWriter{err: errors.New("leader not available")}
	w := &Writer{writer: mw, clock: clockwork.NewFakeClock(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), testAssessment())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
	assert.Contains(t, err.Error(), "leader not available")
}
