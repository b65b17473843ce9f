// Package session provides the session event log services: the event
// logger, the read-only projections, deterministic restore, and TTL
// refresh.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/prepview-ai/session-core/internal/model"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
	"github.com/prepview-ai/session-core/pkg/metrics"
)

// DefaultMaxRecordBytes caps a serialized record. Oversized records are
// truncated, which is accepted lossy behavior to bound storage growth.
const DefaultMaxRecordBytes = 8000

// EventPublisher mirrors appended events to an external stream. Optional;
// publish failures never fail the append.
type EventPublisher interface {
	PublishEvent(ctx context.Context, sessionID string, event *model.Event) error
}

// EventLogger appends typed, tagged event records to a session's log.
type EventLogger struct {
	provider       *store.Provider
	maxRecordBytes int
	publisher      EventPublisher
	logger         *logger.Logger
}

// NewEventLogger creates an event logger. publisher may be nil.
func NewEventLogger(provider *store.Provider, maxRecordBytes int, publisher EventPublisher, log *logger.Logger) *EventLogger {
	if maxRecordBytes <= 0 {
		maxRecordBytes = DefaultMaxRecordBytes
	}
	return &EventLogger{
		provider:       provider,
		maxRecordBytes: maxRecordBytes,
		publisher:      publisher,
		logger:         log,
	}
}

// encodeRecord serializes one {type, data} envelope, applying the record
// size ceiling.
func encodeRecord(eventType model.EventType, payload any, maxBytes int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	record, err := json.Marshal(model.Event{Type: eventType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", eventType, err)
	}
	if maxBytes > 0 && len(record) > maxBytes {
		record = record[:maxBytes]
		metrics.EventsTruncatedTotal.Inc()
	}
	return record, nil
}

// Log serializes {type, data} to a single store record and appends it.
// Exactly one record per event; there are no multi-record transactions.
func (l *EventLogger) Log(ctx context.Context, sessionID string, eventType model.EventType, payload any) error {
	record, err := encodeRecord(eventType, payload, l.maxRecordBytes)
	if err != nil {
		return err
	}

	st := l.provider.Store()
	if err := st.Append(ctx, sessionID, record); err != nil {
		return err
	}
	metrics.RecordAppend(string(eventType.Canonical()), l.backendName())

	l.mirror(ctx, sessionID, eventType, record)
	return nil
}

// LogQuestionAsked appends a QuestionAsked event. A set ParentQuestionID
// marks the question as a follow-up.
func (l *EventLogger) LogQuestionAsked(ctx context.Context, sessionID string, p *model.QuestionAskedPayload) error {
	return l.Log(ctx, sessionID, model.EventQuestionAsked, p)
}

// LogAnswerReceived appends an AnswerReceived event.
func (l *EventLogger) LogAnswerReceived(ctx context.Context, sessionID string, p *model.AnswerReceivedPayload) error {
	return l.Log(ctx, sessionID, model.EventAnswerReceived, p)
}

// LogAnswerEvaluated appends an AnswerEvaluated event.
func (l *EventLogger) LogAnswerEvaluated(ctx context.Context, sessionID string, p *model.AnswerEvaluatedPayload) error {
	return l.Log(ctx, sessionID, model.EventAnswerEvaluated, p)
}

func (l *EventLogger) backendName() string {
	if l.provider.Remote() {
		return "redis"
	}
	return "transient"
}

// mirror republishes an appended record best-effort. A truncated record
// that no longer parses is not mirrored.
func (l *EventLogger) mirror(ctx context.Context, sessionID string, eventType model.EventType, record []byte) {
	if l.publisher == nil {
		return
	}
	event, err := model.ParseEvent(record)
	if err != nil {
		return
	}
	if err := l.publisher.PublishEvent(ctx, sessionID, event); err != nil {
		metrics.EventsMirroredTotal.WithLabelValues("error").Inc()
		l.logger.Warn("event mirror publish failed",
			zap.String("session_id", sessionID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}
	metrics.EventsMirroredTotal.WithLabelValues("ok").Inc()
}
