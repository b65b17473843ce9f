package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/prepview-ai/session-core/internal/model"
)

const (
	// StreamName is the name of the session events stream.
	StreamName = "INTERVIEW_EVENTS"

	// SubjectPrefix is the prefix for all session event subjects.
	SubjectPrefix = "interview.session"
)

// StreamManager mirrors appended session events onto a JetStream stream so
// generation collaborators can subscribe instead of polling projections.
// The EventStore remains the system of record; a publish failure never
// fails the append it mirrors.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the session events stream exists with proper
// configuration. Retention is bounded to the session TTL scale; the stream
// is a notification fan-out, not durable session state.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	// Create stream
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Interview session event mirror",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for a session event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, sessionID, eventType)
}

// SessionFilter returns the filter subject for all events in a session.
func SessionFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, sessionID)
}

// PublishEvent publishes a session event to JetStream.
func (m *StreamManager) PublishEvent(ctx context.Context, sessionID string, event *model.Event) error {
	subject := EventSubject(sessionID, event.Type.Canonical())

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
