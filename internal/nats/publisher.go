package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/pyai/assistant-platform/internal/model"
)

const (
	// StreamName is the name of the audit-event stream.
	StreamName = "CHAT_EVENTS"

	// SubjectPrefix is the prefix for all chat event subjects.
	SubjectPrefix = "chat"
)

// EventPublisher publishes conversation audit events. The core store
// never depends on it; a failed publish only costs the audit record.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent) error
}

// Disabled is an EventPublisher that drops all events. Used when no
// NATS URL is configured.
type Disabled struct{}

// PublishEvent discards the event.
func (Disabled) PublishEvent(ctx context.Context, event *model.ConversationEvent) error {
	return nil
}

// StreamPublisher publishes events to a JetStream stream.
type StreamPublisher struct {
	client *Client
}

// NewStreamPublisher creates a publisher over an established client.
func NewStreamPublisher(client *Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// EnsureStream ensures the audit stream exists.
func (p *StreamPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Chat assistant conversation audit events",
	})
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for an event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, sessionID, eventType)
}

// PublishEvent publishes an event to JetStream.
func (p *StreamPublisher) PublishEvent(ctx context.Context, event *model.ConversationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	subject := EventSubject(event.SessionID, event.Type)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}
