// Package bus provides event bus implementations for evaluation run events.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "evaluation.completed").
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// RunID links every event of one evaluation run.
	RunID string `json:"run_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Topics for evaluation events.
const (
	TopicEvaluationStarted   = "evaluation.started"
	TopicEvaluationCompleted = "evaluation.completed"
	TopicEvaluationFailed    = "evaluation.failed"
)

// Topics lists every topic the evaluator publishes on.
func Topics() []string {
	return []string{TopicEvaluationStarted, TopicEvaluationCompleted, TopicEvaluationFailed}
}

// DefaultSource is the event source of the evaluator.
const DefaultSource = "rice-eval"

// NewEvent creates an event with a fresh ID and the current time.
func NewEvent(eventType, runID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    DefaultSource,
		Timestamp: time.Now().UnixMilli(),
		RunID:     runID,
		Payload:   payload,
	}
}

// NopBus discards every event.
type NopBus struct{}

// Publish implements Bus.
func (NopBus) Publish(context.Context, string, Event) error { return nil }

// Subscribe implements Bus.
func (NopBus) Subscribe(context.Context, string, Handler) error { return nil }

// Close implements Bus.
func (NopBus) Close() error { return nil }
