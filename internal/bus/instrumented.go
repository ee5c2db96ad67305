package bus

import (
	"context"
)

// MetricsRecorder records bus activity.
// Defined here so the metrics package can implement it without an import cycle.
type MetricsRecorder interface {
	RecordBusPublish(topic string, err error)
}

// InstrumentedBus wraps a Bus implementation with metrics instrumentation.
type InstrumentedBus struct {
	inner   Bus
	metrics MetricsRecorder
}

// NewInstrumentedBus creates a new instrumented bus that records metrics.
func NewInstrumentedBus(inner Bus, metrics MetricsRecorder) *InstrumentedBus {
	return &InstrumentedBus{
		inner:   inner,
		metrics: metrics,
	}
}

// Publish publishes an event to a topic and records the outcome.
func (b *InstrumentedBus) Publish(ctx context.Context, topic string, event Event) error {
	err := b.inner.Publish(ctx, topic, event)
	if b.metrics != nil {
		b.metrics.RecordBusPublish(topic, err)
	}
	return err
}

// Subscribe subscribes to events on a topic.
func (b *InstrumentedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close closes the underlying bus.
func (b *InstrumentedBus) Close() error {
	return b.inner.Close()
}
