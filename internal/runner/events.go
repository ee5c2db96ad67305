package runner

import (
	"context"

	"github.com/ricesearch/rice-eval/internal/bus"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// StartedPayload is published when a configuration starts.
type StartedPayload struct {
	Analyzer string `json:"analyzer"`
	Queries  int    `json:"queries"`
}

// CompletedPayload is published when a configuration has been evaluated.
type CompletedPayload struct {
	Analyzer   string             `json:"analyzer"`
	Summary    evaluation.Summary `json:"summary"`
	DurationMs int64              `json:"duration_ms"`
}

// FailedPayload is published when a configuration is unavailable or fails.
type FailedPayload struct {
	Analyzer string `json:"analyzer"`
	Status   string `json:"status"`
	Error    string `json:"error"`
}

// SubscribeLogger logs every evaluation event at debug level.
func SubscribeLogger(ctx context.Context, b bus.Bus, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	handler := func(_ context.Context, event bus.Event) error {
		log.Debug("Evaluation event",
			"type", event.Type,
			"event_id", event.ID,
			"run_id", event.RunID,
			"payload", event.Payload,
		)
		return nil
	}

	for _, topic := range bus.Topics() {
		if err := b.Subscribe(ctx, topic, handler); err != nil {
			return err
		}
	}
	return nil
}
