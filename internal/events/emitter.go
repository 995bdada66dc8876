package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/brainvault/brainvault-server/internal/metrics"
)

// publishTimeout bounds a single publish so a slow broker never holds a request.
const publishTimeout = 2 * time.Second

// Emitter publishes best effort: failures are logged and counted, never returned.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewEmitter wraps publisher. A nil publisher drops events.
func NewEmitter(publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Emitter {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{publisher: publisher, logger: logger, metrics: m}
}

// Emit publishes event. The request context's cancellation is ignored so an
// event for a committed write still goes out when the client disconnects.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := e.publisher.Publish(ctx, event)
	e.metrics.RecordEvent(string(event.Type), err)
	if err != nil {
		e.logger.Warn("failed to publish event",
			"type", event.Type,
			"event_id", event.ID,
			"idea_id", event.IdeaID,
			"error", err,
		)
	}
}

// Close closes the underlying publisher.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	return e.publisher.Close()
}
