package insight

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/taxonomy"
)

// InsightWriter persists one score per category for a message.
type InsightWriter interface {
	CreateMessageInsights(ctx context.Context, messageID uuid.UUID, scores map[taxonomy.Category]float64) error
}

// Publisher announces that a message was scored. Optional.
type Publisher interface {
	Publish(subject string, data any) error
}

// SubjectMessageScored is the event subject emitted after insights are written.
const SubjectMessageScored = "insight.message.scored"

// Recorder scores a message and writes its insight rows. It is a best-effort
// side channel: the message is already durable when Record runs, so every
// failure here is logged and swallowed, never propagated to the caller.
type Recorder struct {
	engine *Engine
	writer InsightWriter
	bus    Publisher
	logger *slog.Logger
}

// NewRecorder creates a recorder. bus may be nil.
func NewRecorder(engine *Engine, writer InsightWriter, bus Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{
		engine: engine,
		writer: writer,
		bus:    bus,
		logger: logger,
	}
}

// Record scores the message text and writes one insight row per category,
// zero scores included. Invoked synchronously right after a message insert.
func (r *Recorder) Record(ctx context.Context, messageID uuid.UUID, text string) {
	scores, err := r.engine.Score(ctx, text)
	if err != nil {
		r.logger.Error("scoring failed, skipping insights", "message_id", messageID, "error", err)
		return
	}

	if err := r.writer.CreateMessageInsights(ctx, messageID, scores); err != nil {
		r.logger.Error("failed to write insights", "message_id", messageID, "error", err)
		return
	}

	if r.bus != nil {
		if err := r.bus.Publish(SubjectMessageScored, map[string]any{
			"message_id": messageID.String(),
		}); err != nil {
			r.logger.Warn("failed to publish scored event", "message_id", messageID, "error", err)
		}
	}
}
