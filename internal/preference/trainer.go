package preference

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Publisher announces training events. Optional.
type Publisher interface {
	Publish(subject string, data any) error
}

// SubjectModelTrained is the event subject emitted after a successful
// training cycle.
const SubjectModelTrained = "insight.model.trained"

// Trainer rebuilds the preference model from the full message history and
// replaces the persisted artifact. It runs on a background schedule with its
// own store reads, never inside a request's transaction.
type Trainer struct {
	src       MessageSource
	modelPath string
	bus       Publisher
	logger    *slog.Logger
}

// NewTrainer creates a trainer. bus may be nil.
func NewTrainer(src MessageSource, modelPath string, bus Publisher, logger *slog.Logger) *Trainer {
	return &Trainer{
		src:       src,
		modelPath: modelPath,
		bus:       bus,
		logger:    logger,
	}
}

// Train runs one training cycle. An empty or malformed training set returns
// ErrInsufficientData and leaves the prior artifact untouched.
func (t *Trainer) Train(ctx context.Context) error {
	started := time.Now()

	features, labels, err := BuildTrainingSet(ctx, t.src)
	if err != nil {
		return fmt.Errorf("build training set: %w", err)
	}
	if len(features) == 0 || len(labels) == 0 {
		t.logger.Warn("not enough data to train the model")
		return ErrInsufficientData
	}
	if len(features) != len(labels) {
		t.logger.Error("training data and labels misaligned",
			"features", len(features), "labels", len(labels))
		return ErrInsufficientData
	}

	forest, err := Fit(features, labels)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	if err := SaveModel(t.modelPath, forest); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	t.logger.Info("preference model trained",
		"examples", len(features),
		"trees", len(forest.Trees),
		"duration", time.Since(started),
	)

	if t.bus != nil {
		if err := t.bus.Publish(SubjectModelTrained, map[string]any{
			"examples":   len(features),
			"trained_at": time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			t.logger.Warn("failed to publish model trained event", "error", err)
		}
	}
	return nil
}
