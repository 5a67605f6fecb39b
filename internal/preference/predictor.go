package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/taxonomy"
)

// DefaultRecentWindow is how many of the user's most recent messages feed a
// prediction.
const DefaultRecentWindow = 10

// Predictor serves per-user preference vectors from the persisted model.
// It is read-only with respect to storage.
type Predictor struct {
	src          MessageSource
	modelPath    string
	recentWindow int
	logger       *slog.Logger
}

func NewPredictor(src MessageSource, modelPath string, recentWindow int, logger *slog.Logger) *Predictor {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &Predictor{
		src:          src,
		modelPath:    modelPath,
		recentWindow: recentWindow,
		logger:       logger,
	}
}

// Predict aggregates the user's recent message insights into a single
// feature vector and runs it through the persisted model. Before any model
// has been trained it returns an empty map, which callers must treat as
// "use defaults". A model trained under a different taxonomy is rejected
// with ErrIncompatibleModel.
func (p *Predictor) Predict(ctx context.Context, userID uuid.UUID) (map[taxonomy.Category]float64, error) {
	forest, err := LoadModel(p.modelPath)
	if errors.Is(err, ErrNoModel) {
		return map[taxonomy.Category]float64{}, nil
	}
	if err != nil {
		return nil, err
	}

	msgs, err := p.src.ListRecentMessages(ctx, userID, p.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}

	n := taxonomy.Count()
	feature := make([]float64, n)
	contributing := 0

	for _, msg := range msgs {
		insights, err := p.src.ListInsightsByMessage(ctx, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("list insights for %s: %w", msg.ID, err)
		}
		if len(insights) == 0 {
			continue
		}
		for _, in := range insights {
			if idx := taxonomy.Index(in.Category); idx >= 0 {
				feature[idx] += in.Score
			}
		}
		contributing++
	}

	if contributing > 0 {
		for i := range feature {
			feature[i] /= float64(contributing)
		}
	}

	predicted, err := forest.Predict(feature)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := make(map[taxonomy.Category]float64, n)
	for i, cat := range taxonomy.Categories() {
		out[cat] = predicted[i]
	}
	return out, nil
}
