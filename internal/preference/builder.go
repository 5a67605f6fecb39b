// Package preference learns per-user content preferences from accumulated
// message insights. A background trainer periodically rebuilds a regression
// model over the full message history; a predictor serves per-user
// preference vectors from the persisted model.
package preference

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/store"
	"github.com/insight-labs/insight/internal/taxonomy"
)

// MessageSource is the slice of the store the preference pipeline reads.
type MessageSource interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	ListMessagesByUser(ctx context.Context, userID uuid.UUID) ([]store.Message, error)
	ListRecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]store.Message, error)
	ListInsightsByMessage(ctx context.Context, messageID uuid.UUID) ([]store.MessageInsight, error)
}

// BuildTrainingSet rescans every user's message history and emits aligned
// feature and label matrices, one row per usable message. Column order is
// the canonical taxonomy order.
//
// Labeling rules:
//   - user message: the label is a copy of the feature vector; the user's
//     own expressed emphasis is taken as ground-truth preference signal;
//   - assistant message with explicit feedback: the label is the feature
//     vector scaled by +1 (positive) or -1 (negative), so disliked responses
//     teach the model to suppress the categories they contained;
//   - assistant message without feedback, and system messages: skipped.
//
// Messages with no recorded insights are skipped entirely. An empty corpus
// yields empty matrices and no error.
func BuildTrainingSet(ctx context.Context, src MessageSource) (features, labels [][]float64, err error) {
	n := taxonomy.Count()

	userIDs, err := src.ListUserIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		msgs, err := src.ListMessagesByUser(ctx, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("list messages for %s: %w", userID, err)
		}

		for _, msg := range msgs {
			insights, err := src.ListInsightsByMessage(ctx, msg.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("list insights for %s: %w", msg.ID, err)
			}
			if len(insights) == 0 {
				continue
			}

			feature := make([]float64, n)
			for _, in := range insights {
				idx := taxonomy.Index(in.Category)
				if idx < 0 {
					continue
				}
				feature[idx] = in.Score
			}

			label := make([]float64, n)
			switch {
			case msg.Type == taxonomy.MessageUser:
				copy(label, feature)
			case msg.Type == taxonomy.MessageAssistant && msg.Feedback != taxonomy.FeedbackNeutral:
				sign := 1.0
				if msg.Feedback == taxonomy.FeedbackNegative {
					sign = -1.0
				}
				for i, v := range feature {
					label[i] = v * sign
				}
			default:
				continue
			}

			features = append(features, feature)
			labels = append(labels, label)
		}
	}

	return features, labels, nil
}
