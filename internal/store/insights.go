package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/insight-labs/insight/internal/taxonomy"
)

type MessageInsight struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	Category  taxonomy.Category
	Score     float64
}

// CreateMessageInsights writes one insight row per category for a message in
// a single batch. Existing rows for the message are replaced, so re-scoring
// a message is idempotent.
func (s *Store) CreateMessageInsights(ctx context.Context, messageID uuid.UUID, scores map[taxonomy.Category]float64) error {
	batch := &pgx.Batch{}
	for cat, score := range scores {
		batch.Queue(`
			INSERT INTO message_insights (id, message_id, category, score)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (message_id, category)
			DO UPDATE SET score = $4`,
			uuid.New(), messageID, string(cat), score,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range scores {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}
	return nil
}

// ListInsightsByMessage returns the insight rows recorded for a message.
func (s *Store) ListInsightsByMessage(ctx context.Context, messageID uuid.UUID) ([]MessageInsight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, message_id, category, score
		FROM message_insights
		WHERE message_id = $1`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []MessageInsight
	for rows.Next() {
		var in MessageInsight
		var cat string
		if err := rows.Scan(&in.ID, &in.MessageID, &cat, &in.Score); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Category = taxonomy.Category(cat)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// ListMessageIDsWithoutInsights returns IDs of user and assistant messages
// that have no insight rows, oldest first. The rescore runner uses this to
// pick up messages whose insight write failed at persistence time.
func (s *Store) ListMessageIDsWithoutInsights(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id
		FROM messages m
		LEFT JOIN message_insights mi ON mi.message_id = m.id
		WHERE mi.id IS NULL AND m.type IN ($1, $2)
		ORDER BY m.created_at ASC
		LIMIT $3`,
		string(taxonomy.MessageUser), string(taxonomy.MessageAssistant), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unscored messages: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetMessage fetches a single message by ID.
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, type, text, COALESCE(encoded_audio, ''), feedback, created_at
		FROM messages
		WHERE id = $1`,
		id,
	)

	var m Message
	var typ, fb string
	err := row.Scan(&m.ID, &m.UserID, &typ, &m.Text, &m.EncodedAudio, &fb, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = taxonomy.MessageType(typ)
	m.Feedback = taxonomy.Feedback(fb)
	return &m, nil
}
