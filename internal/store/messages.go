package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/taxonomy"
)

type Message struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Type         taxonomy.MessageType
	Text         string
	EncodedAudio string
	Feedback     taxonomy.Feedback
	CreatedAt    time.Time
}

// CreateMessage inserts a message and returns it with its generated ID and
// timestamp filled in. Feedback starts neutral.
func (s *Store) CreateMessage(ctx context.Context, userID uuid.UUID, typ taxonomy.MessageType, text, encodedAudio string) (*Message, error) {
	m := &Message{
		ID:       uuid.New(),
		UserID:   userID,
		Type:     typ,
		Text:     text,
		Feedback: taxonomy.FeedbackNeutral,
	}
	m.EncodedAudio = encodedAudio

	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, user_id, type, text, encoded_audio)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at`,
		m.ID, m.UserID, string(m.Type), m.Text, m.EncodedAudio,
	)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// ListMessagesByUser returns all of a user's messages in chronological order.
func (s *Store) ListMessagesByUser(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, text, COALESCE(encoded_audio, ''), feedback, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListRecentMessages returns the user's most recent messages, newest first.
func (s *Store) ListRecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, text, COALESCE(encoded_audio, ''), feedback, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// SetFeedback tags an assistant message with user feedback. Only assistant
// messages accept feedback; tagging anything else is a no-op reported as an
// error so the API surface can reject it.
func (s *Store) SetFeedback(ctx context.Context, userID, messageID uuid.UUID, fb taxonomy.Feedback) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET feedback = $1
		WHERE id = $2 AND user_id = $3 AND type = $4`,
		string(fb), messageID, userID, string(taxonomy.MessageAssistant),
	)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s not found for user", messageID)
	}
	return nil
}

// DeleteConversation removes a user's user- and assistant-authored messages.
// Insight rows cascade with their messages.
func (s *Store) DeleteConversation(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM messages
		WHERE user_id = $1 AND type IN ($2, $3)`,
		userID, string(taxonomy.MessageUser), string(taxonomy.MessageAssistant),
	)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows rowScanner) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		var typ, fb string
		err := rows.Scan(&m.ID, &m.UserID, &typ, &m.Text, &m.EncodedAudio, &fb, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = taxonomy.MessageType(typ)
		m.Feedback = taxonomy.Feedback(fb)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
