//go:build integration

package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/insight-labs/insight/internal/taxonomy"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_MessageLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	email := fmt.Sprintf("it-%d@example.test", time.Now().UnixNano())
	userID, err := s.CreateUser(ctx, "Integration Test", email)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	msg, err := s.CreateMessage(ctx, userID, taxonomy.MessageUser, "describe the scene", "")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if msg.Feedback != taxonomy.FeedbackNeutral {
		t.Errorf("expected neutral feedback on new message, got %s", msg.Feedback)
	}

	reply, err := s.CreateMessage(ctx, userID, taxonomy.MessageAssistant, "a quiet park at dusk", "")
	if err != nil {
		t.Fatalf("CreateMessage (assistant) failed: %v", err)
	}

	msgs, err := s.ListMessagesByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListMessagesByUser failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != msg.ID {
		t.Error("expected chronological order, user message first")
	}

	// Feedback only lands on assistant messages.
	if err := s.SetFeedback(ctx, userID, reply.ID, taxonomy.FeedbackPositive); err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	if err := s.SetFeedback(ctx, userID, msg.ID, taxonomy.FeedbackPositive); err == nil {
		t.Error("expected feedback on a user message to be rejected")
	}

	if err := s.DeleteConversation(ctx, userID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	msgs, err = s.ListMessagesByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListMessagesByUser after delete failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages after delete, got %d", len(msgs))
	}
}

func TestIntegration_InsightRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	email := fmt.Sprintf("it-%d@example.test", time.Now().UnixNano())
	userID, err := s.CreateUser(ctx, "Integration Test", email)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	msg, err := s.CreateMessage(ctx, userID, taxonomy.MessageUser, "what colors are in the picture", "")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	scores := map[taxonomy.Category]float64{}
	for _, c := range taxonomy.Categories() {
		scores[c] = 0.0
	}
	scores[taxonomy.Color] = 0.83

	if err := s.CreateMessageInsights(ctx, msg.ID, scores); err != nil {
		t.Fatalf("CreateMessageInsights failed: %v", err)
	}

	insights, err := s.ListInsightsByMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("ListInsightsByMessage failed: %v", err)
	}
	if len(insights) != taxonomy.Count() {
		t.Fatalf("expected %d insight rows, got %d", taxonomy.Count(), len(insights))
	}
	for _, in := range insights {
		if in.Category == taxonomy.Color && math.Abs(in.Score-0.83) > 1e-9 {
			t.Errorf("expected COLOR score 0.83, got %f", in.Score)
		}
	}

	// Re-scoring replaces rather than duplicates.
	scores[taxonomy.Color] = 0.5
	if err := s.CreateMessageInsights(ctx, msg.ID, scores); err != nil {
		t.Fatalf("CreateMessageInsights (rescore) failed: %v", err)
	}
	insights, err = s.ListInsightsByMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("ListInsightsByMessage failed: %v", err)
	}
	if len(insights) != taxonomy.Count() {
		t.Errorf("expected %d rows after rescore, got %d", taxonomy.Count(), len(insights))
	}
}

func TestIntegration_UnscoredMessages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	email := fmt.Sprintf("it-%d@example.test", time.Now().UnixNano())
	userID, err := s.CreateUser(ctx, "Integration Test", email)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	msg, err := s.CreateMessage(ctx, userID, taxonomy.MessageUser, "unscored", "")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	ids, err := s.ListMessageIDsWithoutInsights(ctx, 1000)
	if err != nil {
		t.Fatalf("ListMessageIDsWithoutInsights failed: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == msg.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected freshly created message to be listed as unscored")
	}
}
