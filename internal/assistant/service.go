// Package assistant orchestrates the completion flow: conversation context,
// the LLM call, message persistence and the insight side channel.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/llm"
	"github.com/insight-labs/insight/internal/store"
	"github.com/insight-labs/insight/internal/taxonomy"
)

// DefaultHistoryWindow is how many recent messages are replayed as
// conversation context on each completion.
const DefaultHistoryWindow = 20

// ErrNoInput means a completion request carried neither text nor audio.
var ErrNoInput = errors.New("no message provided")

// LLM is the slice of the OpenAI client the service needs.
type LLM interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// MessageStore is the slice of the store the service reads and writes.
type MessageStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*store.User, error)
	CreateMessage(ctx context.Context, userID uuid.UUID, typ taxonomy.MessageType, text, encodedAudio string) (*store.Message, error)
	ListRecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]store.Message, error)
	SetFeedback(ctx context.Context, userID, messageID uuid.UUID, fb taxonomy.Feedback) error
	DeleteConversation(ctx context.Context, userID uuid.UUID) error
}

// InsightRecorder is the best-effort scoring side channel invoked after each
// message insert.
type InsightRecorder interface {
	Record(ctx context.Context, messageID uuid.UUID, text string)
}

// PreferenceSource serves learned per-user category weights.
type PreferenceSource interface {
	Predict(ctx context.Context, userID uuid.UUID) (map[taxonomy.Category]float64, error)
}

type Service struct {
	store         MessageStore
	llm           LLM
	recorder      InsightRecorder
	prefs         PreferenceSource
	historyWindow int
	logger        *slog.Logger
}

func New(st MessageStore, client LLM, recorder InsightRecorder, prefs PreferenceSource, logger *slog.Logger) *Service {
	return &Service{
		store:         st,
		llm:           client,
		recorder:      recorder,
		prefs:         prefs,
		historyWindow: DefaultHistoryWindow,
		logger:        logger,
	}
}

// CompletionRequest is one user turn. Text may come directly or via Audio
// (transcribed first). Images are base64-encoded JPEG payloads.
type CompletionRequest struct {
	UserID        uuid.UUID
	Text          string
	Audio         []byte
	AudioFilename string
	Images        []string
	GenerateAudio bool
}

// CompletionResult carries the persisted turn plus optional synthesized audio.
type CompletionResult struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
	Audio            []byte
}

// Complete runs one conversation turn. Preference-pipeline failures
// (prediction, scoring) are logged and absorbed; only LLM or storage
// failures fail the request.
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	text := req.Text
	if text == "" && len(req.Audio) > 0 {
		transcribed, err := s.llm.Transcribe(ctx, req.Audio, req.AudioFilename)
		if err != nil {
			return nil, fmt.Errorf("transcribe audio: %w", err)
		}
		text = transcribed
	}
	if text == "" && len(req.Images) == 0 {
		return nil, ErrNoInput
	}

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	userMsg, err := s.store.CreateMessage(ctx, req.UserID, taxonomy.MessageUser, text, "")
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	s.recorder.Record(ctx, userMsg.ID, userMsg.Text)

	contextMsgs, err := s.buildContext(ctx, user, req.Images)
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Complete(ctx, contextMsgs)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	assistantMsg, err := s.store.CreateMessage(ctx, req.UserID, taxonomy.MessageAssistant, reply, "")
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	s.recorder.Record(ctx, assistantMsg.ID, assistantMsg.Text)

	result := &CompletionResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}

	if req.GenerateAudio {
		audio, err := s.llm.Synthesize(ctx, reply)
		if err != nil {
			// The text reply is already durable; ship it without audio.
			s.logger.Error("speech synthesis failed", "message_id", assistantMsg.ID, "error", err)
		} else {
			result.Audio = audio
		}
	}

	return result, nil
}

// buildContext assembles the system prompt plus recent history, oldest
// first. The latest history entry is the just-persisted user message; any
// request images ride on that turn.
func (s *Service) buildContext(ctx context.Context, user *store.User, images []string) ([]llm.Message, error) {
	prompt := systemPrompt
	prefs, err := s.prefs.Predict(ctx, user.ID)
	if err != nil {
		s.logger.Warn("preference prediction failed, using base prompt", "user_id", user.ID, "error", err)
	} else {
		prompt = buildSystemPrompt(prefs)
	}

	msgs := []llm.Message{{Role: "system", Text: prompt}}

	history, err := s.store.ListRecentMessages(ctx, user.ID, s.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	// history is newest-first; replay chronologically.
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		text := m.Text
		if m.Type == taxonomy.MessageUser {
			text = fmt.Sprintf("%s's Prompt: %s", user.Name, m.Text)
		}
		msgs = append(msgs, llm.Message{Role: string(m.Type), Text: text})
	}

	if len(images) > 0 && len(msgs) > 1 {
		msgs[len(msgs)-1].Images = images
	}
	return msgs, nil
}

// Messages returns the user's recent conversation, oldest first.
func (s *Service) Messages(ctx context.Context, userID uuid.UUID, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = s.historyWindow
	}
	recent, err := s.store.ListRecentMessages(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// SetFeedback tags an assistant message with user feedback.
func (s *Service) SetFeedback(ctx context.Context, userID, messageID uuid.UUID, fb taxonomy.Feedback) error {
	return s.store.SetFeedback(ctx, userID, messageID, fb)
}

// ClearConversation deletes the user's conversation history.
func (s *Service) ClearConversation(ctx context.Context, userID uuid.UUID) error {
	return s.store.DeleteConversation(ctx, userID)
}
