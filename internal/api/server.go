package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/assistant"
	"github.com/insight-labs/insight/internal/store"
	"github.com/insight-labs/insight/internal/taxonomy"
)

// Assistant is the conversation surface the API exposes.
type Assistant interface {
	Complete(ctx context.Context, req assistant.CompletionRequest) (*assistant.CompletionResult, error)
	Messages(ctx context.Context, userID uuid.UUID, limit int) ([]store.Message, error)
	SetFeedback(ctx context.Context, userID, messageID uuid.UUID, fb taxonomy.Feedback) error
	ClearConversation(ctx context.Context, userID uuid.UUID) error
}

// PreferenceSource serves learned per-user category weights.
type PreferenceSource interface {
	Predict(ctx context.Context, userID uuid.UUID) (map[taxonomy.Category]float64, error)
}

// UserStore covers user registration.
type UserStore interface {
	CreateUser(ctx context.Context, name, email string) (uuid.UUID, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	assistant Assistant
	prefs     PreferenceSource
	users     UserStore
}

func NewServer(port int, svc Assistant, prefs PreferenceSource, users UserStore) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		assistant: svc,
		prefs:     prefs,
		users:     users,
	}

	router.Get("/health", s.health)
	router.Post("/api/v1/users", s.createUser)
	router.Route("/api/v1/assistant", func(r chi.Router) {
		r.Post("/completion", s.completion)
		r.Get("/messages", s.listMessages)
		r.Delete("/messages", s.clearMessages)
		r.Put("/messages/{id}/feedback", s.setFeedback)
		r.Get("/preferences", s.preferences)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	id, err := s.users.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("create user: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

type completionRequest struct {
	UserID        string   `json:"user_id"`
	Text          string   `json:"text,omitempty"`
	Audio         string   `json:"audio,omitempty"` // base64-encoded
	AudioFilename string   `json:"audio_filename,omitempty"`
	Images        []string `json:"images,omitempty"`
	GenerateAudio bool     `json:"generate_audio"`
}

type messageResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Feedback  string `json:"feedback"`
	CreatedAt string `json:"created_at"`
}

type completionResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
	Audio            string          `json:"audio,omitempty"` // base64-encoded
}

func (s *Server) completion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	var audio []byte
	if req.Audio != "" {
		audio, err = base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			writeError(w, http.StatusBadRequest, "audio must be base64-encoded")
			return
		}
	}

	result, err := s.assistant.Complete(r.Context(), assistant.CompletionRequest{
		UserID:        userID,
		Text:          req.Text,
		Audio:         audio,
		AudioFilename: req.AudioFilename,
		Images:        req.Images,
		GenerateAudio: req.GenerateAudio,
	})
	if errors.Is(err, assistant.ErrNoInput) {
		writeError(w, http.StatusBadRequest, "text or audio is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("completion: %v", err))
		return
	}

	resp := completionResponse{
		UserMessage:      toMessageResponse(*result.UserMessage),
		AssistantMessage: toMessageResponse(*result.AssistantMessage),
	}
	if len(result.Audio) > 0 {
		resp.Audio = base64.StdEncoding.EncodeToString(result.Audio)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := s.assistant.Messages(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list messages: %v", err))
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) clearMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := s.assistant.ClearConversation(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("clear conversation: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type feedbackRequest struct {
	UserID   string `json:"user_id"`
	Feedback string `json:"feedback"`
}

func (s *Server) setFeedback(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	fb, err := taxonomy.ParseFeedback(req.Feedback)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.assistant.SetFeedback(r.Context(), userID, messageID, fb); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("set feedback: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) preferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	prefs, err := s.prefs.Predict(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("predict preferences: %v", err))
		return
	}

	out := make(map[string]float64, len(prefs))
	for cat, score := range prefs {
		out[string(cat)] = score
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": out})
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return uuid.Nil, false
	}
	return userID, true
}

func toMessageResponse(m store.Message) messageResponse {
	return messageResponse{
		ID:        m.ID.String(),
		Type:      string(m.Type),
		Text:      m.Text,
		Feedback:  string(m.Feedback),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
