// Package llm wraps the OpenAI API calls the assistant depends on: chat
// completion, text embeddings, speech-to-text and text-to-speech.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

type Client struct {
	api            *openai.Client
	chatModel      string
	embeddingModel string
	maxTokens      int
}

func NewClient(apiKey, chatModel, embeddingModel string, maxTokens int) *Client {
	return &Client{
		api:            openai.NewClient(apiKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		maxTokens:      maxTokens,
	}
}

// SetTestBaseURL points the client at a stub API server. Tests only.
func (c *Client) SetTestBaseURL(baseURL string) {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL + "/v1"
	c.api = openai.NewClientWithConfig(cfg)
}

// Message is one turn of conversation context sent to the completion endpoint.
type Message struct {
	Role string
	Text string
	// Images are base64-encoded JPEG payloads attached to this turn.
	Images []string
}

// Complete sends the conversation context to the chat completion endpoint and
// returns the assistant's text reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.chatModel,
		MaxTokens: c.maxTokens,
	}

	for _, m := range messages {
		if len(m.Images) == 0 {
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Text,
			})
			continue
		}

		parts := []openai.ChatMessagePart{{
			Type: openai.ChatMessagePartTypeText,
			Text: m.Text,
		}}
		for _, img := range m.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:image/jpeg;base64," + img,
				},
			})
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:         m.Role,
			MultiContent: parts,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float64(f)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Transcribe converts an audio recording to text via Whisper.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}

// Synthesize converts reply text to speech audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: openai.VoiceAlloy,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return audio, nil
}
