// Package insight converts free-form message text into per-category
// similarity scores and records them alongside persisted messages.
//
// Each taxonomy category is represented by a prototype: the unit-normalized
// mean embedding of the category's keyword phrases. Scoring a message embeds
// its text and takes the cosine similarity against every prototype.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insight-labs/insight/internal/taxonomy"
)

// Embedder produces one embedding vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Engine scores text against the category prototypes. Prototypes are built
// once in NewEngine and read-only afterwards, so an Engine is safe for
// concurrent use.
type Engine struct {
	embedder   Embedder
	prototypes map[taxonomy.Category][]float64
	logger     *slog.Logger
}

// NewEngine builds the prototype store. This is the one expensive
// initialization step (one embedding round-trip per category); it runs at
// process startup, never lazily on a request path.
func NewEngine(ctx context.Context, embedder Embedder, logger *slog.Logger) (*Engine, error) {
	prototypes := make(map[taxonomy.Category][]float64, taxonomy.Count())

	for _, cat := range taxonomy.Categories() {
		keywords := taxonomy.Keywords(cat)
		vectors, err := embedder.Embed(ctx, keywords)
		if err != nil {
			return nil, fmt.Errorf("embed keywords for %s: %w", cat, err)
		}
		if len(vectors) != len(keywords) {
			return nil, fmt.Errorf("category %s: expected %d embeddings, got %d", cat, len(keywords), len(vectors))
		}
		// Zero-norm means keeps the unnormalized mean; normalize handles that.
		prototypes[cat] = normalize(mean(vectors))
	}

	logger.Info("category prototypes built", "categories", taxonomy.Count())
	return &Engine{
		embedder:   embedder,
		prototypes: prototypes,
		logger:     logger,
	}, nil
}

// Score returns the cosine similarity of text against every category
// prototype. Empty or whitespace-only text scores 0.0 everywhere. Values are
// independent pairwise similarities in [-1, 1]; they are not normalized
// across categories.
func (e *Engine) Score(ctx context.Context, text string) (map[taxonomy.Category]float64, error) {
	scores := make(map[taxonomy.Category]float64, len(e.prototypes))

	if strings.TrimSpace(text) == "" {
		for cat := range e.prototypes {
			scores[cat] = 0.0
		}
		return scores, nil
	}

	vectors, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	embedding := normalize(vectors[0])

	for cat, proto := range e.prototypes {
		scores[cat] = dot(embedding, proto)
	}
	return scores, nil
}

// Prototype returns the stored prototype for a category. Tests only.
func (e *Engine) Prototype(cat taxonomy.Category) []float64 {
	return e.prototypes[cat]
}
