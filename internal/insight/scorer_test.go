package insight

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/insight-labs/insight/internal/taxonomy"
)

// fakeEmbedder returns fixed vectors for known texts and a deterministic
// pseudo-embedding derived from the bytes of anything else.
type fakeEmbedder struct {
	vectors map[string][]float64
	dim     int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float64, f.dim)
		for j, b := range []byte(t) {
			v[j%f.dim] += float64(b) / 255.0
		}
		out[i] = v
	}
	return out, nil
}

// newTestEngine builds an engine over a fake embedding space where category i's
// keywords all embed to axis i. Prototypes then equal the axis unit vectors.
func newTestEngine(t *testing.T) (*Engine, *fakeEmbedder) {
	t.Helper()

	dim := taxonomy.Count()
	fake := &fakeEmbedder{vectors: map[string][]float64{}, dim: dim}
	for i, cat := range taxonomy.Categories() {
		axis := make([]float64, dim)
		axis[i] = 1.0
		for _, kw := range taxonomy.Keywords(cat) {
			fake.vectors[kw] = axis
		}
	}

	engine, err := NewEngine(context.Background(), fake, slog.Default())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, fake
}

func TestScore_EmptyText(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, text := range []string{"", "   ", "\n\t  "} {
		scores, err := engine.Score(context.Background(), text)
		if err != nil {
			t.Fatalf("Score(%q) returned error: %v", text, err)
		}
		if len(scores) != taxonomy.Count() {
			t.Fatalf("expected %d scores, got %d", taxonomy.Count(), len(scores))
		}
		for cat, s := range scores {
			if s != 0.0 {
				t.Errorf("Score(%q)[%s] = %f, want 0.0", text, cat, s)
			}
		}
	}
}

func TestScore_Range(t *testing.T) {
	engine, _ := newTestEngine(t)

	texts := []string{
		"describe the scene for me",
		"what colors stand out",
		"xyzzy plugh",
		"a",
	}
	for _, text := range texts {
		scores, err := engine.Score(context.Background(), text)
		if err != nil {
			t.Fatalf("Score(%q) returned error: %v", text, err)
		}
		for cat, s := range scores {
			if s < -1.0-1e-9 || s > 1.0+1e-9 {
				t.Errorf("Score(%q)[%s] = %f, outside [-1, 1]", text, cat, s)
			}
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	engine, _ := newTestEngine(t)

	first, err := engine.Score(context.Background(), "what is happening here")
	if err != nil {
		t.Fatalf("first Score failed: %v", err)
	}
	second, err := engine.Score(context.Background(), "what is happening here")
	if err != nil {
		t.Fatalf("second Score failed: %v", err)
	}

	for cat, s := range first {
		if second[cat] != s {
			t.Errorf("category %s: %f != %f across identical calls", cat, s, second[cat])
		}
	}
}

func TestScore_DirectionalMatch(t *testing.T) {
	engine, fake := newTestEngine(t)

	// Text embedding sits on the SCENE axis with some noise elsewhere.
	input := make([]float64, taxonomy.Count())
	input[taxonomy.Index(taxonomy.Scene)] = 0.9
	input[taxonomy.Index(taxonomy.Color)] = 0.2
	fake.vectors["where is this"] = input

	scores, err := engine.Score(context.Background(), "where is this")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	for cat, s := range scores {
		if cat == taxonomy.Scene {
			continue
		}
		if s >= scores[taxonomy.Scene] {
			t.Errorf("expected SCENE to dominate, but %s scored %f >= %f", cat, s, scores[taxonomy.Scene])
		}
	}
}

func TestScore_ZeroNormEmbedding(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.vectors["null point"] = make([]float64, taxonomy.Count())

	scores, err := engine.Score(context.Background(), "null point")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	for cat, s := range scores {
		if math.IsNaN(s) {
			t.Errorf("category %s: NaN score for zero-norm embedding", cat)
		}
		if s != 0.0 {
			t.Errorf("category %s: expected 0.0 for zero-norm embedding, got %f", cat, s)
		}
	}
}

func TestScore_EmbedderError(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.err = errors.New("embedding service down")

	if _, err := engine.Score(context.Background(), "anything"); err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func TestNewEngine_EmbedderError(t *testing.T) {
	fake := &fakeEmbedder{dim: 4, err: errors.New("boom")}
	if _, err := NewEngine(context.Background(), fake, slog.Default()); err == nil {
		t.Fatal("expected error when prototype embedding fails")
	}
}

func TestNewEngine_PrototypesNormalized(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, cat := range taxonomy.Categories() {
		proto := engine.Prototype(cat)
		if proto == nil {
			t.Fatalf("missing prototype for %s", cat)
		}
		if n := norm(proto); math.Abs(n-1.0) > 1e-9 {
			t.Errorf("prototype for %s has norm %f, want 1.0", cat, n)
		}
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := normalize([]float64{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("position %d: expected 0, got %f", i, x)
		}
	}
}

func TestMean(t *testing.T) {
	got := mean([][]float64{{1, 2}, {3, 4}})
	want := []float64{2, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("mean[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestDot_Orthogonal(t *testing.T) {
	if d := dot([]float64{1, 0}, []float64{0, 1}); d != 0 {
		t.Errorf("expected 0 for orthogonal vectors, got %f", d)
	}
}
