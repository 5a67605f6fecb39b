package preference

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/insight-labs/insight/internal/taxonomy"
)

type fakeBus struct {
	subjects []string
	err      error
}

func (f *fakeBus) Publish(subject string, _ any) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	return nil
}

func TestTrain_EmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preference_model.json")
	trainer := NewTrainer(newFakeSource(), path, nil, slog.Default())

	err := trainer.Train(context.Background())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("expected no model artifact after empty-corpus training")
	}
}

func TestTrain_LeavesPriorArtifactOnInsufficientData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preference_model.json")

	// Train once on real data.
	src := newFakeSource()
	user := src.addUser()
	for i := 0; i < 5; i++ {
		src.addMessage(user, taxonomy.MessageUser, taxonomy.FeedbackNeutral, map[taxonomy.Category]float64{
			taxonomy.Scene: 0.8,
		})
	}
	trainer := NewTrainer(src, path, nil, slog.Default())
	if err := trainer.Train(context.Background()); err != nil {
		t.Fatalf("initial Train failed: %v", err)
	}

	// A later cycle over an empty corpus must not clobber the artifact.
	empty := NewTrainer(newFakeSource(), path, nil, slog.Default())
	if err := empty.Train(context.Background()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := LoadModel(path); err != nil {
		t.Errorf("prior artifact should survive an insufficient-data cycle, got %v", err)
	}
}

func TestTrain_PersistsModelAndPublishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preference_model.json")

	src := newFakeSource()
	user := src.addUser()
	for i := 0; i < 10; i++ {
		src.addMessage(user, taxonomy.MessageUser, taxonomy.FeedbackNeutral, map[taxonomy.Category]float64{
			taxonomy.Scene: 0.9,
			taxonomy.Color: 0.1,
		})
	}

	bus := &fakeBus{}
	trainer := NewTrainer(src, path, bus, slog.Default())
	if err := trainer.Train(context.Background()); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if _, err := LoadModel(path); err != nil {
		t.Errorf("expected loadable artifact, got %v", err)
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != SubjectModelTrained {
		t.Errorf("expected one %s event, got %v", SubjectModelTrained, bus.subjects)
	}
}

func TestTrain_PublishFailureDoesNotFailCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preference_model.json")

	src := newFakeSource()
	user := src.addUser()
	src.addMessage(user, taxonomy.MessageUser, taxonomy.FeedbackNeutral, map[taxonomy.Category]float64{
		taxonomy.Scene: 0.9,
	})

	bus := &fakeBus{err: errors.New("nats down")}
	trainer := NewTrainer(src, path, bus, slog.Default())
	if err := trainer.Train(context.Background()); err != nil {
		t.Errorf("publish failure must not fail training, got %v", err)
	}
}

func TestTrain_SourceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preference_model.json")
	src := newFakeSource()
	src.err = errors.New("db down")

	trainer := NewTrainer(src, path, nil, slog.Default())
	if err := trainer.Train(context.Background()); err == nil {
		t.Error("expected error when the store is unavailable")
	}
}
