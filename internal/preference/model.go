package preference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/insight-labs/insight/internal/taxonomy"
)

const modelSchemaVersion = 1

// artifact is the on-disk model format. The taxonomy in force at training
// time is embedded so a stale model can be rejected instead of silently
// mispredicting after a taxonomy change.
type artifact struct {
	Version    int      `json:"version"`
	Categories []string `json:"categories"`
	Forest     *Forest  `json:"forest"`
}

// SaveModel persists the forest to path, fully replacing any prior artifact.
// The write goes to a temp file in the same directory followed by a rename,
// so a concurrent reader never observes a partially written artifact.
func SaveModel(path string, f *Forest) error {
	art := artifact{
		Version: modelSchemaVersion,
		Forest:  f,
	}
	for _, c := range taxonomy.Categories() {
		art.Categories = append(art.Categories, string(c))
	}

	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	// Temp file in the same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace model artifact: %w", err)
	}
	return nil
}

// LoadModel reads the persisted forest. Returns ErrNoModel if no artifact
// exists and ErrIncompatibleModel if the artifact was written under a
// different schema version or taxonomy.
func LoadModel(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoModel
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}

	if art.Version != modelSchemaVersion {
		return nil, fmt.Errorf("%w: artifact version %d, want %d", ErrIncompatibleModel, art.Version, modelSchemaVersion)
	}
	current := taxonomy.Categories()
	if len(art.Categories) != len(current) {
		return nil, fmt.Errorf("%w: artifact has %d categories, taxonomy has %d", ErrIncompatibleModel, len(art.Categories), len(current))
	}
	for i, c := range current {
		if art.Categories[i] != string(c) {
			return nil, fmt.Errorf("%w: category %d is %q, want %q", ErrIncompatibleModel, i, art.Categories[i], c)
		}
	}
	if art.Forest == nil || len(art.Forest.Trees) == 0 {
		return nil, fmt.Errorf("%w: artifact contains no trees", ErrIncompatibleModel)
	}
	return art.Forest, nil
}
