package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// FileStore implements TranscriptStore on the local filesystem. One JSON
// file per run, named dialogue_<timestamp>_<id>.json under the output
// directory.
type FileStore struct {
	dir    string
	logger *slog.Logger

	// now is swappable for deterministic file names in tests.
	now func() time.Time
}

var _ TranscriptStore = (*FileStore)(nil)

// NewFileStore creates a filesystem-backed transcript store rooted at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Ping verifies the output directory exists or can be created.
func (f *FileStore) Ping(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("output directory unavailable: %w", err)
	}
	return nil
}

func (f *FileStore) SaveTranscript(ctx context.Context, t *dialogue.Transcript) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	name := fmt.Sprintf("dialogue_%s_%s.json", f.now().Format("20060102_150405"), t.ID.String())
	path := filepath.Join(f.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	f.logger.Info("Transcript saved", "path", path, "turns", len(t.Turns), "status", t.Status)
	return nil
}

func (f *FileStore) LoadTranscript(ctx context.Context, id uuid.UUID) (*dialogue.Transcript, error) {
	path, err := f.findByID(id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t dialogue.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

func (f *FileStore) DeleteTranscript(ctx context.Context, id uuid.UUID) error {
	path, err := f.findByID(id)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

// Dir returns the output directory root.
func (f *FileStore) Dir() string {
	return f.dir
}

// findByID locates the transcript file carrying the given run ID suffix.
func (f *FileStore) findByID(id uuid.UUID) (string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	suffix := "_" + id.String() + ".json"
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(f.dir, e.Name()), nil
		}
	}
	return "", nil
}
