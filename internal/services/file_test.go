package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, testLogger())
	store.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	ctx := context.Background()
	tr := sampleTranscript()

	if err := store.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("Failed to save transcript: %v", err)
	}

	wantName := "dialogue_20260314_092653_" + tr.ID.String() + ".json"
	if _, err := os.Stat(filepath.Join(dir, wantName)); err != nil {
		t.Fatalf("Expected file %s: %v", wantName, err)
	}

	loaded, err := store.LoadTranscript(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Failed to load transcript: %v", err)
	}
	if loaded == nil || loaded.ID != tr.ID {
		t.Fatalf("Loaded transcript mismatch: %+v", loaded)
	}
	if len(loaded.Turns) != len(tr.Turns) {
		t.Errorf("Expected %d turns, got %d", len(tr.Turns), len(loaded.Turns))
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir(), testLogger())

	loaded, err := store.LoadTranscript(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Missing transcript should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil, got %+v", loaded)
	}
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"), testLogger())
	loaded, err := store.LoadTranscript(context.Background(), uuid.New())
	if err != nil || loaded != nil {
		t.Errorf("Missing directory should read as empty, got %+v %v", loaded, err)
	}
}

func TestFileStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, testLogger())

	ctx := context.Background()
	tr := sampleTranscript()
	if err := store.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	if err := store.DeleteTranscript(ctx, tr.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), tr.ID.String()) {
			t.Errorf("Transcript file still present: %s", e.Name())
		}
	}

	// Deleting again is a no-op.
	if err := store.DeleteTranscript(ctx, tr.ID); err != nil {
		t.Errorf("Second delete should be a no-op, got %v", err)
	}
}

func TestFileStore_Ping(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	store := NewFileStore(dir, testLogger())

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping should create the directory: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Output directory was not created: %v", err)
	}
}
