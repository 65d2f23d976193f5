package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	store, err := NewRedisStore("redis://"+mr.Addr(), testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis store: %v", err)
	}
	return store, mr
}

func sampleTranscript() *dialogue.Transcript {
	return &dialogue.Transcript{
		ID:    uuid.New(),
		Theme: "the silent colony",
		Turns: []dialogue.Turn{
			{Index: 0, Role: dialogue.RoleNarrator, Text: "The colony went dark."},
			{Index: 1, Role: dialogue.RoleCritic, Text: "Dark how?", Pattern: dialogue.PatternQuestion},
		},
		Complete: true,
		Status:   dialogue.StatusComplete,
		Analysis: dialogue.Analysis{TotalTurns: 2},
	}
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupRedisStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	tr := sampleTranscript()

	if err := store.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("Failed to save transcript: %v", err)
	}

	loaded, err := store.LoadTranscript(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Failed to load transcript: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected transcript, got nil")
	}
	if loaded.ID != tr.ID || loaded.Theme != tr.Theme {
		t.Errorf("Loaded transcript mismatch: %+v", loaded)
	}
	if len(loaded.Turns) != 2 {
		t.Errorf("Expected 2 turns, got %d", len(loaded.Turns))
	}
	if loaded.Turns[1].Pattern != dialogue.PatternQuestion {
		t.Errorf("Turn pattern lost in round trip: %q", loaded.Turns[1].Pattern)
	}
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, mr := setupRedisStore(t)
	defer mr.Close()
	defer store.Close()

	loaded, err := store.LoadTranscript(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Missing transcript should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for missing transcript, got %+v", loaded)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupRedisStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	tr := sampleTranscript()

	if err := store.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := store.DeleteTranscript(ctx, tr.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	loaded, err := store.LoadTranscript(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Load after delete errored: %v", err)
	}
	if loaded != nil {
		t.Error("Transcript should be gone after delete")
	}
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := setupRedisStore(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Ping should fail once the server is gone")
	}
}
