package worker

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/orchestrator"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	svcqueue "github.com/jwebster45206/dialogue-engine/internal/services/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

func testConfig() *config.Config {
	return &config.Config{
		Narrator: config.RoleParams{
			Model:  "narrator-model",
			Params: chat.GenerationParams{Temperature: 0.7, MaxTokens: 100, TopP: 0.9},
		},
		Critic: config.RoleParams{
			Model:  "critic-model",
			Params: chat.GenerationParams{Temperature: 0.6, MaxTokens: 40, TopP: 0.85},
		},
		Generator: config.RoleParams{
			Model:  "generator-model",
			Params: chat.GenerationParams{Temperature: 0.3, MaxTokens: 500, TopP: 0.9},
		},
		MaxTurns:   4,
		RetryBound: 1,
		Themes: []theme.ThemeConfig{
			{
				Name:        "the silent colony",
				Facts:       []string{"the colony went silent"},
				Personality: theme.PersonalityScientific,
			},
		},
	}
}

func testGenerator(cfg *config.Config, mock *services.MockLLMAPI, log *slog.Logger) *theme.Generator {
	return theme.NewGenerator(mock, cfg.Generator.Model, cfg.Generator.Params, cfg.Themes, log)
}

func TestWorker_ProcessesQueuedRun(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	runQueue, err := svcqueue.NewRunQueue("redis://"+mr.Addr(), log)
	if err != nil {
		t.Fatalf("Failed to create run queue: %v", err)
	}
	defer runQueue.Close()

	cfg := testConfig()
	mock := services.NewMockLLMAPI()
	orch := orchestrator.New(mock, cfg, log)
	store := services.NewFileStore(t.TempDir(), log)

	req := queue.NewRunRequest("the silent colony", 2)
	if err := runQueue.Enqueue(context.Background(), req); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	w := New(runQueue, orch, testGenerator(cfg, mock, log), store, cfg, log, "worker-test")
	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	// Wait for the transcript to land in the store.
	deadline := time.After(5 * time.Second)
	var saved bool
	for !saved {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for the run to be processed")
		case <-time.After(50 * time.Millisecond):
			entries, err := os.ReadDir(store.Dir())
			if err == nil && len(entries) > 0 {
				saved = true
			}
		}
	}

	w.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Worker exited with error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Worker did not shut down")
	}

	if mock.CallCount() != 2 {
		t.Errorf("Expected 2 generation calls for a 2-turn run, got %d", mock.CallCount())
	}

	depth, _ := runQueue.Depth(context.Background())
	if depth != 0 {
		t.Errorf("Queue should be drained, depth %d", depth)
	}
}

func TestWorker_GeneratesUnknownTheme(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	runQueue, err := svcqueue.NewRunQueue("redis://"+mr.Addr(), log)
	if err != nil {
		t.Fatalf("Failed to create run queue: %v", err)
	}
	defer runQueue.Close()

	cfg := testConfig()
	mock := services.NewMockLLMAPI()
	mock.GetChatResponseFunc = func(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error) {
		if model == "generator-model" {
			return &chat.ChatResponse{Message: `{
				"facts": ["the lighthouse has been dark for a decade"],
				"forbidden": ["ghosts"],
				"focus_points": ["who keeps the light"],
				"personality": "realistic"
			}`}, nil
		}
		return &chat.ChatResponse{Message: "Mock response."}, nil
	}
	store := services.NewFileStore(t.TempDir(), log)

	if err := runQueue.Enqueue(context.Background(), queue.NewRunRequest("the abandoned lighthouse", 2)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	w := New(runQueue, orchestrator.New(mock, cfg, log), testGenerator(cfg, mock, log), store, cfg, log, "worker-test")
	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	// The run has no preset, so the worker must provision a theme context
	// before the dialogue starts and still persist the transcript.
	deadline := time.After(5 * time.Second)
	var saved bool
	for !saved {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for the run to be processed")
		case <-time.After(50 * time.Millisecond):
			entries, err := os.ReadDir(store.Dir())
			if err == nil && len(entries) > 0 {
				saved = true
			}
		}
	}

	w.Stop()
	<-done

	// One generation call for the theme context, two for the turns.
	if mock.CallCount() != 3 {
		t.Errorf("Expected 3 generation calls, got %d", mock.CallCount())
	}
	calls := mock.GetCalls()
	if len(calls) == 0 || calls[0].Model != "generator-model" {
		t.Errorf("Expected the first call to use the generator model, got %+v", calls)
	}
}
