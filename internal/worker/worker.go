// Package worker consumes queued dialogue run requests and executes them.
// Runs are independent of each other, so the worker executes them
// concurrently; each run owns its own conversation state and the only
// shared resources are the backend connection and the transcript store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/orchestrator"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/services/queue"
	pkgqueue "github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

const (
	dequeueTimeout = 5 * time.Second

	// maxConcurrentRuns bounds in-flight dialogues so the backend is not
	// flooded with generation calls.
	maxConcurrentRuns = 4
)

// Worker pulls run requests from the queue and drives them to completion.
type Worker struct {
	id     string
	queue  *queue.RunQueue
	orch   *orchestrator.Orchestrator
	themes *theme.Generator
	store  services.TranscriptStore
	cfg    *config.Config
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}
}

// New creates a new worker instance
func New(runQueue *queue.RunQueue, orch *orchestrator.Orchestrator, themes *theme.Generator, store services.TranscriptStore, cfg *config.Config, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:     workerID,
		queue:  runQueue,
		orch:   orch,
		themes: themes,
		store:  store,
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, maxConcurrentRuns),
	}
}

// Start begins processing requests from the queue. Blocks until Stop.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down, waiting for in-flight runs", "worker_id", w.id)
			w.wg.Wait()
			return nil
		default:
			if err := w.processNext(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker. In-flight runs are cancelled
// between turns and their partial transcripts are still persisted.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNext pulls the next request and launches its run.
func (w *Worker) processNext() error {
	ctx, cancel := context.WithTimeout(w.ctx, dequeueTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, dequeueTimeout)
	if err != nil {
		if w.ctx.Err() != nil || ctx.Err() != nil {
			// Timeout or shutdown - this is normal
			return nil
		}
		return fmt.Errorf("failed to dequeue run request: %w", err)
	}
	if req == nil {
		return nil
	}

	w.log.Info("Received run request",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"theme", req.ThemeName,
	)

	// Block until a run slot frees up, so dequeued work is never dropped.
	select {
	case w.sem <- struct{}{}:
	case <-w.ctx.Done():
		// Shutting down; put the request back for another worker.
		return w.queue.Enqueue(context.Background(), req)
	}

	w.wg.Add(1)
	go func(req *pkgqueue.RunRequest) {
		defer w.wg.Done()
		defer func() { <-w.sem }()
		w.execute(req)
	}(req)

	return nil
}

func (w *Worker) execute(req *pkgqueue.RunRequest) {
	log := w.log.With("worker_id", w.id, "request_id", req.RequestID, "theme", req.ThemeName)

	// Unknown theme names are not rejected; the generator provisions a
	// context for them, falling back to a generic one on failure.
	t := w.themes.Resolve(w.ctx, req.ThemeName)

	transcript, err := w.orch.Run(w.ctx, t, req.MaxTurns)
	if err != nil {
		logger.WithError(log, err).Error("Dialogue run failed")
		return
	}

	// Persist even truncated transcripts; they are flagged, not dropped.
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.store.SaveTranscript(saveCtx, transcript); err != nil {
		log.Error("Failed to save transcript", "error", err, "transcript_id", transcript.ID)
		return
	}

	log.Info("Run finished",
		"transcript_id", transcript.ID,
		"status", transcript.Status,
		"turns", len(transcript.Turns),
		"contradictions", transcript.Analysis.ContradictionCount,
	)
}
