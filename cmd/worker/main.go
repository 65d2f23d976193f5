package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/orchestrator"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/services/queue"
	"github.com/jwebster45206/dialogue-engine/internal/worker"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	workerID := flag.String("id", "", "worker identifier (generated if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg)
	log.Info("Starting dialogue worker", "environment", cfg.Environment)

	llm := services.NewOllamaService(cfg.OllamaURL, log)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancelInit()
	for _, model := range []string{cfg.Narrator.Model, cfg.Critic.Model, cfg.Generator.Model} {
		if err := llm.InitModel(initCtx, model); err != nil {
			log.Error("Failed to initialize model", "model", model, "error", err)
			os.Exit(1)
		}
	}

	store, err := services.NewRedisStore(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.WaitForConnection(initCtx); err != nil {
		log.Error("Redis not reachable", "error", err)
		os.Exit(1)
	}

	runQueue, err := queue.NewRunQueue(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect run queue", "error", err)
		os.Exit(1)
	}
	defer runQueue.Close()

	orch := orchestrator.New(llm, cfg, log)
	themes := theme.NewGenerator(llm, cfg.Generator.Model, cfg.Generator.Params, cfg.Themes, log)

	w := worker.New(runQueue, orch, themes, store, cfg, log, *workerID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", "signal", sig.String())
		w.Stop()
	}()

	if err := w.Start(); err != nil {
		log.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}

	log.Info("Worker stopped")
}
