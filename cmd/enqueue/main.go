// Command enqueue pushes a dialogue run request onto the Redis queue for a
// worker to pick up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	svcqueue "github.com/jwebster45206/dialogue-engine/internal/services/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/queue"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	themeName := flag.String("theme", "", "theme to run, preset or free-form (required)")
	maxTurns := flag.Int("turns", 0, "turn cap for this run (config default if 0)")
	count := flag.Int("count", 1, "number of runs to enqueue")
	flag.Parse()

	if *themeName == "" {
		fmt.Fprintln(os.Stderr, "-theme is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, err := cfg.Theme(*themeName); err != nil {
		// Not fatal: the worker generates a theme context for names
		// without a preset.
		fmt.Printf("Theme %q has no preset; the worker will generate one.\n", *themeName)
	}

	log := logger.Setup(cfg)
	q, err := svcqueue.NewRunQueue(cfg.RedisURL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer q.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < *count; i++ {
		req := queue.NewRunRequest(*themeName, *maxTurns)
		if err := q.Enqueue(ctx, req); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to enqueue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Enqueued run %s (theme=%s)\n", req.RequestID, *themeName)
	}

	depth, err := q.Depth(ctx)
	if err == nil {
		fmt.Printf("Queue depth: %d\n", depth)
	}
}
