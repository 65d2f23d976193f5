package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/orchestrator"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	logPath := flag.String("log", "", "write logs to this file (discarded if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs would corrupt the TUI, so they go to a file or nowhere.
	logWriter := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	log := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: cfg.LogLevel}))

	llm := services.NewOllamaService(cfg.OllamaURL, log)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	fmt.Println("Checking models...")
	for _, model := range []string{cfg.Narrator.Model, cfg.Critic.Model, cfg.Generator.Model} {
		if err := llm.InitModel(initCtx, model); err != nil {
			fmt.Fprintf(os.Stderr, "Model %s is not available: %v\nIs Ollama running at %s?\n", model, err, cfg.OllamaURL)
			os.Exit(1)
		}
	}

	store := services.NewFileStore(cfg.OutputDir, log)
	if err := store.Ping(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Output directory is not writable: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.New(llm, cfg, log)
	themes := theme.NewGenerator(llm, cfg.Generator.Model, cfg.Generator.Params, cfg.Themes, log)

	p := tea.NewProgram(NewConsoleUI(cfg, orch, themes, store),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
