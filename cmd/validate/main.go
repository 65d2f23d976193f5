// Command validate lints a config file and its theme presets without
// touching the backend. Exit code is non-zero when anything is invalid.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jwebster45206/dialogue-engine/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Config OK: %s\n", *configPath)
	fmt.Printf("  ollama_url: %s\n", cfg.OllamaURL)
	fmt.Printf("  narrator:   %s\n", cfg.Narrator.Model)
	fmt.Printf("  critic:     %s\n", cfg.Critic.Model)
	fmt.Printf("  generator:  %s\n", cfg.Generator.Model)
	fmt.Printf("  max_turns: %d  retry_bound: %d  min_resolution_turns: %d  max_contradictions: %d\n",
		cfg.MaxTurns, cfg.RetryBound, cfg.MinResolutionTurns, cfg.MaxContradictions)

	fmt.Printf("Themes (%d):\n", len(cfg.Themes))
	for i := range cfg.Themes {
		t := &cfg.Themes[i]
		fmt.Printf("  %-32s personality=%-10s facts=%d forbidden=%d focus_points=%d\n",
			t.Name, t.Personality, len(t.Facts), len(t.Forbidden), len(t.FocusPoints))
	}
}
