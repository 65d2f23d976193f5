package theme

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

// ChatClient is the slice of the generation backend the theme generator
// needs. services.LLMService satisfies it.
type ChatClient interface {
	GetChatResponse(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error)
}

const generatorSystemPrompt = `You are a story-setting analyst. You answer with a single JSON object and nothing else.`

const generatorPrompt = `Analyze the story theme %q.

Respond with a JSON object with exactly these keys:
{
  "facts": ["5 short statements that are true in this setting"],
  "forbidden": ["2 things that must never appear in a grounded telling"],
  "focus_points": ["2 aspects of the setting worth questioning"],
  "personality": "one of: scientific, skeptical, realistic, curious"
}

Keep every entry short and concrete. Output only the JSON object.`

// jsonObjectRe pulls the first JSON object out of a response that may be
// wrapped in code fences or prose.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Generator produces a ThemeConfig for theme names that have no preset.
// Results are cached per theme name. Generation failures degrade to a
// generic consistency-focused context instead of failing the run.
type Generator struct {
	llm     ChatClient
	model   string
	params  chat.GenerationParams
	presets []ThemeConfig
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*ThemeConfig
}

// NewGenerator creates a theme generator. Presets are consulted before the
// backend: an exact or substring name match short-circuits generation.
func NewGenerator(llm ChatClient, model string, params chat.GenerationParams, presets []ThemeConfig, logger *slog.Logger) *Generator {
	return &Generator{
		llm:     llm,
		model:   model,
		params:  params,
		presets: presets,
		logger:  logger,
		cache:   make(map[string]*ThemeConfig),
	}
}

// Resolve returns a validated ThemeConfig for the given theme name. The
// lookup order is cache, presets, backend generation, generic fallback; it
// never returns nil.
func (g *Generator) Resolve(ctx context.Context, name string) *ThemeConfig {
	g.mu.Lock()
	if cached, ok := g.cache[name]; ok {
		g.mu.Unlock()
		return cached
	}
	g.mu.Unlock()

	if preset := g.preset(name); preset != nil {
		return preset
	}

	tc, err := g.generate(ctx, name)
	if err != nil {
		g.logger.Warn("Theme generation failed, using fallback context",
			"theme", name, "error", err)
		tc = fallbackConfig(name)
	}

	g.mu.Lock()
	g.cache[name] = tc
	g.mu.Unlock()
	return tc
}

// preset returns a matching preset theme, by exact name or by a preset name
// contained in the requested one.
func (g *Generator) preset(name string) *ThemeConfig {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i := range g.presets {
		if g.presets[i].Name == name {
			return &g.presets[i]
		}
	}
	for i := range g.presets {
		if strings.Contains(lower, strings.ToLower(g.presets[i].Name)) {
			return &g.presets[i]
		}
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, name string) (*ThemeConfig, error) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: generatorSystemPrompt},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf(generatorPrompt, name)},
	}

	resp, err := g.llm.GetChatResponse(ctx, g.model, messages, g.params)
	if err != nil {
		return nil, err
	}

	raw := jsonObjectRe.FindString(resp.Message)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var out struct {
		Facts       []string `json:"facts"`
		Forbidden   []string `json:"forbidden"`
		FocusPoints []string `json:"focus_points"`
		Personality string   `json:"personality"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse generated context: %w", err)
	}

	tc := &ThemeConfig{
		Name:        name,
		Facts:       cleanEntries(out.Facts),
		Forbidden:   cleanEntries(out.Forbidden),
		FocusPoints: cleanEntries(out.FocusPoints),
		Personality: normalizePersonality(out.Personality),
	}
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("generated context invalid: %w", err)
	}
	return tc, nil
}

// cleanEntries trims entries and drops empties and duplicates, keeping
// order. Generated lists are not trusted to satisfy Validate on their own.
func cleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || seen[strings.ToLower(e)] {
			continue
		}
		seen[strings.ToLower(e)] = true
		out = append(out, e)
	}
	return out
}

// normalizePersonality maps a generated personality onto the recognized
// set. Unrecognized values fall back to skeptical.
func normalizePersonality(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if knownPersonalities[p] {
		return p
	}
	for _, known := range []string{PersonalityScientific, PersonalitySkeptical, PersonalityRealistic, PersonalityCurious} {
		if strings.Contains(p, known[:len(known)-2]) {
			return known
		}
	}
	return PersonalitySkeptical
}

// fallbackConfig is the generic context used when generation fails: no
// setting-specific facts, a critic focused on consistency and logic.
func fallbackConfig(name string) *ThemeConfig {
	return &ThemeConfig{
		Name: name,
		Facts: []string{
			"events follow ordinary physical laws",
			"people act on believable motives",
			"consequences follow from what already happened",
		},
		Forbidden:   []string{"contradictions", "unexplained supernatural turns"},
		FocusPoints: []string{"consistency", "logic"},
		Personality: PersonalitySkeptical,
	}
}
