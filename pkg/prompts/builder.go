// Package prompts builds the exact message sequences handed to the
// generation backend. Construction is fully deterministic: identical inputs
// always produce identical output, and any randomness belongs to the backend
// alone.
package prompts

import (
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/director"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// DefaultHistoryWindow is how many recent turns are woven into a prompt for
// context. Small on purpose: each turn already answers the previous one.
const DefaultHistoryWindow = 3

// Builder constructs the chat messages for one generation call using a
// fluent interface.
type Builder struct {
	role     dialogue.Role
	theme    *theme.ThemeConfig
	history  []dialogue.Turn
	decision director.Decision
	window   int
}

// New creates a builder with default settings.
func New() *Builder {
	return &Builder{window: DefaultHistoryWindow}
}

// WithRole sets the role to generate for.
func (b *Builder) WithRole(role dialogue.Role) *Builder {
	b.role = role
	return b
}

// WithTheme sets the theme constraints.
func (b *Builder) WithTheme(t *theme.ThemeConfig) *Builder {
	b.theme = t
	return b
}

// WithHistory sets the recent-turn snapshot (already windowed by the
// caller, or trimmed here to the configured window).
func (b *Builder) WithHistory(turns []dialogue.Turn) *Builder {
	b.history = turns
	return b
}

// WithDecision sets the director decision carrying the action and any
// injected focus point.
func (b *Builder) WithDecision(d director.Decision) *Builder {
	b.decision = d
	return b
}

// WithHistoryWindow overrides the context window size.
func (b *Builder) WithHistoryWindow(n int) *Builder {
	b.window = n
	return b
}

// Build returns the message sequence for the backend. It fails with a
// theme.ConfigError when the theme is unusable; an empty facts list is
// legal, a missing personality is not.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.theme == nil {
		return nil, &theme.ConfigError{Field: "theme", Reason: "is required"}
	}
	if err := b.theme.Validate(); err != nil {
		return nil, err
	}

	switch b.role {
	case dialogue.RoleNarrator:
		return b.buildNarrator(), nil
	case dialogue.RoleCritic:
		return b.buildCritic(), nil
	default:
		return nil, fmt.Errorf("cannot build prompt for role %q", b.role)
	}
}

func (b *Builder) buildNarrator() []chat.ChatMessage {
	criticText := b.latestText(dialogue.RoleCritic)

	var instruction string
	switch b.decision.Action {
	case director.ActionStart:
		instruction = narratorStart
	case director.ActionRevise:
		instruction = fmt.Sprintf(narratorRevise, criticText)
	case director.ActionBreakthrough:
		instruction = narratorBreakthrough
	case director.ActionDevelop:
		instruction = narratorDevelop
	case director.ActionClimax:
		instruction = narratorClimax
	default:
		if criticText == "" {
			instruction = narratorStart
		} else {
			instruction = fmt.Sprintf(narratorContinue, criticText)
		}
	}

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: BuildNarratorSystemPrompt(b.theme)},
		{Role: chat.ChatRoleUser, Content: b.withContext(instruction)},
	}
}

func (b *Builder) buildCritic() []chat.ChatMessage {
	narratorText := b.latestText(dialogue.RoleNarrator)

	var instruction string
	switch b.decision.Action {
	case director.ActionQuestion:
		instruction = fmt.Sprintf(criticQuestion, narratorText)
	case director.ActionAnalyze:
		instruction = fmt.Sprintf(criticAnalyze, narratorText, forbiddenList(b.theme.Forbidden))
	case director.ActionChangePattern:
		instruction = fmt.Sprintf(criticChangePattern, narratorText)
	case director.ActionFinalDoubt:
		instruction = fmt.Sprintf(criticFinalDoubt, narratorText)
	default:
		instruction = fmt.Sprintf(criticListen, narratorText)
	}

	if b.decision.FocusPoint != "" {
		instruction += fmt.Sprintf(criticFocusDirective, b.decision.FocusPoint)
	}

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: BuildCriticSystemPrompt(b.theme)},
		{Role: chat.ChatRoleUser, Content: b.withContext(instruction)},
	}
}

// latestText returns the most recent utterance by role within the history
// snapshot, or "".
func (b *Builder) latestText(role dialogue.Role) string {
	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].Role == role {
			return b.history[i].Text
		}
	}
	return ""
}

// withContext prefixes the instruction with the windowed recent exchange.
// The latest utterance of the counterpart role is already embedded in the
// instruction itself, so a single-turn history adds nothing.
func (b *Builder) withContext(instruction string) string {
	turns := b.history
	if b.window > 0 && len(turns) > b.window {
		turns = turns[len(turns)-b.window:]
	}
	if len(turns) < 2 {
		return instruction
	}
	lines := "Recent exchange:\n"
	for _, t := range turns {
		lines += fmt.Sprintf("%s: %s\n", t.Role, t.Text)
	}
	return lines + "\n" + instruction
}

// BuildMessages is a convenience wrapper for the common case.
func BuildMessages(role dialogue.Role, t *theme.ThemeConfig, history []dialogue.Turn, d director.Decision) ([]chat.ChatMessage, error) {
	return New().
		WithRole(role).
		WithTheme(t).
		WithHistory(history).
		WithDecision(d).
		Build()
}
