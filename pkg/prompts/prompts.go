package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// NarratorSystemPrompt frames the narrator role. Placeholders: theme name,
// facts block, forbidden block.
const NarratorSystemPrompt = `You are the narrator of a short story on the theme %q. You tell the story forward in concrete, specific scenes. You never discuss anything outside the story.

### Established facts
These are true in this story and must never be contradicted:
%s

### Forbidden elements
These must never appear in the story, directly or indirectly:
%s

### Writing rules
- Respond with at most 2 sentences.
- Never acknowledge the critic directly. No meta commentary such as "good point" or "you are right".
- When a criticism is valid, repair the story inside the story: show, don't explain.`

// CriticSystemPrompt frames the critic role. Placeholders: personality,
// facts block, forbidden list, example objection.
const CriticSystemPrompt = `You are a %s critic listening to a story. Your purpose is to challenge narrative consistency.

### Rules
1. Respond with one short sentence at most.
2. Usually react briefly: a short acknowledgement or a pointed question.
3. When you spot a contradiction, name it concretely.

### Established facts of this story
%s

### Things that must not exist in this story
%s

### Example objections
- "There is no %s."
- "That's impossible."
- "That contradicts what you said."`

// Narrator action templates. Each receives the latest critic utterance where
// one exists.
const (
	narratorStart        = `Begin the story. Open on a concrete scene in 2 sentences.`
	narratorContinue     = "The critic said: %q\n\nContinue the story naturally in 2 sentences."
	narratorRevise       = "The critic objected: %q\n\nRepair the story so the objection no longer applies, without explaining yourself. Continue in 2 sentences."
	narratorBreakthrough = `Set the criticism aside and push the story forward with a surprising development. 2 sentences.`
	narratorDevelop      = `Deepen what is already in motion with more specific detail. 2 sentences.`
	narratorClimax       = `Drive the story toward its climax: a discovery or a turning point. 2 sentences.`
)

// Critic action templates. Each receives the latest narrator utterance.
const (
	criticListen        = "The narrator said: %q\n\nReact with a brief acknowledgement, a few words at most."
	criticQuestion      = "The narrator said: %q\n\nAsk one short question about it."
	criticAnalyze       = "The narrator said: %q\n\nIf it contradicts the established facts or mentions a forbidden element (%s), point that out concretely. Otherwise give a one-line reaction."
	criticChangePattern = "The narrator said: %q\n\nReact differently from how you have been reacting. One short sentence."
	criticFinalDoubt    = "The narrator said: %q\n\nVoice your final doubt or verdict on the story. One short sentence."

	// criticFocusDirective is appended when the director injects a focus
	// point.
	criticFocusDirective = "\n\nIn your reply, question this specific point of the story: %q."
)

// factsBlock renders facts as a bulleted list, or a placeholder line when
// the theme has none.
func factsBlock(facts []string) string {
	if len(facts) == 0 {
		return "- (none established)"
	}
	var sb strings.Builder
	for i, f := range facts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + f)
	}
	return sb.String()
}

// forbiddenBlock renders forbidden elements as a bulleted list. Unlike
// facts, an empty list means nothing is off limits, not that nothing is
// established yet.
func forbiddenBlock(forbidden []string) string {
	if len(forbidden) == 0 {
		return "- (none)"
	}
	var sb strings.Builder
	for i, f := range forbidden {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + f)
	}
	return sb.String()
}

func forbiddenList(forbidden []string) string {
	if len(forbidden) == 0 {
		return "(none)"
	}
	return strings.Join(forbidden, ", ")
}

// BuildNarratorSystemPrompt renders the narrator's system prompt for a theme.
func BuildNarratorSystemPrompt(t *theme.ThemeConfig) string {
	return fmt.Sprintf(NarratorSystemPrompt, t.Name, factsBlock(t.Facts), forbiddenBlock(t.Forbidden))
}

// BuildCriticSystemPrompt renders the critic's system prompt for a theme.
func BuildCriticSystemPrompt(t *theme.ThemeConfig) string {
	example := "such thing"
	if len(t.Forbidden) > 0 {
		example = t.Forbidden[0]
	}
	return fmt.Sprintf(CriticSystemPrompt, t.Personality, factsBlock(t.Facts), forbiddenList(t.Forbidden), example)
}
