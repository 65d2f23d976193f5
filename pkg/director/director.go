// Package director implements the turn-by-turn policy for a dialogue run:
// who speaks next, which focus point to inject, which action shapes the
// prompt, and when the exchange ends.
package director

import (
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// Actions shape the prompt template for the next utterance.
const (
	// Narrator actions.
	ActionStart        = "start"
	ActionContinue     = "continue"
	ActionRevise       = "revise"
	ActionDevelop      = "develop"
	ActionBreakthrough = "breakthrough"
	ActionClimax       = "climax"

	// Critic actions.
	ActionListen        = "listen"
	ActionQuestion      = "question"
	ActionAnalyze       = "analyze"
	ActionChangePattern = "change_pattern"
	ActionFinalDoubt    = "final_doubt"
)

// Decision is the director's output for one step. Reason is diagnostic only
// and never drives control flow.
type Decision struct {
	NextRole   dialogue.Role
	Action     string
	FocusPoint string
	Reason     string
}

// Terminal reports whether the decision ends the exchange.
func (d Decision) Terminal() bool {
	return d.NextRole == dialogue.RoleNone
}

// Thresholds configure the policy. Zero values are replaced by defaults.
type Thresholds struct {
	MaxTurns           int // turns before forced termination
	MinResolutionTurns int // turns granted after all focus points are raised
	MaxContradictions  int // flagged critic turns before a narrator breakthrough
}

const (
	DefaultMaxTurns           = 8
	DefaultMinResolutionTurns = 2
	DefaultMaxContradictions  = 3

	// patternStreak is how many identical critic patterns in a row prompt a
	// change of approach.
	patternStreak = 3
)

func (t Thresholds) withDefaults() Thresholds {
	if t.MaxTurns <= 0 {
		t.MaxTurns = DefaultMaxTurns
	}
	if t.MinResolutionTurns <= 0 {
		t.MinResolutionTurns = DefaultMinResolutionTurns
	}
	if t.MaxContradictions <= 0 {
		t.MaxContradictions = DefaultMaxContradictions
	}
	return t
}

// SmartDirector decides the next step from conversation state and configured
// thresholds. It keeps no per-run state of its own, so one director may
// serve many concurrent runs.
type SmartDirector struct {
	thresholds Thresholds
	detector   ContradictionDetector
}

// New creates a director. A nil detector gets the keyword strategy.
func New(t Thresholds, d ContradictionDetector) *SmartDirector {
	if d == nil {
		d = KeywordDetector{}
	}
	return &SmartDirector{thresholds: t.withDefaults(), detector: d}
}

// Detector exposes the configured contradiction strategy for turn
// construction.
func (sd *SmartDirector) Detector() ContradictionDetector {
	return sd.detector
}

// MaxTurns returns the configured turn bound.
func (sd *SmartDirector) MaxTurns() int {
	return sd.thresholds.MaxTurns
}

// Decide returns the next step. It never fails: an empty conversation is the
// initial-state case, not an error. The only state mutation is marking an
// injected focus point used, which happens at decision time so each point is
// attempted at most once.
func (sd *SmartDirector) Decide(state *dialogue.ConversationState, t *theme.ThemeConfig) Decision {
	if state.Len() >= sd.thresholds.MaxTurns {
		return Decision{
			NextRole: dialogue.RoleNone,
			Reason:   fmt.Sprintf("max turns reached (%d)", sd.thresholds.MaxTurns),
		}
	}
	if sd.focusExhausted(state, t) {
		return Decision{
			NextRole: dialogue.RoleNone,
			Reason:   "all focus points raised and resolution turns elapsed",
		}
	}

	// Strict alternation, narrator first.
	next := dialogue.RoleNarrator
	if last := state.LastRole(); last != dialogue.RoleNone {
		next = last.Other()
	}

	d := Decision{NextRole: next}
	if next == dialogue.RoleCritic {
		if p, ok := sd.nextFocusPoint(state, t); ok {
			d.FocusPoint = p
			state.MarkFocusPointUsed(p)
		}
		d.Action, d.Reason = sd.criticAction(state)
	} else {
		d.Action, d.Reason = sd.narratorAction(state)
	}
	return d
}

// focusExhausted reports whether every focus point has been raised and the
// configured number of resolution turns has elapsed since the last
// injection. Themes without focus points never exhaust.
func (sd *SmartDirector) focusExhausted(state *dialogue.ConversationState, t *theme.ThemeConfig) bool {
	if len(t.FocusPoints) == 0 {
		return false
	}
	for _, p := range t.FocusPoints {
		if !state.FocusPointUsed(p) {
			return false
		}
	}
	lastFocusIdx := -1
	for _, turn := range state.Turns() {
		if turn.FocusPoint != "" {
			lastFocusIdx = turn.Index
		}
	}
	return state.Len()-(lastFocusIdx+1) >= sd.thresholds.MinResolutionTurns
}

// nextFocusPoint selects the first unused focus point in configured order.
func (sd *SmartDirector) nextFocusPoint(state *dialogue.ConversationState, t *theme.ThemeConfig) (string, bool) {
	for _, p := range t.FocusPoints {
		if !state.FocusPointUsed(p) {
			return p, true
		}
	}
	return "", false
}

func (sd *SmartDirector) narratorAction(state *dialogue.ConversationState) (string, string) {
	n := state.Len()
	if n == 0 {
		return ActionStart, "opening turn"
	}
	if state.ContradictionCount() > sd.thresholds.MaxContradictions {
		return ActionBreakthrough, fmt.Sprintf("%d contradictions flagged, forcing resolution", state.ContradictionCount())
	}
	if last, ok := state.LastTurn(); ok && last.Role == dialogue.RoleCritic && last.FlaggedContradiction {
		return ActionRevise, "critic flagged a contradiction"
	}
	switch {
	case n >= sd.thresholds.MaxTurns-2:
		return ActionClimax, "closing phase"
	case n >= sd.thresholds.MaxTurns/2:
		return ActionDevelop, "middle phase"
	default:
		return ActionContinue, "early phase"
	}
}

func (sd *SmartDirector) criticAction(state *dialogue.ConversationState) (string, string) {
	if p, ok := sd.criticStreak(state); ok {
		return ActionChangePattern, fmt.Sprintf("critic repeated %q %d times", p, patternStreak)
	}
	n := state.Len()
	switch {
	case n >= sd.thresholds.MaxTurns-2:
		return ActionFinalDoubt, "closing phase"
	case n < 3:
		return ActionListen, "early phase"
	case n < 5:
		return ActionQuestion, "probing phase"
	default:
		return ActionAnalyze, "analysis phase"
	}
}

// criticStreak reports whether the last patternStreak critic turns all share
// one pattern.
func (sd *SmartDirector) criticStreak(state *dialogue.ConversationState) (dialogue.Pattern, bool) {
	var patterns []dialogue.Pattern
	for _, turn := range state.Turns() {
		if turn.Role == dialogue.RoleCritic && turn.Pattern != "" {
			patterns = append(patterns, turn.Pattern)
		}
	}
	if len(patterns) < patternStreak {
		return "", false
	}
	last := patterns[len(patterns)-1]
	for _, p := range patterns[len(patterns)-patternStreak:] {
		if p != last {
			return "", false
		}
	}
	return last, true
}
