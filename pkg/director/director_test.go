package director

import (
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

func testTheme() *theme.ThemeConfig {
	return &theme.ThemeConfig{
		Name:        "the silent colony",
		Facts:       []string{"the colony went silent six weeks ago"},
		Forbidden:   []string{"aliens"},
		FocusPoints: []string{"why the silence", "the last message"},
		Personality: theme.PersonalityScientific,
	}
}

func appendTurn(t *testing.T, s *dialogue.ConversationState, turn dialogue.Turn) {
	t.Helper()
	if err := s.Append(turn); err != nil {
		t.Fatalf("Failed to append turn %d: %v", turn.Index, err)
	}
}

// advance plays one decided turn into the state with canned text.
func advance(t *testing.T, sd *SmartDirector, s *dialogue.ConversationState, th *theme.ThemeConfig, text string) Decision {
	t.Helper()
	d := sd.Decide(s, th)
	if d.Terminal() {
		return d
	}
	turn := dialogue.Turn{Index: s.Len(), Role: d.NextRole, Text: text}
	if d.NextRole == dialogue.RoleCritic {
		turn.Pattern = Classify(text, false)
		turn.FocusPoint = d.FocusPoint
	}
	appendTurn(t, s, turn)
	return d
}

func TestSmartDirector_NarratorFirstAndAlternation(t *testing.T) {
	sd := New(Thresholds{MaxTurns: 6}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()

	want := []dialogue.Role{
		dialogue.RoleNarrator, dialogue.RoleCritic,
		dialogue.RoleNarrator, dialogue.RoleCritic,
		dialogue.RoleNarrator, dialogue.RoleCritic,
	}
	for i, role := range want {
		d := sd.Decide(s, th)
		if d.Terminal() {
			t.Fatalf("Unexpected terminal decision at step %d: %s", i, d.Reason)
		}
		if d.NextRole != role {
			t.Fatalf("Step %d: expected %s, got %s", i, role, d.NextRole)
		}
		turn := dialogue.Turn{Index: s.Len(), Role: d.NextRole, Text: "something happened here today"}
		if d.NextRole == dialogue.RoleCritic {
			turn.FocusPoint = d.FocusPoint
		}
		appendTurn(t, s, turn)
	}

	d := sd.Decide(s, th)
	if !d.Terminal() {
		t.Errorf("Expected termination at max turns, got %s/%s", d.NextRole, d.Action)
	}
}

func TestSmartDirector_FirstDecisionIsStart(t *testing.T) {
	sd := New(Thresholds{}, nil)
	d := sd.Decide(dialogue.NewConversationState(), testTheme())
	if d.NextRole != dialogue.RoleNarrator || d.Action != ActionStart {
		t.Errorf("Expected narrator/start opening, got %s/%s", d.NextRole, d.Action)
	}
}

func TestSmartDirector_FocusPointsInjectedOnceInOrder(t *testing.T) {
	sd := New(Thresholds{MaxTurns: 10, MinResolutionTurns: 10}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()

	var injected []string
	for i := 0; i < 8; i++ {
		d := sd.Decide(s, th)
		if d.Terminal() {
			break
		}
		turn := dialogue.Turn{Index: s.Len(), Role: d.NextRole, Text: "a fairly ordinary remark"}
		if d.NextRole == dialogue.RoleCritic {
			turn.FocusPoint = d.FocusPoint
			if d.FocusPoint != "" {
				injected = append(injected, d.FocusPoint)
			}
		}
		appendTurn(t, s, turn)
	}

	if len(injected) != 2 {
		t.Fatalf("Expected each focus point injected exactly once, got %v", injected)
	}
	if injected[0] != "why the silence" || injected[1] != "the last message" {
		t.Errorf("Focus points out of configured order: %v", injected)
	}
}

func TestSmartDirector_FocusExhaustionTerminates(t *testing.T) {
	// Two focus points, two resolution turns: the critic receives a point
	// on its first two turns, then the exchange winds down.
	sd := New(Thresholds{MaxTurns: 20, MinResolutionTurns: 2}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()

	var last Decision
	turnsTaken := 0
	for i := 0; i < 20; i++ {
		last = advance(t, sd, s, th, "a fairly ordinary remark")
		if last.Terminal() {
			break
		}
		turnsTaken++
	}

	if !last.Terminal() {
		t.Fatal("Expected focus exhaustion to terminate the exchange")
	}
	if turnsTaken >= 20 {
		t.Errorf("Exchange should end well before the turn cap, took %d", turnsTaken)
	}
	// Last injection is the critic's second turn (index 3); two resolution
	// turns after that means six turns in total.
	if turnsTaken != 6 {
		t.Errorf("Expected 6 turns before exhaustion, got %d", turnsTaken)
	}
}

func TestSmartDirector_NoFocusPointsNeverExhausts(t *testing.T) {
	sd := New(Thresholds{MaxTurns: 8}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()
	th.FocusPoints = nil

	turns := 0
	for {
		d := advance(t, sd, s, th, "a fairly ordinary remark")
		if d.Terminal() {
			break
		}
		if d.FocusPoint != "" {
			t.Fatalf("No focus point should ever be injected, got %q", d.FocusPoint)
		}
		turns++
	}

	// Only the turn cap can end this exchange.
	if turns != 8 {
		t.Errorf("Expected the full 8 turns, got %d", turns)
	}
}

func TestSmartDirector_BreakthroughAfterContradictions(t *testing.T) {
	sd := New(Thresholds{MaxTurns: 20, MaxContradictions: 3, MinResolutionTurns: 20}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()

	// Narrator and critic trade turns; every critic turn is flagged.
	flagged := 0
	var narratorActions []string
	for i := 0; i < 16; i++ {
		d := sd.Decide(s, th)
		if d.Terminal() {
			break
		}
		turn := dialogue.Turn{Index: s.Len(), Role: d.NextRole, Text: "that cannot be right at all"}
		if d.NextRole == dialogue.RoleCritic {
			turn.FlaggedContradiction = true
			turn.Pattern = dialogue.PatternContradiction
			turn.FocusPoint = d.FocusPoint
			flagged++
		} else {
			narratorActions = append(narratorActions, d.Action)
		}
		appendTurn(t, s, turn)
		if flagged > 3 && d.NextRole == dialogue.RoleCritic {
			break
		}
	}

	// Next narrator decision sees the count over the threshold.
	d := sd.Decide(s, th)
	if d.NextRole != dialogue.RoleNarrator {
		t.Fatalf("Expected narrator next, got %s", d.NextRole)
	}
	if d.Action != ActionBreakthrough {
		t.Errorf("Expected breakthrough after %d contradictions, got %s", s.ContradictionCount(), d.Action)
	}

	// Before the threshold, flagged turns get a revision instead.
	for _, a := range narratorActions[1:] {
		if a != ActionRevise {
			t.Errorf("Pre-threshold narrator response to a flag should be revise, got %s", a)
		}
	}
}

func TestSmartDirector_ChangePatternOnStreak(t *testing.T) {
	sd := New(Thresholds{MaxTurns: 20, MinResolutionTurns: 20}, nil)
	s := dialogue.NewConversationState()
	th := testTheme()
	th.FocusPoints = nil

	// Three identical critic patterns in a row.
	texts := []string{"What was that?", "Who said so?", "Why now?"}
	idx := 0
	for _, q := range texts {
		appendTurn(t, s, dialogue.Turn{Index: idx, Role: dialogue.RoleNarrator, Text: "the story moved along slowly"})
		idx++
		appendTurn(t, s, dialogue.Turn{Index: idx, Role: dialogue.RoleCritic, Text: q, Pattern: dialogue.PatternQuestion})
		idx++
	}
	appendTurn(t, s, dialogue.Turn{Index: idx, Role: dialogue.RoleNarrator, Text: "the story moved along slowly"})

	d := sd.Decide(s, th)
	if d.NextRole != dialogue.RoleCritic {
		t.Fatalf("Expected critic next, got %s", d.NextRole)
	}
	if d.Action != ActionChangePattern {
		t.Errorf("Expected change_pattern after a 3-question streak, got %s", d.Action)
	}
}

func TestSmartDirector_ZeroThresholdsGetDefaults(t *testing.T) {
	sd := New(Thresholds{}, nil)
	if sd.MaxTurns() != DefaultMaxTurns {
		t.Errorf("Expected default max turns %d, got %d", DefaultMaxTurns, sd.MaxTurns())
	}
	if sd.Detector() == nil {
		t.Error("Nil detector should default to the keyword strategy")
	}
}
