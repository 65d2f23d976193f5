package dialogue

import (
	"errors"
	"testing"
)

func mustAppend(t *testing.T, s *ConversationState, turn Turn) {
	t.Helper()
	if err := s.Append(turn); err != nil {
		t.Fatalf("Failed to append turn %d: %v", turn.Index, err)
	}
}

func TestConversationState_Alternation(t *testing.T) {
	s := NewConversationState()

	if s.LastRole() != RoleNone {
		t.Errorf("Expected RoleNone before first turn, got %s", s.LastRole())
	}

	mustAppend(t, s, Turn{Index: 0, Role: RoleNarrator, Text: "The door was open."})
	mustAppend(t, s, Turn{Index: 1, Role: RoleCritic, Text: "Open? By whom?"})
	mustAppend(t, s, Turn{Index: 2, Role: RoleNarrator, Text: "No one knew."})

	if s.Len() != 3 {
		t.Errorf("Expected 3 turns, got %d", s.Len())
	}
	if s.LastRole() != RoleNarrator {
		t.Errorf("Expected narrator last, got %s", s.LastRole())
	}
}

func TestConversationState_InvariantViolations(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *ConversationState)
		turn  Turn
	}{
		{
			name:  "first turn must be narrator",
			setup: func(s *ConversationState) {},
			turn:  Turn{Index: 0, Role: RoleCritic, Text: "hm"},
		},
		{
			name:  "index must be contiguous",
			setup: func(s *ConversationState) {},
			turn:  Turn{Index: 1, Role: RoleNarrator, Text: "x"},
		},
		{
			name: "same role twice in a row",
			setup: func(s *ConversationState) {
				mustAppend(t, s, Turn{Index: 0, Role: RoleNarrator, Text: "x"})
			},
			turn: Turn{Index: 1, Role: RoleNarrator, Text: "y"},
		},
		{
			name: "stale index after appends",
			setup: func(s *ConversationState) {
				mustAppend(t, s, Turn{Index: 0, Role: RoleNarrator, Text: "x"})
				mustAppend(t, s, Turn{Index: 1, Role: RoleCritic, Text: "y"})
			},
			turn: Turn{Index: 1, Role: RoleNarrator, Text: "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewConversationState()
			tt.setup(s)

			err := s.Append(tt.turn)
			if err == nil {
				t.Fatal("Expected invariant violation, got nil")
			}
			var invErr *InvariantError
			if !errors.As(err, &invErr) {
				t.Fatalf("Expected InvariantError, got %T: %v", err, err)
			}
		})
	}
}

func TestConversationState_ContradictionCount(t *testing.T) {
	s := NewConversationState()

	mustAppend(t, s, Turn{Index: 0, Role: RoleNarrator, Text: "The reactor hummed."})
	mustAppend(t, s, Turn{Index: 1, Role: RoleCritic, Text: "There is no reactor.", FlaggedContradiction: true, Pattern: PatternContradiction})
	mustAppend(t, s, Turn{Index: 2, Role: RoleNarrator, Text: "It was a generator, in truth."})
	mustAppend(t, s, Turn{Index: 3, Role: RoleCritic, Text: "Go on."})

	if got := s.ContradictionCount(); got != 1 {
		t.Errorf("Expected 1 contradiction, got %d", got)
	}

	s.IncrementContradiction()
	if got := s.ContradictionCount(); got != 2 {
		t.Errorf("Expected 2 after increment, got %d", got)
	}
}

func TestConversationState_FocusPoints(t *testing.T) {
	s := NewConversationState()

	if s.FocusPointUsed("the gap") {
		t.Error("Fresh state should have no used focus points")
	}
	s.MarkFocusPointUsed("the gap")
	if !s.FocusPointUsed("the gap") {
		t.Error("Marked focus point should be reported used")
	}
	// Marking twice is harmless.
	s.MarkFocusPointUsed("the gap")
	if !s.FocusPointUsed("the gap") {
		t.Error("Re-marked focus point should stay used")
	}
}

func TestConversationState_Snapshot(t *testing.T) {
	s := NewConversationState()
	roles := []Role{RoleNarrator, RoleCritic, RoleNarrator, RoleCritic, RoleNarrator}
	for i, r := range roles {
		mustAppend(t, s, Turn{Index: i, Role: r, Text: "t"})
	}

	snap := s.Snapshot(3)
	if len(snap) != 3 {
		t.Fatalf("Expected 3 turns in window, got %d", len(snap))
	}
	if snap[0].Index != 2 || snap[2].Index != 4 {
		t.Errorf("Expected turns 2..4, got %d..%d", snap[0].Index, snap[2].Index)
	}

	// Non-positive window returns everything.
	all := s.Snapshot(0)
	if len(all) != 5 {
		t.Errorf("Expected all 5 turns, got %d", len(all))
	}

	// Snapshot is a copy: mutating it does not touch state.
	snap[0].Text = "mutated"
	again := s.Snapshot(3)
	if again[0].Text != "t" {
		t.Error("Snapshot mutation leaked into conversation state")
	}
}

func TestConversationState_LastTurnByRole(t *testing.T) {
	s := NewConversationState()
	mustAppend(t, s, Turn{Index: 0, Role: RoleNarrator, Text: "first"})
	mustAppend(t, s, Turn{Index: 1, Role: RoleCritic, Text: "hm"})
	mustAppend(t, s, Turn{Index: 2, Role: RoleNarrator, Text: "second"})

	turn, ok := s.LastTurnByRole(RoleNarrator)
	if !ok || turn.Text != "second" {
		t.Errorf("Expected most recent narrator turn, got %+v ok=%v", turn, ok)
	}

	empty := NewConversationState()
	if _, ok := empty.LastTurnByRole(RoleCritic); ok {
		t.Error("Empty state should have no critic turn")
	}
}
