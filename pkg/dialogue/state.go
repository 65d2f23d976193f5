package dialogue

import "fmt"

// InvariantError reports a state-consistency violation. It always indicates
// an orchestrator bug, never a recoverable runtime condition, and must abort
// the run.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "conversation invariant violated: " + e.Reason
}

// ConversationState is the mutable record of one run. It has a single
// writer (the orchestrator) for its whole lifetime; independent runs each
// own their own state, so no locking is needed.
type ConversationState struct {
	turns              []Turn
	raisedFocusPoints  map[string]bool
	contradictionCount int
	lastRole           Role
}

// NewConversationState returns an empty state ready for the first turn.
func NewConversationState() *ConversationState {
	return &ConversationState{
		turns:             make([]Turn, 0),
		raisedFocusPoints: make(map[string]bool),
	}
}

// Append adds a finished turn. The turn's index must equal the current
// length and its role must alternate with the previous turn, narrator
// first. Violations return an InvariantError.
func (s *ConversationState) Append(t Turn) error {
	if t.Index != len(s.turns) {
		return &InvariantError{Reason: fmt.Sprintf("turn index %d, expected %d", t.Index, len(s.turns))}
	}
	if len(s.turns) == 0 {
		if t.Role != RoleNarrator {
			return &InvariantError{Reason: fmt.Sprintf("first turn must be narrator, got %s", t.Role)}
		}
	} else if t.Role == s.lastRole {
		return &InvariantError{Reason: fmt.Sprintf("role %s spoke twice in a row at index %d", t.Role, t.Index)}
	}
	s.turns = append(s.turns, t)
	s.lastRole = t.Role
	if t.Role == RoleCritic && t.FlaggedContradiction {
		s.contradictionCount++
	}
	return nil
}

// MarkFocusPointUsed records that a focus point has been handed to the
// critic. Marking happens at decision time, so a point is attempted at most
// once even when the following generation call fails.
func (s *ConversationState) MarkFocusPointUsed(point string) {
	s.raisedFocusPoints[point] = true
}

// FocusPointUsed reports whether a point was already injected.
func (s *ConversationState) FocusPointUsed(point string) bool {
	return s.raisedFocusPoints[point]
}

// IncrementContradiction bumps the contradiction counter for flags raised
// outside Append.
func (s *ConversationState) IncrementContradiction() {
	s.contradictionCount++
}

// ContradictionCount returns the number of flagged critic turns so far.
func (s *ConversationState) ContradictionCount() int {
	return s.contradictionCount
}

// Len returns the number of turns taken.
func (s *ConversationState) Len() int {
	return len(s.turns)
}

// LastRole returns the role that spoke last, or RoleNone before the first
// turn.
func (s *ConversationState) LastRole() Role {
	if len(s.turns) == 0 {
		return RoleNone
	}
	return s.lastRole
}

// LastTurn returns the most recent turn, or false before the first turn.
func (s *ConversationState) LastTurn() (Turn, bool) {
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// LastTurnByRole returns the most recent turn spoken by role.
func (s *ConversationState) LastTurnByRole(role Role) (Turn, bool) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == role {
			return s.turns[i], true
		}
	}
	return Turn{}, false
}

// Snapshot returns a copy of the last window turns for prompt construction,
// never more. A non-positive window returns all turns.
func (s *ConversationState) Snapshot(window int) []Turn {
	start := 0
	if window > 0 && len(s.turns) > window {
		start = len(s.turns) - window
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Turns returns a copy of the full turn sequence.
func (s *ConversationState) Turns() []Turn {
	return s.Snapshot(0)
}
