// Package dialogue holds the running record of one narrator/critic exchange:
// immutable turns, the single-writer conversation state, and the finished
// transcript.
package dialogue

// Role identifies which party produced a turn.
type Role string

const (
	RoleNarrator Role = "narrator"
	RoleCritic   Role = "critic"

	// RoleNone is the director's terminal marker: no one speaks next.
	RoleNone Role = "none"
)

// Other returns the opposite speaking role.
func (r Role) Other() Role {
	if r == RoleNarrator {
		return RoleCritic
	}
	return RoleNarrator
}

// Pattern classifies a critic utterance.
type Pattern string

const (
	PatternContradiction Pattern = "contradiction"
	PatternQuestion      Pattern = "question"
	PatternBackchannel   Pattern = "backchannel"
	PatternComment       Pattern = "comment"
)

// Turn is one produced utterance. Turns are constructed once the backend
// returns and are never mutated after being appended to the conversation.
type Turn struct {
	Index int    `json:"index"`
	Role  Role   `json:"role"`
	Text  string `json:"text"`

	// Pattern is set on critic turns only.
	Pattern Pattern `json:"pattern,omitempty"`

	// FocusPoint is the focus point the critic was directed to probe in
	// this turn, when one was injected.
	FocusPoint string `json:"focus_point,omitempty"`

	// FlaggedContradiction marks a critic turn that challenged an
	// established fact or a forbidden element.
	FlaggedContradiction bool `json:"flagged_contradiction,omitempty"`
}
