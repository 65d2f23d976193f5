package dialogue

import (
	"github.com/google/uuid"
)

// Status describes how a run ended.
type Status string

const (
	StatusComplete          Status = "complete"
	StatusTruncatedByError  Status = "truncated-by-error"
	StatusTruncatedByCancel Status = "truncated-by-cancel"
)

// Analysis is the summary computed over a finished exchange.
type Analysis struct {
	TotalTurns         int             `json:"total_turns"`
	ContradictionCount int             `json:"contradiction_count"`
	Patterns           map[Pattern]int `json:"patterns,omitempty"`
	AvgNarratorLen     float64         `json:"avg_narrator_len"`
	AvgCriticLen       float64         `json:"avg_critic_len"`
}

// Transcript is the complete ordered record of one run, handed to a
// persistence collaborator after the run's state is discarded.
type Transcript struct {
	ID    uuid.UUID `json:"id"`
	Theme string    `json:"theme"`
	Turns []Turn    `json:"turns"`

	Complete bool   `json:"complete"`
	Status   Status `json:"status"`

	// StoppedAt and StopReason report where and why a truncated run ended.
	// StoppedAt is the index the next turn would have had.
	StoppedAt  int    `json:"stopped_at,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`

	Analysis Analysis `json:"analysis"`
}

// NewTranscript assembles a transcript from finished state.
func NewTranscript(id uuid.UUID, themeName string, s *ConversationState, status Status, stopReason string) *Transcript {
	turns := s.Turns()
	t := &Transcript{
		ID:       id,
		Theme:    themeName,
		Turns:    turns,
		Complete: status == StatusComplete,
		Status:   status,
		Analysis: Analyze(turns, s.ContradictionCount()),
	}
	if status != StatusComplete {
		t.StoppedAt = len(turns)
		t.StopReason = stopReason
	}
	return t
}

// Analyze computes the transcript summary from a turn sequence.
func Analyze(turns []Turn, contradictions int) Analysis {
	a := Analysis{
		TotalTurns:         len(turns),
		ContradictionCount: contradictions,
		Patterns:           make(map[Pattern]int),
	}
	var narrLen, critLen, narrN, critN int
	for _, t := range turns {
		switch t.Role {
		case RoleNarrator:
			narrLen += len([]rune(t.Text))
			narrN++
		case RoleCritic:
			critLen += len([]rune(t.Text))
			critN++
			if t.Pattern != "" {
				a.Patterns[t.Pattern]++
			}
		}
	}
	if narrN > 0 {
		a.AvgNarratorLen = float64(narrLen) / float64(narrN)
	}
	if critN > 0 {
		a.AvgCriticLen = float64(critLen) / float64(critN)
	}
	return a
}
