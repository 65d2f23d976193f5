package director

import (
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// ContradictionDetector decides whether a critic utterance challenges the
// established facts. Detection is inherently approximate, so the strategy is
// pluggable; the director's state machine does not depend on how matching
// works.
type ContradictionDetector interface {
	Detect(text string, facts []string) bool
}

// objectionPhrases are surface markers of a consistency challenge.
var objectionPhrases = []string{
	"there is no",
	"there's no",
	"there are no",
	"doesn't exist",
	"does not exist",
	"impossible",
	"can't be",
	"cannot be",
	"couldn't be",
	"contradict",
	"that's wrong",
	"that is wrong",
	"makes no sense",
	"no way",
	"not possible",
}

// KeywordDetector is the shipped detection strategy: a critic turn counts as
// a contradiction when it contains an objection phrase, or when it directly
// questions one of the established facts.
type KeywordDetector struct{}

func (KeywordDetector) Detect(text string, facts []string) bool {
	lower := strings.ToLower(text)
	for _, p := range objectionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	if strings.Contains(lower, "?") {
		for _, f := range facts {
			f = strings.ToLower(strings.TrimSpace(f))
			if f != "" && strings.Contains(lower, f) {
				return true
			}
		}
	}
	return false
}

// backchannelMaxRunes bounds how short an utterance must be to count as a
// bare acknowledgement ("huh", "go on", "and then?").
const backchannelMaxRunes = 12

// Classify buckets a critic utterance. flagged is the detector's verdict for
// the same text; it takes precedence over the other buckets.
func Classify(text string, flagged bool) dialogue.Pattern {
	switch {
	case flagged:
		return dialogue.PatternContradiction
	case strings.Contains(text, "?"):
		return dialogue.PatternQuestion
	case len([]rune(strings.TrimSpace(text))) <= backchannelMaxRunes:
		return dialogue.PatternBackchannel
	default:
		return dialogue.PatternComment
	}
}
