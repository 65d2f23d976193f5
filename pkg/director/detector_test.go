package director

import (
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

func TestKeywordDetector_Detect(t *testing.T) {
	facts := []string{"the colony went silent six weeks ago", "supply ships take nine months"}
	d := KeywordDetector{}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"objection phrase", "There is no signal coming from Mars.", true},
		{"impossible", "That would be impossible at half reactor capacity.", true},
		{"explicit contradiction", "That contradicts what you said earlier.", true},
		{"questioning a fact", "You claim supply ships take nine months, but do they?", true},
		{"plain question", "What happened next?", false},
		{"backchannel", "Go on.", false},
		{"agreeable comment", "That sounds plausible given the circumstances.", false},
		{"fact mentioned without question", "So the colony went silent six weeks ago.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text, facts); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestKeywordDetector_NoFacts(t *testing.T) {
	d := KeywordDetector{}
	// Questions can't match facts when there are none, but objection
	// phrases still count.
	if d.Detect("Is that so?", nil) {
		t.Error("Question with no facts should not be a contradiction")
	}
	if !d.Detect("That can't be right.", nil) {
		t.Error("Objection phrase should be detected regardless of facts")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		flagged bool
		want    dialogue.Pattern
	}{
		{"flag wins", "Is there really a reactor?", true, dialogue.PatternContradiction},
		{"question", "What did the message say?", false, dialogue.PatternQuestion},
		{"backchannel", "Go on.", false, dialogue.PatternBackchannel},
		{"short hm", "hm", false, dialogue.PatternBackchannel},
		{"comment", "That reactor reading seems rather low for a colony.", false, dialogue.PatternComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, tt.flagged); got != tt.want {
				t.Errorf("Classify(%q, %v) = %s, want %s", tt.text, tt.flagged, got, tt.want)
			}
		})
	}
}
