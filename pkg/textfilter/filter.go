// Package textfilter normalizes raw model output into clean utterances:
// stripping formatting artifacts, conversational filler, and meta
// acknowledgements, and capping utterance length.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Patterns small models habitually wrap their answers in.
var stripPatterns = []string{
	"```[a-z]*\\n?", // markdown fences
	`\*\*?`,         // emphasis markers
	`\[[^\]]*\]`,    // bracketed asides / stage directions
	`^["'\x60]+`,    // leading quote marks
	`["'\x60]+$`,    // trailing quote marks
}

// Leading filler phrases, stripped case-insensitively from the start of a
// response.
var fillerPrefixes = []string{
	"sure,", "sure!", "okay,", "ok,", "well,", "certainly,", "of course,",
	"alright,", "here's", "here is",
}

// Meta acknowledgements the narrator must never utter: responses to the
// critic as a critic rather than as part of the story.
var narratorMetaPhrases = []string{
	"good point",
	"you're right",
	"you are right",
	"fair enough",
	"as an ai",
	"i understand",
	"understood",
	"noted",
	"let me revise",
	"to address your concern",
}

// Cleaner applies the normalization pipeline. Regexes are compiled once at
// construction, following the same table-of-precompiled-patterns shape used
// for content filtering.
type Cleaner struct {
	strip      []*regexp.Regexp
	meta       []*regexp.Regexp
	titleCaser cases.Caser
}

// NewCleaner creates a cleaner with the default pattern tables.
func NewCleaner() *Cleaner {
	c := &Cleaner{
		titleCaser: cases.Title(language.English),
	}
	for _, p := range stripPatterns {
		c.strip = append(c.strip, regexp.MustCompile(p))
	}
	for _, p := range narratorMetaPhrases {
		// Swallow trailing punctuation and spacing with the phrase.
		c.meta = append(c.meta, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b[,.!]?\s*`))
	}
	return c
}

// CleanNarrator normalizes a narrator response: formatting and filler are
// stripped, meta acknowledgements removed, and the result capped at two
// sentences.
func (c *Cleaner) CleanNarrator(text string) string {
	text = c.base(text)
	for _, re := range c.meta {
		text = re.ReplaceAllString(text, "")
	}
	text = normalizeSpace(text)
	return c.recapitalize(LimitSentences(text, 2))
}

// CleanCritic normalizes a critic response, capped at one sentence.
func (c *Cleaner) CleanCritic(text string) string {
	text = c.base(text)
	return c.recapitalize(LimitSentences(text, 1))
}

func (c *Cleaner) base(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range c.strip {
		text = re.ReplaceAllString(text, "")
	}
	lower := strings.ToLower(text)
	for _, prefix := range fillerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}
	return normalizeSpace(text)
}

// recapitalize upper-cases the first word when filler stripping left the
// response starting lowercase.
func (c *Cleaner) recapitalize(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	if unicode.IsLower(runes[0]) {
		first := string(runes[0])
		return c.titleCaser.String(first) + string(runes[1:])
	}
	return text
}

// LimitSentences truncates text to at most n sentences, keeping terminal
// punctuation.
func LimitSentences(text string, n int) string {
	if n <= 0 {
		return text
	}
	re := regexp.MustCompile(`[^.!?]+[.!?]*`)
	parts := re.FindAllString(text, -1)
	if len(parts) <= n {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.Join(parts[:n], ""))
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
