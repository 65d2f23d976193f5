// Package theme defines the validated theme configuration consumed read-only
// by the dialogue engine: the facts a narrator may draw on, the elements it
// must never introduce, and the topics the critic is steered toward.
package theme

import (
	"fmt"
	"strings"
)

// Recognized critic personalities. The personality controls the critic's
// tone; unknown values are rejected at load time rather than discovered
// mid-run.
const (
	PersonalityScientific = "scientific"
	PersonalitySkeptical  = "skeptical"
	PersonalityRealistic  = "realistic"
	PersonalityCurious    = "curious"
)

var knownPersonalities = map[string]bool{
	PersonalityScientific: true,
	PersonalitySkeptical:  true,
	PersonalityRealistic:  true,
	PersonalityCurious:    true,
}

// ConfigError reports an invalid or missing theme field. It is fatal and is
// surfaced before any turn executes.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("theme config: %s: %s", e.Field, e.Reason)
}

// ThemeConfig is a theme's constraint set. Immutable for the lifetime of a
// run; the engine never writes to it.
type ThemeConfig struct {
	Name        string   `json:"name"`
	Facts       []string `json:"facts"`                  // ordered; must not be contradicted
	Forbidden   []string `json:"forbidden"`              // elements the narrator must never introduce
	FocusPoints []string `json:"focus_points,omitempty"` // ordered topics for the critic to probe
	Personality string   `json:"personality"`            // critic tone descriptor
}

// Validate checks the theme for use by the engine. An empty facts list is
// legal; a missing or unknown personality is not. Facts and forbidden
// elements must be disjoint.
func (t *ThemeConfig) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ConfigError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(t.Personality) == "" {
		return &ConfigError{Field: "personality", Reason: "is required"}
	}
	if !knownPersonalities[t.Personality] {
		return &ConfigError{Field: "personality", Reason: fmt.Sprintf("unknown value %q", t.Personality)}
	}
	for i, f := range t.Facts {
		if strings.TrimSpace(f) == "" {
			return &ConfigError{Field: "facts", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
	}
	forbidden := make(map[string]bool, len(t.Forbidden))
	for i, f := range t.Forbidden {
		if strings.TrimSpace(f) == "" {
			return &ConfigError{Field: "forbidden", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
		forbidden[strings.ToLower(strings.TrimSpace(f))] = true
	}
	for _, f := range t.Facts {
		if forbidden[strings.ToLower(strings.TrimSpace(f))] {
			return &ConfigError{Field: "facts", Reason: fmt.Sprintf("%q is also listed as forbidden", f)}
		}
	}
	seen := make(map[string]bool, len(t.FocusPoints))
	for i, p := range t.FocusPoints {
		if strings.TrimSpace(p) == "" {
			return &ConfigError{Field: "focus_points", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
		if seen[p] {
			return &ConfigError{Field: "focus_points", Reason: fmt.Sprintf("duplicate entry %q", p)}
		}
		seen[p] = true
	}
	return nil
}

// HasFocusPoint reports whether p is one of the configured focus points.
func (t *ThemeConfig) HasFocusPoint(p string) bool {
	for _, fp := range t.FocusPoints {
		if fp == p {
			return true
		}
	}
	return false
}
