package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRequest asks a worker to execute one dialogue run. Each run is
// independent: it gets its own conversation state, so any number of
// requests may be processed concurrently.
type RunRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	ThemeName string    `json:"theme_name"`

	// MaxTurns overrides the configured bound when positive.
	MaxTurns int `json:"max_turns,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRunRequest creates a request for the named theme.
func NewRunRequest(themeName string, maxTurns int) *RunRequest {
	return &RunRequest{
		RequestID:  uuid.New(),
		ThemeName:  themeName,
		MaxTurns:   maxTurns,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (r *RunRequest) Validate() error {
	if r.ThemeName == "" {
		return fmt.Errorf("theme_name cannot be empty")
	}
	if r.MaxTurns < 0 {
		return fmt.Errorf("max_turns cannot be negative")
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *RunRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*RunRequest, error) {
	var req RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
