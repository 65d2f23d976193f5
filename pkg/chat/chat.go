package chat

import "fmt"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// ChatMessage is a single message in a generation request.
// This shape is defined by Ollama's chat API.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the text returned by one generation call.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

// GenerationParams are the per-role sampling options passed through to the
// backend. Field names follow Ollama's options payload.
type GenerationParams struct {
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"num_predict"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

func (p GenerationParams) Validate() error {
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %v", p.Temperature)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("num_predict must be positive, got %d", p.MaxTokens)
	}
	if p.TopP <= 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %v", p.TopP)
	}
	return nil
}
