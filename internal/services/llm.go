package services

import (
	"context"
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

// LLMService defines the interface for the text-generation backend.
type LLMService interface {
	// InitModel initializes the model on startup, pulling it if missing.
	InitModel(ctx context.Context, modelName string) error

	// GetChatResponse generates one response for the given messages using
	// the given sampling parameters.
	GetChatResponse(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error)

	// IsModelReady checks if the specified model is ready for use.
	IsModelReady(ctx context.Context, modelName string) (bool, error)
}

// BackendErrorKind classifies a failed generation call.
type BackendErrorKind string

const (
	BackendTimeout          BackendErrorKind = "timeout"
	BackendModelUnavailable BackendErrorKind = "model_unavailable"
	BackendMalformed        BackendErrorKind = "malformed"
)

// BackendError is the one error class eligible for local recovery: the
// orchestrator retries it up to the configured bound, then degrades the run
// to early termination.
type BackendError struct {
	Kind BackendErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%s): %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
