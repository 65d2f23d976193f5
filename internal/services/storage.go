package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// TranscriptStore defines the interface for transcript persistence
type TranscriptStore interface {
	HealthChecker
	Closer

	// SaveTranscript persists a finished transcript
	SaveTranscript(ctx context.Context, t *dialogue.Transcript) error

	// LoadTranscript retrieves a transcript by run ID
	// Returns nil if the transcript doesn't exist
	LoadTranscript(ctx context.Context, id uuid.UUID) (*dialogue.Transcript, error)

	// DeleteTranscript removes a transcript by run ID
	DeleteTranscript(ctx context.Context, id uuid.UUID) error
}
