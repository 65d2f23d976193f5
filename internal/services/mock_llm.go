package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc       func(ctx context.Context, modelName string) error
	GetChatResponseFunc func(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error)
	IsModelReadyFunc    func(ctx context.Context, modelName string) (bool, error)

	// Track calls for testing
	InitModelCalls       []string
	GetChatResponseCalls []GetChatResponseCall
	IsModelReadyCalls    []string

	mu sync.Mutex // protects all fields above
}

type GetChatResponseCall struct {
	Model    string
	Messages []chat.ChatMessage
	Params   chat.GenerationParams
}

var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:       make([]string, 0),
		GetChatResponseCalls: make([]GetChatResponseCall, 0),
		IsModelReadyCalls:    make([]string, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}

	// Default behavior - success
	return nil
}

// GetChatResponse mocks response generation
func (m *MockLLMAPI) GetChatResponse(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetChatResponseCalls = append(m.GetChatResponseCalls, GetChatResponseCall{
		Model:    model,
		Messages: messages,
		Params:   params,
	})

	if m.GetChatResponseFunc != nil {
		return m.GetChatResponseFunc(ctx, model, messages, params)
	}

	return &chat.ChatResponse{
		Message: "Mock response.",
	}, nil
}

// IsModelReady mocks model readiness check
func (m *MockLLMAPI) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)

	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}

	return true, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GetChatResponseCalls = make([]GetChatResponseCall, 0)
	m.IsModelReadyCalls = make([]string, 0)
}

// SetGetChatResponseError sets up the mock to return an error on GetChatResponse
func (m *MockLLMAPI) SetGetChatResponseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetChatResponseFunc = func(ctx context.Context, model string, messages []chat.ChatMessage, params chat.GenerationParams) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// CallCount returns the number of generation calls made so far.
func (m *MockLLMAPI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetChatResponseCalls)
}

// GetCalls returns a copy of the generation call log in a thread-safe way.
func (m *MockLLMAPI) GetCalls() []GetChatResponseCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]GetChatResponseCall, len(m.GetChatResponseCalls))
	copy(calls, m.GetChatResponseCalls)
	return calls
}
