// Package llmtest provides a scriptable llm.Client and llm.Embedder for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/recruiting-agent/internal/llm"
)

// MockClient implements llm.Client and llm.Embedder with optional function fields.
// Calls are counted so tests can assert on retry behavior.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req llm.Request) (string, error)
	EmbedFunc    func(ctx context.Context, text string) ([]float32, error)
	GetModelFunc func(tier llm.ModelTier) string
	CloseFunc    func() error

	mu       sync.Mutex
	requests []llm.Request
	embeds   []string
}

// Complete implements llm.Client.
func (m *MockClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "{}", nil
}

// Embed implements llm.Embedder.
func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embeds = append(m.embeds, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

// GetModel implements llm.Client.
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close implements llm.Client.
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Requests returns a copy of every completion request received.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// CompleteCalls returns the number of completion calls.
func (m *MockClient) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// EmbedCalls returns the number of embedding calls.
func (m *MockClient) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embeds)
}
