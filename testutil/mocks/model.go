// Package mocks provides mock implementations of alphawave's interfaces for
// tests: the completion model, the transcript store and the audit writer.
package mocks

import (
	"context"
	"sync"

	"github.com/rmolinamir/alphawave/models"
	"github.com/rmolinamir/alphawave/types"
)

// MockModel is a scripted PromptCompletionModel. Responses are returned in
// order and the last one repeats once the script runs out.
type MockModel struct {
	mu        sync.Mutex
	name      string
	responses []*types.PromptResponse
	err       error
	calls     [][]types.Message
}

var _ models.PromptCompletionModel = (*MockModel)(nil)

// NewMockModel creates a model that replies with the given responses in
// order.
func NewMockModel(responses ...*types.PromptResponse) *MockModel {
	return &MockModel{name: "mock", responses: responses}
}

// WithName sets the name reported by the model.
func (m *MockModel) WithName(name string) *MockModel {
	m.name = name
	return m
}

// FailWith makes every call return err instead of a response.
func (m *MockModel) FailWith(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MockModel) CompletePrompt(ctx context.Context, messages []types.Message, opts *models.RequestOptions) (*types.PromptResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]types.Message(nil), messages...))

	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return types.NewTextResponse("mock response"), nil
	}

	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *MockModel) Name() string { return m.name }

// Calls returns the message slices received so far.
func (m *MockModel) Calls() [][]types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]types.Message(nil), m.calls...)
}

// CallCount returns how many completions were requested.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
