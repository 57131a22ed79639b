package memory

import (
	"context"
	"sync"

	"github.com/rmolinamir/alphawave/types"
)

// VolatileMemory is an in-process Memory. Values are stored as-is without
// serialization, so callers get back exactly what they put in.
type VolatileMemory struct {
	mu       sync.RWMutex
	vars     map[string]any
	messages []types.Message
}

// NewVolatileMemory creates an empty in-process memory.
func NewVolatileMemory() *VolatileMemory {
	return &VolatileMemory{
		vars: make(map[string]any),
	}
}

func (m *VolatileMemory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vars[key]
	return ok, nil
}

func (m *VolatileMemory) Get(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.vars[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (m *VolatileMemory) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[key] = value
	return nil
}

func (m *VolatileMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vars, key)
	return nil
}

// Keys returns the names of all stored variables.
func (m *VolatileMemory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.vars))
	for key := range m.vars {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *VolatileMemory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars = make(map[string]any)
	m.messages = nil
	return nil
}

func (m *VolatileMemory) Messages(_ context.Context) ([]types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *VolatileMemory) AppendMessage(_ context.Context, msg types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *VolatileMemory) SetMessages(_ context.Context, msgs []types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = make([]types.Message, len(msgs))
	copy(m.messages, msgs)
	return nil
}
