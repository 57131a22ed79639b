package memory

import (
	"context"
	"sync"

	"github.com/rmolinamir/alphawave/types"
)

// Fork is a copy-on-write overlay over a base memory. Reads fall through to
// the base until the fork has its own value; writes never reach the base.
// Deleting in a fork hides the variable even when the base still has it.
type Fork struct {
	base Memory

	mu       sync.RWMutex
	overlay  map[string]any
	deleted  map[string]struct{}
	messages []types.Message
	forked   bool
}

// NewFork creates a fork over base.
func NewFork(base Memory) *Fork {
	return &Fork{
		base:    base,
		overlay: make(map[string]any),
		deleted: make(map[string]struct{}),
	}
}

func (f *Fork) Has(ctx context.Context, key string) (bool, error) {
	f.mu.RLock()
	if _, ok := f.deleted[key]; ok {
		f.mu.RUnlock()
		return false, nil
	}
	if _, ok := f.overlay[key]; ok {
		f.mu.RUnlock()
		return true, nil
	}
	f.mu.RUnlock()
	return f.base.Has(ctx, key)
}

func (f *Fork) Get(ctx context.Context, key string) (any, error) {
	f.mu.RLock()
	if _, ok := f.deleted[key]; ok {
		f.mu.RUnlock()
		return nil, ErrNotFound
	}
	if value, ok := f.overlay[key]; ok {
		f.mu.RUnlock()
		return value, nil
	}
	f.mu.RUnlock()
	return f.base.Get(ctx, key)
}

func (f *Fork) Set(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.deleted, key)
	f.overlay[key] = value
	return nil
}

func (f *Fork) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.overlay, key)
	f.deleted[key] = struct{}{}
	return nil
}

// Clear empties the fork's view without touching the base: message history
// becomes empty and base variables are left shadowed by their deletion marks.
func (f *Fork) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.overlay = make(map[string]any)
	f.messages = nil
	f.forked = true

	// Mark every base variable deleted so it no longer shows through.
	keys, err := baseKeys(ctx, f.base)
	if err != nil {
		return err
	}
	f.deleted = make(map[string]struct{}, len(keys))
	for _, key := range keys {
		f.deleted[key] = struct{}{}
	}
	return nil
}

func (f *Fork) Messages(ctx context.Context) ([]types.Message, error) {
	f.mu.RLock()
	if f.forked {
		out := make([]types.Message, len(f.messages))
		copy(out, f.messages)
		f.mu.RUnlock()
		return out, nil
	}
	f.mu.RUnlock()
	return f.base.Messages(ctx)
}

func (f *Fork) AppendMessage(ctx context.Context, msg types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.forked {
		base, err := f.base.Messages(ctx)
		if err != nil {
			return err
		}
		f.messages = base
		f.forked = true
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *Fork) SetMessages(_ context.Context, msgs []types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.forked = true
	f.messages = make([]types.Message, len(msgs))
	copy(f.messages, msgs)
	return nil
}

// keyLister is implemented by memories that can enumerate their variables.
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

func baseKeys(ctx context.Context, base Memory) ([]string, error) {
	if lister, ok := base.(keyLister); ok {
		return lister.Keys(ctx)
	}
	return nil, nil
}
