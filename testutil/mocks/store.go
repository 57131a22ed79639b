package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmolinamir/alphawave/store"
)

// MockStore is an in-memory store.Store.
type MockStore struct {
	mu          sync.Mutex
	transcripts []store.Transcript

	// PingErr is returned by Ping when set.
	PingErr error
	// SaveErr is returned by SaveTurn when set.
	SaveErr error
}

var _ store.Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (s *MockStore) SaveTurn(ctx context.Context, transcripts ...*store.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	for _, tr := range transcripts {
		if tr.ID == "" {
			tr.ID = uuid.NewString()
		}
		if tr.CreatedAt.IsZero() {
			tr.CreatedAt = time.Now().UTC()
		}
		s.transcripts = append(s.transcripts, *tr)
	}
	return nil
}

func (s *MockStore) History(ctx context.Context, conversationID string, limit int) ([]store.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []store.Transcript
	for _, tr := range s.transcripts {
		if tr.ConversationID == conversationID {
			rows = append(rows, tr)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

func (s *MockStore) Purge(ctx context.Context, conversationID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []store.Transcript
	var removed int64
	for _, tr := range s.transcripts {
		if tr.ConversationID == conversationID {
			removed++
			continue
		}
		kept = append(kept, tr)
	}
	s.transcripts = kept
	return removed, nil
}

func (s *MockStore) Ping(ctx context.Context) error { return s.PingErr }

func (s *MockStore) Close() error { return nil }

// All returns every saved transcript in insertion order.
func (s *MockStore) All() []store.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Transcript(nil), s.transcripts...)
}
