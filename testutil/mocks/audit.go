package mocks

import (
	"context"
	"sync"

	"github.com/rmolinamir/alphawave/audit"
)

// MockAuditWriter collects audit records in memory.
type MockAuditWriter struct {
	mu      sync.Mutex
	records []audit.Record

	// Reject makes Write report every record as dropped.
	Reject bool
}

var _ audit.Writer = (*MockAuditWriter)(nil)

// NewMockAuditWriter creates an empty collector.
func NewMockAuditWriter() *MockAuditWriter {
	return &MockAuditWriter{}
}

func (w *MockAuditWriter) Write(_ context.Context, rec audit.Record) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Reject {
		return false
	}
	w.records = append(w.records, rec)
	return true
}

func (w *MockAuditWriter) Close(context.Context) error { return nil }

// Records returns the collected records.
func (w *MockAuditWriter) Records() []audit.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]audit.Record(nil), w.records...)
}
