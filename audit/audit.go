package audit

import (
	"context"
	"time"
)

// Record is one audited wave turn.
type Record struct {
	TurnID         string        `bson:"turn_id"`
	ConversationID string        `bson:"conversation_id"`
	Model          string        `bson:"model"`
	Valid          bool          `bson:"valid"`
	Attempts       int           `bson:"attempts"`
	Feedback       string        `bson:"feedback,omitempty"`
	Latency        time.Duration `bson:"latency_ns"`
	CreatedAt      time.Time     `bson:"created_at"`
}

// Writer receives audit records. Write must not block the caller's request
// path; implementations buffer or drop instead.
type Writer interface {
	// Write queues a record. A false return means the record was dropped.
	Write(ctx context.Context, rec Record) bool

	// Close flushes buffered records and stops the writer.
	Close(ctx context.Context) error
}

// NopWriter discards every record. It is the default when auditing is not
// configured.
type NopWriter struct{}

// NewNopWriter creates a writer that discards everything.
func NewNopWriter() *NopWriter { return &NopWriter{} }

func (*NopWriter) Write(context.Context, Record) bool { return true }

func (*NopWriter) Close(context.Context) error { return nil }
