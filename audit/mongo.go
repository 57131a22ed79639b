package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// docInserter is the slice of *mongo.Collection the writer needs; tests
// substitute a fake.
type docInserter interface {
	InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error)
}

// MongoConfig configures the Mongo audit writer.
type MongoConfig struct {
	// URI is the connection string. Required.
	URI string

	// Database and Collection name the target. Default "alphawave" and
	// "turn_audit".
	Database   string
	Collection string

	// BufferSize is the in-memory queue capacity. Default 256.
	BufferSize int

	// FlushInterval is how often buffered records are written out even when
	// the batch is not full. Default 5s.
	FlushInterval time.Duration

	// BatchSize is the maximum records per insert. Default 32.
	BatchSize int
}

// MongoWriter writes audit records to a Mongo collection from a background
// worker.
type MongoWriter struct {
	client  *mongo.Client
	coll    docInserter
	logger  *zap.Logger
	queue   chan Record
	dropped atomic.Int64

	flushInterval time.Duration
	batchSize     int

	closeOnce sync.Once
	done      chan struct{}
	finished  chan struct{}
}

var _ Writer = (*MongoWriter)(nil)

// NewMongoWriter connects to Mongo and starts the flush worker.
func NewMongoWriter(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoWriter, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	if cfg.Database == "" {
		cfg.Database = "alphawave"
	}
	if cfg.Collection == "" {
		cfg.Collection = "turn_audit"
	}

	w := newMongoWriter(client.Database(cfg.Database).Collection(cfg.Collection), cfg, logger)
	w.client = client
	return w, nil
}

// newMongoWriter wires the worker around any inserter; split out for tests.
func newMongoWriter(coll docInserter, cfg MongoConfig, logger *zap.Logger) *MongoWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	w := &MongoWriter{
		coll:          coll,
		logger:        logger.With(zap.String("component", "audit")),
		queue:         make(chan Record, cfg.BufferSize),
		flushInterval: cfg.FlushInterval,
		batchSize:     cfg.BatchSize,
		done:          make(chan struct{}),
		finished:      make(chan struct{}),
	}
	go w.run()
	return w
}

// Write queues the record without blocking. A full buffer drops the record
// and bumps the dropped counter.
func (w *MongoWriter) Write(_ context.Context, rec Record) bool {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	select {
	case w.queue <- rec:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped returns how many records were discarded because the buffer was
// full.
func (w *MongoWriter) Dropped() int64 { return w.dropped.Load() }

// Close stops the worker, flushes what remains, and disconnects.
func (w *MongoWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.done) })

	select {
	case <-w.finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	if w.client != nil {
		return w.client.Disconnect(ctx)
	}
	return nil
}

func (w *MongoWriter) run() {
	defer close(w.finished)

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]any, 0, w.batchSize)
	for {
		select {
		case rec := <-w.queue:
			batch = append(batch, rec)
			if len(batch) >= w.batchSize {
				batch = w.flush(batch)
			}
		case <-ticker.C:
			batch = w.flush(batch)
		case <-w.done:
			// Drain whatever is still queued, then flush once.
			for {
				select {
				case rec := <-w.queue:
					batch = append(batch, rec)
				default:
					w.flush(batch)
					return
				}
			}
		}
	}
}

func (w *MongoWriter) flush(batch []any) []any {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := w.coll.InsertMany(ctx, batch); err != nil {
		w.logger.Warn("audit flush failed",
			zap.Int("records", len(batch)),
			zap.Error(err),
		)
	}
	return batch[:0]
}
