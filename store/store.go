package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("store: not found")

// Transcript is one persisted message of a bot conversation.
type Transcript struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"index:idx_transcripts_conversation;size:64;not null" json:"conversation_id"`
	TurnID         string    `gorm:"index;size:36;not null" json:"turn_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`
	Valid          bool      `json:"valid"`
	Feedback       string    `gorm:"type:text" json:"feedback,omitempty"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `gorm:"index:idx_transcripts_conversation" json:"created_at"`
}

// TableName fixes the table name regardless of gorm's pluralization config.
func (Transcript) TableName() string { return "transcripts" }

// Store persists and reads transcripts.
type Store interface {
	// SaveTurn persists the transcripts of one turn atomically.
	SaveTurn(ctx context.Context, transcripts ...*Transcript) error

	// History returns the most recent transcripts of a conversation in
	// chronological order, at most limit rows (non-positive means all).
	History(ctx context.Context, conversationID string, limit int) ([]Transcript, error)

	// Purge deletes every transcript of a conversation and reports how many
	// rows were removed.
	Purge(ctx context.Context, conversationID string) (int64, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// Config configures the SQL store.
type Config struct {
	// Driver is one of "sqlite", "mysql", "postgres".
	Driver string

	// DSN is the driver-specific data source name. For sqlite this is the
	// file path (":memory:" for in-memory).
	DSN string

	// AutoMigrate creates the schema on open. Deployments should prefer the
	// migrate subcommand and leave this off.
	AutoMigrate bool

	// MaxIdleConns and MaxOpenConns tune the connection pool. Zero keeps
	// the driver defaults.
	MaxIdleConns int
	MaxOpenConns int

	// ConnMaxLifetime bounds connection reuse. Zero keeps the default.
	ConnMaxLifetime time.Duration

	// Recorder receives per-operation timings when set.
	Recorder QueryRecorder
}

// QueryRecorder receives store operation timings; internal/metrics.Collector
// implements it.
type QueryRecorder interface {
	RecordDBQuery(database, operation string, duration time.Duration)
}

// SQLStore is the gorm-backed Store.
type SQLStore struct {
	db       *gorm.DB
	logger   *zap.Logger
	driver   string
	recorder QueryRecorder
}

var _ Store = (*SQLStore)(nil)

// Open connects to the configured database and returns the store.
func Open(cfg Config, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}
	s := &SQLStore{
		db:       db,
		logger:   log.With(zap.String("component", "store")),
		driver:   driver,
		recorder: cfg.Recorder,
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&Transcript{}); err != nil {
			return nil, fmt.Errorf("store: auto migrate: %w", err)
		}
	}

	log.Info("transcript store opened", zap.String("driver", cfg.Driver))
	return s, nil
}

// NewSQLStore wraps an existing gorm connection, for callers that manage the
// connection themselves.
func NewSQLStore(db *gorm.DB, log *zap.Logger) *SQLStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLStore{db: db, logger: log, driver: "sqlite"}
}

// Stats reports the connection pool state, for periodic gauge sampling.
func (s *SQLStore) Stats() (sql.DBStats, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

func (s *SQLStore) observe(operation string, start time.Time) {
	if s.recorder != nil {
		s.recorder.RecordDBQuery(s.driver, operation, time.Since(start))
	}
}

func (s *SQLStore) SaveTurn(ctx context.Context, transcripts ...*Transcript) error {
	defer s.observe("save_turn", time.Now())

	if len(transcripts) == 0 {
		return nil
	}
	for _, tr := range transcripts {
		if tr.ID == "" {
			tr.ID = uuid.NewString()
		}
		if tr.CreatedAt.IsZero() {
			tr.CreatedAt = time.Now().UTC()
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tr := range transcripts {
			if err := tx.Create(tr).Error; err != nil {
				return fmt.Errorf("store: save transcript: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) History(ctx context.Context, conversationID string, limit int) ([]Transcript, error) {
	defer s.observe("history", time.Now())

	query := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []Transcript
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load history: %w", err)
	}

	// Newest-first query for the limit, chronological order for callers.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *SQLStore) Purge(ctx context.Context, conversationID string) (int64, error) {
	defer s.observe("purge", time.Now())

	result := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&Transcript{})
	if result.Error != nil {
		return 0, fmt.Errorf("store: purge conversation: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
