package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", DSN: ":memory:", AutoMigrate: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_SaveAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SaveTurn(ctx,
		&Transcript{ConversationID: "c1", TurnID: "t1", Role: "user", Content: "hi", CreatedAt: base},
		&Transcript{ConversationID: "c1", TurnID: "t1", Role: "assistant", Content: `{"ok":true}`, Valid: true, CreatedAt: base.Add(time.Second)},
	))
	require.NoError(t, s.SaveTurn(ctx,
		&Transcript{ConversationID: "c2", TurnID: "t2", Role: "user", Content: "other", CreatedAt: base},
	))

	rows, err := s.History(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "user", rows[0].Role)
	assert.Equal(t, "assistant", rows[1].Role)
	assert.True(t, rows[1].Valid)
	assert.NotEmpty(t, rows[0].ID, "IDs are assigned on save")
}

func TestSQLStore_HistoryLimitKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveTurn(ctx, &Transcript{
			ConversationID: "c1",
			TurnID:         "t",
			Role:           "user",
			Content:        string(rune('a' + i)),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := s.History(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "d", rows[0].Content)
	assert.Equal(t, "e", rows[1].Content)
}

func TestSQLStore_Purge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTurn(ctx,
		&Transcript{ConversationID: "c1", TurnID: "t1", Role: "user", Content: "hi"},
		&Transcript{ConversationID: "c1", TurnID: "t1", Role: "assistant", Content: "yo"},
	))

	n, err := s.Purge(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := s.History(ctx, "c1", 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLStore_SaveTurnEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.SaveTurn(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestNewSQLStore_WrapsExistingConnection(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Transcript{}))

	s := NewSQLStore(db, nil)
	require.NoError(t, s.SaveTurn(context.Background(), &Transcript{
		ConversationID: "c1", TurnID: "t1", Role: "user", Content: "hi",
	}))
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

// Failure paths run against a mocked driver so they exercise the error
// handling without a broken real database.
func newMockedStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return NewSQLStore(db, nil), mock
}

func TestSQLStore_SaveTurnRollsBackOnError(t *testing.T) {
	s, mock := newMockedStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "transcripts"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SaveTurn(context.Background(), &Transcript{
		ConversationID: "c1", TurnID: "t1", Role: "user", Content: "hi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_HistoryError(t *testing.T) {
	s, mock := newMockedStore(t)

	mock.ExpectQuery(`SELECT \* FROM "transcripts"`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.History(context.Background(), "c1", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
