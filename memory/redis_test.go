package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rmolinamir/alphawave/types"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisMemory) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewRedisMemory(rdb, "conv-1", zap.NewNop())
}

func TestRedisMemoryVariables(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	ok, err := m.Has(ctx, "input")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Get(ctx, "input")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "input", "hello"))

	ok, err = m.Has(ctx, "input")
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := m.Get(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	require.NoError(t, m.Delete(ctx, "input"))
	_, err = m.Get(ctx, "input")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisMemoryJSONRoundTrip(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "obj", map[string]any{"count": 2}))

	value, err := m.Get(ctx, "obj")
	require.NoError(t, err)

	obj, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, obj["count"]) // JSON numbers come back as float64
}

func TestRedisMemoryMessages(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	msgs, err := m.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, m.AppendMessage(ctx, types.NewUserMessage("hi")))
	require.NoError(t, m.AppendMessage(ctx, types.NewAssistantMessage("hello")))

	msgs, err = m.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, types.RoleAssistant, msgs[1].Role)
}

func TestRedisMemorySetMessages(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	history := []types.Message{
		types.NewUserMessage("one"),
		types.NewAssistantMessage("two"),
	}
	require.NoError(t, m.SetMessages(ctx, history))

	msgs, err := m.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
}

func TestRedisMemoryConversationsIsolated(t *testing.T) {
	mr, m1 := setupTestRedis(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	m2 := NewRedisMemory(rdb, "conv-2", zap.NewNop())

	ctx := context.Background()
	require.NoError(t, m1.Set(ctx, "input", "for conv-1"))

	_, err := m2.Get(ctx, "input")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisMemoryKeysAndClear(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1))
	require.NoError(t, m.Set(ctx, "b", 2))
	require.NoError(t, m.AppendMessage(ctx, types.NewUserMessage("hi")))

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, m.Clear(ctx))

	keys, err = m.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	msgs, err := m.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRedisMemoryTTL(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.WithTTL(time.Minute).Set(ctx, "input", "hello"))

	mr.FastForward(2 * time.Minute)

	_, err := m.Get(ctx, "input")
	assert.ErrorIs(t, err, ErrNotFound)
}
