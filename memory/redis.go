package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rmolinamir/alphawave/types"
)

// appendScript atomically appends a message to the history list so two
// concurrent appends cannot lose each other's write.
var appendScript = redis.NewScript(`
	local key = KEYS[1]
	local msgData = ARGV[1]
	local ttl = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	local messages
	if current then
		messages = cjson.decode(current)
	else
		messages = {}
	end

	table.insert(messages, cjson.decode(msgData))
	redis.call('SET', key, cjson.encode(messages), 'EX', ttl)
	return #messages
`)

// RedisMemory is a Redis-backed Memory scoped to one conversation. Variables
// and history are stored as JSON under a per-conversation key prefix with a
// rolling TTL, so values read back with JSON types (numbers as float64,
// objects as map[string]any).
type RedisMemory struct {
	rdb            *redis.Client
	conversationID string
	keyPrefix      string
	ttl            time.Duration
	logger         *zap.Logger
}

// NewRedisMemory creates a Redis-backed memory for the given conversation.
func NewRedisMemory(rdb *redis.Client, conversationID string, logger *zap.Logger) *RedisMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMemory{
		rdb:            rdb,
		conversationID: conversationID,
		keyPrefix:      "alphawave:memory:",
		ttl:            24 * time.Hour,
		logger:         logger,
	}
}

// WithTTL overrides the default 24h key TTL.
func (m *RedisMemory) WithTTL(ttl time.Duration) *RedisMemory {
	m.ttl = ttl
	return m
}

// WithKeyPrefix overrides the default "alphawave:memory:" key prefix.
func (m *RedisMemory) WithKeyPrefix(prefix string) *RedisMemory {
	m.keyPrefix = prefix
	return m
}

func (m *RedisMemory) varKey(key string) string {
	return m.keyPrefix + m.conversationID + ":var:" + key
}

func (m *RedisMemory) messagesKey() string {
	return m.keyPrefix + m.conversationID + ":messages"
}

func (m *RedisMemory) Has(ctx context.Context, key string) (bool, error) {
	n, err := m.rdb.Exists(ctx, m.varKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (m *RedisMemory) Get(ctx context.Context, key string) (any, error) {
	data, err := m.rdb.Get(ctx, m.varKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("unmarshal variable %q: %w", key, err)
	}
	return value, nil
}

func (m *RedisMemory) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal variable %q: %w", key, err)
	}
	if err := m.rdb.Set(ctx, m.varKey(key), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (m *RedisMemory) Delete(ctx context.Context, key string) error {
	if err := m.rdb.Del(ctx, m.varKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys returns the names of all variables stored for the conversation.
func (m *RedisMemory) Keys(ctx context.Context) ([]string, error) {
	prefix := m.keyPrefix + m.conversationID + ":var:"
	full, err := m.rdb.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}

	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

func (m *RedisMemory) Clear(ctx context.Context) error {
	pattern := m.keyPrefix + m.conversationID + ":*"
	keys, err := m.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("redis keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	m.logger.Debug("conversation memory cleared",
		zap.String("conversation_id", m.conversationID),
		zap.Int("keys", len(keys)))
	return nil
}

func (m *RedisMemory) Messages(ctx context.Context) ([]types.Message, error) {
	data, err := m.rdb.Get(ctx, m.messagesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var msgs []types.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return msgs, nil
}

func (m *RedisMemory) AppendMessage(ctx context.Context, msg types.Message) error {
	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := appendScript.Run(ctx, m.rdb, []string{m.messagesKey()},
		msgData, int(m.ttl.Seconds())).Err(); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

func (m *RedisMemory) SetMessages(ctx context.Context, msgs []types.Message) error {
	if msgs == nil {
		msgs = []types.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	if err := m.rdb.Set(ctx, m.messagesKey(), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
