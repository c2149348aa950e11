package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// keyPrefix namespaces triage sessions in a shared Redis instance.
const keyPrefix = "triage:session:"

// DefaultSessionTTL is how long an idle conversation survives in Redis.
// Every Put refreshes the TTL, so only abandoned sessions expire.
const DefaultSessionTTL = 24 * time.Hour

// RedisStore persists session state in Redis as JSON snapshots with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get loads and decodes the state for a session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*entity.TriageState, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

// Put stores a JSON snapshot of the state and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, state *entity.TriageState) error {
	if state == nil {
		return port.ErrNilSessionState
	}
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+state.SessionID, data, s.ttl).Err()
}

// Delete removes a session. Absent sessions are not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+sessionID).Err()
}

// Ping verifies the Redis connection, for readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
