// Package idempotency lets participant services deduplicate remote calls by
// correlation id. The saga layer retries freely; the participant replays the
// stored response instead of repeating the effect.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Remember stores response under key if the key is new. It returns the
	// previously stored response and true when the key was already seen.
	Remember(ctx context.Context, key string, response []byte) ([]byte, bool, error)
}

type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if prefix == "" {
		prefix = "idem"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) Remember(ctx context.Context, key string, response []byte) ([]byte, bool, error) {
	k := s.prefix + ":" + key
	set, err := s.rdb.SetNX(ctx, k, response, s.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if set {
		return nil, false, nil
	}
	existing, err := s.rdb.Get(ctx, k).Bytes()
	if err == redis.Nil {
		// Expired between SetNX and Get; treat as first sight.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

// MemoryStore is the single-process fallback used when Redis is not
// configured, and the store tests run against.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	response  []byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{entries: map[string]memoryEntry{}, ttl: ttl}
}

func (s *MemoryStore) Remember(_ context.Context, key string, response []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return e.response, true, nil
	}
	s.entries[key] = memoryEntry{response: response, expiresAt: now.Add(s.ttl)}
	return nil, false, nil
}
