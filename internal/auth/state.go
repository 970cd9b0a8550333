package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth state values between the start and callback requests.
// Each state is valid once and only until its TTL elapses.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (s *MemoryStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(ttl)
	return nil
}

func (s *MemoryStateStore) Consume(ctx context.Context, state string) (bool, error) {
	s.mu.Lock()
	exp, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return !s.now().After(exp), nil
}

const redisStatePrefix = "oauth:state:"

// RedisStateStore shares OAuth state across API instances.
type RedisStateStore struct {
	Client *redis.Client
}

// NewRedisStateStore parses a redis:// URL and verifies the connection.
func NewRedisStateStore(ctx context.Context, rawURL string) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStateStore{Client: client}, nil
}

func (s *RedisStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	return s.Client.Set(ctx, redisStatePrefix+state, "1", ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.Client.GetDel(ctx, redisStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStateStore) Close() error {
	return s.Client.Close()
}
