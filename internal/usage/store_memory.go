package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	limit int
	data  map[string]Usage
	now   func() time.Time
}

func newMemoryStore(limit int) *memoryStore {
	return &memoryStore{
		limit: normalizeLimit(limit),
		data:  make(map[string]Usage),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *memoryStore) ensure(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(userID), nil
}

// current must be called with mu held.
func (s *memoryStore) current(userID string) Usage {
	now := s.now()
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(s.limit, now)
	}
	if expired(u, now) {
		u.Used = 0
		u.ResetsAt = now.Add(period)
	}
	s.data[userID] = u
	return u
}

func (s *memoryStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID)
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Release(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID)
	u.Used = max(u.Used-n, 0)
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID)
	u.Used = 0
	u.ResetsAt = s.now().Add(period)
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}
