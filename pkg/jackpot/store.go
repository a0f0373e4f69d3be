package jackpot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/house-of-voi/hov-engine/db/redis"
)

// RedisStore persists pool values in Redis so all engine instances
// share the same progressive totals.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed pool store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func poolKey(machineID string) string {
	return fmt.Sprintf("jackpot:pool:%s", machineID)
}

// Init seeds the pool with value unless it already holds one.
func (s *RedisStore) Init(ctx context.Context, machineID string, value uint64) error {
	_, err := s.client.SetNX(ctx, poolKey(machineID), strconv.FormatUint(value, 10), 0)
	return err
}

// Add atomically adds delta to the pool and returns the new value.
func (s *RedisStore) Add(ctx context.Context, machineID string, delta uint64) (uint64, error) {
	value, err := s.client.IncrBy(ctx, poolKey(machineID), int64(delta))
	if err != nil {
		return 0, err
	}
	return uint64(value), nil
}

// Reset sets the pool to value and returns the previous value.
func (s *RedisStore) Reset(ctx context.Context, machineID string, value uint64) (uint64, error) {
	key := poolKey(machineID)

	previous := uint64(0)
	if raw, err := s.client.Get(ctx, key); err == nil {
		if parsed, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			previous = parsed
		}
	}
	if err := s.client.Set(ctx, key, strconv.FormatUint(value, 10), 0); err != nil {
		return 0, err
	}
	return previous, nil
}

// Current returns the pool value, or false when the key is unset.
func (s *RedisStore) Current(ctx context.Context, machineID string) (uint64, bool, error) {
	exists, err := s.client.Exists(ctx, poolKey(machineID))
	if err != nil {
		return 0, false, err
	}
	if !exists {
		return 0, false, nil
	}
	raw, err := s.client.Get(ctx, poolKey(machineID))
	if err != nil {
		return 0, false, err
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// MemoryStore is an in-process Store for tests and single-instance
// deployments without Redis.
type MemoryStore struct {
	mu    sync.Mutex
	pools map[string]uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pools: make(map[string]uint64)}
}

// Init seeds the pool with value unless it already holds one.
func (s *MemoryStore) Init(ctx context.Context, machineID string, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[machineID]; !ok {
		s.pools[machineID] = value
	}
	return nil
}

// Add atomically adds delta to the pool and returns the new value.
func (s *MemoryStore) Add(ctx context.Context, machineID string, delta uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[machineID] += delta
	return s.pools[machineID], nil
}

// Reset sets the pool to value and returns the previous value.
func (s *MemoryStore) Reset(ctx context.Context, machineID string, value uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.pools[machineID]
	s.pools[machineID] = value
	return previous, nil
}

// Current returns the pool value, or false when it was never written.
func (s *MemoryStore) Current(ctx context.Context, machineID string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.pools[machineID]
	return value, ok, nil
}
