package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"furnisher/internal/model"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrMalformedPrior is returned when persisted state cannot be decoded
var ErrMalformedPrior = errors.New("malformed session prior")

// decodePrior turns stored bytes into a prior; callers fall back to a fresh prior on error
func decodePrior(data []byte) (*model.SessionPrior, error) {
	var prior model.SessionPrior
	if err := json.Unmarshal(data, &prior); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrior, err)
	}
	prior.Normalize()
	if !prior.Validate() {
		return nil, fmt.Errorf("%w: invariant violated", ErrMalformedPrior)
	}
	return &prior, nil
}

// MemorySessionStore keeps priors in process memory with a TTL.
// Values are stored encoded so callers never share state with the store.
type MemorySessionStore struct {
	cache *cache.Cache
}

// NewMemorySessionStore creates an in-memory store; expired sessions are purged every 10 minutes
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache.New(ttl, 10*time.Minute)}
}

// Load returns the stored prior, or an empty one for unknown sessions
func (s *MemorySessionStore) Load(ctx context.Context, sessionID string) (*model.SessionPrior, error) {
	x, found := s.cache.Get(sessionID)
	if !found {
		return model.NewSessionPrior(), nil
	}
	data, ok := x.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cache value %T", ErrMalformedPrior, x)
	}
	return decodePrior(data)
}

// Save replaces the stored prior
func (s *MemorySessionStore) Save(ctx context.Context, sessionID string, prior *model.SessionPrior) error {
	data, err := json.Marshal(prior)
	if err != nil {
		return fmt.Errorf("failed to encode session prior: %w", err)
	}
	s.cache.Set(sessionID, data, cache.DefaultExpiration)
	return nil
}

// Delete forgets a session
func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// SetRaw stores undecoded bytes; used to simulate corrupted state
func (s *MemorySessionStore) SetRaw(sessionID string, data []byte) {
	s.cache.Set(sessionID, data, cache.DefaultExpiration)
}

// RedisSessionStore shares priors between engine instances through Redis
type RedisSessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSessionStore connects to the given redis URL
func NewRedisSessionStore(redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisSessionStoreFromClient(rdb, ttl), nil
}

// NewRedisSessionStoreFromClient wraps an existing client
func NewRedisSessionStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl, prefix: "furnisher:session:"}
}

// Load returns the stored prior, or an empty one for unknown sessions
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*model.SessionPrior, error) {
	data, err := s.rdb.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewSessionPrior(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodePrior(data)
}

// Save replaces the stored prior
func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, prior *model.SessionPrior) error {
	data, err := json.Marshal(prior)
	if err != nil {
		return fmt.Errorf("failed to encode session prior: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete forgets a session
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the redis client
func (s *RedisSessionStore) Close() error {
	return s.rdb.Close()
}
