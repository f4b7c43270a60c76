package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "healthqa:session:"

// RedisStore keeps session state in redis with a TTL per key, for
// deployments running more than one replica. Writers for the same session
// are serialised through a per-id mutex within this process; replicas should
// pin a session to one instance (sticky routing) as redis itself is not
// transactional across the read-modify-write.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, locks: make(map[string]*sync.Mutex)}
}

func (s *RedisStore) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *RedisStore) Ensure(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	key := redisKeyPrefix + id
	ok, err := s.rdb.Expire(ctx, key, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("session ensure: %w", err)
	}
	if ok {
		return id, nil
	}
	raw, err := json.Marshal(&State{ID: id})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State)) error {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	key := redisKeyPrefix + id
	st := &State{ID: id}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
	case err != nil:
		return fmt.Errorf("session load: %w", err)
	default:
		if err := json.Unmarshal(raw, st); err != nil {
			return fmt.Errorf("session decode: %w", err)
		}
	}

	fn(st)

	out, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, out, s.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, id string) (State, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("session load: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("session decode: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
