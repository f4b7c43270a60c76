package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	state     *State
	expiresAt time.Time
}

type memoryShard struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
}

// MemoryStore is a sharded in-process session store with TTL eviction.
// The clock is injectable so expiry is testable without sleeping.
type MemoryStore struct {
	shards []*memoryShard
	ttl    time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryStore creates a memory store with the given shard count and TTL.
// A janitor sweeps expired sessions until Close is called.
func NewMemoryStore(shards int, ttl time.Duration, now func() time.Time) *MemoryStore {
	if shards < 1 {
		shards = 1
	}
	if now == nil {
		now = time.Now
	}
	s := &MemoryStore{
		shards: make([]*memoryShard, shards),
		ttl:    ttl,
		now:    now,
		stop:   make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &memoryShard{sessions: make(map[string]*memoryEntry)}
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) shard(id string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

func (s *MemoryStore) Ensure(_ context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.sessions[id]; ok && e.expiresAt.After(s.now()) {
		e.expiresAt = s.now().Add(s.ttl)
		return id, nil
	}
	sh.sessions[id] = &memoryEntry{
		state:     &State{ID: id},
		expiresAt: s.now().Add(s.ttl),
	}
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*State)) error {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.sessions[id]
	if !ok || !e.expiresAt.After(s.now()) {
		e = &memoryEntry{state: &State{ID: id}}
		sh.sessions[id] = e
	}
	fn(e.state)
	e.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, id string) (State, bool, error) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.sessions[id]
	if !ok || !e.expiresAt.After(s.now()) {
		return State{}, false, nil
	}
	return e.state.clone(), true, nil
}

// Sweep removes expired sessions and reports how many were evicted.
func (s *MemoryStore) Sweep() int {
	evicted := 0
	cutoff := s.now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.sessions {
			if !e.expiresAt.After(cutoff) {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
