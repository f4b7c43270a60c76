package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestEnsureAssignsID(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore(4, 30*time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	id, err := store.Ensure(ctx, "")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("assigned id %q is not a uuid: %v", id, err)
	}

	got, err := store.Ensure(ctx, "client-chosen")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got != "client-chosen" {
		t.Fatalf("Ensure must keep a caller-provided id, got %q", got)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore(4, 30*time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	id, _ := store.Ensure(ctx, "s1")
	err := store.Update(ctx, id, func(st *State) {
		st.OriginalQuery = "头疼"
		st.ClarificationTurns = 1
		st.Transcript = append(st.Transcript, Message{Role: "user", Content: "头疼"})
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap, ok, err := store.Snapshot(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Snapshot: ok=%v err=%v", ok, err)
	}
	if snap.OriginalQuery != "头疼" || snap.ClarificationTurns != 1 || len(snap.Transcript) != 1 {
		t.Fatalf("snapshot missing updates: %+v", snap)
	}

	// Mutating the snapshot must not leak back into the store.
	snap.Transcript[0].Content = "改写"
	again, _, _ := store.Snapshot(ctx, id)
	if again.Transcript[0].Content != "头疼" {
		t.Fatalf("snapshot aliases store state")
	}
}

func TestTTLEviction(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore(4, 30*time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	id, _ := store.Ensure(ctx, "expiring")
	clock.Advance(31 * time.Minute)

	if _, ok, _ := store.Snapshot(ctx, id); ok {
		t.Fatalf("expired session still visible")
	}
	if n := store.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", n)
	}
	if n := store.Sweep(); n != 0 {
		t.Fatalf("second Sweep evicted %d sessions, want 0", n)
	}
}

func TestEnsureRefreshesTTL(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore(4, 30*time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	id, _ := store.Ensure(ctx, "active")
	store.Update(ctx, id, func(st *State) { st.OriginalQuery = "发烧" })

	clock.Advance(20 * time.Minute)
	store.Ensure(ctx, id)
	clock.Advance(20 * time.Minute)

	snap, ok, _ := store.Snapshot(ctx, id)
	if !ok {
		t.Fatalf("touched session expired despite refresh")
	}
	if snap.OriginalQuery != "发烧" {
		t.Fatalf("refresh lost state: %+v", snap)
	}
}

func TestExpiredSessionRestartsFresh(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore(4, 30*time.Minute, clock.Now)
	defer store.Close()
	ctx := context.Background()

	id, _ := store.Ensure(ctx, "stale")
	store.Update(ctx, id, func(st *State) { st.ClarificationTurns = 2 })

	clock.Advance(time.Hour)
	store.Ensure(ctx, id)

	snap, ok, _ := store.Snapshot(ctx, id)
	if !ok {
		t.Fatalf("re-ensured session missing")
	}
	if snap.ClarificationTurns != 0 {
		t.Fatalf("expired session kept old state: %+v", snap)
	}
}
