package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"healthqa/config"
)

// Message is one entry in a session transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the per-conversation mutable state. It is owned by the store;
// callers only touch it inside Update, which serialises writers per session.
type State struct {
	ID                   string    `json:"id"`
	OriginalQuery        string    `json:"original_query"`
	ClarificationAnswers []string  `json:"clarification_answers"`
	ClarificationTurns   int       `json:"clarification_turns"`
	ResolvedQuery        string    `json:"resolved_query"`
	Transcript           []Message `json:"transcript"`
}

// Store holds conversation state keyed by session id.
//
// Ensure returns a usable session id, minting one when the caller supplied
// none, and guarantees the session exists. Update runs fn with exclusive
// access to the session's state; updates for different sessions do not block
// one another. Snapshot returns a copy for read-only use.
type Store interface {
	Ensure(ctx context.Context, id string) (string, error)
	Update(ctx context.Context, id string, fn func(*State)) error
	Snapshot(ctx context.Context, id string) (State, bool, error)
	Close() error
}

// NewStore builds the session store selected by configuration.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(cfg.Shards, cfg.TTL, time.Now), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Redis.Host, cfg.Redis.Port, err)
		}
		return NewRedisStore(rdb, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Store)
	}
}

func (s *State) clone() State {
	out := *s
	out.ClarificationAnswers = append([]string(nil), s.ClarificationAnswers...)
	out.Transcript = append([]Message(nil), s.Transcript...)
	return out
}
