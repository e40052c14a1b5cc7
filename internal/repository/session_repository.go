package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/lakgs-api/internal/models"
)

const sessionKeyPrefix = "lakgs:session:"

// SessionStore keeps server-side session state keyed by session id.
type SessionStore interface {
	Save(ctx context.Context, session models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.Session, error)
	AppendWrongQuestion(ctx context.Context, id, question string) error
	Delete(ctx context.Context, id string) error
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func wrongQuestionsKey(id string) string { return sessionKeyPrefix + id + ":wrong" }

// RedisSessionStore stores sessions as JSON plus a wrong-question list.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore constructs a Redis backed store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, session models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	wrong, err := s.client.LRange(ctx, wrongQuestionsKey(id), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis wrong questions %s: %w", id, err)
	}
	session.WrongQuestions = wrong
	return &session, nil
}

// AppendWrongQuestion pushes to the list and aligns its expiry with the session.
func (s *RedisSessionStore) AppendWrongQuestion(ctx context.Context, id, question string) error {
	ttl, err := s.client.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis ttl session %s: %w", id, err)
	}
	if ttl == -2 { // key does not exist
		return ErrNoRows
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, wrongQuestionsKey(id), question)
	if ttl > 0 {
		pipe.Expire(ctx, wrongQuestionsKey(id), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append wrong question %s: %w", id, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id), wrongQuestionsKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	return nil
}

// MemorySessionStore is the in-process fallback used when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	session   models.Session
	expiresAt time.Time
}

// NewMemorySessionStore constructs an empty in-process store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{now: time.Now, sessions: map[string]memorySession{}}
}

func (s *MemorySessionStore) Save(_ context.Context, session models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	session.WrongQuestions = append([]string(nil), session.WrongQuestions...)
	s.sessions[session.ID] = memorySession{session: session, expiresAt: expires}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(id)
	if !ok {
		return nil, ErrNoRows
	}
	session := entry.session
	session.WrongQuestions = append([]string(nil), entry.session.WrongQuestions...)
	return &session, nil
}

func (s *MemorySessionStore) AppendWrongQuestion(_ context.Context, id, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(id)
	if !ok {
		return ErrNoRows
	}
	entry.session.WrongQuestions = append(entry.session.WrongQuestions, question)
	s.sessions[id] = entry
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep drops expired sessions that were never read again.
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *MemorySessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// live must be called with mu held. Expired entries are evicted on access.
func (s *MemorySessionStore) live(id string) (memorySession, bool) {
	entry, ok := s.sessions[id]
	if !ok {
		return memorySession{}, false
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return memorySession{}, false
	}
	return entry, true
}
