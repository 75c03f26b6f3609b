package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-gateway/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Store persists session records.
type Store interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON under session:<id>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	v, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(v), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return "session:" + id
}

// MemoryStore keeps sessions in process. Used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	raw, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
