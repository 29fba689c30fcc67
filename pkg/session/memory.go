package session

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
)

// MemoryStore keeps sessions in a process-local expiring cache.
type MemoryStore struct {
	cache *collection.Cache
	ttl   time.Duration
}

// NewMemoryStore builds a store whose entries expire ttl after their last save.
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, errors.New("session: memory store ttl must be positive")
	}
	c, err := collection.NewCache(ttl, collection.WithName("copycat-sessions"))
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c, ttl: ttl}, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session: id is required")
	}
	m.cache.SetWithExpire(s.ID, s.Clone(), m.ttl)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.cache.Del(id)
	return nil
}
