package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	defaultKeyPrefix = "copycat:session:"
	maxUpdateTries   = 5
)

// Writes the new payload only while the key still holds the payload read.
const casScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SETEX", KEYS[1], ARGV[3], ARGV[2])
	return 1
end
return 0`

// KV is the subset of the go-zero redis client the store needs.
type KV interface {
	GetCtx(ctx context.Context, key string) (string, error)
	SetexCtx(ctx context.Context, key, value string, seconds int) error
	DelCtx(ctx context.Context, keys ...string) (int, error)
	EvalCtx(ctx context.Context, script string, keys []string, args ...any) (any, error)
}

// RedisStore keeps msgpack-encoded sessions in Redis with a TTL.
type RedisStore struct {
	kv  KV
	ttl time.Duration
	key func(id string) string
}

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyFunc overrides how session ids map onto Redis keys.
func WithKeyFunc(fn func(id string) string) RedisOption {
	return func(r *RedisStore) {
		if fn != nil {
			r.key = fn
		}
	}
}

// NewRedisStore wraps kv. ttl is rounded up to whole seconds.
func NewRedisStore(kv KV, ttl time.Duration, opts ...RedisOption) (*RedisStore, error) {
	if kv == nil {
		return nil, errors.New("session: redis client is required")
	}
	if ttl < time.Second {
		return nil, errors.New("session: redis ttl must be at least one second")
	}
	r := &RedisStore{
		kv:  kv,
		ttl: ttl,
		key: func(id string) string { return defaultKeyPrefix + id },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session: id is required")
	}
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err := r.kv.SetexCtx(ctx, r.key(s.ID), payload, r.seconds()); err != nil {
		return fmt.Errorf("session: save %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := r.kv.GetCtx(ctx, r.key(id))
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	if raw == "" {
		return nil, ErrNotFound
	}
	return decodeSession(raw)
}

// Update loads id, applies fn and writes the result back with a
// compare-and-swap. A concurrent Save or Clear makes it reload and retry; a
// cleared session yields ErrNotFound instead of being resurrected.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	key := r.key(id)
	for try := 0; try < maxUpdateTries; try++ {
		raw, err := r.kv.GetCtx(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("session: load %s: %w", id, err)
		}
		if raw == "" {
			return nil, ErrNotFound
		}
		s, err := decodeSession(raw)
		if err != nil {
			return nil, err
		}
		fn(s)
		payload, err := encodeSession(s)
		if err != nil {
			return nil, err
		}
		res, err := r.kv.EvalCtx(ctx, casScript, []string{key}, raw, payload, r.seconds())
		if err != nil {
			return nil, fmt.Errorf("session: update %s: %w", id, err)
		}
		if n, ok := res.(int64); ok && n == 1 {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConflict, id)
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	if _, err := r.kv.DelCtx(ctx, r.key(id)); err != nil {
		return fmt.Errorf("session: clear %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) seconds() int {
	return int((r.ttl + time.Second - 1) / time.Second)
}

func encodeSession(s *Session) (string, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("session: encode: %w", err)
	}
	return string(b), nil
}

func decodeSession(raw string) (*Session, error) {
	var s Session
	dec := msgpack.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &s, nil
}
