package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copycat-api/pkg/actionplan"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]int
	failing error
	// beforeSwap runs ahead of each compare-and-swap, outside the lock.
	beforeSwap func()
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]int{}}
}

func (f *fakeKV) GetCtx(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return "", f.failing
	}
	return f.data[key], nil
}

func (f *fakeKV) SetexCtx(_ context.Context, key, value string, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return f.failing
	}
	f.data[key] = value
	f.ttls[key] = seconds
	return nil
}

func (f *fakeKV) DelCtx(_ context.Context, keys ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return 0, f.failing
	}
	n := 0
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
		delete(f.data, k)
	}
	return n, nil
}

func (f *fakeKV) EvalCtx(_ context.Context, _ string, keys []string, args ...any) (any, error) {
	if f.beforeSwap != nil {
		f.beforeSwap()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return nil, f.failing
	}
	key := keys[0]
	if cur, ok := f.data[key]; !ok || cur != args[0].(string) {
		return int64(0), nil
	}
	f.data[key] = args[1].(string)
	f.ttls[key] = args[2].(int)
	return int64(1), nil
}

func TestRedisStore_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	store, err := NewRedisStore(kv, 90*time.Second+time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	captured := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &Session{
		ID:           "tab-9",
		Plan:         samplePlan(),
		Raw:          "```json\n{}\n```",
		Model:        "llama-3.1-70b-versatile",
		Method:       actionplan.MethodFenced,
		PromptDigest: "d1",
		CapturedAt:   captured,
		Cursor:       1,
		Paused:       true,
	}
	require.NoError(t, store.Save(ctx, in))
	assert.Equal(t, 91, kv.ttls[defaultKeyPrefix+"tab-9"], "ttl rounds up to whole seconds")

	out, err := store.Load(ctx, "tab-9")
	require.NoError(t, err)
	assert.True(t, captured.Equal(out.CapturedAt))
	out.CapturedAt = captured
	assert.Equal(t, in, out)
	assert.True(t, out.Plan.Actions[0].HasValue, "defined-value flag survives encoding")

	require.NoError(t, store.Clear(ctx, "tab-9"))
	_, err = store.Load(ctx, "tab-9")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_KeyFunc(t *testing.T) {
	kv := newFakeKV()
	store, err := NewRedisStore(kv, time.Minute, WithKeyFunc(func(id string) string { return "custom/" + id }))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), &Session{ID: "a"}))
	_, ok := kv.data["custom/a"]
	assert.True(t, ok)
}

func TestRedisStore_Errors(t *testing.T) {
	_, err := NewRedisStore(nil, time.Minute)
	require.Error(t, err)
	_, err = NewRedisStore(newFakeKV(), time.Millisecond)
	require.Error(t, err)

	kv := newFakeKV()
	store, err := NewRedisStore(kv, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.Error(t, store.Save(ctx, &Session{}))

	kv.data[defaultKeyPrefix+"junk"] = "\xc1not msgpack"
	_, err = store.Load(ctx, "junk")
	require.ErrorContains(t, err, "decode")

	kv.failing = errors.New("connection reset")
	_, err = store.Load(ctx, "x")
	require.ErrorContains(t, err, "connection reset")
	require.Error(t, store.Save(ctx, &Session{ID: "x"}))
	require.Error(t, store.Clear(ctx, "x"))
}

func TestRedisStore_Update(t *testing.T) {
	ctx := context.Background()
	advance := func(s *Session) { s.Cursor++ }

	t.Run("applies change", func(t *testing.T) {
		kv := newFakeKV()
		store, err := NewRedisStore(kv, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: samplePlan()}))

		s, err := store.Update(ctx, "tab", advance)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Cursor)
		got, err := store.Load(ctx, "tab")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Cursor)
		assert.Equal(t, 60, kv.ttls[defaultKeyPrefix+"tab"])
	})

	t.Run("clear from another replica wins", func(t *testing.T) {
		kv := newFakeKV()
		store, err := NewRedisStore(kv, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: samplePlan()}))
		kv.beforeSwap = func() {
			kv.beforeSwap = nil
			_, _ = kv.DelCtx(ctx, defaultKeyPrefix+"tab")
		}

		_, err = store.Update(ctx, "tab", advance)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.Load(ctx, "tab")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("new capture is reloaded before applying", func(t *testing.T) {
		kv := newFakeKV()
		store, err := NewRedisStore(kv, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: samplePlan(), Cursor: 2}))
		fresh := &actionplan.Plan{Actions: []actionplan.Action{{ElementID: "n", Action: actionplan.KindClick}}}
		kv.beforeSwap = func() {
			kv.beforeSwap = nil
			require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: fresh}))
		}

		s, err := store.Update(ctx, "tab", advance)
		require.NoError(t, err)
		assert.Equal(t, fresh.Actions, s.Plan.Actions)
		assert.Equal(t, 1, s.Cursor)
	})

	t.Run("gives up on constant churn", func(t *testing.T) {
		kv := newFakeKV()
		store, err := NewRedisStore(kv, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: samplePlan()}))
		n := 0
		kv.beforeSwap = func() {
			n++
			require.NoError(t, store.Save(ctx, &Session{ID: "tab", Plan: samplePlan(), Cursor: n}))
		}

		_, err = store.Update(ctx, "tab", func(s *Session) { s.Paused = true })
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, maxUpdateTries, n)
	})
}
