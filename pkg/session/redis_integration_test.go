//go:build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rds, err := redis.NewRedis(redis.RedisConf{Host: addr, Type: redis.NodeType})
	require.NoError(t, err)

	store, err := NewRedisStore(rds, 5*time.Second, WithKeyFunc(func(id string) string {
		return "copycat:test:session:" + id
	}))
	require.NoError(t, err)
	m := NewManager(store)
	ctx := context.Background()

	_, err = m.Replace(ctx, "it-tab", Capture{Plan: samplePlan()})
	require.NoError(t, err)
	s, err := m.Advance(ctx, "it-tab", 2)
	require.NoError(t, err)
	require.Equal(t, 2, s.Cursor)
	s, err = m.Get(ctx, "it-tab")
	require.NoError(t, err)
	require.Equal(t, 2, s.Cursor, "compare-and-swap script persisted the update")

	require.NoError(t, m.Clear(ctx, "it-tab"))
	_, err = m.Get(ctx, "it-tab")
	require.ErrorIs(t, err, ErrNotFound)
}
