package planner

import (
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
)

// throttle remembers the last model call per key. Entries expire on their
// own, but expiry is only second-granular, so Allow compares timestamps too.
type throttle struct {
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	calls *collection.Cache
}

func newThrottle(interval time.Duration) (*throttle, error) {
	ttl := interval
	if ttl < time.Second {
		ttl = time.Second
	}
	calls, err := collection.NewCache(ttl, collection.WithName("planner-throttle"))
	if err != nil {
		return nil, err
	}
	return &throttle{interval: interval, now: time.Now, calls: calls}, nil
}

// Allow records a call for key and reports whether it was permitted. On
// refusal it returns how long the caller should wait.
func (t *throttle) Allow(key string) (bool, time.Duration) {
	if t == nil || t.interval <= 0 {
		return true, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if v, ok := t.calls.Get(key); ok {
		if last, ok := v.(time.Time); ok {
			if elapsed := now.Sub(last); elapsed < t.interval {
				return false, t.interval - elapsed
			}
		}
	}
	t.calls.SetWithExpire(key, now, t.interval+time.Second)
	return true, 0
}
