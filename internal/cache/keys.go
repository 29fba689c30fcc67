package cache

import (
	"strings"
	"time"

	"copycat-api/internal/config"
)

// Namespace prefixes every Redis key the service writes.
const Namespace = "copycat"

// TTLSet holds the config TTL classes as durations. A zero entry disables
// caching for that class.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs in seconds; unset classes get the defaults
// and negative ones are switched off.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	seconds := func(v int, fallback time.Duration) time.Duration {
		switch {
		case v < 0:
			return 0
		case v == 0:
			return fallback
		}
		return time.Duration(v) * time.Second
	}
	return TTLSet{
		Short:  seconds(cfg.Short, 10*time.Second),
		Medium: seconds(cfg.Medium, time.Minute),
		Long:   seconds(cfg.Long, 5*time.Minute),
	}
}

func formatKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(Namespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// SessionKey holds the msgpack-encoded session for id.
func SessionKey(id string) string {
	return formatKey("session", id)
}

// RecentRunsKey caches the newest plan runs of a session.
func RecentRunsKey(sessionID string) string {
	return formatKey("runs", "recent", sessionID)
}

// RecentRunsTTL is how long a cached run listing is served.
func RecentRunsTTL(ttl TTLSet) time.Duration {
	return ttl.Medium
}
