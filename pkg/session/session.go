// Package session keeps the most recent action plan per caller until it has
// been replayed, replaced by a newer capture, or cleared.
package session

import (
	"context"
	"errors"
	"time"

	"copycat-api/pkg/actionplan"
)

var (
	// ErrNotFound is returned when no session is stored under an id.
	ErrNotFound = errors.New("session: not found")
	// ErrConflict is returned when a session kept changing underneath an update.
	ErrConflict = errors.New("session: concurrent modification")
)

// Session is the caller-visible state between a capture and its replay.
type Session struct {
	ID           string            `json:"id" msgpack:"id"`
	Plan         *actionplan.Plan  `json:"plan" msgpack:"plan"`
	Raw          string            `json:"raw,omitempty" msgpack:"raw"`
	Model        string            `json:"model,omitempty" msgpack:"model"`
	Method       actionplan.Method `json:"method" msgpack:"method"`
	PromptDigest string            `json:"promptDigest,omitempty" msgpack:"prompt_digest"`
	CapturedAt   time.Time         `json:"capturedAt" msgpack:"captured_at"`
	Cursor       int               `json:"cursor" msgpack:"cursor"`
	Paused       bool              `json:"paused" msgpack:"paused"`
}

// Pending returns the actions not yet replayed.
func (s *Session) Pending() []actionplan.Action {
	if s == nil || s.Plan == nil {
		return nil
	}
	if s.Cursor >= len(s.Plan.Actions) {
		return []actionplan.Action{}
	}
	return s.Plan.Actions[s.Cursor:]
}

// Done reports whether every action has been replayed.
func (s *Session) Done() bool {
	return s == nil || s.Cursor >= s.Plan.Len()
}

// Clone returns a deep copy so stored state never aliases caller state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Plan != nil {
		cp.Plan = &actionplan.Plan{Actions: append([]actionplan.Action(nil), s.Plan.Actions...)}
	}
	return &cp
}

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, s *Session) error
	// Load returns ErrNotFound when nothing is stored under id.
	Load(ctx context.Context, id string) (*Session, error)
	Clear(ctx context.Context, id string) error
}

// Updater is implemented by stores that can apply fn atomically with
// respect to writers in other processes.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*Session)) (*Session, error)
}
