package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"copycat-api/pkg/actionplan"
)

// Manager layers replay bookkeeping over a Store. Every write goes through mu
// so a Replace or Clear cannot land inside an update's load and save. Stores
// that implement Updater also guard the update across processes.
type Manager struct {
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewManager wraps store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Capture is the data recorded when a new plan replaces the previous one.
type Capture struct {
	Plan         *actionplan.Plan
	Raw          string
	Model        string
	Method       actionplan.Method
	PromptDigest string
}

// Replace overwrites whatever id held with a fresh, unpaused session.
func (m *Manager) Replace(ctx context.Context, id string, c Capture) (*Session, error) {
	if id == "" {
		return nil, errors.New("session: id is required")
	}
	s := &Session{
		ID:           id,
		Plan:         c.Plan,
		Raw:          c.Raw,
		Model:        c.Model,
		Method:       c.Method,
		PromptDigest: c.PromptDigest,
		CapturedAt:   m.now().UTC(),
	}
	if s.Plan == nil {
		s.Plan = &actionplan.Plan{Actions: []actionplan.Action{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get loads the session stored under id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Load(ctx, id)
}

// Clear drops the session stored under id. Clearing a missing id is not an error.
func (m *Manager) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear(ctx, id)
}

// Pause marks the session so a replaying client stops before its next action.
func (m *Manager) Pause(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) { s.Paused = true })
}

// Resume clears the pause flag.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) { s.Paused = false })
}

// Advance moves the replay cursor by n (negative rewinds), clamped to the plan.
func (m *Manager) Advance(ctx context.Context, id string, n int) (*Session, error) {
	return m.update(ctx, id, func(s *Session) {
		cursor := s.Cursor + n
		if cursor < 0 {
			cursor = 0
		}
		if limit := s.Plan.Len(); cursor > limit {
			cursor = limit
		}
		s.Cursor = cursor
	})
}

// Pending returns the not-yet-replayed actions of id.
func (m *Manager) Pending(ctx context.Context, id string) ([]actionplan.Action, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Pending(), nil
}

func (m *Manager) update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.store.(Updater); ok {
		return u.Update(ctx, id, fn)
	}
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(s)
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
