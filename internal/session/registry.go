// Package session keeps independent table engines, one per dashboard client.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/table"
)

var ErrNotFound = errors.New("table session not found")

const DefaultMaxSessions = 256

// Session owns one table engine. All engine access goes through Do so the
// operations of a session run one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *table.Engine
	lastUsed time.Time
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *table.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = time.Now()
	return fn(s.engine)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	opts     []table.Option
}

// NewRegistry creates a registry holding at most max sessions; opts are
// applied to every new engine.
func NewRegistry(max int, opts ...table.Option) *Registry {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Registry{
		sessions: make(map[string]*Session),
		max:      max,
		opts:     opts,
	}
}

// Create starts a session over items. When the registry is full the least
// recently used session is evicted.
func (r *Registry) Create(items []domain.InventoryItem) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		engine:    table.New(items, r.opts...),
		lastUsed:  now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.sessions) >= r.max {
		r.evictLocked()
	}
	r.sessions[s.ID] = s
	return s
}

func (r *Registry) evictLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range r.sessions {
		if used := s.idleSince(); oldestID == "" || used.Before(oldest) {
			oldestID, oldest = id, used
		}
	}
	delete(r.sessions, oldestID)
	log.Debug().Str("session", oldestID).Msg("evicted idle table session")
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reload loads items into every live session, resetting their filter and
// sort state.
func (r *Registry) Reload(items []domain.InventoryItem) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		_ = s.Do(func(e *table.Engine) error {
			e.Load(items)
			return nil
		})
	}
}
