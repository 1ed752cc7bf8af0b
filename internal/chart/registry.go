package chart

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("chart session not found")
	// ErrTooManySessions is returned when the registry is at capacity
	ErrTooManySessions = errors.New("too many chart sessions")
)

type sessionEntry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// Registry holds live sessions by id. Each session is accessed under its own
// lock so one renderer never sees concurrent events.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
}

// NewRegistry creates a registry expiring sessions idle for longer than idleTTL
func NewRegistry(idleTTL time.Duration, maxSessions int) *Registry {
	return &Registry{
		sessions:    make(map[string]*sessionEntry),
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Create registers a new session
func (r *Registry) Create(cfg RenderConfig, container CanvasSize) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.sweepLocked()
		if len(r.sessions) >= r.maxSessions {
			return nil, ErrTooManySessions
		}
	}

	s := NewSession(cfg, container)
	r.sessions[s.ID] = &sessionEntry{session: s, lastUsed: r.now()}
	return s, nil
}

// With runs fn with exclusive access to the session
func (r *Registry) With(id string, fn func(*Session) error) error {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return fn(e.session)
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Sweep removes idle sessions and returns how many were removed
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
