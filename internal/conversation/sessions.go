package conversation

import (
	"context"
	"sync"
	"time"
)

// Session owns one Buffer and serializes the turns that touch it.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex // held for the duration of a turn
	buffer *Buffer

	stateMu      sync.Mutex // guards cancel and lastActivity
	cancel       context.CancelFunc
	lastActivity time.Time
}

// Turn runs fn with exclusive access to the session buffer. Starting a turn
// cancels the context of any turn still in flight, so a newer command
// supersedes an older pending one.
func (s *Session) Turn(ctx context.Context, fn func(ctx context.Context, buf *Buffer)) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.stateMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.lastActivity = time.Now()
	s.stateMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	fn(turnCtx, s.buffer)
}

// View runs fn with exclusive access to the buffer without superseding an
// in-flight turn.
func (s *Session) View(fn func(buf *Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.buffer)
}

func (s *Session) idleSince() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastActivity
}

// Registry holds one Session per key (usually a user id).
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex // Protects concurrent access to sessions map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for key, creating it on first use.
func (r *Registry) GetOrCreate(key string) *Session {
	r.mu.RLock()
	if session, exists := r.sessions[key]; exists {
		r.mu.RUnlock()
		return session
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := r.sessions[key]; exists {
		return session
	}

	now := time.Now()
	session := &Session{
		ID:           key,
		CreatedAt:    now,
		lastActivity: now,
		buffer:       NewBuffer(),
	}
	r.sessions[key] = session
	return session
}

// End clears and forgets the session for key.
func (r *Registry) End(key string) {
	r.mu.Lock()
	session, exists := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if exists {
		session.View(func(buf *Buffer) { buf.Clear() })
	}
}

// Sweep ends every session idle for longer than maxIdle and returns how many were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.RLock()
	var stale []string
	for key, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			stale = append(stale, key)
		}
	}
	r.mu.RUnlock()

	for _, key := range stale {
		r.End(key)
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
