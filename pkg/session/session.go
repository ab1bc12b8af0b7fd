// Package session owns per-connection text state. Each websocket
// connection gets one Session record holding the un-synthesized buffer
// and the cumulative transcript used for caption continuity. The
// registry map is guarded at insert and remove; per-session fields are
// mutated only by that session's own protocol loop, so the discipline,
// not a lock, serializes them.
package session

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionExists is returned when connecting an id already present.
var ErrSessionExists = errors.New("session: id already connected")

// Session is one connection's text state.
type Session struct {
	ID string

	// buffer holds pending un-synthesized text; cleared after each
	// successful synthesis pass.
	buffer string

	// transcript accumulates everything appended since the last reset,
	// in arrival order. Synthesis never clears it.
	transcript string

	active    bool
	createdAt time.Time
}

// Registry tracks active sessions keyed by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Connect creates a session with empty buffers. It fails if the id is
// already present.
func (r *Registry) Connect(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return ErrSessionExists
	}
	r.sessions[id] = &Session{
		ID:        id,
		active:    true,
		createdAt: time.Now(),
	}
	return nil
}

// Disconnect removes the session. Not an error if absent.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Initialize clears buffer and transcript for a new stream. No-op if
// the session is absent.
func (r *Registry) Initialize(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.buffer = ""
		s.transcript = ""
		s.active = true
	}
}

// Append concatenates text to both the pending buffer and the
// transcript. No-op if the session is absent.
func (r *Registry) Append(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.buffer += text
		s.transcript += text
	}
}

// Buffer returns the pending un-synthesized text, or "" if absent.
func (r *Registry) Buffer(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s.buffer
	}
	return ""
}

// ClearBuffer drops the pending text after a synthesis pass. The
// transcript is untouched.
func (r *Registry) ClearBuffer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.buffer = ""
	}
}

// Transcript returns the cumulative text since the last reset.
func (r *Registry) Transcript(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s.transcript
	}
	return ""
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll removes every session, for process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}
