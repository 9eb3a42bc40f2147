// Package transport implements the HTTP front door and the two session
// transports it multiplexes: the bidirectional streamable transport and the
// legacy SSE push transport with its POST side channel.
package transport

import (
	"fmt"
	"sync"
)

// Session is a live client connection tracked by a Registry.
type Session interface {
	// SessionID returns the session's unique id.
	SessionID() string
	// Close tears the session down. Implementations must be idempotent.
	Close()
}

// Registry is a table of live sessions for one transport kind. The two
// transport kinds each own a disjoint Registry; a session id from one table
// is never valid in the other.
//
// All mutators are enforced here so the invariants (no double registration,
// idempotent removal) live in one place instead of at every call site.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Put registers a session under its id. Registering an id that is already
// present is an error: a duplicate means a lifecycle bug upstream, not a
// condition to silently tolerate.
func (r *Registry) Put(s Session) error {
	if s == nil || s.SessionID() == "" {
		return fmt.Errorf("cannot register session without an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.SessionID()]; exists {
		return fmt.Errorf("session already registered: %s", s.SessionID())
	}
	r.sessions[s.SessionID()] = s
	return nil
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the entry for id. Removing an absent id is a no-op so both
// close paths of a session can run without coordinating.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// RemoveSession deletes the entry holding exactly this session value, found
// by scanning values rather than trusting an id captured earlier. This keeps
// a session whose registration never completed (or was replaced) from
// deleting someone else's entry.
func (r *Registry) RemoveSession(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cur := range r.sessions {
		if cur == s {
			delete(r.sessions, id)
			return true
		}
	}
	return false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every live session. Used during server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	// Close outside the lock: Close implementations remove themselves
	// from the registry.
	for _, s := range sessions {
		s.Close()
	}
}
