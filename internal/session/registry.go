package session

import (
	"sort"
	"sync"
	"time"
)

// Entry is the administrative view of one live session.
type Entry struct {
	SessionID string
	Identity  Identity
	StartedAt time.Time
}

// Registry is the process-wide table of live sessions, keyed by session
// identifier. Sessions register themselves after negotiation and deregister
// exactly once on teardown; administrative callers list and kill through it.
// All operations are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	entry Entry
	kill  func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*liveSession)}
}

// Register inserts a fully-constructed entry. kill is invoked by Kill to
// force the session toward teardown; it must be safe to call from another
// goroutine while the session is blocked reading.
func (r *Registry) Register(sessionID string, identity Identity, startedAt time.Time, kill func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &liveSession{
		entry: Entry{SessionID: sessionID, Identity: identity, StartedAt: startedAt},
		kill:  kill,
	}
}

// Remove deletes a session entry. Returns false when the session was not
// present, which teardown treats as already-removed rather than an error.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// List returns a consistent snapshot of live sessions ordered by start time,
// oldest first. The snapshot never contains a partially-constructed entry.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.sessions))
	for _, s := range r.sessions {
		entries = append(entries, s.entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartedAt.Equal(entries[j].StartedAt) {
			return entries[i].SessionID < entries[j].SessionID
		}
		return entries[i].StartedAt.Before(entries[j].StartedAt)
	})
	return entries
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Kill requests termination of the identified session. Returns false, with
// no side effects, when no such session exists. The kill signal is delivered
// outside the registry lock so a session tearing down concurrently cannot
// deadlock against its own deregistration.
func (r *Registry) Kill(sessionID string) bool {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if s.kill != nil {
		s.kill()
	}
	return true
}
