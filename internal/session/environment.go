// Package session owns the per-connection lifecycle: the immutable
// environment snapshot captured at accept time, the execution context bound
// to a negotiated terminal, the process-wide registry of live sessions, and
// the runner that drives the read-eval loop from negotiation to teardown.
package session

import (
	"github.com/rileyhilliard/shelld/internal/term"
)

// Identity is the outcome of authentication: who connected and what they
// were granted. Authentication itself happens before the session core is
// ever invoked.
type Identity struct {
	Username string
	Roles    []string
}

// HasRole reports whether the identity was granted the named role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Environment is the immutable per-connection snapshot handed to terminal
// negotiation and the execution context. It captures what the remote
// declared (terminal type, window size, forwarded variables) and who
// authenticated. Created once per connection; never mutated afterwards.
type Environment struct {
	termType string
	width    int
	height   int
	vars     map[string]string
	identity Identity
}

// NewEnvironment builds a snapshot. termType is empty and width/height zero
// when the client never sent a pty-req (headless/exec-mode clients). The
// vars map is copied.
func NewEnvironment(identity Identity, termType string, width, height int, vars map[string]string) *Environment {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &Environment{
		termType: termType,
		width:    width,
		height:   height,
		vars:     copied,
		identity: identity,
	}
}

// TermType returns the remote-declared terminal type, with ok=false when the
// remote never declared one.
func (e *Environment) TermType() (string, bool) {
	return e.termType, e.termType != ""
}

// DeclaredSize returns the remote-declared window dimensions. ok is false
// unless both dimensions were declared; a partial declaration is treated as
// no size at all.
func (e *Environment) DeclaredSize() (width, height int, ok bool) {
	if e.width > 0 && e.height > 0 {
		return e.width, e.height, true
	}
	return 0, 0, false
}

// Var returns a remote-forwarded environment variable.
func (e *Environment) Var(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Vars returns a copy of all remote-forwarded environment variables.
func (e *Environment) Vars() map[string]string {
	copied := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		copied[k] = v
	}
	return copied
}

// Identity returns the authenticated identity.
func (e *Environment) Identity() Identity {
	return e.identity
}

// TerminalRequest translates the snapshot into the facts terminal
// negotiation consumes. Partial sizes pass through unchanged; the negotiator
// owns the both-or-neither policy.
func (e *Environment) TerminalRequest() term.Request {
	return term.Request{
		TermType: e.termType,
		Width:    e.width,
		Height:   e.height,
	}
}
