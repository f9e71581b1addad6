package session

import (
	"errors"
	"time"

	"github.com/rileyhilliard/shelld/internal/term"
)

// ErrShellExit is returned by a dispatched command to request a clean end of
// the session (the built-in exit command). The runner treats it as a normal
// exit trigger, not a command failure.
var ErrShellExit = errors.New("shell exit requested")

// LineReader is the line-editing front-end bound to a negotiated terminal.
// ReadLine blocks the session's goroutine until the remote completes a line;
// that is the loop's only intended long blocking point. Writes go through
// the same front-end so prompt redraw and newline translation stay
// consistent with the terminal it wraps.
type LineReader interface {
	ReadLine() (string, error)
	Write(p []byte) (n int, err error)
	SetSize(width, height int)
}

// Dispatcher is the command-execution collaborator. It receives the session
// context so the executing command can reach its terminal and identity, and
// returns text the runner writes back to the terminal. A returned error is
// user-visible output unless it is (or wraps) ErrShellExit.
type Dispatcher interface {
	Dispatch(ctx *Context, line string) (string, error)
}

// Context binds one negotiated terminal, one line-reading front-end, and one
// authenticated identity for the lifetime of a session. It is owned
// exclusively by the session's runner, is never shared across sessions, and
// never outlives the runner that created it.
type Context struct {
	sessionID string
	startedAt time.Time
	terminal  term.Handle
	reader    LineReader
	identity  Identity
}

// NewContext assembles the execution context after successful negotiation.
func NewContext(sessionID string, identity Identity, terminal term.Handle, reader LineReader) *Context {
	return &Context{
		sessionID: sessionID,
		startedAt: time.Now(),
		terminal:  terminal,
		reader:    reader,
		identity:  identity,
	}
}

// SessionID returns the opaque identifier assigned at accept time.
func (c *Context) SessionID() string { return c.sessionID }

// StartedAt returns when this context was created.
func (c *Context) StartedAt() time.Time { return c.startedAt }

// Terminal returns the negotiated terminal handle.
func (c *Context) Terminal() term.Handle { return c.terminal }

// Reader returns the line-editing front-end bound to the terminal.
func (c *Context) Reader() LineReader { return c.reader }

// Identity returns the authenticated identity for this session.
func (c *Context) Identity() Identity { return c.identity }
