// Package shell is the command-execution collaborator: the line-editing
// front-end bound to a negotiated terminal, the command dispatcher, and the
// built-in command catalogue.
package shell

import (
	"strings"
	"sync"

	"github.com/rileyhilliard/shelld/internal/term"
	xterm "golang.org/x/term"
)

// DefaultPrompt is the interactive prompt shown to connected clients.
const DefaultPrompt = "shelld> "

// Reader is the line-editing front-end over a negotiated terminal handle. It
// wraps golang.org/x/term's Terminal, which provides server-side echo,
// in-place editing, and history over any ReadWriter, so the same front-end
// works on every negotiated tier.
type Reader struct {
	handle term.Handle
	t      *xterm.Terminal

	mu      sync.Mutex
	history []string
}

// NewReader binds a front-end to the handle with the default prompt.
func NewReader(h term.Handle) *Reader {
	return NewReaderPrompt(h, DefaultPrompt)
}

// NewReaderPrompt binds a front-end with an explicit prompt.
func NewReaderPrompt(h term.Handle, prompt string) *Reader {
	t := xterm.NewTerminal(h, prompt)
	size := h.Size()
	_ = t.SetSize(size.Width, size.Height)
	return &Reader{handle: h, t: t}
}

// ReadLine blocks until the remote completes a line. Echo and line editing
// happen here, against the bound terminal. Non-blank lines are recorded for
// the history command; the wrapped terminal keeps its own arrow-key history.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.t.ReadLine()
	if err == nil && strings.TrimSpace(line) != "" {
		r.mu.Lock()
		r.history = append(r.history, line)
		r.mu.Unlock()
	}
	return line, err
}

// History returns the lines read so far, oldest first.
func (r *Reader) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}

// ReadPassword prompts with echo suppressed for this one read only. The
// terminal-wide echo setting is restored afterwards; commands that need a
// secret request suppression explicitly rather than the terminal defaulting
// to silent input.
func (r *Reader) ReadPassword(prompt string) (string, error) {
	r.handle.SetEcho(false)
	defer r.handle.SetEcho(true)
	return r.t.ReadPassword(prompt)
}

// Write emits output above the prompt with newline translation handled by
// the wrapped terminal.
func (r *Reader) Write(p []byte) (int, error) {
	return r.t.Write(p)
}

// SetSize propagates a window-change so subsequent redraws use the new
// dimensions. An in-flight read keeps its buffer.
func (r *Reader) SetSize(width, height int) {
	_ = r.t.SetSize(width, height)
}

// SetPrompt replaces the prompt for subsequent reads.
func (r *Reader) SetPrompt(prompt string) {
	r.t.SetPrompt(prompt)
}

// Handle returns the terminal this front-end is bound to.
func (r *Reader) Handle() term.Handle {
	return r.handle
}
