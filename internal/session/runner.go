package session

import (
	stderrors "errors"
	"io"
	"strings"
	"sync"

	"github.com/rileyhilliard/shelld/internal/errors"
	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/term"
)

// State tracks a runner through its lifecycle. Failed is reachable only from
// Negotiating, when the streams were unusable before any tier could run.
type State int

const (
	StateNegotiating State = iota
	StateActive
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReaderFactory binds a line-editing front-end to a negotiated terminal.
type ReaderFactory func(h term.Handle) LineReader

// TerminalNegotiator produces a terminal from raw channel streams.
// *term.Negotiator is the production implementation.
type TerminalNegotiator interface {
	Negotiate(in io.Reader, out io.Writer, req term.Request) (term.Handle, error)
}

// RunnerOptions configures a Runner. All fields except Interrupt and Logger
// are required.
type RunnerOptions struct {
	// SessionID is the opaque identifier assigned at accept time.
	SessionID string
	// Environment is the per-connection snapshot.
	Environment *Environment
	// Negotiator produces the terminal.
	Negotiator TerminalNegotiator
	// Registry receives this session while it is active.
	Registry *Registry
	// Dispatcher executes command lines.
	Dispatcher Dispatcher
	// NewReader builds the line front-end after negotiation succeeds.
	NewReader ReaderFactory
	// Interrupt, when set, unblocks an in-flight read by failing the input
	// stream. The transport supplies it; kill uses it. The session itself
	// never closes the raw channel.
	Interrupt func()
	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

// Runner is the per-connection control loop: negotiate a terminal, build the
// execution context, register it, drive the read-eval loop until the session
// ends, and guarantee teardown on every exit path.
type Runner struct {
	id         string
	env        *Environment
	negotiator TerminalNegotiator
	registry   *Registry
	dispatcher Dispatcher
	newReader  ReaderFactory
	interrupt  func()
	log        logger.Logger

	mu     sync.Mutex
	state  State
	handle term.Handle
	reader LineReader

	cancel     chan struct{}
	cancelOnce sync.Once

	teardownOnce sync.Once
}

// NewRunner creates a runner in the Negotiating state.
func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	return &Runner{
		id:         opts.SessionID,
		env:        opts.Environment,
		negotiator: opts.Negotiator,
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		newReader:  opts.NewReader,
		interrupt:  opts.Interrupt,
		log:        log,
		state:      StateNegotiating,
		cancel:     make(chan struct{}),
	}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Kill requests cooperative termination: it signals cancellation and, when
// the transport provided an interrupt, fails the blocked read. Safe to call
// any number of times from any goroutine.
func (r *Runner) Kill() {
	r.cancelOnce.Do(func() {
		close(r.cancel)
		if r.interrupt != nil {
			r.interrupt()
		}
	})
}

func (r *Runner) killed() bool {
	select {
	case <-r.cancel:
		return true
	default:
		return false
	}
}

// Resize applies a window-change from the transport: the terminal's size is
// updated and the front-end told to redraw, without disturbing any in-flight
// read.
func (r *Runner) Resize(width, height int) {
	r.mu.Lock()
	h, reader := r.handle, r.reader
	r.mu.Unlock()
	if h == nil {
		return
	}
	h.Resize(term.Size{Width: width, Height: height})
	if reader != nil {
		reader.SetSize(width, height)
	}
}

// Run drives the session from negotiation to teardown. It returns an error
// only for pre-session failures (streams unusable before negotiation); every
// in-session ending, normal or not, tears down and returns nil. The caller
// owns the raw streams and closes them after Run returns.
func (r *Runner) Run(in io.Reader, out io.Writer) error {
	h, err := r.negotiator.Negotiate(in, out, r.env.TerminalRequest())
	if err != nil {
		// Nothing was registered, so there is nothing to unregister.
		r.setState(StateFailed)
		return errors.WrapWithCode(err, errors.ErrSession,
			"Session could not obtain a terminal",
			"The connection's streams were unusable before negotiation completed")
	}

	reader := r.newReader(h)
	ctx := NewContext(r.id, r.env.Identity(), h, reader)

	r.mu.Lock()
	r.handle = h
	r.reader = reader
	r.state = StateActive
	r.mu.Unlock()

	r.registry.Register(r.id, ctx.Identity(), ctx.StartedAt(), r.Kill)
	defer r.teardown(h)

	r.log.Debug("session %s active: user=%s term=%s tier=%s",
		r.id, ctx.Identity().Username, h.Type(), h.Tier())

	for {
		line, readErr := reader.ReadLine()
		if r.killed() {
			return nil
		}
		if readErr != nil {
			// Remote close and stream failure both end just this session.
			// EOF is the normal goodbye; anything else gets a diagnostic.
			if !stderrors.Is(readErr, io.EOF) {
				r.log.Debug("session %s: read ended: %v", r.id, readErr)
			}
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		output, dispatchErr := r.dispatcher.Dispatch(ctx, line)
		if stderrors.Is(dispatchErr, ErrShellExit) {
			_, _ = reader.Write([]byte("logout\n"))
			return nil
		}
		if dispatchErr != nil {
			// Command failures are user-visible output, never session
			// enders.
			r.writeLine(reader, dispatchErr.Error())
			continue
		}
		if output != "" {
			r.writeLine(reader, output)
		}
	}
}

func (r *Runner) writeLine(w io.Writer, s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if _, err := w.Write([]byte(s)); err != nil {
		r.log.Debug("session %s: write failed: %v", r.id, err)
	}
}

// teardown releases the terminal and deregisters the session. It runs
// exactly once no matter which exit path triggered it, and a failure while
// closing the terminal never prevents deregistration.
func (r *Runner) teardown(h term.Handle) {
	r.teardownOnce.Do(func() {
		r.setState(StateClosing)
		if err := h.Close(); err != nil {
			r.log.Warn("session %s: terminal close: %v", r.id, err)
		}
		r.registry.Remove(r.id)
		r.mu.Lock()
		r.handle = nil
		r.reader = nil
		r.state = StateClosed
		r.mu.Unlock()
		r.log.Debug("session %s closed", r.id)
	})
}
