// Package term negotiates and implements the terminal abstraction bound to
// each SSH session. A Handle is produced by the Negotiator from the raw
// channel streams and the facts the remote declared (terminal type, window
// size), using a tiered fallback so a session always ends up with a working
// terminal.
package term

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// DefaultSize is used when the remote never declared a usable window size.
var DefaultSize = Size{Width: 80, Height: 24}

// Size holds terminal dimensions in character cells.
type Size struct {
	Width  int
	Height int
}

// Tier identifies which fallback tier produced a Handle.
type Tier int

const (
	// TierProvider is the terminfo-backed tier: the terminal's declared type
	// was resolved against the local capability database.
	TierProvider Tier = iota + 1
	// TierExternal is the externally-driven tier: cursor and attribute state
	// are tracked in-process, trusting the declared type and size.
	TierExternal
	// TierLine is the degraded line-oriented tier.
	TierLine
)

func (t Tier) String() string {
	switch t {
	case TierProvider:
		return "provider"
	case TierExternal:
		return "external"
	case TierLine:
		return "line"
	default:
		return "unknown"
	}
}

// ErrStreamUnavailable reports that the session's streams were already
// unusable before any tier could run. It is fatal: no terminal exists.
var ErrStreamUnavailable = errors.New("session streams unavailable")

// ErrProviderDiscovery marks recoverable tier-internal failures. The
// negotiator swallows these and falls through to the next tier.
var ErrProviderDiscovery = errors.New("terminal provider discovery failed")

// ErrClosed is returned by operations on a closed terminal.
var ErrClosed = errors.New("terminal closed")

// Handle is the capability set every terminal variant provides. Session code
// depends only on this interface; which concrete variant backs it is decided
// once, at negotiation time.
//
// Echo and canonical mode are mode flags honored by the line-editing
// front-end bound to the handle. Both are always set explicitly by the
// negotiator: the degraded variant's raw default is echo off, which makes an
// SSH client appear to hang even though the connection is healthy.
type Handle interface {
	io.Reader
	io.Writer

	// Type returns the declared terminal type (e.g. "xterm-256color").
	Type() string
	// Tier reports which fallback tier produced this handle.
	Tier() Tier

	Size() Size
	Resize(Size)

	Echo() bool
	SetEcho(bool)
	Canonical() bool
	SetCanonical(bool)

	// Close flushes and releases the terminal's own buffering layer. The
	// underlying channel streams are borrowed from the transport and are
	// never closed here. Close is idempotent.
	Close() error
}

// base carries the state shared by all terminal variants: the borrowed
// streams, a buffered writer, and the mutable mode flags.
type base struct {
	in  io.Reader
	out *bufio.Writer

	typ  string
	tier Tier

	mu        sync.Mutex
	size      Size
	echo      bool
	canonical bool
	closed    bool

	closeOnce sync.Once
	closeErr  error
}

func newBase(in io.Reader, out io.Writer, typ string, tier Tier, size Size) *base {
	return &base{
		in:   in,
		out:  bufio.NewWriter(out),
		typ:  typ,
		tier: tier,
		size: size,
	}
}

func (b *base) Read(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return b.in.Read(p)
}

func (b *base) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	n, err := b.out.Write(p)
	if err == nil {
		// Interactive sessions need echo and prompts on the wire
		// immediately, not on the next flush.
		err = b.out.Flush()
	}
	return n, err
}

func (b *base) Type() string { return b.typ }
func (b *base) Tier() Tier   { return b.tier }

func (b *base) Size() Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *base) Resize(s Size) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}
	b.mu.Lock()
	b.size = s
	b.mu.Unlock()
}

func (b *base) Echo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.echo
}

func (b *base) SetEcho(on bool) {
	b.mu.Lock()
	b.echo = on
	b.mu.Unlock()
}

func (b *base) Canonical() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canonical
}

func (b *base) SetCanonical(on bool) {
	b.mu.Lock()
	b.canonical = on
	b.mu.Unlock()
}

// Close flushes buffered output and marks the handle closed. The raw streams
// stay open; they belong to the transport.
func (b *base) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.closeErr = b.out.Flush()
		b.mu.Unlock()
	})
	return b.closeErr
}

// Flush forces buffered output to the underlying stream without closing.
func (b *base) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return b.out.Flush()
}
