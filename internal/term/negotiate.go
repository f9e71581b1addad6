package term

import (
	"errors"
	"io"

	"github.com/rileyhilliard/shelld/internal/logger"
)

// Config controls negotiation. It is passed in at construction rather than
// read from process-global state, so there is no ordering hazard between
// configuration and the first terminal built.
type Config struct {
	// ForceTerminalType overrides whatever type the remote declared.
	ForceTerminalType string
	// DisableProviderDiscovery skips the terminfo tier entirely.
	DisableProviderDiscovery bool
}

// Request carries the remote-declared facts consumed by negotiation. A
// client that never sent a pty-req produces the zero value: no type, no
// size.
type Request struct {
	// TermType is the remote-declared terminal type, empty when unknown.
	TermType string
	// Width and Height are the declared window dimensions, zero when the
	// remote never sent them. A partially-declared size (only one of the
	// two) is treated as no size at all.
	Width  int
	Height int
}

// tierFunc builds one terminal variant. The indirection exists so tests can
// force individual tiers to fail.
type tierFunc func(in io.Reader, out io.Writer, typ string, size Size) (Handle, error)

// Negotiator produces a working Handle from raw channel streams using a
// three-tier ordered fallback: terminfo provider, externally-driven
// emulation, degraded line mode. Each tier is attempted only when the
// previous one raised a recoverable discovery failure; the last tier only
// fails on already-broken streams.
type Negotiator struct {
	cfg Config
	log logger.Logger

	provider tierFunc
	external tierFunc
	line     tierFunc
}

// NewNegotiator creates a negotiator with the given configuration.
func NewNegotiator(cfg Config, log logger.Logger) *Negotiator {
	if log == nil {
		log = logger.Noop()
	}
	return &Negotiator{
		cfg:      cfg,
		log:      log,
		provider: newProviderTerminal,
		external: newExternalTerminal,
		line:     newLineTerminal,
	}
}

// Negotiate builds a terminal for the given streams. It never leaves the
// caller without a terminal except when the streams are already unusable, in
// which case it returns ErrStreamUnavailable.
func (n *Negotiator) Negotiate(in io.Reader, out io.Writer, req Request) (Handle, error) {
	if in == nil || out == nil {
		return nil, ErrStreamUnavailable
	}

	// An explicit hint always beats a default; the configured override
	// beats both.
	declared := req.TermType
	if n.cfg.ForceTerminalType != "" {
		declared = n.cfg.ForceTerminalType
	}

	// Both dimensions or neither. Applying only a width or only a height
	// would hand the line editor an inconsistent aspect ratio.
	size := DefaultSize
	if req.Width > 0 && req.Height > 0 {
		size = Size{Width: req.Width, Height: req.Height}
	}

	full := declared
	if full == "" {
		full = "xterm"
	}

	if n.cfg.DisableProviderDiscovery {
		n.log.Debug("provider discovery disabled, skipping terminfo tier")
	} else {
		h, err := n.provider(in, out, full, size)
		if err == nil {
			n.log.Debug("negotiated %s terminal type=%s size=%dx%d", h.Tier(), full, size.Width, size.Height)
			return n.correct(h), nil
		}
		if errors.Is(err, ErrStreamUnavailable) {
			return nil, err
		}
		// Recoverable: discovery problems never reach the remote user.
		n.log.Debug("terminfo tier failed: %v", err)
	}

	h, err := n.external(in, out, full, size)
	if err == nil {
		n.log.Debug("negotiated %s terminal type=%s size=%dx%d", h.Tier(), full, size.Width, size.Height)
		return n.correct(h), nil
	}
	if errors.Is(err, ErrStreamUnavailable) {
		return nil, err
	}
	n.log.Debug("external tier failed: %v", err)

	degraded := declared
	if degraded == "" {
		degraded = "dumb"
	}
	h, err = n.line(in, out, degraded, size)
	if err != nil {
		// The line tier only fails on broken streams.
		return nil, ErrStreamUnavailable
	}
	n.log.Debug("negotiated %s terminal type=%s size=%dx%d", h.Tier(), degraded, size.Width, size.Height)
	return n.correct(h), nil
}

// correct applies the mandatory post-construction mode fixes. The degraded
// variant defaults both flags to off, which silently breaks interactive use,
// so they are set explicitly on every tier rather than trusting any
// variant's defaults.
func (n *Negotiator) correct(h Handle) Handle {
	h.SetEcho(true)
	h.SetCanonical(true)
	return h
}
