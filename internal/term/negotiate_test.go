package term

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/shelld/internal/logger"
)

// failTier returns a tier constructor that always raises a recoverable
// discovery failure.
func failTier(name string) tierFunc {
	return func(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
		return nil, fmt.Errorf("%w: %s unavailable", ErrProviderDiscovery, name)
	}
}

func newTestNegotiator(cfg Config) *Negotiator {
	n := NewNegotiator(cfg, logger.Noop())
	// The terminfo tier depends on the host's capability database; pin it
	// to a deterministic failure so tests exercise the fallback order.
	n.provider = failTier("terminfo")
	return n
}

func TestNegotiate_EchoAndCanonicalAlwaysOn(t *testing.T) {
	// Whichever tier wins, the returned handle must have echo and
	// canonical mode explicitly enabled.
	tiers := []struct {
		name  string
		setup func(*Negotiator)
		want  Tier
	}{
		{
			name: "external tier",
			setup: func(n *Negotiator) {
				n.provider = failTier("terminfo")
			},
			want: TierExternal,
		},
		{
			name: "line tier",
			setup: func(n *Negotiator) {
				n.provider = failTier("terminfo")
				n.external = failTier("emulation")
			},
			want: TierLine,
		},
	}

	for _, tt := range tiers {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNegotiator(Config{}, logger.Noop())
			tt.setup(n)

			h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{TermType: "xterm"})
			require.NoError(t, err)
			require.NotNil(t, h)

			assert.Equal(t, tt.want, h.Tier())
			assert.True(t, h.Echo(), "echo must never be left off")
			assert.True(t, h.Canonical(), "canonical mode must never be left off")
		})
	}
}

func TestNegotiate_FallsThroughToLineTier(t *testing.T) {
	n := newTestNegotiator(Config{})
	n.external = failTier("emulation")

	h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{})
	require.NoError(t, err)
	assert.Equal(t, TierLine, h.Tier())
}

func TestNegotiate_SizePolicy(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Size
	}{
		{
			name: "both dimensions declared",
			req:  Request{TermType: "xterm", Width: 120, Height: 40},
			want: Size{Width: 120, Height: 40},
		},
		{
			name: "no size declared",
			req:  Request{TermType: "xterm"},
			want: DefaultSize,
		},
		{
			name: "only width is no size at all",
			req:  Request{TermType: "xterm", Width: 132},
			want: DefaultSize,
		},
		{
			name: "only height is no size at all",
			req:  Request{TermType: "xterm", Height: 50},
			want: DefaultSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNegotiator(Config{})

			h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Size())
		})
	}
}

func TestNegotiate_TypeDefaults(t *testing.T) {
	t.Run("declared type survives to degraded tier", func(t *testing.T) {
		n := newTestNegotiator(Config{})
		n.external = failTier("emulation")

		h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{TermType: "xterm-256color", Width: 120, Height: 40})
		require.NoError(t, err)

		assert.Equal(t, TierLine, h.Tier())
		assert.Equal(t, "xterm-256color", h.Type())
		assert.Equal(t, Size{Width: 120, Height: 40}, h.Size())
		assert.True(t, h.Echo())
		assert.True(t, h.Canonical())
	})

	t.Run("absent type defaults to xterm on upper tiers", func(t *testing.T) {
		n := newTestNegotiator(Config{})

		h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{})
		require.NoError(t, err)
		assert.Equal(t, "xterm", h.Type())
		assert.Equal(t, DefaultSize, h.Size())
	})

	t.Run("absent type defaults to dumb on line tier", func(t *testing.T) {
		n := newTestNegotiator(Config{})
		n.external = failTier("emulation")

		h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{})
		require.NoError(t, err)
		assert.Equal(t, "dumb", h.Type())
	})

	t.Run("forced type beats the declared hint", func(t *testing.T) {
		n := newTestNegotiator(Config{ForceTerminalType: "vt100"})

		h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{TermType: "xterm-256color"})
		require.NoError(t, err)
		assert.Equal(t, "vt100", h.Type())
	})
}

func TestNegotiate_DisableProviderDiscovery(t *testing.T) {
	n := NewNegotiator(Config{DisableProviderDiscovery: true}, logger.Noop())
	n.provider = func(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
		t.Fatal("provider tier must not run when discovery is disabled")
		return nil, nil
	}

	h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{TermType: "xterm"})
	require.NoError(t, err)
	assert.Equal(t, TierExternal, h.Tier())
}

func TestNegotiate_StreamUnavailable(t *testing.T) {
	n := newTestNegotiator(Config{})

	_, err := n.Negotiate(nil, &bytes.Buffer{}, Request{})
	assert.ErrorIs(t, err, ErrStreamUnavailable)

	_, err = n.Negotiate(strings.NewReader(""), nil, Request{})
	assert.ErrorIs(t, err, ErrStreamUnavailable)
}

func TestNegotiate_LineTierStreamFailureIsFatal(t *testing.T) {
	n := newTestNegotiator(Config{})
	n.external = failTier("emulation")
	n.line = func(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
		return nil, ErrStreamUnavailable
	}

	h, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{})
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrStreamUnavailable)
}

func TestNegotiate_TierFailuresLoggedAtDebugOnly(t *testing.T) {
	log := logger.NewBufferLogger()
	n := NewNegotiator(Config{}, log)
	n.provider = failTier("terminfo")
	n.external = failTier("emulation")

	_, err := n.Negotiate(strings.NewReader(""), &bytes.Buffer{}, Request{TermType: "xterm"})
	require.NoError(t, err)

	for _, m := range log.Messages {
		assert.Equal(t, "debug", m.Level, "tier fallthrough must stay at diagnostic level: %q", m.Message)
	}
}

func TestNegotiate_ExternalTierIsDefaultWinnerWithoutTerminfo(t *testing.T) {
	// With no terminfo database, tier 2 should still deliver a fully
	// interactive terminal that tracks declared facts.
	n := newTestNegotiator(Config{})

	var out bytes.Buffer
	h, err := n.Negotiate(strings.NewReader("hello"), &out, Request{TermType: "xterm-256color", Width: 100, Height: 30})
	require.NoError(t, err)
	require.Equal(t, TierExternal, h.Tier())

	_, err = h.Write([]byte("welcome\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "welcome\r\n", out.String())

	buf := make([]byte, 5)
	nRead, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:nRead]))
}

func TestNegotiate_RecoverableErrorsWrapSentinel(t *testing.T) {
	_, err := newProviderTerminal(strings.NewReader(""), &bytes.Buffer{}, "definitely-not-a-terminal-type", DefaultSize)
	if err != nil {
		// Absent terminfo database also lands here; either way the error
		// must be the recoverable kind, never fatal.
		assert.True(t, errors.Is(err, ErrProviderDiscovery))
	}
}
