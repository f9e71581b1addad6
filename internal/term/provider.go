package term

import (
	"fmt"
	"io"

	"github.com/xo/terminfo"
)

// providerTerminal is the platform-capability tier: the declared terminal
// type is resolved against the local terminfo database. In containerized or
// stripped-down images the database is frequently absent, which surfaces as
// a recoverable discovery failure and sends negotiation to the next tier.
type providerTerminal struct {
	*base
	ti *terminfo.Terminfo
}

// newProviderTerminal builds a terminal backed by a terminfo entry for typ.
// A failed lookup wraps ErrProviderDiscovery so the negotiator can fall
// through.
func newProviderTerminal(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
	if in == nil || out == nil {
		return nil, ErrStreamUnavailable
	}
	ti, err := terminfo.Load(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: no terminfo entry for %q: %v", ErrProviderDiscovery, typ, err)
	}
	return &providerTerminal{
		base: newBase(in, out, typ, TierProvider, size),
		ti:   ti,
	}, nil
}

// Colors returns the color count advertised by the terminfo entry, or 0 when
// the entry does not declare one.
func (t *providerTerminal) Colors() int {
	if n, ok := t.ti.Nums[terminfo.MaxColors]; ok && n > 0 {
		return n
	}
	return 0
}
