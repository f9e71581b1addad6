package term

import (
	"fmt"
	"io"

	"github.com/hinshun/vt10x"
)

// externalTerminal is the externally-driven tier: no capability discovery at
// all. It wraps the channel streams directly and tracks cursor and attribute
// state in-process with a VT emulator, trusting the declared type and size.
type externalTerminal struct {
	*base
	vt vt10x.Terminal
}

// newExternalTerminal builds the tier-2 terminal. It fails only on unusable
// streams or a nonsensical size, and those failures are recoverable: the
// negotiator still has the line tier behind it.
func newExternalTerminal(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
	if in == nil || out == nil {
		return nil, ErrStreamUnavailable
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid emulation size %dx%d", ErrProviderDiscovery, size.Width, size.Height)
	}
	return &externalTerminal{
		base: newBase(in, out, typ, TierExternal, size),
		vt:   vt10x.New(vt10x.WithSize(size.Width, size.Height)),
	}, nil
}

// Write sends output to the remote and feeds the emulator so cursor and
// attribute state stay consistent with what the client is rendering.
func (t *externalTerminal) Write(p []byte) (int, error) {
	n, err := t.base.Write(p)
	if n > 0 {
		_, _ = t.vt.Write(p[:n])
	}
	return n, err
}

func (t *externalTerminal) Resize(s Size) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}
	t.base.Resize(s)
	t.vt.Resize(s.Width, s.Height)
}

// CursorPosition reports the emulator's current cursor cell.
func (t *externalTerminal) CursorPosition() (col, row int) {
	c := t.vt.Cursor()
	return c.X, c.Y
}
