package term

import "io"

// lineTerminal is the degraded tier: a minimal line-oriented terminal built
// straight from the streams. Its constructor only fails when the streams are
// already gone, so it is the guaranteed last stop of the fallback chain.
//
// The raw variant defaults echo and canonical mode to off. The negotiator
// corrects both after construction; without that an SSH client gets no
// keystroke feedback and looks hung.
type lineTerminal struct {
	*base
}

func newLineTerminal(in io.Reader, out io.Writer, typ string, size Size) (Handle, error) {
	if in == nil || out == nil {
		return nil, ErrStreamUnavailable
	}
	return &lineTerminal{base: newBase(in, out, typ, TierLine, size)}, nil
}
