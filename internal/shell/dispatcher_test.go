package shell

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/shelld/internal/session"
	"github.com/rileyhilliard/shelld/internal/term"
)

// testHandle is a minimal terminal handle for exercising shell code without
// the negotiator.
type testHandle struct {
	in  io.Reader
	out bytes.Buffer

	typ       string
	size      term.Size
	echo      bool
	canonical bool
	echoCalls []bool
}

func newTestHandle(typ string, input string) *testHandle {
	return &testHandle{
		in:        bytes.NewBufferString(input),
		typ:       typ,
		size:      term.DefaultSize,
		echo:      true,
		canonical: true,
	}
}

func (h *testHandle) Read(p []byte) (int, error)  { return h.in.Read(p) }
func (h *testHandle) Write(p []byte) (int, error) { return h.out.Write(p) }
func (h *testHandle) Type() string                { return h.typ }
func (h *testHandle) Tier() term.Tier             { return term.TierLine }
func (h *testHandle) Size() term.Size             { return h.size }
func (h *testHandle) Resize(s term.Size)          { h.size = s }
func (h *testHandle) Echo() bool                  { return h.echo }
func (h *testHandle) SetEcho(on bool) {
	h.echo = on
	h.echoCalls = append(h.echoCalls, on)
}
func (h *testHandle) Canonical() bool      { return h.canonical }
func (h *testHandle) SetCanonical(on bool) { h.canonical = on }
func (h *testHandle) Close() error         { return nil }

func newTestContext(t *testing.T, termType string) (*session.Context, *testHandle) {
	t.Helper()
	h := newTestHandle(termType, "")
	identity := session.Identity{Username: "alice", Roles: []string{"admin"}}
	ctx := session.NewContext("sess-1", identity, h, NewReader(h))
	return ctx, h
}

func TestDispatcherRegisterValidation(t *testing.T) {
	d := NewDispatcher(nil)

	assert.Error(t, d.Register(nil))
	assert.Error(t, d.Register(&Command{Name: ""}))
	assert.Error(t, d.Register(&Command{Name: "noop"})) // missing Run

	cmd := &Command{Name: "noop", Run: func(*session.Context, []string) (string, error) { return "", nil }}
	require.NoError(t, d.Register(cmd))
	assert.Error(t, d.Register(cmd), "duplicate names are rejected")
}

func TestDispatcherUnknownCommand(t *testing.T) {
	d := NewDispatcher(nil)
	ctx, _ := newTestContext(t, "xterm")

	_, err := d.Dispatch(ctx, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), "help")
}

func TestDispatcherEmptyLine(t *testing.T) {
	d := NewDispatcher(nil)
	ctx, _ := newTestContext(t, "xterm")

	out, err := d.Dispatch(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDispatcherArgsParsed(t *testing.T) {
	d := NewDispatcher(nil)
	var got []string
	require.NoError(t, d.Register(&Command{
		Name: "echo",
		Run: func(ctx *session.Context, args []string) (string, error) {
			got = args
			return "", nil
		},
	}))
	ctx, _ := newTestContext(t, "xterm")

	_, err := d.Dispatch(ctx, "echo  one   two")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestDispatcherSinkReceivesOutput(t *testing.T) {
	d := NewDispatcher(nil)
	require.NoError(t, d.Register(&Command{
		Name: "hello",
		Run:  func(*session.Context, []string) (string, error) { return "hi there", nil },
	}))
	var sink bytes.Buffer
	d.SetSink(&sink)
	ctx, _ := newTestContext(t, "xterm")

	out, err := d.Dispatch(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
	assert.Equal(t, "hi there", sink.String())
}

func TestDispatcherCommandsSorted(t *testing.T) {
	d := NewDispatcher(nil)
	run := func(*session.Context, []string) (string, error) { return "", nil }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, d.Register(&Command{Name: name, Run: run}))
	}

	var names []string
	for _, c := range d.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
