package cli

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/shelld/internal/shell"
	mockssh "github.com/rileyhilliard/shelld/pkg/sshclient/testing"
)

func TestWatchModelSessionsUpdate(t *testing.T) {
	m := newWatchModel(mockssh.NewMockClient("myserver"))

	updated, _ := m.Update(sessionsMsg([]shell.SessionJSON{
		{SessionID: "2f3a", Username: "alice", Roles: []string{"admin"}, StartedAt: time.Now()},
	}))
	model := updated.(watchModel)

	require.Len(t, model.sessions, 1)
	view := model.View()
	assert.Contains(t, view, "myserver")
	assert.Contains(t, view, "2f3a")
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "q quit")
}

func TestWatchModelEmpty(t *testing.T) {
	m := newWatchModel(mockssh.NewMockClient("myserver"))
	assert.Contains(t, m.View(), "no live sessions")
}

func TestWatchModelError(t *testing.T) {
	m := newWatchModel(mockssh.NewMockClient("myserver"))
	updated, _ := m.Update(watchErrMsg{err: errors.New("boom\nsecond line")})
	view := updated.(watchModel).View()
	assert.Contains(t, view, "boom")
	assert.NotContains(t, view, "second line", "only the first error line is shown")
}

func TestWatchModelQuit(t *testing.T) {
	m := newWatchModel(mockssh.NewMockClient("myserver"))
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, updated.(watchModel).quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWatchModelKillSelected(t *testing.T) {
	mock := mockssh.NewMockClient("myserver")
	mock.Respond("kill 2f3a", mockssh.CommandResponse{Stdout: []byte("killed 2f3a\r\n")})
	m := newWatchModel(mock)

	updated, _ := m.Update(sessionsMsg([]shell.SessionJSON{
		{SessionID: "2f3a", Username: "alice", StartedAt: time.Now()},
	}))
	model := updated.(watchModel)

	cmd := model.killSelected()
	require.NotNil(t, cmd)
	msg := cmd()
	killed, ok := msg.(killedMsg)
	require.True(t, ok)
	assert.NoError(t, killed.err)
	assert.Equal(t, "2f3a", killed.id)

	updated, _ = model.Update(killed)
	assert.Contains(t, updated.(watchModel).View(), "killed 2f3a")
}
