package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/shelld/internal/shell"
	mockssh "github.com/rileyhilliard/shelld/pkg/sshclient/testing"
)

const sessionListing = `[{"session_id":"2f3a","username":"alice","roles":["admin"],"started_at":"2026-08-29T10:00:00Z"},` +
	`{"session_id":"9b1c","username":"bob","started_at":"2026-08-29T11:00:00Z"}]`

func TestFetchSessions(t *testing.T) {
	mock := mockssh.NewMockClient("myserver")
	mock.Respond("sessions --json", mockssh.CommandResponse{
		// The server writes through its line front-end, so the payload
		// arrives with a carriage return line ending.
		Stdout: []byte(sessionListing + "\r\n"),
	})

	sessions, err := fetchSessions(mock)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "2f3a", sessions[0].SessionID)
	assert.Equal(t, "alice", sessions[0].Username)
	assert.Equal(t, []string{"admin"}, sessions[0].Roles)
	assert.Equal(t, []string{"sessions --json"}, mock.Executed())
}

func TestFetchSessionsServerRefuses(t *testing.T) {
	mock := mockssh.NewMockClient("myserver")
	// No canned response: the mock answers like an unknown command.
	_, err := fetchSessions(mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestTrimToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", `[{"a":1}]`, `[{"a":1}]`},
		{"carriage returns", "[{\"a\":1}]\r\n", `[{"a":1}]`},
		{"surrounding noise", "shelld> [{\"a\":1}]\r\nlogout", `[{"a":1}]`},
		{"no json passes through", "garbage", "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(trimToJSON([]byte(tt.in))))
		})
	}
}

func TestRenderSessions(t *testing.T) {
	t.Setenv("TERM", "dumb")

	out := renderSessions([]shell.SessionJSON{
		{SessionID: "2f3a", Username: "alice", Roles: []string{"admin"}, StartedAt: time.Now().Add(-2 * time.Minute)},
	})
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "2f3a")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "2m")

	assert.Equal(t, "no live sessions\n", renderSessions(nil))
}

func TestKillSessionSkipConfirm(t *testing.T) {
	mock := mockssh.NewMockClient("myserver")
	mock.Respond("kill 2f3a", mockssh.CommandResponse{Stdout: []byte("killed 2f3a\r\n")})

	sessionsYesFlag = true
	t.Cleanup(func() { sessionsYesFlag = false })

	require.NoError(t, killSession(mock, "2f3a"))
	assert.Equal(t, []string{"kill 2f3a"}, mock.Executed())
}

func TestKillSessionNotFound(t *testing.T) {
	mock := mockssh.NewMockClient("myserver")
	mock.Respond("kill nope", mockssh.CommandResponse{
		Stderr:   []byte("no session \"nope\"\r\n"),
		ExitCode: 1,
	})

	sessionsYesFlag = true
	t.Cleanup(func() { sessionsYesFlag = false })

	err := killSession(mock, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session")
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "45s", formatAge(45*time.Second))
	assert.Equal(t, "5m", formatAge(5*time.Minute+20*time.Second))
	assert.Equal(t, "2h5m", formatAge(2*time.Hour+5*time.Minute))
}
