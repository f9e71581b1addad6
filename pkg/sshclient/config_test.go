package sshclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(`
Host zeta
  HostName zeta.internal
  User admin
  Port 2222

Host alpha
  HostName alpha.internal

Host *
  ForwardAgent yes
`), 0o600))

	hosts, err := ParseConfigFile(path)
	require.NoError(t, err)
	require.Len(t, hosts, 2, "wildcard entries are filtered")

	// Sorted by alias.
	assert.Equal(t, "alpha", hosts[0].Alias)
	assert.Equal(t, "alpha.internal", hosts[0].Hostname)
	assert.Equal(t, "zeta", hosts[1].Alias)
	assert.Equal(t, "admin", hosts[1].User)
	assert.Equal(t, "2222", hosts[1].Port)
}

func TestParseConfigFileMissing(t *testing.T) {
	hosts, err := ParseConfigFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, hosts)
}

func TestHostEntryDescription(t *testing.T) {
	assert.Equal(t, "bare", HostEntry{Alias: "bare"}.Description())
	assert.Equal(t, "h.internal, user: admin, port: 2222",
		HostEntry{Alias: "h", Hostname: "h.internal", User: "admin", Port: "2222"}.Description())
	assert.Equal(t, "user: admin",
		HostEntry{Alias: "h", Hostname: "h", User: "admin", Port: "22"}.Description())
}
