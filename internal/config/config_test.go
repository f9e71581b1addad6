package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/shelld/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: 1
listen:
  addr: "127.0.0.1:2022"
  host_key_file: /var/lib/shelld/host_key
auth:
  users:
    - name: alice
      password: s3cret
      roles: [admin]
  authorized_keys_file: /etc/shelld/authorized_keys
terminal:
  force_type: xterm-256color
  disable_provider_discovery: true
shell:
  prompt: "$ "
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2022", cfg.Listen.Addr)
	assert.Equal(t, "/var/lib/shelld/host_key", cfg.Listen.HostKeyFile)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "alice", cfg.Auth.Users[0].Name)
	assert.Equal(t, []string{"admin"}, cfg.Auth.Users[0].Roles)
	assert.Equal(t, "/etc/shelld/authorized_keys", cfg.Auth.AuthorizedKeysFile)
	assert.Equal(t, "xterm-256color", cfg.Terminal.ForceType)
	assert.True(t, cfg.Terminal.DisableProviderDiscovery)
	assert.Equal(t, "$ ", cfg.Shell.Prompt)
}

func TestLoadDefaultsFillGaps(t *testing.T) {
	path := writeConfig(t, "version: 1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.Listen.Addr)
	assert.Equal(t, "shelld> ", cfg.Shell.Prompt)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFindExplicit(t *testing.T) {
	path := writeConfig(t, "version: 1\n")

	found, err := Find(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = Find(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Auth.Users = []UserConfig{{Name: "alice", Password: "pw", Roles: []string{"admin"}}}

	require.NoError(t, Save(cfg, path))
	assert.Error(t, Save(cfg, path), "existing file is not clobbered")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.Users = []UserConfig{{Name: "alice", Password: "pw"}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"future version", func(c *Config) { c.Version = CurrentConfigVersion + 1 }, "future"},
		{"empty addr", func(c *Config) { c.Listen.Addr = "" }, "listen.addr"},
		{"bad addr", func(c *Config) { c.Listen.Addr = "no-port" }, "host:port"},
		{"empty host key", func(c *Config) { c.Listen.HostKeyFile = "" }, "host_key_file"},
		{"nameless user", func(c *Config) { c.Auth.Users[0].Name = "" }, "no name"},
		{"whitespace user", func(c *Config) { c.Auth.Users[0].Name = "a b" }, "whitespace"},
		{"duplicate user", func(c *Config) {
			c.Auth.Users = append(c.Auth.Users, UserConfig{Name: "alice", Password: "x"})
		}, "duplicate"},
		{"empty password", func(c *Config) { c.Auth.Users[0].Password = "" }, "password"},
		{"bad force type", func(c *Config) { c.Terminal.ForceType = "x term" }, "whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
