package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .shelld.yaml configuration file.
type Config struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	Listen   ListenConfig   `yaml:"listen" mapstructure:"listen"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Terminal TerminalConfig `yaml:"terminal" mapstructure:"terminal"`
	Shell    ShellConfig    `yaml:"shell" mapstructure:"shell"`
}

// ListenConfig describes where the server listens and how it identifies
// itself.
type ListenConfig struct {
	// Addr is the TCP listen address, e.g. ":2222" or "127.0.0.1:2222".
	Addr string `yaml:"addr" mapstructure:"addr"`

	// HostKeyFile is the PEM host key path. The file is created on first
	// start when it does not exist.
	HostKeyFile string `yaml:"host_key_file" mapstructure:"host_key_file"`
}

// AuthConfig describes how connections authenticate.
type AuthConfig struct {
	// Users are the password-authenticated accounts. With none configured
	// the server creates a default user with a generated password and
	// logs it.
	Users []UserConfig `yaml:"users" mapstructure:"users"`

	// AuthorizedKeysFile enables public key authentication when set.
	AuthorizedKeysFile string `yaml:"authorized_keys_file" mapstructure:"authorized_keys_file"`
}

// UserConfig is one password-authenticated account.
type UserConfig struct {
	Name     string   `yaml:"name" mapstructure:"name"`
	Password string   `yaml:"password" mapstructure:"password"`
	Roles    []string `yaml:"roles" mapstructure:"roles"`
}

// TerminalConfig tunes terminal negotiation.
type TerminalConfig struct {
	// ForceType overrides whatever terminal type clients declare.
	ForceType string `yaml:"force_type" mapstructure:"force_type"`

	// DisableProviderDiscovery skips the capability-database tier, for
	// hosts with a broken or missing terminfo installation.
	DisableProviderDiscovery bool `yaml:"disable_provider_discovery" mapstructure:"disable_provider_discovery"`
}

// ShellConfig tunes the interactive shell.
type ShellConfig struct {
	// Prompt shown to connected clients.
	Prompt string `yaml:"prompt" mapstructure:"prompt"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Listen: ListenConfig{
			Addr:        ":2222",
			HostKeyFile: "shelld_host_key",
		},
		Shell: ShellConfig{
			Prompt: "shelld> ",
		},
	}
}
