package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/rileyhilliard/shelld/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but shelld only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest shelld release")
	}

	if err := validateListen(cfg.Listen); err != nil {
		return err
	}
	if err := validateAuth(cfg.Auth); err != nil {
		return err
	}
	if err := validateTerminal(cfg.Terminal); err != nil {
		return err
	}
	return nil
}

func validateListen(listen ListenConfig) error {
	if listen.Addr == "" {
		return errors.New(errors.ErrConfig,
			"listen.addr is empty",
			"Set it to something like ':2222'")
	}
	if _, _, err := net.SplitHostPort(listen.Addr); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("listen.addr %q is not a valid host:port", listen.Addr),
			"Use the form 'host:port', e.g. ':2222' or '127.0.0.1:2222'")
	}
	if listen.HostKeyFile == "" {
		return errors.New(errors.ErrConfig,
			"listen.host_key_file is empty",
			"Point it at a PEM key file, it is created on first start")
	}
	return nil
}

func validateAuth(auth AuthConfig) error {
	seen := make(map[string]bool)
	for i, u := range auth.Users {
		if u.Name == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("auth.users[%d] has no name", i),
				"Every user needs a name")
		}
		if strings.ContainsAny(u.Name, " \t") {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("auth.users[%d] name %q contains whitespace", i, u.Name),
				"Usernames cannot contain spaces")
		}
		if seen[u.Name] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("auth.users has duplicate name %q", u.Name),
				"Each user can only appear once")
		}
		seen[u.Name] = true
		if u.Password == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("user %q has an empty password", u.Name),
				"Set a password, or remove the user and rely on public key auth")
		}
	}
	return nil
}

func validateTerminal(term TerminalConfig) error {
	if strings.ContainsAny(term.ForceType, " \t") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("terminal.force_type %q contains whitespace", term.ForceType),
			"Use a terminal type name like 'xterm-256color'")
	}
	return nil
}
