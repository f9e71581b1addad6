package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/shelld/internal/auth"
	"github.com/rileyhilliard/shelld/internal/config"
	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/session"
	"github.com/rileyhilliard/shelld/internal/shell"
	"github.com/rileyhilliard/shelld/internal/sshd"
	"github.com/rileyhilliard/shelld/internal/term"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the shell server",
	Long: `Start the SSH shell server.

Configuration comes from .shelld.yaml (see 'shelld init'). With no users
configured, a default user with a generated password is created and the
password logged at startup.

Examples:
  shelld serve
  shelld serve --addr :2022
  shelld serve --config /etc/shelld/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (overrides config)")
}

func serveCommand() error {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}
	if serveAddrFlag != "" {
		cfg.Listen.Addr = serveAddrFlag
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log := logger.NewEnvLogger("[shelld]")

	hostKey, err := sshd.LoadOrGenerateHostKey(cfg.Listen.HostKeyFile, log)
	if err != nil {
		return err
	}

	var authUsers []auth.User
	for _, u := range cfg.Auth.Users {
		authUsers = append(authUsers, auth.User{Name: u.Name, Password: u.Password, Roles: u.Roles})
	}
	password := auth.NewPasswordAuthenticator(authUsers, log)

	var publicKey *auth.PublicKeyAuthenticator
	if cfg.Auth.AuthorizedKeysFile != "" {
		publicKey, err = auth.NewPublicKeyAuthenticator(cfg.Auth.AuthorizedKeysFile, log)
		if err != nil {
			return err
		}
	}

	registry := session.NewRegistry()
	dispatcher := shell.NewDispatcher(log)
	shell.RegisterBuiltins(dispatcher, registry)

	prompt := cfg.Shell.Prompt
	if prompt == "" {
		prompt = shell.DefaultPrompt
	}

	srv, err := sshd.NewServer(sshd.Options{
		Addr:      cfg.Listen.Addr,
		HostKey:   hostKey,
		Password:  password,
		PublicKey: publicKey,
		Terminal: term.Config{
			ForceTerminalType:        cfg.Terminal.ForceType,
			DisableProviderDiscovery: cfg.Terminal.DisableProviderDiscovery,
		},
		Registry:   registry,
		Dispatcher: dispatcher,
		NewReader: func(h term.Handle) session.LineReader {
			return shell.NewReaderPrompt(h, prompt)
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	// Graceful stop: stop accepting, kill live sessions, wait for
	// handlers to unwind.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received %s, shutting down", sig)
		for _, entry := range registry.List() {
			registry.Kill(entry.SessionID)
		}
		if err := srv.Shutdown(); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}()

	return srv.Serve()
}
