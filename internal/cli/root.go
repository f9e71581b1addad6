// Package cli wires the shelld commands: the server itself plus the admin
// commands that reach a running server over SSH.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag string
	debugFlag  bool
)

// rootCmd is the base command for shelld.
var rootCmd = &cobra.Command{
	Use:   "shelld",
	Short: "SSH shell server with session management",
	Long: `shelld is an SSH server that serves an interactive command shell
instead of a system shell. Every connection gets its own negotiated
terminal and an isolated session; live sessions can be listed and
killed, locally from any session or remotely with the admin commands.

Start a server:
  shelld serve

Administer a running server:
  shelld sessions myserver
  shelld sessions myserver --watch
  shelld connect myserver`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: .shelld.yaml, then ~/.config/shelld/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// Execute runs the CLI, printing structured errors with their suggestions.
func Execute() {
	cobra.OnInitialize(func() {
		if debugFlag {
			os.Setenv("SHELLD_DEBUG", "1")
		}
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
