package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/rileyhilliard/shelld/pkg/sshclient"
)

var connectCmd = &cobra.Command{
	Use:   "connect <host>",
	Short: "Open an interactive shell on a running server",
	Long: `Connect to a running shelld server and attach an interactive shell.

The local terminal is put into raw mode and its type and size are passed
through, so the remote session negotiates the same terminal you are
sitting at.

Examples:
  shelld connect myserver
  shelld connect admin@localhost:2222 --password s3cret`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSSHHosts,
	RunE: func(cmd *cobra.Command, args []string) error {
		return connectCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	addConnectionFlags(connectCmd)
}

func connectCommand(host string) error {
	client, err := sshclient.Dial(host, sshclient.Options{
		User:     connUserFlag,
		Password: connPasswordFlag,
		Insecure: connInsecureFlag,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	width, height := 80, 24
	fd := int(os.Stdin.Fd())
	if xterm.IsTerminal(fd) {
		if w, h, err := xterm.GetSize(fd); err == nil {
			width, height = w, h
		}
		oldState, err := xterm.MakeRaw(fd)
		if err == nil {
			defer func() { _ = xterm.Restore(fd, oldState) }()
		}
	}

	return client.Shell(os.Getenv("TERM"), width, height, os.Stdin, os.Stdout, os.Stderr)
}
