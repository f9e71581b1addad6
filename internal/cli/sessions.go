package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/shelld/internal/errors"
	"github.com/rileyhilliard/shelld/internal/shell"
	"github.com/rileyhilliard/shelld/pkg/sshclient"
)

// Session flags
var (
	sessionsJSONFlag  bool
	sessionsKillFlag  string
	sessionsWatchFlag bool
	sessionsYesFlag   bool
)

// dialServer is the connection seam; tests swap it for a mock.
var dialServer = func(host string) (sshclient.SSHClient, error) {
	return sshclient.Dial(host, sshclient.Options{
		User:     connUserFlag,
		Password: connPasswordFlag,
		Insecure: connInsecureFlag,
		Timeout:  10 * time.Second,
	})
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions <host>",
	Short: "List sessions on a running server",
	Long: `List the live sessions on a running shelld server.

The host can be an ~/.ssh/config alias, a hostname, user@hostname, or
hostname:port. The command connects as a normal SSH client and asks the
server for its session table.

Examples:
  shelld sessions myserver
  shelld sessions admin@localhost:2222 --password s3cret
  shelld sessions myserver --kill 2f3a...
  shelld sessions myserver --watch`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSSHHosts,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	addConnectionFlags(sessionsCmd)
	sessionsCmd.Flags().BoolVar(&sessionsJSONFlag, "json", false, "print the raw session list as JSON")
	sessionsCmd.Flags().StringVar(&sessionsKillFlag, "kill", "", "kill the session with this id")
	sessionsCmd.Flags().BoolVar(&sessionsWatchFlag, "watch", false, "live session table, refreshed until quit")
	sessionsCmd.Flags().BoolVarP(&sessionsYesFlag, "yes", "y", false, "skip the kill confirmation prompt")
}

func sessionsCommand(host string) error {
	client, err := dialServer(host)
	if err != nil {
		return err
	}
	defer client.Close()

	if sessionsKillFlag != "" {
		return killSession(client, sessionsKillFlag)
	}
	if sessionsWatchFlag {
		return watchSessions(client)
	}

	sessions, err := fetchSessions(client)
	if err != nil {
		return err
	}

	if sessionsJSONFlag {
		data, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(renderSessions(sessions))
	return nil
}

// fetchSessions asks the server for its session table.
func fetchSessions(client sshclient.SSHClient) ([]shell.SessionJSON, error) {
	stdout, stderr, exitCode, err := client.Exec("sessions --json")
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return nil, errors.New(errors.ErrSSH,
			fmt.Sprintf("Server refused the session listing: %s", strings.TrimSpace(string(stderr))),
			"Is the remote actually a shelld server?")
	}

	var sessions []shell.SessionJSON
	if err := json.Unmarshal(trimToJSON(stdout), &sessions); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't parse the server's session list",
			"The remote may be running an incompatible shelld version")
	}
	return sessions, nil
}

// trimToJSON strips the terminal decoration around the JSON payload. The
// server writes through its line front-end, so the array may be wrapped in
// prompt text and carriage returns.
func trimToJSON(raw []byte) []byte {
	s := string(raw)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return []byte(strings.ReplaceAll(s[start:end+1], "\r", ""))
}

func renderSessions(sessions []shell.SessionJSON) string {
	if len(sessions) == 0 {
		return "no live sessions\n"
	}

	style := shell.NewStyle(os.Getenv("TERM"))
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.SessionID,
			s.Username,
			strings.Join(s.Roles, ","),
			formatAge(time.Since(s.StartedAt)),
		})
	}
	return style.Table([]string{"SESSION", "USER", "ROLES", "AGE"}, rows) + "\n"
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func killSession(client sshclient.SSHClient, id string) error {
	if !sessionsYesFlag {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Kill session %s on %s?", id, client.GetHost())).
			Description("The connected user is disconnected immediately.").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("aborted")
			return nil
		}
	}

	stdout, stderr, exitCode, err := client.Exec("kill " + id)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return errors.New(errors.ErrSSH,
			fmt.Sprintf("Kill failed: %s", strings.TrimSpace(string(stderr))),
			"List sessions first to get a live session id")
	}
	fmt.Println(strings.TrimSpace(string(stdout)))
	return nil
}

// completeSSHHosts completes host arguments from ~/.ssh/config aliases.
func completeSSHHosts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	hosts, err := sshclient.ParseConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, h := range hosts {
		if strings.HasPrefix(h.Alias, toComplete) {
			completions = append(completions, h.Alias+"\t"+h.Description())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
