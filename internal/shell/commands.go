package shell

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/shelld/internal/session"
)

// SessionJSON is the machine-readable form of a registry entry, produced by
// `sessions --json` and consumed by the admin CLI.
type SessionJSON struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// RegisterBuiltins installs the built-in command catalogue. The registry is
// consulted by the administrative commands (sessions, kill).
func RegisterBuiltins(d *Dispatcher, registry *session.Registry) {
	cmds := []*Command{
		helpCommand(d),
		exitCommand(),
		whoamiCommand(),
		historyCommand(),
		terminalCommand(),
		clearCommand(),
		sessionsCommand(registry),
		killCommand(registry),
	}
	for _, c := range cmds {
		// Builtins are registered once at startup with unique names.
		_ = d.Register(c)
	}
}

func helpCommand(d *Dispatcher) *Command {
	return &Command{
		Name:    "help",
		Summary: "List available commands",
		Usage:   "help",
		Run: func(ctx *session.Context, args []string) (string, error) {
			style := NewStyle(ctx.Terminal().Type())
			rows := make([][]string, 0)
			for _, c := range d.Commands() {
				rows = append(rows, []string{c.Name, c.Summary})
			}
			return style.Table([]string{"COMMAND", "DESCRIPTION"}, rows), nil
		},
	}
}

func exitCommand() *Command {
	return &Command{
		Name:    "exit",
		Summary: "End the session",
		Usage:   "exit",
		Run: func(ctx *session.Context, args []string) (string, error) {
			return "", session.ErrShellExit
		},
	}
}

func whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the authenticated identity",
		Usage:   "whoami",
		Run: func(ctx *session.Context, args []string) (string, error) {
			id := ctx.Identity()
			if len(id.Roles) == 0 {
				return id.Username, nil
			}
			return fmt.Sprintf("%s (%s)", id.Username, strings.Join(id.Roles, ", ")), nil
		},
	}
}

func historyCommand() *Command {
	return &Command{
		Name:    "history",
		Summary: "Show the session's command history",
		Usage:   "history",
		Run: func(ctx *session.Context, args []string) (string, error) {
			r, ok := ctx.Reader().(*Reader)
			if !ok {
				return "", fmt.Errorf("history is not available on this session")
			}
			lines := r.History()
			var b strings.Builder
			for i, line := range lines {
				fmt.Fprintf(&b, "%4d  %s\n", i+1, line)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func terminalCommand() *Command {
	return &Command{
		Name:    "terminal",
		Summary: "Show the negotiated terminal",
		Usage:   "terminal",
		Run: func(ctx *session.Context, args []string) (string, error) {
			h := ctx.Terminal()
			size := h.Size()
			return fmt.Sprintf("type=%s size=%dx%d tier=%s echo=%t canonical=%t",
				h.Type(), size.Width, size.Height, h.Tier(), h.Echo(), h.Canonical()), nil
		},
	}
}

func clearCommand() *Command {
	return &Command{
		Name:    "clear",
		Summary: "Clear the screen",
		Usage:   "clear",
		Run: func(ctx *session.Context, args []string) (string, error) {
			// Cursor-addressed clear; a dumb terminal just sees a blank
			// separator instead.
			if NewStyle(ctx.Terminal().Type()).Colored() {
				return "\x1b[2J\x1b[H", nil
			}
			return "\n", nil
		},
	}
}

func sessionsCommand(registry *session.Registry) *Command {
	return &Command{
		Name:    "sessions",
		Summary: "List live sessions",
		Usage:   "sessions [--json]",
		Run: func(ctx *session.Context, args []string) (string, error) {
			entries := registry.List()

			if len(args) > 0 && args[0] == "--json" {
				out := make([]SessionJSON, 0, len(entries))
				for _, e := range entries {
					out = append(out, SessionJSON{
						SessionID: e.SessionID,
						Username:  e.Identity.Username,
						Roles:     e.Identity.Roles,
						StartedAt: e.StartedAt,
					})
				}
				data, err := json.Marshal(out)
				if err != nil {
					return "", fmt.Errorf("encoding session list: %w", err)
				}
				return string(data), nil
			}

			style := NewStyle(ctx.Terminal().Type())
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				marker := ""
				if e.SessionID == ctx.SessionID() {
					marker = "*"
				}
				rows = append(rows, []string{
					e.SessionID + marker,
					e.Identity.Username,
					e.StartedAt.Format(time.RFC3339),
				})
			}
			return style.Table([]string{"SESSION", "USER", "STARTED"}, rows), nil
		},
	}
}

func killCommand(registry *session.Registry) *Command {
	return &Command{
		Name:    "kill",
		Summary: "Terminate a session by id",
		Usage:   "kill <session-id>",
		Run: func(ctx *session.Context, args []string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("usage: kill <session-id>")
			}
			if !registry.Kill(args[0]) {
				return "", fmt.Errorf("no session %q", args[0])
			}
			return fmt.Sprintf("killed %s", args[0]), nil
		},
	}
}
