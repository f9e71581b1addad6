package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/shelld/internal/shell"
	"github.com/rileyhilliard/shelld/pkg/sshclient"
)

const watchInterval = 2 * time.Second

// Messages for the watch loop.
type sessionsMsg []shell.SessionJSON

type watchErrMsg struct{ err error }

type tickMsg time.Time

type killedMsg struct {
	id  string
	err error
}

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	watchErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	watchHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// watchModel is the Bubble Tea model for the live session table.
type watchModel struct {
	client   sshclient.SSHClient
	table    table.Model
	sessions []shell.SessionJSON
	lastErr  string
	status   string
	quitting bool
}

func newWatchModel(client sshclient.SSHClient) watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "SESSION", Width: 36},
			{Title: "USER", Width: 16},
			{Title: "ROLES", Width: 16},
			{Title: "AGE", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	t.SetStyles(styles)

	return watchModel{client: client, table: t}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(watchInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) fetch() tea.Msg {
	sessions, err := fetchSessions(m.client)
	if err != nil {
		return watchErrMsg{err: err}
	}
	return sessionsMsg(sessions)
}

func (m watchModel) killSelected() tea.Cmd {
	row := m.table.SelectedRow()
	if row == nil {
		return nil
	}
	id := row[0]
	return func() tea.Msg {
		_, stderr, exitCode, err := m.client.Exec("kill " + id)
		if err == nil && exitCode != 0 {
			err = fmt.Errorf("%s", strings.TrimSpace(string(stderr)))
		}
		return killedMsg{id: id, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetch
		case "k":
			return m, m.killSelected()
		}

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case sessionsMsg:
		m.sessions = msg
		m.lastErr = ""
		rows := make([]table.Row, 0, len(msg))
		for _, s := range msg {
			rows = append(rows, table.Row{
				s.SessionID,
				s.Username,
				strings.Join(s.Roles, ","),
				formatAge(time.Since(s.StartedAt)),
			})
		}
		m.table.SetRows(rows)
		return m, nil

	case watchErrMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case killedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("killed %s", msg.id)
		}
		return m, m.fetch
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(watchTitleStyle.Render(fmt.Sprintf("shelld sessions on %s", m.client.GetHost())))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString("no live sessions\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString(watchErrStyle.Render(firstLine(m.lastErr)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString(watchHelpStyle.Render("r refresh · k kill selected · q quit"))
	b.WriteString("\n")
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}

// watchSessions runs the live table until the user quits.
func watchSessions(client sshclient.SSHClient) error {
	p := tea.NewProgram(newWatchModel(client))
	_, err := p.Run()
	return err
}
