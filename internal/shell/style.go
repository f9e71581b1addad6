package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors, ANSI-coded for broad terminal compatibility.
const (
	colorError   lipgloss.Color = "1" // Red
	colorInfo    lipgloss.Color = "6" // Cyan
	colorPrimary lipgloss.Color = "7" // White/default
	colorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// Style renders command output appropriately for the negotiated terminal
// type. A degraded or dumb terminal gets plain text; anything that declared
// a capable type gets color.
type Style struct {
	profile termenv.Profile
	header  lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
}

// NewStyle picks a rendering profile from the negotiated terminal type. The
// decision uses only the declared type string: the session's output goes to
// a remote client, so probing the local tty would answer the wrong question.
func NewStyle(termType string) *Style {
	profile := profileFor(termType)
	s := &Style{profile: profile}
	if profile != termenv.Ascii {
		s.header = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
		s.muted = lipgloss.NewStyle().Foreground(colorMuted)
		s.errText = lipgloss.NewStyle().Foreground(colorError)
	} else {
		s.header = lipgloss.NewStyle()
		s.muted = lipgloss.NewStyle()
		s.errText = lipgloss.NewStyle()
	}
	return s
}

func profileFor(termType string) termenv.Profile {
	switch {
	case termType == "" || termType == "dumb":
		return termenv.Ascii
	case strings.Contains(termType, "truecolor") || strings.Contains(termType, "direct"):
		return termenv.TrueColor
	case strings.Contains(termType, "256color"):
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}

// Colored reports whether output will carry color sequences.
func (s *Style) Colored() bool {
	return s.profile != termenv.Ascii
}

// Header renders a section or table header.
func (s *Style) Header(text string) string {
	return s.header.Render(text)
}

// Muted renders de-emphasized text.
func (s *Style) Muted(text string) string {
	return s.muted.Render(text)
}

// Errorf renders a user-visible command error line.
func (s *Style) Errorf(format string, args ...interface{}) string {
	return s.errText.Render(fmt.Sprintf(format, args...))
}

// Table renders rows under a styled header with left-aligned columns sized
// to the widest cell.
func (s *Style) Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = pad(h, widths[i])
	}
	b.WriteString(s.Header(strings.TrimRight(strings.Join(headerCells, "  "), " ")))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			cells[i] = pad(cell, w)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
