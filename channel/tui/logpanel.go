package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const logBacklog = 500

var (
	logDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// LogPanel shows intercepted log records, colored by level. It can be hidden.
type LogPanel struct {
	viewport viewport.Model
	records  []string
	visible  bool
}

// NewLogPanel creates a hidden log panel.
func NewLogPanel() *LogPanel {
	return &LogPanel{viewport: viewport.New(0, 0)}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	line, ok := msg.(LogLineMsg)
	if !ok {
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return p, cmd
	}

	record := strings.TrimRight(line.Line, "\n")
	p.records = append(p.records, styleRecord(record).Render(record))
	if over := len(p.records) - logBacklog; over > 0 {
		p.records = p.records[over:]
	}
	p.viewport.SetContent(strings.Join(p.records, "\n"))
	p.viewport.GotoBottom()
	return p, nil
}

func styleRecord(record string) lipgloss.Style {
	switch {
	case strings.Contains(record, "level=ERROR"):
		return logErrorStyle
	case strings.Contains(record, "level=WARN"):
		return logWarnStyle
	default:
		return logDebugStyle
	}
}

func (p *LogPanel) View() string {
	if !p.visible {
		return ""
	}
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.viewport.GotoBottom()
}

// Toggle flips visibility.
func (p *LogPanel) Toggle() { p.visible = !p.visible }

// Visible reports whether the panel takes screen space.
func (p *LogPanel) Visible() bool { return p.visible }

// Len returns the number of buffered records.
func (p *LogPanel) Len() int { return len(p.records) }
