package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/therachat/bus"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	onlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	readonlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	confirmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	noticeStyles = map[bus.Level]lipgloss.Style{
		bus.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		bus.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		bus.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		bus.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

const dot = "●"

// HeaderPanel shows the title, the connection dot and the latest notice.
type HeaderPanel struct {
	title      string
	connected  bool
	readonly   bool
	confirming bool
	notice     *bus.Notice
	width      int
}

// NewHeaderPanel creates a header.
func NewHeaderPanel(title string, readonly bool) *HeaderPanel {
	return &HeaderPanel{title: title, readonly: readonly}
}

func (p *HeaderPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case ConnMsg:
		p.connected = msg.Connected
	case NoticeMsg:
		p.notice = msg.Notice
	case noticeExpiredMsg:
		if p.notice != nil && p.notice.ID == msg.id {
			p.notice = nil
		}
	}
	return p, nil
}

func (p *HeaderPanel) View() string {
	status := offlineStyle.Render(dot)
	if p.connected {
		status = onlineStyle.Render(dot)
	}
	left := titleStyle.Render(p.title) + " " + status
	if p.readonly {
		left += " " + readonlyStyle.Render("readonly")
	}

	var right string
	switch {
	case p.confirming:
		right = confirmStyle.Render("Delete the chat? This cannot be undone. (y/N)")
	case p.notice != nil:
		right = noticeStyles[p.notice.Level].Render(p.notice.Text)
	default:
		hints := []string{"enter send", "alt+enter newline"}
		if !p.readonly {
			hints = append(hints, "ctrl+d delete")
		}
		hints = append(hints, "ctrl+r reconnect", "ctrl+l logs", "ctrl+c quit")
		right = hintStyle.Render(strings.Join(hints, " · "))
	}

	gap := p.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (p *HeaderPanel) SetSize(width, _ int) {
	p.width = width
}

func (p *HeaderPanel) setConfirming(v bool) { p.confirming = v }
