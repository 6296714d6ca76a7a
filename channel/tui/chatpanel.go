package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/therachat/highlight"
	"github.com/linanwx/therachat/transcript"
)

var (
	userLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	agentLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// ChatPanel displays the transcript in a scrollable viewport and a typing
// indicator while a reply is pending.
type ChatPanel struct {
	viewport viewport.Model
	spinner  spinner.Model
	snapshot transcript.Snapshot
	width    int
	ticking  bool
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = hintStyle
	return &ChatPanel{viewport: vp, spinner: sp}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		p.snapshot = msg.Snapshot
		p.render()
		p.viewport.GotoBottom()
		if p.snapshot.Pending && !p.ticking {
			p.ticking = true
			return p, p.spinner.Tick
		}
		return p, nil
	case spinner.TickMsg:
		if !p.snapshot.Pending {
			p.ticking = false
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.render()
		return p, cmd
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = height
	p.render()
	p.viewport.GotoBottom()
}

func (p *ChatPanel) render() {
	if len(p.snapshot.Messages) == 0 && !p.snapshot.Pending {
		p.viewport.SetContent(emptyStyle.Render("No messages yet. Say hello."))
		return
	}

	body := lipgloss.NewStyle()
	if p.width > 4 {
		body = body.Width(p.width - 2)
	}

	blocks := make([]string, 0, len(p.snapshot.Messages)+1)
	for _, m := range p.snapshot.Messages {
		label := agentLabelStyle.Render("TheraChat")
		if m.Role == transcript.RoleUser {
			label = userLabelStyle.Render("You")
		}
		blocks = append(blocks, label+"\n"+body.Render(highlight.Render(m.Content, highlight.DefaultStyle)))
	}
	if p.snapshot.Pending {
		blocks = append(blocks, agentLabelStyle.Render("TheraChat")+"\n"+p.spinner.View()+hintStyle.Render(" typing"))
	}
	p.viewport.SetContent(strings.Join(blocks, "\n\n"))
}
