package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/transcript"
)

const (
	defaultLogRatio  = 0.3
	defaultNoticeTTL = 4 * time.Second
	actionTimeout    = 15 * time.Second
	inputHeight      = 2
)

var separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// Backend performs the actions the user triggers and owns the composer
// state the input panel mirrors.
type Backend interface {
	// Submit places text in the input buffer and submits it.
	Submit(ctx context.Context, text string) error
	// Input is the input buffer after the last Submit.
	Input() string
	Placeholder() string
	Disabled() bool

	DeleteChat(ctx context.Context) error
	Reconnect()
}

// Options configures an App.
type Options struct {
	Title     string
	Readonly  bool
	Snapshot  transcript.Snapshot
	Connected bool
	NoticeTTL time.Duration
}

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	backend Backend

	header *HeaderPanel
	logs   *LogPanel
	chat   *ChatPanel
	input  *InputPanel

	readonly   bool
	confirming bool
	noticeTTL  time.Duration

	width, height int
	logRatio      float64
}

// NewApp creates the root TUI model.
func NewApp(backend Backend, opts Options) *App {
	if opts.Title == "" {
		opts.Title = "TheraChat"
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = defaultNoticeTTL
	}
	m := &App{
		backend:   backend,
		header:    NewHeaderPanel(opts.Title, opts.Readonly),
		logs:      NewLogPanel(),
		chat:      NewChatPanel(),
		input:     NewInputPanel(),
		readonly:  opts.Readonly,
		noticeTTL: opts.NoticeTTL,
		logRatio:  defaultLogRatio,
	}
	m.header.Update(ConnMsg{Connected: opts.Connected})
	m.chat.Update(SnapshotMsg{Snapshot: opts.Snapshot})
	m.syncInput()
	return m
}

func (m *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if !m.input.Disabled() {
		cmds = append(cmds, textarea.Blink)
	}
	if m.chat.ticking {
		cmds = append(cmds, m.chat.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case InputSubmitMsg:
		if chat.IsExitCommand(msg.Text) {
			return m, tea.Quit
		}
		return m, m.submit(msg.Text)

	case submitResultMsg:
		if msg.cleared && strings.TrimSpace(m.input.Value()) == msg.text {
			m.input.Reset()
		}
		return m, m.syncInput()

	case deleteResultMsg:
		return m, nil

	case SnapshotMsg:
		_, cmd := m.chat.Update(msg)
		cmds = append(cmds, cmd, m.syncInput())

	case ConnMsg:
		m.header.Update(msg)

	case NoticeMsg:
		m.header.Update(msg)
		id := msg.Notice.ID
		cmds = append(cmds, tea.Tick(m.noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} }))

	case noticeExpiredMsg:
		m.header.Update(msg)

	case LogLineMsg:
		m.logs.Update(msg)

	default:
		_, cmd := m.chat.Update(msg)
		cmds = append(cmds, cmd)
		_, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirming {
		m.confirming = false
		m.header.setConfirming(false)
		if s := msg.String(); s == "y" || s == "Y" {
			return m.deleteChat()
		}
		return nil
	}

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+d":
		if !m.readonly {
			m.confirming = true
			m.header.setConfirming(true)
		}
		return nil
	case "ctrl+r":
		m.backend.Reconnect()
		return nil
	case "ctrl+l":
		m.logs.Toggle()
		m.recalcLayout()
		return nil
	case "pgup", "pgdown":
		_, cmd := m.chat.Update(msg)
		return cmd
	}
	_, cmd := m.input.Update(msg)
	return cmd
}

func (m *App) submit(text string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		err := backend.Submit(ctx, text)
		return submitResultMsg{text: text, err: err, cleared: backend.Input() == ""}
	}
}

// syncInput applies the composer's placeholder and gating to the input panel.
func (m *App) syncInput() tea.Cmd {
	return m.input.sync(m.backend.Placeholder(), m.backend.Disabled())
}

func (m *App) deleteChat() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return deleteResultMsg{err: backend.DeleteChat(ctx)}
	}
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	parts := []string{m.header.View(), sep}
	if m.logs.Visible() {
		parts = append(parts, m.logs.View(), sep)
	}
	parts = append(parts, m.chat.View(), sep, m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *App) recalcLayout() {
	const headerH = 1
	seps := 2
	if m.logs.Visible() {
		seps++
	}

	usable := max(m.height-headerH-inputHeight-seps, 2)
	chatH := usable
	if m.logs.Visible() {
		logH := max(int(float64(usable)*m.logRatio), 1)
		chatH = max(usable-logH, 1)
		m.logs.SetSize(m.width, logH)
	}

	m.header.SetSize(m.width, headerH)
	m.chat.SetSize(m.width, chatH)
	m.input.SetSize(m.width, inputHeight)
}
