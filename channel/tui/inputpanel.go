package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InputPanel is the text field of the composer. Enter submits and alt+enter
// inserts a newline. It is blurred while disabled.
type InputPanel struct {
	input    textarea.Model
	disabled bool
}

// NewInputPanel creates an input panel.
func NewInputPanel() *InputPanel {
	ta := textarea.New()
	ta.Prompt = "▍ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	return &InputPanel{input: ta}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		if p.disabled {
			return p, nil
		}
		if k.String() == "enter" {
			text := strings.TrimSpace(p.input.Value())
			if text == "" {
				return p, nil
			}
			return p, func() tea.Msg { return InputSubmitMsg{Text: text} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.input.SetWidth(width)
	p.input.SetHeight(height)
}

// Value returns the current text.
func (p *InputPanel) Value() string { return p.input.Value() }

// Reset clears the text.
func (p *InputPanel) Reset() { p.input.Reset() }

// Disabled reports whether typing is ignored.
func (p *InputPanel) Disabled() bool { return p.disabled }

// sync applies the composer's placeholder and gating. Focus returns when
// the panel is enabled again.
func (p *InputPanel) sync(placeholder string, disabled bool) tea.Cmd {
	p.input.Placeholder = placeholder
	p.disabled = disabled
	if disabled {
		p.input.Blur()
		return nil
	}
	return p.input.Focus()
}
