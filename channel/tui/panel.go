// Package tui provides the terminal user interface for a chat session.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/transcript"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// SnapshotMsg carries the transcript after a change.
type SnapshotMsg struct{ Snapshot transcript.Snapshot }

// ConnMsg reports a connectivity change.
type ConnMsg struct{ Connected bool }

// NoticeMsg carries a notice for the header.
type NoticeMsg struct{ Notice *bus.Notice }

// InputSubmitMsg is emitted when the user presses Enter in the input panel.
type InputSubmitMsg struct{ Text string }

type submitResultMsg struct {
	text    string
	err     error
	cleared bool
}

type deleteResultMsg struct{ err error }

type noticeExpiredMsg struct{ id string }
