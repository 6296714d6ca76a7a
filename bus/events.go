// Package bus delivers user-facing notices from the chat session to the
// front-ends.
package bus

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Kind identifies what a notice is about.
type Kind string

const (
	KindCredentialMissing Kind = "credential.missing"
	KindConnectionOpened  Kind = "connection.opened"
	KindTransportError    Kind = "transport.error"
	KindSendRejected      Kind = "send.rejected"
	KindSendFailed        Kind = "send.failed"
	KindChatDeleted       Kind = "chat.deleted"
	KindDeleteFailed      Kind = "chat.delete_failed"
	KindHistoryFailed     Kind = "history.failed"
)

// Level is the severity a front-end uses to style a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message for the user.
type Notice struct {
	ID        string
	Kind      Kind
	Level     Level
	Text      string
	Timestamp time.Time

	// flushed marks a Flush barrier rather than a real notice.
	flushed chan struct{}
}

// NewNotice creates a notice stamped with the current time.
func NewNotice(kind Kind, level Level, text string) *Notice {
	return &Notice{
		ID:        generateNoticeID(),
		Kind:      kind,
		Level:     level,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func (n *Notice) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Text)
}

var noticeCounter atomic.Int64

func generateNoticeID() string {
	n := noticeCounter.Add(1)
	return fmt.Sprintf("ntc-%d-%d", time.Now().UnixMilli(), n)
}
