package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/logger"
	"github.com/linanwx/therachat/transcript"
	"github.com/linanwx/therachat/transport"
)

var (
	// ErrEmptyInput, ErrReplyPending and ErrReadonly reject a submit without
	// any visible effect.
	ErrEmptyInput   = errors.New("message is empty")
	ErrReplyPending = errors.New("a reply is pending")
	ErrReadonly     = errors.New("chat is readonly")

	// ErrSendRejected means the connection was not open. The input is kept.
	ErrSendRejected = errors.New("websocket is not connected")

	// ErrSendFailed means the message was appended but writing it failed.
	ErrSendFailed = errors.New("send failed")
)

const (
	placeholderIdle     = "Message..."
	placeholderSending  = "Sending..."
	placeholderReadonly = "This chat is readonly"
)

// Sender delivers outbound text. *transport.Manager implements it.
type Sender interface {
	State() transport.State
	Send(ctx context.Context, text string) error
}

// Composer turns user input into an optimistic transcript entry plus an
// outbound frame.
type Composer struct {
	store   *transcript.Store
	sender  Sender
	notices *bus.Bus

	submitMu sync.Mutex

	mu       sync.Mutex
	input    string
	readonly bool
}

// NewComposer returns a composer writing to store and sending through sender.
// notices may be nil.
func NewComposer(store *transcript.Store, sender Sender, notices *bus.Bus) *Composer {
	return &Composer{store: store, sender: sender, notices: notices}
}

// SetInput replaces the input buffer.
func (c *Composer) SetInput(s string) {
	c.mu.Lock()
	c.input = s
	c.mu.Unlock()
}

// Input returns the input buffer.
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetReadonly toggles readonly viewing.
func (c *Composer) SetReadonly(v bool) {
	c.mu.Lock()
	c.readonly = v
	c.mu.Unlock()
}

// Readonly reports whether submitting is disabled for this chat.
func (c *Composer) Readonly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readonly
}

// Disabled reports whether input should be disabled.
func (c *Composer) Disabled() bool {
	return c.Readonly() || c.store.Pending()
}

// Placeholder is the hint shown in an empty input.
func (c *Composer) Placeholder() string {
	if c.Readonly() {
		return placeholderReadonly
	}
	if c.store.Pending() {
		return placeholderSending
	}
	return placeholderIdle
}

// Submit sends the input buffer. The buffer is cleared once the message has
// been appended to the transcript.
func (c *Composer) Submit(ctx context.Context) error {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	err := c.submitLocked(ctx, c.Input())
	if err == nil || errors.Is(err, ErrSendFailed) {
		c.SetInput("")
	}
	return err
}

// SubmitText sends text without touching the input buffer.
func (c *Composer) SubmitText(ctx context.Context, text string) error {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()
	return c.submitLocked(ctx, text)
}

func (c *Composer) submitLocked(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ErrEmptyInput
	case c.store.Pending():
		return ErrReplyPending
	case c.Readonly():
		return ErrReadonly
	case c.sender.State() != transport.StateOpen:
		c.notices.Notify(bus.KindSendRejected, bus.LevelError, "WebSocket is not connected")
		return ErrSendRejected
	}

	c.store.AppendUser(text)
	if err := c.sender.Send(ctx, text); err != nil {
		c.store.ClearPending()
		if errors.Is(err, transport.ErrNotOpen) {
			// Closed between the state check and the write.
			c.notices.Notify(bus.KindSendRejected, bus.LevelError, "WebSocket is not connected")
			return fmt.Errorf("%w: %w", ErrSendRejected, err)
		}
		logger.Warn("send failed", "err", err)
		c.notices.Notify(bus.KindSendFailed, bus.LevelWarning, "Message could not be sent")
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	logger.Debug("message sent", "chars", len(text))
	return nil
}
