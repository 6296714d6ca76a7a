// Package chat ties the transcript, the streaming transport and the notice
// bus into one chat session that a front-end can drive.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/credential"
	"github.com/linanwx/therachat/history"
	"github.com/linanwx/therachat/logger"
	"github.com/linanwx/therachat/transcript"
	"github.com/linanwx/therachat/transport"
)

// ErrDeleteUnavailable is returned by DeleteChat when no deleter is configured.
var ErrDeleteUnavailable = errors.New("chat deletion is not available")

// Options configures a Session.
type Options struct {
	Transport transport.Config

	// Store defaults to an empty store.
	Store *transcript.Store
	// Notices defaults to a bus owned and closed by the session.
	Notices *bus.Bus

	History history.Provider
	Deleter history.Deleter

	Readonly bool
}

// Session owns one chat view: its transcript, its connection and its input.
type Session struct {
	store     *transcript.Store
	manager   *transport.Manager
	composer  *Composer
	indicator *Indicator
	notices   *bus.Bus
	ownsBus   bool

	history history.Provider
	deleter history.Deleter

	mu          sync.Mutex
	title       string
	credMissing bool
	wake        chan struct{} // closed and replaced when connectivity settles

	closeOnce sync.Once
}

// NewSession builds a session. Nothing connects until Start.
func NewSession(opts Options) (*Session, error) {
	s := &Session{
		store:     opts.Store,
		notices:   opts.Notices,
		indicator: NewIndicator(),
		history:   opts.History,
		deleter:   opts.Deleter,
		wake:      make(chan struct{}),
	}
	if s.store == nil {
		s.store = transcript.NewStore()
	}
	if s.notices == nil {
		s.notices = bus.NewBus(0)
		s.ownsBus = true
	}

	manager, err := transport.NewManager(opts.Transport, s.handleTransportEvent)
	if err != nil {
		if s.ownsBus {
			s.notices.Close()
		}
		return nil, err
	}
	s.manager = manager
	s.composer = NewComposer(s.store, manager, s.notices)
	s.composer.SetReadonly(opts.Readonly)
	return s, nil
}

// Start loads the stored history and then connects. A history failure is
// reported as a notice and leaves the transcript empty.
func (s *Session) Start(ctx context.Context) {
	s.hydrate(ctx)
	s.manager.Start(ctx)
}

// DeleteChat deletes the chat through the deleter. On success the transcript
// is reset and hydrated again; on failure it is left untouched.
func (s *Session) DeleteChat(ctx context.Context) error {
	if s.composer.Readonly() {
		return ErrReadonly
	}
	if s.deleter == nil {
		return ErrDeleteUnavailable
	}
	if err := s.deleter.Delete(ctx); err != nil {
		logger.Warn("delete chat failed", "err", err)
		s.notices.Notify(bus.KindDeleteFailed, bus.LevelError, "Failed to delete chat")
		return err
	}
	s.notices.Notify(bus.KindChatDeleted, bus.LevelSuccess, "Chat deleted successfully")
	s.store.Reset()
	s.hydrate(ctx)
	return nil
}

// WaitConnected blocks until the connection is open. It returns
// credential.ErrCredentialMissing when the last connect attempt found no
// credential, or the context error.
func (s *Session) WaitConnected(ctx context.Context) error {
	for {
		s.mu.Lock()
		missing, wake := s.credMissing, s.wake
		s.mu.Unlock()

		if s.indicator.Connected() {
			return nil
		}
		if missing {
			return credential.ErrCredentialMissing
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reconnect asks the transport to connect now if it is closed.
func (s *Session) Reconnect() { s.manager.Reconnect() }

// Close tears the connection down and stops the session's own notice bus.
// It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.manager.Teardown()
		if s.ownsBus {
			s.notices.Close()
		}
		logger.Info("chat session closed")
	})
}

func (s *Session) Store() *transcript.Store { return s.store }
func (s *Session) Composer() *Composer      { return s.composer }
func (s *Session) Indicator() *Indicator    { return s.indicator }
func (s *Session) Notices() *bus.Bus        { return s.notices }
func (s *Session) Readonly() bool           { return s.composer.Readonly() }

// Title is the chat title from the last history load, or "" when unknown.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// State returns the transport state.
func (s *Session) State() transport.State { return s.manager.State() }

// Done is closed once the transport has been torn down.
func (s *Session) Done() <-chan struct{} { return s.manager.Done() }

func (s *Session) hydrate(ctx context.Context) {
	if s.history == nil {
		return
	}
	chat, err := s.history.Load(ctx)
	if err != nil {
		logger.Warn("load history failed", "err", err)
		s.notices.Notify(bus.KindHistoryFailed, bus.LevelWarning, "Failed to load chat history")
		return
	}
	if chat.Readonly {
		s.composer.SetReadonly(true)
	}
	s.mu.Lock()
	s.title = chat.Title
	s.mu.Unlock()
	s.store.Hydrate(chat.Messages)
	logger.Info("history loaded", "messages", len(chat.Messages), "readonly", s.composer.Readonly())
}

// handleTransportEvent runs on the transport's event loop.
func (s *Session) handleTransportEvent(ev transport.Event) {
	switch ev.Type {
	case transport.EventMessage:
		s.store.Append(transcript.Message{Content: ev.Data, Role: transcript.RoleAgent})
	case transport.EventState:
		s.indicator.Observe(ev.State)
		if ev.State == transport.StateOpen {
			s.notices.Notify(bus.KindConnectionOpened, bus.LevelSuccess, "WebSocket connection opened")
			s.settle(false)
		}
	case transport.EventWarning:
		s.notices.Notify(bus.KindTransportError, bus.LevelError, "WebSocket error")
	case transport.EventCredentialMissing:
		logger.Warn("cannot connect", "err", ev.Err)
		s.notices.Notify(bus.KindCredentialMissing, bus.LevelError, "Authentication token not found")
		s.settle(true)
	}
}

// settle records the outcome of a connect attempt and wakes WaitConnected.
func (s *Session) settle(credMissing bool) {
	s.mu.Lock()
	s.credMissing = credMissing
	close(s.wake)
	s.wake = make(chan struct{})
	s.mu.Unlock()
}
