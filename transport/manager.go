package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linanwx/therachat/credential"
	"github.com/linanwx/therachat/logger"
)

const (
	// DefaultReconnectDelay is the wait between a close and the next connect.
	DefaultReconnectDelay = 2 * time.Second

	eventBufferSize = 64
)

// Config configures a Manager.
type Config struct {
	BaseURL        string
	Credentials    credential.Source
	Dialer         Dialer          // defaults to WebsocketDialer{}
	Clock          clockwork.Clock // defaults to the real clock
	ReconnectDelay time.Duration   // defaults to DefaultReconnectDelay
}

type loopEventKind int

const (
	loopOpen loopEventKind = iota + 1
	loopMessage
	loopError
	loopClose
	loopReconnect
)

// loopEvent is posted to the event loop. gen ties connection events to the
// connect attempt that produced them; events of replaced handles are dropped.
type loopEvent struct {
	kind   loopEventKind
	gen    uint64
	conn   Conn
	data   string
	err    error
	manual bool
}

// Manager owns one streaming connection at a time and reconnects it.
type Manager struct {
	cfg      Config
	listener Listener

	events    chan loopEvent
	done      chan struct{}
	closeDone sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	state    State
	conn     Conn
	started  bool
	tornDown bool

	// Owned by the event loop.
	gen      uint64
	timer    clockwork.Timer
	timerSeq uint64
}

// NewManager validates cfg and returns an idle Manager. Call Start to connect.
func NewManager(cfg Config, listener Listener) (*Manager, error) {
	if _, err := parseBase(cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.Credentials == nil {
		return nil, errors.New("transport: credential source is required")
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Manager{
		cfg:      cfg,
		listener: listener,
		events:   make(chan loopEvent, eventBufferSize),
		done:     make(chan struct{}),
		state:    StateClosed,
	}, nil
}

// Start runs the event loop and makes the first connect attempt. Cancelling
// ctx has the same effect as Teardown. Start after Teardown does nothing.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.tornDown {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	go m.run()
}

// Teardown permanently stops reconnecting, cancels a pending reconnect and
// closes the live connection. It blocks until the event loop has exited and
// is idempotent. It must not be called from the Listener.
func (m *Manager) Teardown() {
	m.mu.Lock()
	m.tornDown = true
	started := m.started
	cancel := m.cancel
	m.mu.Unlock()

	if !started {
		m.closeDone.Do(func() { close(m.done) })
		return
	}
	cancel()
	<-m.done
}

// Reconnect connects now if the manager is closed and has no attempt in
// flight, for example after a missing credential has been provided.
func (m *Manager) Reconnect() {
	m.post(loopEvent{kind: loopReconnect, manual: true})
}

// Done is closed once the manager has been torn down.
func (m *Manager) Done() <-chan struct{} { return m.done }

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send writes text as one frame on the live connection.
func (m *Manager) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	conn, state := m.conn, m.state
	m.mu.Unlock()

	if state != StateOpen || conn == nil {
		return ErrNotOpen
	}
	if err := conn.Write(ctx, text); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

func (m *Manager) run() {
	defer m.closeDone.Do(func() { close(m.done) })

	m.connect()
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// post hands an event to the loop. It reports false once the loop has exited.
func (m *Manager) post(ev loopEvent) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) handle(ev loopEvent) {
	if m.isTornDown() {
		if ev.conn != nil {
			_ = ev.conn.Close()
		}
		return
	}

	switch ev.kind {
	case loopOpen:
		m.handleOpen(ev)
	case loopMessage:
		if ev.gen == m.gen {
			m.emit(Event{Type: EventMessage, Data: ev.data})
		}
	case loopError:
		if ev.gen == m.gen {
			logger.Warn("websocket error", "err", ev.err)
			m.emit(Event{Type: EventWarning, Err: ev.err})
		}
	case loopClose:
		if ev.gen == m.gen {
			m.handleClose()
		}
	case loopReconnect:
		m.handleReconnect(ev)
	}
}

func (m *Manager) connect() {
	if m.isTornDown() {
		return
	}

	token, err := m.cfg.Credentials.Credential(m.ctx)
	if err != nil {
		if !errors.Is(err, credential.ErrCredentialMissing) {
			err = fmt.Errorf("%w: %v", credential.ErrCredentialMissing, err)
		}
		logger.Warn("no credential, connection not attempted", "err", err)
		m.emit(Event{Type: EventCredentialMissing, Err: err})
		return
	}
	if info := credential.Inspect(token); info.Expired(m.cfg.Clock.Now()) {
		logger.Warn("credential appears expired", "expiresAt", info.ExpiresAt)
	}

	endpoint, err := Endpoint(m.cfg.BaseURL, token)
	if err != nil {
		// BaseURL was validated by NewManager.
		m.emit(Event{Type: EventWarning, Err: err})
		return
	}

	m.gen++
	m.setState(StateConnecting)
	logger.Info("websocket connecting", "url", redact(endpoint))
	go m.dial(m.gen, endpoint)
}

// dial opens a handle and pumps its frames into the loop until it closes.
func (m *Manager) dial(gen uint64, endpoint string) {
	conn, err := m.cfg.Dialer.Dial(m.ctx, endpoint)
	if err != nil {
		m.post(loopEvent{kind: loopError, gen: gen, err: err})
		m.post(loopEvent{kind: loopClose, gen: gen})
		return
	}
	if !m.post(loopEvent{kind: loopOpen, gen: gen, conn: conn}) {
		_ = conn.Close()
		return
	}

	// The loop may exit before it sees this handle; a cancelled context
	// makes Read return, so the handle is always released here.
	defer func() {
		if m.ctx.Err() != nil {
			_ = conn.Close()
		}
	}()
	for {
		text, err := conn.Read(m.ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && m.ctx.Err() == nil {
				m.post(loopEvent{kind: loopError, gen: gen, err: err})
			}
			m.post(loopEvent{kind: loopClose, gen: gen})
			return
		}
		if !m.post(loopEvent{kind: loopMessage, gen: gen, data: text}) {
			return
		}
	}
}

func (m *Manager) handleOpen(ev loopEvent) {
	if ev.gen != m.gen {
		_ = ev.conn.Close()
		return
	}
	m.stopTimer()

	m.mu.Lock()
	m.conn = ev.conn
	m.mu.Unlock()

	logger.Info("websocket connection opened")
	m.setState(StateOpen)
}

func (m *Manager) handleClose() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}

	if m.setState(StateClosed) {
		logger.Info("websocket connection closed")
	}
	if m.isTornDown() {
		return
	}
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	if m.timer != nil {
		return
	}
	delay := m.cfg.ReconnectDelay
	m.timerSeq++
	seq := m.timerSeq
	m.timer = m.cfg.Clock.AfterFunc(delay, func() {
		m.post(loopEvent{kind: loopReconnect, gen: seq})
	})
	logger.Info("reconnect scheduled", "delay", delay)
}

func (m *Manager) handleReconnect(ev loopEvent) {
	if ev.manual {
		if m.State() != StateClosed {
			return
		}
		m.stopTimer()
	} else {
		// A timer stopped after it fired still delivers; only the pending one counts.
		if m.timer == nil || ev.gen != m.timerSeq {
			return
		}
		m.timer = nil
	}
	m.connect()
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) shutdown() {
	m.stopTimer()

	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}

	m.setState(StateClosed)
	logger.Info("transport torn down")
}

// setState records s and notifies the listener. It reports whether the state changed.
func (m *Manager) setState(s State) bool {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return false
	}
	m.state = s
	m.mu.Unlock()

	m.emit(Event{Type: EventState, State: s})
	return true
}

func (m *Manager) isTornDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tornDown
}

func (m *Manager) emit(ev Event) {
	if m.listener != nil {
		m.listener(ev)
	}
}
