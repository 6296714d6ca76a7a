package channel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/channel/tui"
	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/logger"
	"github.com/linanwx/therachat/transcript"
)

// TUIChannel drives a chat session from a bubbletea program.
type TUIChannel struct {
	session *chat.Session
	opts    Options

	program  *tea.Program
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	unsubStore func()
	noticeSub  string
}

func newTUIChannel(session *chat.Session, opts Options) *TUIChannel {
	return &TUIChannel{
		session: session,
		opts:    opts,
		done:    make(chan struct{}),
	}
}

func (c *TUIChannel) Name() string { return "tui" }

func (c *TUIChannel) Start(ctx context.Context) error {
	s := c.session
	app := tui.NewApp(sessionBackend{s}, tui.Options{
		Title:     viewTitle(s, c.opts),
		Readonly:  s.Readonly(),
		Snapshot:  s.Store().Snapshot(),
		Connected: s.Indicator().Connected(),
	})
	c.program = tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(c.opts.In),
		tea.WithOutput(c.opts.Out),
	)

	// Redirect logger output to the TUI log panel.
	logger.Intercept(&logWriter{program: c.program})

	c.unsubStore = s.Store().Subscribe(func(snap transcript.Snapshot) {
		c.program.Send(tui.SnapshotMsg{Snapshot: snap})
	})
	s.Indicator().OnChange(func(connected bool) {
		c.program.Send(tui.ConnMsg{Connected: connected})
	})
	c.noticeSub = s.Notices().Subscribe(bus.KindAll, func(_ context.Context, n *bus.Notice) {
		c.program.Send(tui.NoticeMsg{Notice: n})
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		if _, err := c.program.Run(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		}
	}()

	logger.Info("chat view started (TUI mode)")
	return nil
}

func (c *TUIChannel) Stop() error {
	c.stopOnce.Do(func() {
		if c.program == nil {
			return
		}
		c.unsubStore()
		c.session.Notices().Unsubscribe(c.noticeSub)
		c.program.Quit()
		c.wg.Wait()
		logger.Restore()
		logger.Info("chat view stopped")
	})
	return nil
}

func (c *TUIChannel) Done() <-chan struct{} { return c.done }

// sessionBackend adapts a session to the actions the TUI triggers. The
// composer holds the input buffer and decides when it is cleared.
type sessionBackend struct{ s *chat.Session }

func (b sessionBackend) Submit(ctx context.Context, text string) error {
	c := b.s.Composer()
	c.SetInput(text)
	return c.Submit(ctx)
}

func (b sessionBackend) Input() string       { return b.s.Composer().Input() }
func (b sessionBackend) Placeholder() string { return b.s.Composer().Placeholder() }
func (b sessionBackend) Disabled() bool      { return b.s.Composer().Disabled() }

func (b sessionBackend) DeleteChat(ctx context.Context) error { return b.s.DeleteChat(ctx) }

func (b sessionBackend) Reconnect() { b.s.Reconnect() }

// logWriter implements io.Writer and sends each write as a LogLineMsg to the TUI.
type logWriter struct {
	program *tea.Program
}

func (w *logWriter) Write(p []byte) (int, error) {
	// Split on newlines in case a single write contains multiple lines.
	lines := bytes.Split(p, []byte("\n"))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		w.program.Send(tui.LogLineMsg{Line: string(line)})
	}
	return len(p), nil
}
