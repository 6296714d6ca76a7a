package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/highlight"
	"github.com/linanwx/therachat/logger"
	"github.com/linanwx/therachat/transcript"
)

const (
	plainStopWaitTimeout = 500 * time.Millisecond
	plainConnectWait     = 30 * time.Second
	plainReplyWait       = 60 * time.Second
)

// plainChannel reads one message per line and prints the transcript as it
// grows. Lines starting with '/' are commands. Input is held back until the
// connection opens, and each line waits for the reply to the previous one.
type plainChannel struct {
	session *chat.Session
	in      io.Reader

	outMu   sync.Mutex
	out     io.Writer
	printed int
	typing  bool
	idle    chan struct{}

	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
	stopOnce sync.Once
	wg       sync.WaitGroup

	unsubStore func()
	noticeSub  string
}

func newPlainChannel(session *chat.Session, in io.Reader, out io.Writer) *plainChannel {
	return &plainChannel{
		session: session,
		in:      in,
		out:     out,
		idle:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (c *plainChannel) Name() string { return "plain" }

func (c *plainChannel) Start(ctx context.Context) error {
	s := c.session
	ctx, c.cancel = context.WithCancel(ctx)
	c.render(s.Store().Snapshot())
	c.unsubStore = s.Store().Subscribe(c.render)
	c.noticeSub = s.Notices().Subscribe(bus.KindAll, func(_ context.Context, n *bus.Notice) {
		// Rejected lines are reported by submit.
		if n.Kind != bus.KindSendRejected {
			c.println(n.String())
		}
	})
	if s.Readonly() {
		c.println("(this chat is readonly)")
	}

	c.wg.Add(1)
	go c.readInput(ctx)

	logger.Info("chat view started (plain mode)")
	return nil
}

func (c *plainChannel) Stop() error {
	c.stopOnce.Do(func() {
		c.finish()
		if c.cancel != nil {
			c.cancel()
		}
		if c.unsubStore != nil {
			ctx, cancel := context.WithTimeout(context.Background(), plainStopWaitTimeout)
			if err := c.session.Notices().Flush(ctx); err != nil {
				logger.Warn("pending notices not printed", "err", err)
			}
			cancel()
			c.unsubStore()
			c.session.Notices().Unsubscribe(c.noticeSub)
		}

		waitDone := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(waitDone)
		}()
		select {
		case <-waitDone:
		case <-time.After(plainStopWaitTimeout):
			logger.Warn("plain channel stop timed out waiting for input loop")
		}
		logger.Info("chat view stopped")
	})
	return nil
}

func (c *plainChannel) Done() <-chan struct{} { return c.done }

func (c *plainChannel) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *plainChannel) readInput(ctx context.Context) {
	defer c.wg.Done()
	defer c.finish()

	if !c.session.Readonly() {
		c.waitConnected(ctx)
	}

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			continue
		case chat.IsExitCommand(text):
			c.println("Goodbye!")
			return
		case text == "/reconnect":
			c.session.Reconnect()
		case text == "/delete":
			c.deleteChat(ctx, scanner)
		default:
			c.submit(ctx, text)
		}
	}

	// Input ended: give an in-flight reply the chance to arrive.
	c.waitIdle(ctx, plainReplyWait)
}

func (c *plainChannel) waitConnected(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, plainConnectWait)
	defer cancel()
	if err := c.session.WaitConnected(ctx); err != nil {
		logger.Info("reading input without a connection", "err", err)
	}
}

func (c *plainChannel) submit(ctx context.Context, text string) {
	c.waitIdle(ctx, plainReplyWait)
	err := c.session.Composer().SubmitText(ctx, text)
	switch {
	case err == nil, errors.Is(err, chat.ErrSendFailed):
	case errors.Is(err, chat.ErrSendRejected):
		c.println("(not connected, message not sent)")
	case errors.Is(err, chat.ErrReplyPending):
		c.println("(still waiting for the reply)")
	case errors.Is(err, chat.ErrReadonly):
		c.println("(this chat is readonly)")
	default:
		logger.Warn("submit failed", "err", err)
	}
}

func (c *plainChannel) deleteChat(ctx context.Context, scanner *bufio.Scanner) {
	if c.session.Readonly() {
		c.println("(this chat is readonly)")
		return
	}
	c.println("Delete the chat? This cannot be undone. [y/N]")
	if !scanner.Scan() {
		return
	}
	if answer := strings.ToLower(strings.TrimSpace(scanner.Text())); answer != "y" && answer != "yes" {
		c.println("(kept)")
		return
	}
	if err := c.session.DeleteChat(ctx); err != nil {
		logger.Debug("delete chat from plain mode failed", "err", err)
	}
}

func (c *plainChannel) waitIdle(ctx context.Context, limit time.Duration) {
	if !c.session.Store().Pending() {
		return
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()
	for c.session.Store().Pending() {
		select {
		case <-c.idle:
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// render prints messages appended since the last call.
func (c *plainChannel) render(snap transcript.Snapshot) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if len(snap.Messages) < c.printed {
		c.printed = 0
		fmt.Fprintln(c.out, "(chat cleared)")
	}
	for _, m := range snap.Messages[c.printed:] {
		who := "therachat"
		if m.Role == transcript.RoleUser {
			who = "you"
		}
		fmt.Fprintf(c.out, "%s: %s\n", who, highlight.Plain(highlight.Format(m.Content)))
	}
	c.printed = len(snap.Messages)

	if snap.Pending && !c.typing {
		fmt.Fprintln(c.out, "therachat is typing...")
	}
	c.typing = snap.Pending
	if !snap.Pending {
		select {
		case c.idle <- struct{}{}:
		default:
		}
	}
}

func (c *plainChannel) println(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, s)
}
