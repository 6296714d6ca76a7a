// Package channel provides the front-ends that drive a chat session: a
// bubbletea TUI for terminals and a line-oriented mode for pipes.
package channel

import (
	"context"
	"io"
	"os"

	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/logger"
	"golang.org/x/term"
)

// Channel is a front-end for one chat session.
type Channel interface {
	// Name returns the front-end name ("tui" or "plain").
	Name() string

	// Start begins reading user input. It does not block.
	Start(ctx context.Context) error

	// Stop shuts the front-end down. It is idempotent.
	Stop() error

	// Done is closed when the user leaves.
	Done() <-chan struct{}
}

const defaultTitle = "TheraChat"

// Options configures a front-end.
type Options struct {
	// Title overrides the chat title loaded with the history.
	Title string

	// Plain forces line mode even on a terminal.
	Plain bool

	In  io.Reader
	Out io.Writer
}

// New returns a TUI front-end when stdin is a terminal and line mode otherwise.
func New(session *chat.Session, opts Options) Channel {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if !opts.Plain && isTerminal(opts.In) {
		return newTUIChannel(session, opts)
	}
	return newPlainChannel(session, opts.In, opts.Out)
}

// viewTitle picks the header title: the override, then the loaded chat title.
func viewTitle(s *chat.Session, opts Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	if t := s.Title(); t != "" {
		return t
	}
	return defaultTitle
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run starts ch and blocks until the user leaves or ctx is done, then stops it.
func Run(ctx context.Context, ch Channel) error {
	if err := ch.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ch.Done():
	case <-ctx.Done():
	}
	logger.Debug("front-end finished", "channel", ch.Name())
	return ch.Stop()
}
