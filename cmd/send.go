package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/highlight"
	"github.com/linanwx/therachat/transcript"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one message and print the reply",
	Long: `Connect, send a single message, wait for the agent's reply, print it and exit.

Examples:
  therachat send --text "I slept badly again"
  therachat send --text "hi" --timeout 30s`,
	GroupID: "chat",
	RunE:    runSend,
}

var (
	sendText      string
	sendTimeout   time.Duration
	sendOverrides sessionOverrides
)

func init() {
	sendCmd.Flags().StringVar(&sendText, "text", "", "Message text (required)")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", time.Minute, "How long to wait for the connection and the reply")
	sendCmd.Flags().StringVar(&sendOverrides.streamURL, "stream-url", "", "Websocket base URL (overrides config)")
	_ = sendCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	text := strings.TrimSpace(sendText)
	if text == "" {
		return chat.ErrEmptyInput
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	notices := bus.NewBus(16)
	defer notices.Close()

	// History is not needed to send a single message.
	sendOverrides.noHistory = true
	session, err := buildSession(cfg, sendOverrides, notices)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	reply, err := sendAndWait(ctx, session, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), highlight.Plain(highlight.Format(reply)))
	return nil
}

// sendAndWait starts session, submits text once the connection is open and
// returns the first agent message that follows it.
func sendAndWait(ctx context.Context, session *chat.Session, text string) (string, error) {
	replies := make(chan string, 1)
	var sent atomic.Int64
	unsubscribe := session.Store().Subscribe(func(snap transcript.Snapshot) {
		n := int(sent.Load())
		if n == 0 || len(snap.Messages) <= n {
			return
		}
		if last := snap.Messages[len(snap.Messages)-1]; last.Role == transcript.RoleAgent {
			select {
			case replies <- last.Content:
			default:
			}
		}
	})
	defer unsubscribe()

	session.Start(ctx)
	if err := session.WaitConnected(ctx); err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}

	sent.Store(int64(session.Store().Len() + 1))
	if err := session.Composer().SubmitText(ctx, text); err != nil {
		return "", err
	}

	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for reply: %w", ctx.Err())
	}
}
