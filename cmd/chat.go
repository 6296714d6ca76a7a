package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linanwx/therachat/channel"
	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/logger"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat view (default)",
	Long: `Open the chat view. In a terminal this is a full-screen view; when stdin is
a pipe each line is sent as one message and replies are printed as they arrive.

Keys:
  enter       send
  alt+enter   new line
  ctrl+d      delete the chat (asks for confirmation)
  ctrl+r      reconnect now
  ctrl+l      show or hide logs
  ctrl+c      quit (or type "exit")

Examples:
  therachat
  therachat chat --readonly
  echo "hello" | therachat chat --plain`,
	GroupID: "chat",
	RunE:    runChat,
}

var (
	chatOverrides sessionOverrides
	chatPlain     bool
)

func init() {
	addChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func addChatFlags(c *cobra.Command) {
	c.Flags().BoolVar(&chatOverrides.readonly, "readonly", false, "View the chat without sending or deleting")
	c.Flags().BoolVar(&chatPlain, "plain", false, "Use line mode even on a terminal")
	c.Flags().BoolVar(&chatOverrides.noHistory, "no-history", false, "Do not load earlier messages")
	c.Flags().StringVar(&chatOverrides.streamURL, "stream-url", "", "Websocket base URL (overrides config)")
	c.Flags().StringVar(&chatOverrides.apiURL, "api-url", "", "HTTP API base URL (overrides config)")
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	session, err := buildSession(cfg, chatOverrides, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.Start(ctx)
	ch := channel.New(session, channel.Options{Plain: chatPlain})
	logger.Info("chat started", "channel", ch.Name(), "stream", firstNonEmpty(chatOverrides.streamURL, cfg.Server.StreamURL))

	return channel.Run(ctx, ch)
}
