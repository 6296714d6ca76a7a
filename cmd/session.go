package cmd

import (
	"fmt"
	"strings"

	"github.com/linanwx/therachat/bus"
	"github.com/linanwx/therachat/chat"
	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/credential"
	"github.com/linanwx/therachat/history"
	"github.com/linanwx/therachat/transport"
)

// sessionOverrides are command-line values that win over config.yaml.
type sessionOverrides struct {
	streamURL string
	apiURL    string
	readonly  bool
	noHistory bool
}

func credentialSource(cfg *config.Config) credential.Source {
	return credential.Chain{
		credential.Env(cfg.Credential.Env),
		credential.File(cfg.CredentialFilePath()),
	}
}

// buildSession wires a chat session from config and flags.
func buildSession(cfg *config.Config, o sessionOverrides, notices *bus.Bus) (*chat.Session, error) {
	streamURL := firstNonEmpty(o.streamURL, cfg.Server.StreamURL)
	apiURL := firstNonEmpty(o.apiURL, cfg.Server.APIURL)
	creds := credentialSource(cfg)

	opts := chat.Options{
		Transport: transport.Config{
			BaseURL:        streamURL,
			Credentials:    creds,
			ReconnectDelay: cfg.Reconnect.Delay,
		},
		Notices:  notices,
		Readonly: o.readonly || cfg.Chat.Readonly,
	}

	if apiURL != "" {
		client, err := history.NewClient(history.Config{BaseURL: apiURL, Credentials: creds})
		if err != nil {
			return nil, err
		}
		if cfg.HistoryEnabled() && !o.noHistory {
			opts.History = client
		}
		opts.Deleter = client
	}

	session, err := chat.NewSession(opts)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return session, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
