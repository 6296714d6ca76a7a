// Package history talks to the chat API: it loads the stored transcript when
// a session starts and deletes the chat on request.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linanwx/therachat/credential"
	"github.com/linanwx/therachat/logger"
	"github.com/linanwx/therachat/transcript"
	"github.com/tidwall/gjson"
)

// ErrUnexpectedStatus is returned when the API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Chat is the stored state of the user's chat.
type Chat struct {
	ID       string
	Title    string
	Readonly bool
	Messages []transcript.Message
}

// Provider loads the stored chat.
type Provider interface {
	Load(ctx context.Context) (*Chat, error)
}

// Deleter deletes the stored chat.
type Deleter interface {
	Delete(ctx context.Context) error
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Credentials credential.Source
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// Client implements Provider and Deleter over HTTP.
type Client struct {
	baseURL    string
	creds      credential.Source
	httpClient *http.Client
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("history: base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("history: base URL must be http or https: %q", base)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, creds: cfg.Credentials, httpClient: hc}, nil
}

// Load fetches GET <base>/api/messages. A 404 means no chat exists yet and
// yields an empty Chat.
func (c *Client) Load(ctx context.Context) (*Chat, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/messages")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &Chat{}, nil
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("load history: %w: %d", ErrUnexpectedStatus, status)
	}
	return decodeChat(body)
}

// Delete calls DELETE <base>/api/chat.
func (c *Client) Delete(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodDelete, "/api/chat")
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("delete chat: %w: %d", ErrUnexpectedStatus, status)
	}
	logger.Info("chat deleted")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		token, err := c.creds.Credential(ctx)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(body))
	return resp.StatusCode, body, nil
}

// decodeChat reads {"chat":{...},"readonly":bool,"messages":[...]}. Entries
// with an unknown role or no content are skipped.
func decodeChat(body []byte) (*Chat, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode history: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	chat := &Chat{
		ID:       root.Get("chat.id").String(),
		Title:    root.Get("chat.title").String(),
		Readonly: root.Get("readonly").Bool(),
	}

	msgs := root.Get("messages")
	if msgs.Exists() && !msgs.IsArray() {
		return nil, fmt.Errorf("decode history: messages is not an array")
	}
	msgs.ForEach(func(_, v gjson.Result) bool {
		role, ok := transcript.ParseRole(v.Get("role").String())
		if !ok {
			logger.Warn("skipping history message with unknown role", "id", v.Get("id").String(), "role", v.Get("role").String())
			return true
		}
		content := v.Get("content")
		if !content.Exists() {
			return true
		}
		chat.Messages = append(chat.Messages, transcript.Message{
			ID:        v.Get("id").String(),
			Content:   content.String(),
			Role:      role,
			CreatedAt: parseTime(v.Get("created_at").String()),
		})
		return true
	})
	return chat, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
