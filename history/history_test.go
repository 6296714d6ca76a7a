package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linanwx/therachat/credential"
	"github.com/linanwx/therachat/transcript"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

// buildHistory assembles a history payload the way the API returns it.
func buildHistory(t *testing.T, readonly bool, msgs ...map[string]any) string {
	t.Helper()
	doc := `{"chat":{"id":"c-1","title":"Session"},"messages":[]}`
	var err error
	doc, err = sjson.Set(doc, "readonly", readonly)
	require.NoError(t, err)
	for _, m := range msgs {
		doc, err = sjson.Set(doc, "messages.-1", m)
		require.NoError(t, err)
	}
	return doc
}

type apiServer struct {
	*httptest.Server
	auth    chan string
	history string
	status  int
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{auth: make(chan string, 8), status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.auth <- r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/messages":
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(s.history))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/chat":
			w.WriteHeader(s.status)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url + "/", Credentials: credential.Static("tok")})
	require.NoError(t, err)
	return c
}

func TestLoadDecodesMessages(t *testing.T) {
	srv := newAPIServer(t)
	srv.history = buildHistory(t, false,
		map[string]any{"id": "1", "content": "hello", "role": "user", "created_at": "2025-01-02T03:04:05Z"},
		map[string]any{"id": "2", "content": "#hi# there", "role": "assistant"},
		map[string]any{"id": "3", "content": "ignored", "role": "system"},
		map[string]any{"id": "4", "content": "welcome back", "role": "agent"},
	)

	chat, err := newTestClient(t, srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", <-srv.auth)

	require.Equal(t, "c-1", chat.ID)
	require.Equal(t, "Session", chat.Title)
	require.False(t, chat.Readonly)
	require.Len(t, chat.Messages, 3)

	require.Equal(t, transcript.RoleUser, chat.Messages[0].Role)
	require.True(t, chat.Messages[0].CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.Equal(t, transcript.RoleAgent, chat.Messages[1].Role)
	require.Equal(t, "#hi# there", chat.Messages[1].Content)
	require.True(t, chat.Messages[1].CreatedAt.IsZero())
	require.Equal(t, "4", chat.Messages[2].ID)
}

func TestLoadReadonlyChat(t *testing.T) {
	srv := newAPIServer(t)
	srv.history = buildHistory(t, true)

	chat, err := newTestClient(t, srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.True(t, chat.Readonly)
	require.Empty(t, chat.Messages)
}

func TestLoadNotFoundIsEmpty(t *testing.T) {
	srv := newAPIServer(t)
	srv.status = http.StatusNotFound

	chat, err := newTestClient(t, srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, chat.Messages)
}

func TestLoadErrors(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)

	srv.status = http.StatusInternalServerError
	_, err := c.Load(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	srv.status = http.StatusOK
	srv.history = `{"messages":`
	_, err = c.Load(context.Background())
	require.Error(t, err)

	srv.history = `{"messages":{"id":"1"}}`
	_, err = c.Load(context.Background())
	require.Error(t, err)
}

func TestMissingCredentialSkipsRequest(t *testing.T) {
	srv := newAPIServer(t)
	c, err := NewClient(Config{BaseURL: srv.URL, Credentials: credential.Static("")})
	require.NoError(t, err)

	_, err = c.Load(context.Background())
	require.True(t, errors.Is(err, credential.ErrCredentialMissing), "err = %v", err)
	require.Len(t, srv.auth, 0)
}

func TestDelete(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.Delete(context.Background()))
	require.Equal(t, "Bearer tok", <-srv.auth)

	srv.status = http.StatusForbidden
	require.ErrorIs(t, c.Delete(context.Background()), ErrUnexpectedStatus)
}

func TestNewClientValidatesURL(t *testing.T) {
	for _, base := range []string{"", "   ", "ws://host", "host:3000"} {
		_, err := NewClient(Config{BaseURL: base})
		require.Error(t, err, "base %q", base)
	}
}

func TestParseTime(t *testing.T) {
	require.True(t, parseTime("").IsZero())
	require.True(t, parseTime("yesterday").IsZero())
	require.Equal(t, 2024, parseTime("2024-05-06 07:08:09.123456+00").Year())
}
