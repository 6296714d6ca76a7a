package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"
)

// WebsocketDialer dials real websocket connections.
type WebsocketDialer struct {
	HTTPClient *http.Client
	ReadLimit  int64 // bytes per frame, zero keeps the library default
}

// Dial opens a websocket connection to endpoint.
func (d WebsocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", redact(endpoint), err)
	}
	if d.ReadLimit > 0 {
		c.SetReadLimit(d.ReadLimit)
	}
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

// Read returns the next frame as text. Binary frames are passed through as
// their raw bytes.
func (w *wsConn) Read(ctx context.Context) (string, error) {
	_, data, err := w.c.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return "", io.EOF
		}
		return "", err
	}
	return string(data), nil
}

func (w *wsConn) Write(ctx context.Context, text string) error {
	return w.c.Write(ctx, websocket.MessageText, []byte(text))
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}
