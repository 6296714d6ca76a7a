// Package transport owns the streaming connection to the agent backend.
//
// A Manager keeps at most one live connection, reports state changes and
// inbound frames to a single Listener, and reconnects after a fixed delay
// whenever the connection closes, until it is torn down. Every handler runs
// on the Manager's event loop, so a Listener is never called concurrently.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotOpen is returned by Send when no connection is open.
var ErrNotOpen = errors.New("websocket is not connected")

// State is the connection state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// EventType identifies what a Listener is told about.
type EventType int

const (
	// EventState carries a state transition in Event.State.
	EventState EventType = iota + 1
	// EventMessage carries one raw inbound frame in Event.Data.
	EventMessage
	// EventWarning carries a non-fatal transport error in Event.Err.
	EventWarning
	// EventCredentialMissing reports a connect attempt skipped for lack of a credential.
	EventCredentialMissing
)

func (t EventType) String() string {
	switch t {
	case EventState:
		return "state"
	case EventMessage:
		return "message"
	case EventWarning:
		return "warning"
	case EventCredentialMissing:
		return "credential_missing"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is delivered to the Listener.
type Event struct {
	Type  EventType
	State State
	Data  string
	Err   error
}

// Listener receives Manager events on the event loop goroutine.
type Listener func(Event)

// Conn is one live streaming connection. Read returns io.EOF on a normal close.
type Conn interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Endpoint builds <base>/ws?token=<credential>.
func Endpoint(base, token string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseBase(base string) (*url.URL, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, errors.New("stream url is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported stream url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("stream url %q has no host", base)
	}
	return u, nil
}

// redact strips the credential from an endpoint for logging.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
