// Package credential supplies the opaque session token that authorizes the
// streaming connection. Sources are consulted on every connect attempt so a
// rotated token is picked up by the next reconnect.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCredentialMissing is returned when no source holds a credential.
var ErrCredentialMissing = errors.New("authentication token not found")

// Source yields the current credential.
type Source interface {
	Credential(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Credential(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token. An empty token is reported as missing.
type Static string

func (s Static) Credential(context.Context) (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", ErrCredentialMissing
	}
	return token, nil
}

// Env reads the token from an environment variable.
type Env string

func (e Env) Credential(context.Context) (string, error) {
	name := strings.TrimSpace(string(e))
	if name == "" {
		return "", ErrCredentialMissing
	}
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", ErrCredentialMissing
	}
	return token, nil
}

// File reads the token from a file, the terminal counterpart of a session cookie.
type File string

func (f File) Credential(context.Context) (string, error) {
	path := strings.TrimSpace(string(f))
	if path == "" {
		return "", ErrCredentialMissing
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrCredentialMissing
		}
		return "", fmt.Errorf("read credential file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrCredentialMissing
	}
	return token, nil
}

// Chain returns the first credential found, in order. A source failing with
// anything other than ErrCredentialMissing stops the chain.
type Chain []Source

func (c Chain) Credential(ctx context.Context) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		token, err := src.Credential(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrCredentialMissing) {
			return "", err
		}
	}
	return "", ErrCredentialMissing
}

// WriteFile stores token at path with owner-only permissions.
func WriteFile(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrCredentialMissing
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}
