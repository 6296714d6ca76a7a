package health

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/linanwx/therachat/credential"
)

// inspectCredential reports on the credential the transport would use: the
// environment variable first, then the file.
func inspectCredential(env, path string, now time.Time) *CredentialInfo {
	info := &CredentialInfo{Env: env, Path: path}

	var token string
	if env != "" {
		token = strings.TrimSpace(os.Getenv(env))
		if token != "" {
			info.Source = "env"
		}
	}

	if token == "" && path != "" {
		stat, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				info.ParseError = err.Error()
			}
			return info
		}
		info.FileSizeBytes = stat.Size()
		info.UpdatedAt = stat.ModTime().Format(time.RFC3339)

		data, err := os.ReadFile(path)
		if err != nil {
			info.ParseError = err.Error()
			return info
		}
		token = strings.TrimSpace(string(data))
		if token != "" {
			info.Source = "file"
		}
	}

	if token == "" {
		return info
	}
	info.Exists = true

	claims := credential.Inspect(token)
	info.JWT = claims.JWT
	info.Subject = claims.Subject
	if !claims.ExpiresAt.IsZero() {
		info.ExpiresAt = claims.ExpiresAt.Format(time.RFC3339)
	}
	info.Expired = claims.Expired(now)
	return info
}
