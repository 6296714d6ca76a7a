package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestCollectHealthyWithFileCredential(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokenPath := filepath.Join(dir, "session.jwt")
	if err := os.WriteFile(tokenPath, []byte(signed(t, now.Add(time.Hour))+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := Collect(Options{
		ConfigPath:     filepath.Join(dir, "config.yaml"),
		StreamURL:      "ws://127.0.0.1:8000",
		CredentialEnv:  "THERACHAT_TEST_UNSET_TOKEN",
		CredentialFile: tokenPath,
		Now:            func() time.Time { return now },
	})

	if s.Status != "healthy" {
		t.Fatalf("status = %q, problems = %v", s.Status, s.Problems)
	}
	if s.Config == nil || s.Config.Exists {
		t.Fatalf("config = %+v, want a missing config file reported", s.Config)
	}
	c := s.Credential
	if !c.Exists || c.Source != "file" || !c.JWT || c.Subject != "user-1" || c.Expired {
		t.Fatalf("credential = %+v", c)
	}
}

func TestCollectEnvWinsAndExpiredIsDegraded(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t.Setenv("THERACHAT_TEST_TOKEN", signed(t, now.Add(-time.Minute)))

	s := Collect(Options{
		StreamURL:      "ws://x",
		CredentialEnv:  "THERACHAT_TEST_TOKEN",
		CredentialFile: filepath.Join(t.TempDir(), "missing.jwt"),
		Now:            func() time.Time { return now },
	})

	if s.Credential.Source != "env" || !s.Credential.Expired {
		t.Fatalf("credential = %+v", s.Credential)
	}
	if s.Status != "degraded" || len(s.Problems) != 1 {
		t.Fatalf("status = %q, problems = %v", s.Status, s.Problems)
	}
}

func TestCollectMissingCredential(t *testing.T) {
	s := Collect(Options{
		CredentialFile: filepath.Join(t.TempDir(), "missing.jwt"),
	})
	if s.Credential.Exists {
		t.Fatal("credential should be missing")
	}
	if s.Status != "degraded" || len(s.Problems) != 2 {
		t.Fatalf("problems = %v, want missing stream URL and token", s.Problems)
	}
}

func TestOpaqueTokenIsNotJWT(t *testing.T) {
	t.Setenv("THERACHAT_TEST_TOKEN", "opaque-session-token")
	s := Collect(Options{StreamURL: "ws://x", CredentialEnv: "THERACHAT_TEST_TOKEN"})
	if !s.Credential.Exists || s.Credential.JWT || s.Credential.Expired {
		t.Fatalf("credential = %+v", s.Credential)
	}
	if s.Status != "healthy" {
		t.Fatalf("status = %q", s.Status)
	}
}
