package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDir(dir)
	t.Cleanup(func() { SetConfigDir("") })
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withConfigDir(t)
	t.Setenv(envStreamURL, "")
	t.Setenv(envAPIURL, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.StreamURL != defaultStreamURL {
		t.Fatalf("StreamURL = %q, want %q", cfg.Server.StreamURL, defaultStreamURL)
	}
	if cfg.Reconnect.Delay != 2*time.Second {
		t.Fatalf("Reconnect.Delay = %v, want 2s", cfg.Reconnect.Delay)
	}
	if !cfg.HistoryEnabled() {
		t.Fatal("history should default to enabled")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := withConfigDir(t)
	t.Setenv(envStreamURL, "")
	t.Setenv(envAPIURL, "")

	cfg := DefaultConfig()
	cfg.Server.StreamURL = "wss://chat.example.com"
	cfg.Reconnect.Delay = 5 * time.Second
	cfg.Chat.Readonly = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, configFileName)); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Server.StreamURL != "wss://chat.example.com" || got.Reconnect.Delay != 5*time.Second || !got.Chat.Readonly {
		t.Fatalf("Load() = %+v, want saved values", got)
	}
}

func TestEnvOverridesStreamURL(t *testing.T) {
	withConfigDir(t)
	t.Setenv(envStreamURL, "ws://override:9000")
	t.Setenv(envAPIURL, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.StreamURL != "ws://override:9000" {
		t.Fatalf("StreamURL = %q, want env override", cfg.Server.StreamURL)
	}
}

func TestCredentialFilePathResolvesRelative(t *testing.T) {
	dir := withConfigDir(t)
	cfg := DefaultConfig()
	if got, want := cfg.CredentialFilePath(), filepath.Join(dir, defaultCredentialFile); got != want {
		t.Fatalf("CredentialFilePath() = %q, want %q", got, want)
	}
	cfg.Credential.File = "/abs/token"
	if got := cfg.CredentialFilePath(); got != "/abs/token" {
		t.Fatalf("CredentialFilePath() = %q, want absolute path kept", got)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := withConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on invalid yaml")
	}
}
