// Package config handles configuration loading and saving.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linanwx/therachat/logger"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".therachat"
	configFileName = "config.yaml"

	// Env overrides. WEB_SOCKET_API matches the variable the web client used.
	envStreamURL = "WEB_SOCKET_API"
	envAPIURL    = "THERACHAT_API"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Credential CredentialConfig `json:"credential" yaml:"credential"`
	Reconnect  ReconnectConfig  `json:"reconnect,omitempty" yaml:"reconnect,omitempty"`
	Chat       ChatConfig       `json:"chat,omitempty" yaml:"chat,omitempty"`
	Logging    LoggingConfig    `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	StreamURL string `json:"streamURL" yaml:"streamURL"`                   // websocket base, "/ws" is appended
	APIURL    string `json:"apiURL,omitempty" yaml:"apiURL,omitempty"` // history and deletion API
}

// CredentialConfig lists where the session credential is read from, in order.
type CredentialConfig struct {
	Env  string `json:"env,omitempty" yaml:"env,omitempty"`   // defaults to THERACHAT_TOKEN
	File string `json:"file,omitempty" yaml:"file,omitempty"` // re-read on every connect
}

// ReconnectConfig controls the delay between a close and the next connect.
type ReconnectConfig struct {
	Delay time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"` // defaults to 2s
}

// ChatConfig contains chat view options.
type ChatConfig struct {
	Readonly bool  `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	History  *bool `json:"history,omitempty" yaml:"history,omitempty"` // load history on start, defaults to true
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the full path of config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads config.yaml, applies defaults and env overrides.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to config.yaml atomically.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(envStreamURL)); v != "" {
		c.Server.StreamURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPIURL)); v != "" {
		c.Server.APIURL = v
	}
}

// CredentialFilePath resolves the credential file against the config dir.
func (c *Config) CredentialFilePath() string {
	return c.resolve(c.Credential.File)
}

// HistoryEnabled reports whether history is loaded on start.
func (c *Config) HistoryEnabled() bool {
	return c.Chat.History == nil || *c.Chat.History
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := c.Logging.Enabled == nil || *c.Logging.Enabled
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}

func (c *Config) resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	dir, err := ConfigDir()
	if err != nil {
		return path
	}
	return filepath.Join(dir, path)
}
