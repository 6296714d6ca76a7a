package config

import "time"

const (
	defaultStreamURL      = "ws://127.0.0.1:8000"
	defaultAPIURL         = "http://127.0.0.1:3000"
	defaultCredentialEnv  = "THERACHAT_TOKEN"
	defaultCredentialFile = "session.jwt"
	defaultReconnectDelay = 2 * time.Second
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			StreamURL: defaultStreamURL,
			APIURL:    defaultAPIURL,
		},
		Credential: CredentialConfig{
			Env:  defaultCredentialEnv,
			File: defaultCredentialFile,
		},
		Reconnect: ReconnectConfig{
			Delay: defaultReconnectDelay,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  false,
		File:    "logs/therachat.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Server.StreamURL == "" {
		c.Server.StreamURL = defaultStreamURL
	}
	if c.Server.APIURL == "" {
		c.Server.APIURL = defaultAPIURL
	}
	if c.Credential.Env == "" {
		c.Credential.Env = defaultCredentialEnv
	}
	if c.Credential.File == "" {
		c.Credential.File = defaultCredentialFile
	}
	if c.Reconnect.Delay <= 0 {
		c.Reconnect.Delay = defaultReconnectDelay
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.File = def.File
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
