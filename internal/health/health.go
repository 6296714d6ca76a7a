// Package health builds the diagnostic snapshot printed by `therachat health`.
package health

import "time"

// Options selects what Collect inspects.
type Options struct {
	ConfigPath     string
	LogFile        string
	StreamURL      string
	APIURL         string
	CredentialEnv  string
	CredentialFile string
	Readonly       bool
	Now            func() time.Time
}

func (o Options) normalize() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the health report.
type Snapshot struct {
	Status     string          `yaml:"status"`
	Problems   []string        `yaml:"problems,omitempty"`
	Config     *ConfigInfo     `yaml:"config,omitempty"`
	Endpoints  EndpointsInfo   `yaml:"endpoints"`
	Credential *CredentialInfo `yaml:"credential,omitempty"`
	Goroutines int             `yaml:"goroutines"`
	Memory     MemoryInfo      `yaml:"memory"`
	Runtime    RuntimeInfo     `yaml:"runtime"`
	Timestamp  string          `yaml:"timestamp"`
}

type ConfigInfo struct {
	Path     string `yaml:"path"`
	Exists   bool   `yaml:"exists"`
	LogFile  string `yaml:"logFile,omitempty"`
	Readonly bool   `yaml:"readonly,omitempty"`
}

type EndpointsInfo struct {
	Stream string `yaml:"stream"`
	API    string `yaml:"api,omitempty"`
}

// CredentialInfo describes the credential without revealing it.
type CredentialInfo struct {
	Source        string `yaml:"source,omitempty"` // env or file
	Env           string `yaml:"env,omitempty"`
	Path          string `yaml:"path,omitempty"`
	Exists        bool   `yaml:"exists"`
	FileSizeBytes int64  `yaml:"fileSizeBytes,omitempty"`
	UpdatedAt     string `yaml:"updatedAt,omitempty"`
	JWT           bool   `yaml:"jwt"`
	Subject       string `yaml:"subject,omitempty"`
	ExpiresAt     string `yaml:"expiresAt,omitempty"`
	Expired       bool   `yaml:"expired"`
	ParseError    string `yaml:"parseError,omitempty"`
}

type MemoryInfo struct {
	AllocMB      float64 `yaml:"allocMB"`
	TotalAllocMB float64 `yaml:"totalAllocMB"`
	SysMB        float64 `yaml:"sysMB"`
	NumGC        uint32  `yaml:"numGC"`
}

type RuntimeInfo struct {
	Version string `yaml:"version"`
	OS      string `yaml:"os"`
	Arch    string `yaml:"arch"`
	CPUs    int    `yaml:"cpus"`
}
