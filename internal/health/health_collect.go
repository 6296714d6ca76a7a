package health

import (
	"errors"
	"os"
	"runtime"
	"time"
)

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	opts = opts.normalize()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Endpoints: EndpointsInfo{
			Stream: opts.StreamURL,
			API:    opts.APIURL,
		},
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Timestamp: opts.Now().Format(time.RFC3339),
	}

	if opts.ConfigPath != "" {
		_, err := os.Stat(opts.ConfigPath)
		s.Config = &ConfigInfo{
			Path:     opts.ConfigPath,
			Exists:   !errors.Is(err, os.ErrNotExist),
			LogFile:  opts.LogFile,
			Readonly: opts.Readonly,
		}
	}

	if opts.StreamURL == "" {
		s.problem("no stream URL configured")
	}

	s.Credential = inspectCredential(opts.CredentialEnv, opts.CredentialFile, opts.Now())
	switch {
	case !s.Credential.Exists:
		s.problem("authentication token not found")
	case s.Credential.ParseError != "":
		s.problem("credential unreadable: " + s.Credential.ParseError)
	case s.Credential.Expired:
		s.problem("credential expired at " + s.Credential.ExpiresAt)
	}

	return s
}

func (s *Snapshot) problem(p string) {
	s.Status = "degraded"
	s.Problems = append(s.Problems, p)
}
