// therachat is a terminal client for the TheraChat agent.
package main

import (
	"fmt"
	"os"

	"github.com/linanwx/therachat/cmd"
	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	configDir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), configDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	cmd.Execute()
}
