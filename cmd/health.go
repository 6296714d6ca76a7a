package cmd

import (
	"fmt"

	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/internal/health"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Print a diagnostic report",
	Long:    `Report the config file, endpoints, credential state and runtime as YAML. The token itself is never printed.`,
	GroupID: "internal",
	RunE:    runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	configPath, _ := config.ConfigPath()

	snap := health.Collect(health.Options{
		ConfigPath:     configPath,
		LogFile:        cfg.Logging.File,
		StreamURL:      cfg.Server.StreamURL,
		APIURL:         cfg.Server.APIURL,
		CredentialEnv:  cfg.Credential.Env,
		CredentialFile: cfg.CredentialFilePath(),
		Readonly:       cfg.Chat.Readonly,
	})

	out, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
