package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/therachat/config"
	"github.com/linanwx/therachat/credential"
)

var onboardCmd = &cobra.Command{
	Use:     "onboard",
	Short:   "Configure the server address and session token",
	Long:    `Create the therachat configuration directory, config file and token file.`,
	GroupID: "internal",
	RunE:    runOnboard,
}

var onboardForce bool

func init() {
	onboardCmd.Flags().BoolVar(&onboardForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil && !onboardForce {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or run 'therachat onboard --force'.")
		return nil
	}

	cfg := config.DefaultConfig()
	var (
		streamURL = cfg.Server.StreamURL
		apiURL    = cfg.Server.APIURL
		token     string
		readonly  bool
	)

	// Step 1: server
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Websocket server").
				Description("Base URL of the agent stream. '/ws' is appended when connecting.").
				Validate(validateURL("ws", "wss", "http", "https")).
				Value(&streamURL),
			huh.NewInput().
				Title("API server").
				Description("Base URL used to load history and delete the chat. Leave empty to disable both.").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateURL("http", "https")(s)
				}).
				Value(&apiURL),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: credential
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Session token").
				Description("Paste the session JWT from the web app. Leave empty to use $"+cfg.Credential.Env+" instead.").
				EchoMode(huh.EchoModePassword).
				Value(&token),
			huh.NewConfirm().
				Title("Open chats read-only by default?").
				Description("You can still pass --readonly per run.").
				Value(&readonly),
		),
	).Run()
	if err != nil {
		return err
	}

	// --- apply config ---

	cfg.Server.StreamURL = strings.TrimSpace(streamURL)
	cfg.Server.APIURL = strings.TrimSpace(apiURL)
	cfg.Chat.Readonly = readonly

	configDir, _ := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	tokenPath := cfg.CredentialFilePath()
	if strings.TrimSpace(token) != "" {
		if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
		if err := credential.WriteFile(tokenPath, token); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("therachat configured successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Stream:", cfg.Server.StreamURL)
	if strings.TrimSpace(token) != "" {
		info := credential.Inspect(strings.TrimSpace(token))
		fmt.Println("  Token:", tokenPath)
		if !info.ExpiresAt.IsZero() {
			fmt.Println("  Token expires:", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
	}
	fmt.Println()
	fmt.Println("Run 'therachat' to start chatting.")
	return nil
}

func validateURL(schemes ...string) func(string) error {
	return func(s string) error {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || u.Host == "" {
			return fmt.Errorf("enter a full URL such as %s://host:port", schemes[0])
		}
		for _, scheme := range schemes {
			if u.Scheme == scheme {
				return nil
			}
		}
		return fmt.Errorf("scheme must be one of %s", strings.Join(schemes, ", "))
	}
}
