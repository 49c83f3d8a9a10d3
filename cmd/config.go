package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	pkgconfig "github.com/BohdanBykov/gha-optimizer/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long: `Configuration management commands for GHA-Optimizer.

Settings are resolved from defaults, the configuration file, GHA_OPTIMIZER_*
environment variables (e.g. GHA_OPTIMIZER_AI_PROVIDER) and flags, in that order.
ANTHROPIC_API_KEY, OPENAI_API_KEY and GITHUB_TOKEN are used when no credential
is configured. A .env file in the working directory is loaded first.

Examples:
  # Initialize a new configuration file
  gha-optimizer config init

  # Initialize with force overwrite
  gha-optimizer config init --force

  # Show the effective configuration
  gha-optimizer config show`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a ~/.gha-optimizer.yaml configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration (credentials are redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "force overwrite existing configuration file")
	configShowCmd.Flags().String("format", "yaml", "output format (yaml, json)")
}

func runConfigInit(cmd *cobra.Command) error {
	configPath := cfgFile
	if configPath == "" {
		defaultPath, err := pkgconfig.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	if _, err := os.Stat(configPath); err == nil {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("configuration file already exists at %s. Use --force to overwrite", configPath)
		}
	}

	if err := pkgconfig.Save(pkgconfig.DefaultConfig(), configPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created successfully at: %s\n", configPath)
	fmt.Fprintln(out, "\nSet ai.api_key or ANTHROPIC_API_KEY, then run 'gha-optimizer scan --help'.")
	return nil
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	redacted := *cfg
	redacted.AI.APIKey = redact(cfg.AI.APIKey)
	redacted.GitHub.Token = redact(cfg.GitHub.Token)

	format, _ := cmd.Flags().GetString("format")
	var data []byte
	switch format {
	case "json":
		// Credentials are excluded from JSON by their struct tags.
		data, err = json.MarshalIndent(redacted, "", "  ")
		data = append(data, '\n')
	default:
		data, err = yaml.Marshal(redacted)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
