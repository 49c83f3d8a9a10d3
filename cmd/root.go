package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BohdanBykov/gha-optimizer/pkg/config"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gha-optimizer",
	Short: "GHA-Optimizer - AI-powered GitHub Actions workflow optimization",
	Long: `GHA-Optimizer analyzes GitHub Actions workflows with an AI reasoning service
and reports actionable optimization recommendations with validated time and cost
savings.

Every estimate returned by the AI is checked against a deterministic cost model
based on the repository's run frequency and runner pricing, and corrected when
it is implausible.

Examples:
  # Analyze a repository on GitHub
  gha-optimizer scan microsoft/vscode

  # Analyze local workflows with known usage
  gha-optimizer scan --workflows-dir .github/workflows --runs 300 --days 30

  # Check a savings claim by hand
  gha-optimizer cost --minutes 3 --claimed 31.19 --runs-per-week 70`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initializeLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Ensure logger is initialized before using it
		if logger == nil {
			initializeLogger()
		}
		logger.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gha-optimizer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml, sarif)")
	rootCmd.PersistentFlags().String("output-file", "", "output file path")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Bind flags to viper under their configuration file keys
	bindFlags := []struct {
		name string
		flag string
	}{
		{"output.verbose", "verbose"},
		{"logging.level", "log-level"},
		{"logging.format", "log-format"},
		{"output.format", "output"},
		{"output.file", "output-file"},
		{"output.no_color", "no-color"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.name, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			slog.Error("Failed to bind flag", "name", bf.name, "error", err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env file in the working directory feeds the environment lookups below.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Failed to load .env file:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in the home and working directories.
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".yaml"))
	}

	// Environment variables, e.g. GHA_OPTIMIZER_AI_PROVIDER for ai.provider
	viper.SetEnvPrefix("GHA_OPTIMIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then environment variables and flags bound in viper.
func loadConfig() (*config.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = cfgFile
	}
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrideString("github.token", &cfg.GitHub.Token)
	overrideString("github.api_url", &cfg.GitHub.APIURL)
	overrideInt("github.max_history_days", &cfg.GitHub.MaxHistoryDays)
	overrideString("ai.provider", &cfg.AI.Provider)
	overrideString("ai.model", &cfg.AI.Model)
	overrideString("ai.api_key", &cfg.AI.APIKey)
	overrideString("ai.base_url", &cfg.AI.BaseURL)
	overrideString("analysis.workflows_dir", &cfg.Analysis.WorkflowsDir)
	overrideString("analysis.filter", &cfg.Analysis.Filter)
	overrideFloat("analysis.min_confidence", &cfg.Analysis.MinConfidence)
	overrideFloat("analysis.tolerance", &cfg.Analysis.Tolerance)
	overrideBool("docs.force_local", &cfg.Docs.ForceLocal)
	overrideString("output.format", &cfg.Output.Format)
	overrideString("output.file", &cfg.Output.File)
	overrideBool("output.no_color", &cfg.Output.NoColor)
	overrideBool("output.verbose", &cfg.Output.Verbose)
	overrideString("logging.level", &cfg.Logging.Level)
	overrideString("logging.format", &cfg.Logging.Format)

	cfg.ApplyCredentialFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func overrideInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func overrideFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func overrideBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

// initializeLogger sets up the logger based on configuration
func initializeLogger() {
	// Parse log level
	levelStr := strings.ToLower(viper.GetString("logging.level"))
	var level slog.Level
	switch levelStr {
	case "trace", "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error", "fatal", "panic":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if viper.GetBool("output.verbose") {
		level = slog.LevelDebug
	}

	// Create handler based on format
	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	if viper.GetString("logging.format") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	// Create logger
	logger = slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)
}

// GetLogger returns the configured logger instance
func GetLogger() *slog.Logger {
	if logger == nil {
		initializeLogger()
	}
	return logger
}
