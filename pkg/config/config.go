package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
	"github.com/BohdanBykov/gha-optimizer/pkg/docs"
	"github.com/BohdanBykov/gha-optimizer/pkg/github"
	"github.com/BohdanBykov/gha-optimizer/pkg/llm"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// FileName is the configuration file looked up in the home and working directories.
const FileName = ".gha-optimizer.yaml"

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// GitHubConfig represents GitHub API configuration
type GitHubConfig struct {
	Token          string `yaml:"token" json:"-"`
	APIURL         string `yaml:"api_url" json:"api_url"`
	MaxHistoryDays int    `yaml:"max_history_days" json:"max_history_days"`
}

// AIConfig represents reasoning service configuration. An empty Model selects
// the provider's default model.
type AIConfig struct {
	Provider    string        `yaml:"provider" json:"provider"`
	Model       string        `yaml:"model" json:"model"`
	APIKey      string        `yaml:"api_key" json:"-"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
}

// AnalysisConfig represents recommendation analysis configuration
type AnalysisConfig struct {
	WorkflowsDir  string  `yaml:"workflows_dir" json:"workflows_dir"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	Filter        string  `yaml:"filter" json:"filter"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
}

// DocsConfig represents optimization patterns documentation configuration
type DocsConfig struct {
	RemoteURL    string        `yaml:"remote_url" json:"remote_url"`
	LocalPath    string        `yaml:"local_path" json:"local_path"`
	ForceLocal   bool          `yaml:"force_local" json:"force_local"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// Config represents the complete gha-optimizer configuration
type Config struct {
	GitHub   GitHubConfig   `yaml:"github" json:"github"`
	AI       AIConfig       `yaml:"ai" json:"ai"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Docs     DocsConfig     `yaml:"docs" json:"docs"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:         github.DefaultBaseURL,
			MaxHistoryDays: 30,
		},
		AI: AIConfig{
			Provider:    llm.ProviderAnthropic,
			Timeout:     llm.DefaultTimeout,
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
			MaxAttempts: llm.DefaultMaxAttempts,
		},
		Analysis: AnalysisConfig{
			WorkflowsDir: workflow.DefaultDir,
			Tolerance:    cost.DefaultTolerance,
		},
		Docs: DocsConfig{
			RemoteURL:    docs.DefaultRemoteURL,
			LocalPath:    docs.DefaultLocalPath,
			ProbeTimeout: docs.DefaultProbeTimeout,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetConfigPath returns the path to the user configuration file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, FileName), nil
}
