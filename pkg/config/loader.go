package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BohdanBykov/gha-optimizer/pkg/llm"
)

// Formats accepted by Output.Format.
var Formats = []string{"table", "json", "yaml", "sarif"}

// Load reads the configuration at path on top of DefaultConfig. A missing
// file yields the defaults; an empty path resolves to GetConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshalling into the defaults keeps every field the file omits.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyCredentialFallbacks fills empty credentials from the conventional
// provider environment variables.
func (c *Config) ApplyCredentialFallbacks() {
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case llm.ProviderAnthropic:
			c.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case llm.ProviderOpenAI:
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}

// Validate checks value ranges. Credentials are checked when the reasoning
// client is built, since debug runs need none.
func (c *Config) Validate() error {
	var problems []string

	switch c.AI.Provider {
	case llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("ai.provider %q is not supported", c.AI.Provider))
	}
	if c.AI.MaxTokens < 0 {
		problems = append(problems, "ai.max_tokens must not be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		problems = append(problems, "ai.temperature must be between 0 and 2")
	}
	if c.AI.MaxAttempts < 0 {
		problems = append(problems, "ai.max_attempts must not be negative")
	}
	if c.Analysis.Tolerance < 0 {
		problems = append(problems, "analysis.tolerance must not be negative")
	}
	if c.Analysis.MinConfidence < 0 || c.Analysis.MinConfidence > 1 {
		problems = append(problems, "analysis.min_confidence must be between 0 and 1")
	}
	if c.GitHub.MaxHistoryDays < 0 {
		problems = append(problems, "github.max_history_days must not be negative")
	}
	if !validFormat(c.Output.Format) {
		problems = append(problems, fmt.Sprintf("output.format %q must be one of %s", c.Output.Format, strings.Join(Formats, ", ")))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}
