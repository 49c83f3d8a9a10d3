// Package llm submits prompts to a reasoning service (Anthropic, OpenAI or
// Ollama) with bounded retries.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BohdanBykov/gha-optimizer/pkg/version"
)

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.3
)

// Provider performs a single completion request.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Client wraps a Provider with the retry policy.
type Client struct {
	provider    Provider
	model       string
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry overrides the number of attempts and the first backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

// New builds the provider named in cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = withDefaults(cfg)

	var p Provider
	switch cfg.Provider {
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or ai.api_key", ErrMissingCredential)
		}
		p = newAnthropic(cfg)
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY or ai.api_key", ErrMissingCredential)
		}
		p = newOpenAI(cfg)
	case ProviderOllama:
		p = newOllama(cfg)
	default:
		return nil, fmt.Errorf("%w: %q (supported: anthropic, openai, ollama)", ErrUnsupportedProvider, cfg.Provider)
	}

	c := NewWithProvider(p, opts...)
	c.model = cfg.Model
	c.logger.Info("Initialized AI client", "provider", p.Name(), "model", cfg.Model)
	return c, nil
}

// NewWithProvider wraps an existing provider.
func NewWithProvider(p Provider, opts ...Option) *Client {
	c := &Client{
		provider:    p,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Submit sends prompt and returns the raw completion text. Failures other than
// an undecodable envelope are retried with exponential backoff. An empty
// string is a valid result.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	name := c.provider.Name()
	c.logger.Debug("Calling AI API", "provider", name, "model", c.model, "prompt_chars", len(prompt))

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		c.logger.Debug("Making AI API request", "attempt", attempt+1, "max_attempts", c.maxAttempts)
		text, err := c.provider.Complete(ctx, prompt)
		if err == nil {
			text = strings.TrimSpace(text)
			c.logger.Debug("AI response received", "chars", len(text), "preview", Truncate(text, 500))
			if text == "" {
				c.logger.Warn("AI service returned empty response", "provider", name)
			}
			return text, nil
		}

		var envErr *EnvelopeError
		if errors.As(err, &envErr) {
			c.logger.Error("Failed to parse AI provider response", "provider", name, "error", err)
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s request canceled: %w", name, ctxErr)
		}

		lastErr = err
		if attempt == c.maxAttempts-1 {
			break
		}
		delay := c.baseDelay * time.Duration(1<<attempt)
		c.logger.Warn("AI API error, retrying", "attempt", attempt+1, "error", err, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%s request canceled: %w", name, ctx.Err())
		}
	}

	c.logger.Error("AI API error after retries", "provider", name, "attempts", c.maxAttempts, "error", lastErr)
	var svcErr *ServiceError
	if errors.As(lastErr, &svcErr) {
		return "", lastErr
	}
	return "", &ServiceError{Provider: name, Err: lastErr}
}

func withDefaults(cfg Config) Config {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL(cfg.Provider)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOllama:
		return "llama3.1:8b"
	default:
		return "claude-3-sonnet-20240229"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "https://api.openai.com"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return "https://api.anthropic.com"
	}
}

// postJSON sends body and returns the status and raw response body. Transport
// failures are returned as *ServiceError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body interface{}) (int, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal %s request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &ServiceError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &ServiceError{Provider: provider, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return resp.StatusCode, data, nil
}

func statusError(provider string, status int, message string, body []byte) error {
	if message == "" {
		message = Truncate(strings.TrimSpace(string(body)), 500)
	}
	return &ServiceError{Provider: provider, StatusCode: status, Message: message}
}
