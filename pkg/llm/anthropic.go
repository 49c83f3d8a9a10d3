package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

const anthropicVersion = "2023-06-01"

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type anthropicProvider struct {
	cfg    Config
	client *http.Client
}

func newAnthropic(cfg Config) *anthropicProvider {
	return &anthropicProvider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (p *anthropicProvider) Name() string { return ProviderAnthropic }

func (p *anthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
	status, body, err := postJSON(ctx, p.client, p.Name(), p.cfg.BaseURL+"/v1/messages", headers, reqBody)
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if status >= http.StatusBadRequest {
		msg := ""
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Type + ": " + parsed.Error.Message
		}
		return "", statusError(p.Name(), status, msg, body)
	}
	if decodeErr != nil {
		return "", &EnvelopeError{Provider: p.Name(), Body: Truncate(string(body), 500), Err: decodeErr}
	}
	if parsed.Error != nil {
		return "", &ServiceError{Provider: p.Name(), Message: parsed.Error.Type + ": " + parsed.Error.Message}
	}
	if len(parsed.Content) == 0 {
		return "", nil
	}
	for _, block := range parsed.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", &EnvelopeError{Provider: p.Name(), Body: Truncate(string(body), 500), Err: errors.New("no text content block")}
}
