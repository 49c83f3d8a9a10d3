package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// openAIProvider talks to any OpenAI-compatible chat completions endpoint.
type openAIProvider struct {
	cfg    Config
	client *http.Client
}

func newOpenAI(cfg Config) *openAIProvider {
	return &openAIProvider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (p *openAIProvider) Name() string { return ProviderOpenAI }

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       p.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}
	status, body, err := postJSON(ctx, p.client, p.Name(), p.cfg.BaseURL+"/v1/chat/completions", headers, reqBody)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if status >= http.StatusBadRequest {
		msg := ""
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message + " (" + parsed.Error.Type + ")"
		}
		return "", statusError(p.Name(), status, msg, body)
	}
	if decodeErr != nil {
		return "", &EnvelopeError{Provider: p.Name(), Body: Truncate(string(body), 500), Err: decodeErr}
	}
	if parsed.Error != nil {
		return "", &ServiceError{Provider: p.Name(), Message: parsed.Error.Message + " (" + parsed.Error.Type + ")"}
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
