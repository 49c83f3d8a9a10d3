package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

type ollamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ollamaProvider calls a local Ollama server. No API key is needed.
type ollamaProvider struct {
	cfg    Config
	client *http.Client
}

func newOllama(cfg Config) *ollamaProvider {
	return &ollamaProvider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (p *ollamaProvider) Name() string { return ProviderOllama }

func (p *ollamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  p.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": p.cfg.Temperature,
			"num_predict": p.cfg.MaxTokens,
		},
	}
	status, body, err := postJSON(ctx, p.client, p.Name(), p.cfg.BaseURL+"/api/generate", nil, reqBody)
	if err != nil {
		return "", err
	}

	var or ollamaResponse
	decodeErr := json.Unmarshal(body, &or)
	if status >= http.StatusBadRequest {
		msg := ""
		if decodeErr == nil {
			msg = or.Error
		}
		return "", statusError(p.Name(), status, msg, body)
	}
	if decodeErr != nil {
		return "", &EnvelopeError{Provider: p.Name(), Body: Truncate(string(body), 500), Err: decodeErr}
	}
	if or.Error != "" {
		return "", &ServiceError{Provider: p.Name(), Message: or.Error}
	}
	return or.Response, nil
}
