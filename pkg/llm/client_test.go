package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, provider, url string) *Client {
	t.Helper()
	c, err := New(Config{Provider: provider, APIKey: "test-key", BaseURL: url}, WithLogger(quietLogger()), WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c
}

func TestSubmit_AnthropicSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != 4000 || req.Temperature != 0.3 || req.Model != "claude-3-sonnet-20240229" {
			t.Errorf("unexpected request parameters: %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "prompt" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"type":"message","content":[{"type":"text","text":"  [{\"title\":\"x\"}]  "}]}`))
	}))
	defer ts.Close()

	text, err := newTestClient(t, ProviderAnthropic, ts.URL).Submit(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if text != `[{"title":"x"}]` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestSubmit_RetriesTransientFailures(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
		case 2:
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
		default:
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"[]"}]}`))
		}
	}))
	defer ts.Close()

	text, err := newTestClient(t, ProviderAnthropic, ts.URL).Submit(context.Background(), "p")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if text != "[]" || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d calls", text, calls)
	}
}

func TestSubmit_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(529)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ProviderAnthropic, ts.URL).Submit(context.Background(), "p")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != 529 || svcErr.Message != "overloaded" {
		t.Fatalf("unexpected service error: %+v", svcErr)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSubmit_EnvelopeErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ProviderAnthropic, ts.URL).Submit(context.Background(), "p")
	var envErr *EnvelopeError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected EnvelopeError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("envelope errors must not be retried, got %d calls", got)
	}
}

func TestSubmit_EmptyContentIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer ts.Close()

	text, err := newTestClient(t, ProviderAnthropic, ts.URL).Submit(context.Background(), "p")
	if err != nil || text != "" {
		t.Fatalf("expected empty text and no error, got %q, %v", text, err)
	}
}

func TestSubmit_CanceledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := New(Config{Provider: ProviderAnthropic, APIKey: "k", BaseURL: ts.URL}, WithLogger(quietLogger()), WithRetry(3, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = c.Submit(ctx, "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("backoff did not honour cancellation")
	}
}

func TestSubmit_OpenAI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected request %s %v", r.URL.Path, r.Header)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[]"}}]}`))
	}))
	defer ts.Close()

	text, err := newTestClient(t, ProviderOpenAI, ts.URL).Submit(context.Background(), "p")
	if err != nil || text != "[]" {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
}

func TestSubmit_Ollama(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.URL.Path != "/api/generate" || req.Stream || req.Model != "llama3.1:8b" {
			t.Errorf("unexpected request %s %+v", r.URL.Path, req)
		}
		_, _ = w.Write([]byte(`{"response":"[{\"title\":\"t\"}]"}`))
	}))
	defer ts.Close()

	c, err := New(Config{Provider: ProviderOllama, BaseURL: ts.URL}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("ollama must not require a key: %v", err)
	}
	text, err := c.Submit(context.Background(), "p")
	if err != nil || text != `[{"title":"t"}]` {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	if _, err := New(Config{Provider: ProviderAnthropic}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := New(Config{Provider: ProviderOpenAI}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := New(Config{Provider: "bard", APIKey: "k"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}
