package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		".github/workflows/ci.yml":      "name: CI\n",
		".github/workflows/release.yml": "name: Release\n",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}
		fmt.Fprint(w, `{"login":"octocat"}`)
	})
	mux.HandleFunc("/repos/acme/app", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"name":"app","full_name":"acme/app","language":"Go","default_branch":"main"}`)
	})
	mux.HandleFunc("/repos/acme/app/actions/workflows", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":3,"workflows":[
			{"id":1,"name":"Release","path":".github/workflows/release.yml"},
			{"id":2,"name":"CI","path":".github/workflows/ci.yml"},
			{"id":3,"name":"CodeQL","path":"dynamic/github-code-scanning/codeql"}]}`)
	})
	mux.HandleFunc("/repos/acme/app/contents/", func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/repos/acme/app/contents/")
		content, ok := files[p]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"encoding":"base64","content":%q}`, base64.StdEncoding.EncodeToString([]byte(content)))
	})
	mux.HandleFunc("/repos/acme/app/actions/runs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("created"); got != ">=2026-09-17" {
			t.Errorf("unexpected created filter %q", got)
		}
		fmt.Fprint(w, `{"total_count":300,"workflow_runs":[]}`)
	})
	return httptest.NewServer(mux)
}

func testClient(url string) *Client {
	c := NewClient(url, "tok").WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCollect(t *testing.T) {
	ts := newFakeGitHub(t)
	defer ts.Close()

	col, err := testClient(ts.URL).Collect(context.Background(), "acme", "app", 30, nil)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(col.Sources) != 2 {
		t.Fatalf("expected 2 workflow sources, got %d", len(col.Sources))
	}
	if col.Sources[0].Path != ".github/workflows/ci.yml" || col.Sources[0].Content != "name: CI\n" || col.Sources[0].Ordinal != 1 {
		t.Fatalf("unexpected first source: %+v", col.Sources[0])
	}
	if col.Stats.RunCount != 300 || col.Stats.WindowDays != 30 || col.Stats.Language != "Go" || col.Stats.Repository != "acme/app" {
		t.Fatalf("unexpected stats: %+v", col.Stats)
	}
	if col.Stats.RunsPerWeek() != 70 {
		t.Fatalf("expected 70 runs/week, got %v", col.Stats.RunsPerWeek())
	}
}

func TestCollectSelectedWorkflows(t *testing.T) {
	ts := newFakeGitHub(t)
	defer ts.Close()

	col, err := testClient(ts.URL).Collect(context.Background(), "acme", "app", 30, []string{"release.yml"})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(col.Sources) != 1 || col.Sources[0].Path != ".github/workflows/release.yml" {
		t.Fatalf("expected only release.yml, got %+v", col.Sources)
	}

	_, err = testClient(ts.URL).Collect(context.Background(), "acme", "app", 30, []string{"deploy.yml"})
	if !errors.Is(err, ErrWorkflowNotFound) || !strings.Contains(err.Error(), "ci.yml") {
		t.Fatalf("expected ErrWorkflowNotFound listing available workflows, got %v", err)
	}
}

func TestAPIErrors(t *testing.T) {
	ts := newFakeGitHub(t)
	defer ts.Close()

	_, err := NewClient(ts.URL, "wrong").GetRepository(context.Background(), "acme", "app")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}

	_, err = testClient(ts.URL).ListWorkflows(context.Background(), "acme", "missing")
	if err == nil || !strings.Contains(err.Error(), "repository acme/missing not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	ts := newFakeGitHub(t)
	defer ts.Close()

	user, err := testClient(ts.URL).CurrentUser(context.Background())
	if err != nil || user.Login != "octocat" {
		t.Fatalf("expected octocat, got %+v (%v)", user, err)
	}

	_, err = NewClient(ts.URL, "wrong").CurrentUser(context.Background())
	if err == nil || !strings.Contains(err.Error(), "API error 401") {
		t.Fatalf("expected 401 API error, got %v", err)
	}
}

func TestParseRepository(t *testing.T) {
	tests := map[string][2]string{
		"acme/app":                        {"acme", "app"},
		"https://github.com/acme/app.git": {"acme", "app"},
		"github.com/acme/app/":            {"acme", "app"},
	}
	for in, want := range tests {
		owner, repo, err := ParseRepository(in)
		if err != nil || owner != want[0] || repo != want[1] {
			t.Errorf("ParseRepository(%q) = %q, %q, %v", in, owner, repo, err)
		}
	}
	for _, bad := range []string{"", "acme", "a/b/c", "/app"} {
		if _, _, err := ParseRepository(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
