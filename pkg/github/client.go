// Package github collects workflow files and run statistics from the GitHub
// REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/BohdanBykov/gha-optimizer/pkg/version"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// ErrWorkflowNotFound is returned when a requested workflow file does not exist.
var ErrWorkflowNotFound = errors.New("requested workflow not found")

// APIError is returned for responses with status >= 400.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Client represents a GitHub API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a new GitHub client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		token:  token,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// WithLogger sets the client logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// WorkflowInfo is an entry of the workflows listing.
type WorkflowInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	State string `json:"state"`
}

// Repository holds the repository metadata used in reports.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`
	Size          int    `json:"size"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
}

// Collection is everything gathered for one analysis.
type Collection struct {
	Repository Repository
	Sources    []workflow.Source
	Stats      workflow.UsageStatistics
}

// User is the authenticated account.
type User struct {
	Login string `json:"login"`
}

// CurrentUser verifies the token by fetching the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/user", nil, &u); err != nil {
		return nil, fmt.Errorf("GitHub API connection test failed: %w", err)
	}
	return &u, nil
}

// ListWorkflows lists the workflows registered in a repository.
func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]WorkflowInfo, error) {
	var resp struct {
		TotalCount int            `json:"total_count"`
		Workflows  []WorkflowInfo `json:"workflows"`
	}
	q := url.Values{"per_page": {"100"}}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/actions/workflows", owner, repo), q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", describe(err, owner, repo))
	}
	return resp.Workflows, nil
}

// GetFileContent returns the decoded contents of a repository file.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, filePath string) (string, error) {
	var resp struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, strings.TrimPrefix(filePath, "/"))
	if err := c.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get %s: %w", filePath, err)
	}
	if resp.Encoding != "" && resp.Encoding != "base64" {
		return resp.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return string(data), nil
}

// CountRuns returns the number of completed workflow runs created since since.
func (c *Client) CountRuns(ctx context.Context, owner, repo string, since time.Time) (int, error) {
	var resp struct {
		TotalCount int `json:"total_count"`
	}
	q := url.Values{
		"per_page": {"1"},
		"status":   {"completed"},
		"created":  {">=" + since.UTC().Format("2006-01-02")},
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/actions/runs", owner, repo), q, &resp); err != nil {
		return 0, fmt.Errorf("failed to count workflow runs: %w", describe(err, owner, repo))
	}
	return resp.TotalCount, nil
}

// GetRepository returns repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var r Repository
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), nil, &r); err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", describe(err, owner, repo))
	}
	return &r, nil
}

// Collect gathers workflow sources, run counts over the last days and
// repository metadata. When only is non-empty, just those workflow file names
// are fetched and each must exist.
func (c *Client) Collect(ctx context.Context, owner, repo string, days int, only []string) (*Collection, error) {
	c.logger.Info("Collecting workflow data", "repository", owner+"/"+repo, "days", days)

	meta, err := c.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	infos, err := c.ListWorkflows(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	paths, err := selectWorkflows(infos, only)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(paths))
	for _, p := range paths {
		content, err := c.GetFileContent(ctx, owner, repo, p)
		if err != nil {
			c.logger.Warn("Failed to fetch workflow content", "path", p, "error", err)
			continue
		}
		files[p] = content
	}

	runs := 0
	if days > 0 {
		runs, err = c.CountRuns(ctx, owner, repo, c.now().AddDate(0, 0, -days))
		if err != nil {
			return nil, err
		}
	}

	c.logger.Info("Successfully collected data", "workflows", len(files), "runs", runs)
	return &Collection{
		Repository: *meta,
		Sources:    workflow.NewSources(files),
		Stats: workflow.UsageStatistics{
			RunCount:   runs,
			WindowDays: days,
			Repository: meta.FullName,
			Language:   meta.Language,
		},
	}, nil
}

func selectWorkflows(infos []WorkflowInfo, only []string) ([]string, error) {
	var available []string
	for _, w := range infos {
		if strings.HasPrefix(w.Path, ".github/workflows/") {
			available = append(available, w.Path)
		}
	}
	sort.Strings(available)
	if len(only) == 0 {
		return available, nil
	}

	byName := make(map[string]string, len(available))
	for _, p := range available {
		byName[path.Base(p)] = p
	}
	var selected, missing []string
	for _, name := range only {
		if p, ok := byName[path.Base(name)]; ok {
			selected = append(selected, p)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(available))
		for _, p := range available {
			names = append(names, path.Base(p))
		}
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrWorkflowNotFound, strings.Join(missing, ", "), strings.Join(names, ", "))
	}
	sort.Strings(selected)
	return selected, nil
}

func describe(err error, owner, repo string) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("repository %s/%s not found: %w", owner, repo, err)
	case http.StatusForbidden:
		return fmt.Errorf("rate limit exceeded or insufficient permissions: %w", err)
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, query url.Values) (*http.Response, error) {
	u, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}

// ParseRepository splits "owner/repo" (optionally a github.com URL).
func ParseRepository(s string) (owner, repo string, err error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}
