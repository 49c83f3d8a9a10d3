// Package docs resolves the optimization patterns document that guides the
// reasoning service. Resolution happens once per process: a remote copy for
// the running release is preferred (and only referenced by URL), then the copy
// embedded in the binary, then the copy in the development tree.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BohdanBykov/gha-optimizer/pkg/version"
)

const (
	// DefaultRemoteURL is the human-facing location of the patterns document
	// for a release. "{version}" is replaced with the tool version.
	DefaultRemoteURL = "https://github.com/BohdanBykov/gha-optimizer/blob/v{version}/docs/optimization-patterns.md"

	// DefaultPackagedPath is the document's path inside the packaged FS.
	DefaultPackagedPath = "docs/optimization-patterns.md"

	// DefaultLocalPath is the development tree copy, relative to the working directory.
	DefaultLocalPath = "internal/docs/optimization-patterns.md"

	// DefaultProbeTimeout bounds each remote existence check.
	DefaultProbeTimeout = 5 * time.Second
)

// ErrUnresolved is returned when no source yields a document.
var ErrUnresolved = errors.New("optimization patterns documentation unavailable")

// Provenance records where a Document came from.
type Provenance string

const (
	ProvenanceRemote   Provenance = "remote-reference"
	ProvenancePackaged Provenance = "packaged"
	ProvenanceLocal    Provenance = "local-fallback"
)

// Document is the resolved guidance. Remote documents carry no body; the
// prompt references URL instead.
type Document struct {
	Body            string
	Provenance      Provenance
	DeclaredVersion string
	URL             string
	// Debug is set when the local copy was forced for debugging.
	Debug bool
}

// Options configures a Resolver.
type Options struct {
	Version      string
	RemoteURL    string
	Packaged     fs.FS
	PackagedPath string
	LocalPath    string
	// ForceLocal skips the remote and packaged sources and requires the
	// development copy.
	ForceLocal   bool
	ProbeTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Resolver memoizes the first successful resolution. Concurrent callers of
// Resolve share a single in-flight resolution. Failures are not memoized.
type Resolver struct {
	opts  Options
	group singleflight.Group

	mu  sync.RWMutex
	doc *Document
}

// NewResolver fills unset options with defaults.
func NewResolver(opts Options) *Resolver {
	if opts.Version == "" {
		opts.Version = version.GetVersion()
	}
	if opts.RemoteURL == "" {
		opts.RemoteURL = DefaultRemoteURL
	}
	if opts.PackagedPath == "" {
		opts.PackagedPath = DefaultPackagedPath
	}
	if opts.LocalPath == "" {
		opts.LocalPath = DefaultLocalPath
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{opts: opts}
}

var (
	sharedMu sync.Mutex
	shared   *Resolver
)

// Shared returns the process-wide resolver, creating it from opts on first
// use. Options passed on later calls are ignored.
func Shared(opts Options) *Resolver {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewResolver(opts)
	}
	return shared
}

// ResetShared drops the process-wide resolver and its memoized document.
func ResetShared() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}

// URL returns the human-facing remote URL for the configured version.
func (r *Resolver) URL() string {
	return strings.ReplaceAll(r.opts.RemoteURL, "{version}", r.opts.Version)
}

// Resolve returns the memoized document, resolving it on first use.
func (r *Resolver) Resolve(ctx context.Context) (*Document, error) {
	r.mu.RLock()
	doc := r.doc
	r.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}

	// The shared resolution outlives any one caller; the probe carries its own
	// timeout. A canceled caller stops waiting without failing the others.
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan("patterns", func() (interface{}, error) {
		r.mu.RLock()
		cached := r.doc
		r.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		resolved, err := r.resolve(detached)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.doc = resolved
		r.mu.Unlock()
		return resolved, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.opts.Logger.Debug("Reused in-flight documentation resolution")
		}
		return res.Val.(*Document), nil
	}
}

func (r *Resolver) resolve(ctx context.Context) (*Document, error) {
	log := r.opts.Logger
	url := r.URL()

	if r.opts.ForceLocal {
		log.Info("Using local documentation for debugging", "path", r.opts.LocalPath)
		body, err := r.loadLocal()
		if err != nil {
			log.Error("Failed to load local development documentation", "error", err)
			return nil, fmt.Errorf("%w: local development documentation: %v", ErrUnresolved, err)
		}
		return r.newDocument(body, ProvenanceLocal, url, true), nil
	}

	if r.probeRemote(ctx, rawURL(url)) {
		log.Info("Using remote documentation reference", "url", url)
		return &Document{
			Provenance:      ProvenanceRemote,
			DeclaredVersion: r.opts.Version,
			URL:             url,
		}, nil
	}

	log.Warn("Remote documentation unavailable, using local fallback")
	body, packagedErr := r.loadPackaged()
	if packagedErr == nil {
		log.Info("Using packaged documentation")
		return r.newDocument(body, ProvenancePackaged, url, false), nil
	}
	log.Warn("Packaged documentation failed", "error", packagedErr)

	body, localErr := r.loadLocal()
	if localErr == nil {
		log.Info("Using local development documentation", "path", r.opts.LocalPath)
		return r.newDocument(body, ProvenanceLocal, url, false), nil
	}
	log.Error("All documentation sources failed", "packaged_error", packagedErr, "local_error", localErr)
	return nil, fmt.Errorf("%w: packaged: %v; local: %v", ErrUnresolved, packagedErr, localErr)
}

func (r *Resolver) newDocument(body string, provenance Provenance, url string, debug bool) *Document {
	declared := DeclaredVersion(body)
	if declared != r.opts.Version {
		r.opts.Logger.Warn("Documentation version mismatch, recommendations may be inconsistent",
			"tool_version", r.opts.Version, "doc_version", declared, "source", string(provenance))
	}
	return &Document{
		Body:            body,
		Provenance:      provenance,
		DeclaredVersion: declared,
		URL:             url,
		Debug:           debug,
	}
}

// probeRemote checks that url exists without downloading it: HEAD first,
// then a GET whose body is never read.
func (r *Resolver) probeRemote(ctx context.Context, url string) bool {
	log := r.opts.Logger
	log.Debug("Checking remote documentation availability", "url", url)

	headStatus, err := r.probe(ctx, http.MethodHead, url)
	if err != nil {
		log.Warn("Failed to verify remote documentation", "error", err)
		return false
	}
	if headStatus == http.StatusOK {
		return true
	}

	log.Debug("HEAD request rejected, trying GET", "status", headStatus)
	getStatus, err := r.probe(ctx, http.MethodGet, url)
	if err != nil {
		log.Warn("Failed to verify remote documentation", "error", err)
		return false
	}
	if getStatus == http.StatusOK {
		return true
	}
	log.Warn("Remote documentation not accessible", "head_status", headStatus, "get_status", getStatus)
	return false
}

func (r *Resolver) probe(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (r *Resolver) loadPackaged() (string, error) {
	if r.opts.Packaged == nil {
		return "", errors.New("no packaged documentation in this build")
	}
	data, err := fs.ReadFile(r.opts.Packaged, r.opts.PackagedPath)
	if err != nil {
		return "", fmt.Errorf("packaged documentation not found: %w", err)
	}
	return string(data), nil
}

func (r *Resolver) loadLocal() (string, error) {
	data, err := os.ReadFile(r.opts.LocalPath)
	if err != nil {
		return "", fmt.Errorf("development documentation not found at %s: %w", r.opts.LocalPath, err)
	}
	return string(data), nil
}

func rawURL(blobURL string) string {
	return strings.Replace(blobURL, "/blob/", "/raw/", 1)
}

var versionMarker = regexp.MustCompile(`\*\*Version:\*\*[ \t]*([^\s*]+)`)

// DeclaredVersion extracts the "**Version:** X" marker from a document body.
func DeclaredVersion(body string) string {
	m := versionMarker.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
