package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is where GitHub looks for workflow files.
const DefaultDir = ".github/workflows"

// CollectOptions configures CollectLocal.
type CollectOptions struct {
	Recursive      bool
	Extensions     []string
	FollowSymlinks bool
	// Only restricts collection to these file names or paths. Empty means all.
	Only []string
}

// DefaultCollectOptions collects *.yml and *.yaml directly under the directory.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{Extensions: []string{".yml", ".yaml"}}
}

// CollectLocal reads workflow files from path (a directory or a single file)
// and returns them sorted by path with ordinals assigned.
func CollectLocal(path string, options CollectOptions) ([]Source, error) {
	files, err := collectFiles(path, options)
	if err != nil {
		return nil, fmt.Errorf("failed to collect workflows from %s: %w", path, err)
	}
	sort.Strings(files)

	var sources []Source
	for _, f := range files {
		if !selected(f, options.Only) {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow %s: %w", f, err)
		}
		sources = append(sources, Source{Path: filepath.ToSlash(f), Content: string(data)})
	}
	return Renumber(sources), nil
}

func collectFiles(path string, options CollectOptions) ([]string, error) {
	var files []string

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if hasValidExtension(path, options.Extensions) {
			return []string{path}, nil
		}
		return nil, nil
	}

	if options.Recursive {
		err = filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type()&os.ModeSymlink != 0 && !options.FollowSymlinks {
				return nil
			}
			if !d.IsDir() && hasValidExtension(filePath, options.Extensions) {
				files = append(files, filePath)
			}
			return nil
		})
		return files, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink != 0 && !options.FollowSymlinks {
			continue
		}
		if !entry.IsDir() {
			filePath := filepath.Join(path, entry.Name())
			if hasValidExtension(filePath, options.Extensions) {
				files = append(files, filePath)
			}
		}
	}
	return files, nil
}

func hasValidExtension(filePath string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, validExt := range extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// selected reports whether path matches one of the requested names, either
// by base name or by path suffix.
func selected(path string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	for _, want := range only {
		want = filepath.ToSlash(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if filepath.Base(slashed) == want || slashed == want || strings.HasSuffix(slashed, "/"+want) {
			return true
		}
	}
	return false
}
