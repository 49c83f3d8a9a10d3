// Package workflow captures GitHub Actions workflow sources and the usage
// statistics that go with them.
package workflow

import (
	"fmt"
	"sort"
)

// Source is one workflow file. Ordinal is 1-based in collection order.
type Source struct {
	Path    string
	Content string
	Ordinal int
}

// ID is the short identifier used in prompts, e.g. "WF01".
func (s Source) ID() string {
	return formatID(s.Ordinal)
}

func formatID(ordinal int) string {
	return fmt.Sprintf("WF%02d", ordinal)
}

// UsageStatistics describes how often the repository's workflows run.
type UsageStatistics struct {
	RunCount   int    `json:"run_count" yaml:"run_count"`
	WindowDays int    `json:"observation_window_days" yaml:"observation_window_days"`
	Repository string `json:"repository" yaml:"repository"`
	Language   string `json:"language" yaml:"language"`
}

// RunsPerWeek is the observed run frequency, or 0 when there is no window.
func (u UsageStatistics) RunsPerWeek() float64 {
	if u.WindowDays <= 0 {
		return 0
	}
	return float64(u.RunCount) * 7 / float64(u.WindowDays)
}

// NewSources builds sources from a path → content mapping, ordered by path.
func NewSources(files map[string]string) []Source {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	sources := make([]Source, 0, len(paths))
	for i, p := range paths {
		sources = append(sources, Source{Path: p, Content: files[p], Ordinal: i + 1})
	}
	return sources
}

// Renumber reassigns ordinals 1..N in slice order.
func Renumber(sources []Source) []Source {
	out := make([]Source, len(sources))
	for i, s := range sources {
		s.Ordinal = i + 1
		out[i] = s
	}
	return out
}
