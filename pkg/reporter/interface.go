package reporter

import (
	"context"
	"io"
	"time"

	"github.com/BohdanBykov/gha-optimizer/pkg/recommendations"
	"github.com/BohdanBykov/gha-optimizer/pkg/version"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// Reporter defines the interface for rendering analysis reports
type Reporter interface {
	// GenerateReport renders the report
	GenerateReport(ctx context.Context, report *Report) ([]byte, error)

	// WriteReport writes the rendered report to writer
	WriteReport(ctx context.Context, report *Report, writer io.Writer) error

	// GetFormat returns the format name of this reporter
	GetFormat() string

	// GetFileExtension returns the recommended file extension
	GetFileExtension() string
}

// ReporterFactory creates reporters for different output formats
type ReporterFactory interface {
	CreateReporter(format string) (Reporter, error)
	GetSupportedFormats() []string
}

// ReportOptions defines options for report generation
type ReportOptions struct {
	// Format specifies the output format (table, json, yaml, sarif)
	Format string

	// OutputFile specifies the output file path
	OutputFile string

	// NoColor disables colored output for table format
	NoColor bool

	// Verbose includes implementation details and code samples in table output
	Verbose bool
}

// Report is the rendered view of one analysis run.
type Report struct {
	Metadata        Metadata                         `json:"metadata" yaml:"metadata"`
	Repository      Repository                       `json:"repository" yaml:"repository"`
	Totals          recommendations.Totals           `json:"totals" yaml:"totals"`
	Validation      recommendations.ValidationStats  `json:"validation" yaml:"validation"`
	Recommendations []recommendations.Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Metadata describes the run that produced a report.
type Metadata struct {
	Tool        string    `json:"tool" yaml:"tool"`
	Version     string    `json:"version" yaml:"version"`
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Duration    string    `json:"duration" yaml:"duration"`
	DocsSource  string    `json:"docs_source" yaml:"docs_source"`
	Provider    string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string    `json:"model,omitempty" yaml:"model,omitempty"`
}

// Repository summarizes the analyzed repository and its usage.
type Repository struct {
	Name        string  `json:"name" yaml:"name"`
	Language    string  `json:"language,omitempty" yaml:"language,omitempty"`
	Workflows   int     `json:"workflows" yaml:"workflows"`
	RunCount    int     `json:"run_count" yaml:"run_count"`
	WindowDays  int     `json:"window_days" yaml:"window_days"`
	RunsPerWeek float64 `json:"runs_per_week" yaml:"runs_per_week"`
}

// NewReport builds a Report from an analysis output.
func NewReport(out *recommendations.Output, stats workflow.UsageStatistics, workflows int) *Report {
	recs := out.Recommendations
	if recs == nil {
		recs = []recommendations.Recommendation{}
	}
	name := stats.Repository
	if name == "" {
		name = "Unknown"
	}
	return &Report{
		Metadata: Metadata{
			Tool:        "gha-optimizer",
			Version:     version.GetVersion(),
			RunID:       out.RunID,
			GeneratedAt: out.GeneratedAt,
			Duration:    out.Duration.Round(time.Millisecond).String(),
			DocsSource:  out.DocsSource,
		},
		Repository: Repository{
			Name:        name,
			Language:    stats.Language,
			Workflows:   workflows,
			RunCount:    stats.RunCount,
			WindowDays:  stats.WindowDays,
			RunsPerWeek: stats.RunsPerWeek(),
		},
		Totals:          out.Totals,
		Validation:      out.Stats,
		Recommendations: recs,
	}
}
