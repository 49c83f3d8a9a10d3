package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReporterType represents the type of reporter
type ReporterType string

const (
	ReporterTypeTable ReporterType = "table"
	ReporterTypeJSON  ReporterType = "json"
	ReporterTypeYAML  ReporterType = "yaml"
	ReporterTypeSARIF ReporterType = "sarif"
)

// Factory implements the ReporterFactory interface
type Factory struct{}

// NewFactory creates a new reporter factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateReporter creates a reporter based on the specified type
func (f *Factory) CreateReporter(format string) (Reporter, error) {
	return f.CreateReporterWithOptions(format, false, false)
}

// CreateReporterWithOptions creates a reporter with specific options
func (f *Factory) CreateReporterWithOptions(format string, noColor, verbose bool) (Reporter, error) {
	reporterType, err := ParseReporterType(format)
	if err != nil {
		return nil, err
	}

	switch reporterType {
	case ReporterTypeTable:
		return NewTableReporter(noColor, verbose), nil
	case ReporterTypeJSON:
		return NewJSONReporter(), nil
	case ReporterTypeYAML:
		return NewYAMLReporter(), nil
	case ReporterTypeSARIF:
		return NewSARIFReporter(), nil
	default:
		return nil, fmt.Errorf("unsupported reporter type: %s", reporterType)
	}
}

// GetSupportedFormats returns a list of supported reporter formats
func (f *Factory) GetSupportedFormats() []string {
	return []string{
		string(ReporterTypeTable),
		string(ReporterTypeJSON),
		string(ReporterTypeYAML),
		string(ReporterTypeSARIF),
	}
}

// ParseReporterType parses a string into a ReporterType
func ParseReporterType(s string) (ReporterType, error) {
	switch strings.ToLower(s) {
	case "table", "console", "":
		return ReporterTypeTable, nil
	case "json":
		return ReporterTypeJSON, nil
	case "yaml", "yml":
		return ReporterTypeYAML, nil
	case "sarif":
		return ReporterTypeSARIF, nil
	default:
		return "", fmt.Errorf("unsupported reporter type: %s", s)
	}
}

// ValidateReportOptions validates the report options
func ValidateReportOptions(options *ReportOptions) error {
	if options == nil {
		return fmt.Errorf("report options cannot be nil")
	}
	if _, err := ParseReporterType(options.Format); err != nil {
		return err
	}

	if options.OutputFile != "" {
		dir := filepath.Dir(options.OutputFile)
		if dir != "" && dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

// GetRecommendedFileExtension returns the recommended file extension for a reporter type
func GetRecommendedFileExtension(reporterType ReporterType) string {
	switch reporterType {
	case ReporterTypeJSON:
		return ".json"
	case ReporterTypeYAML:
		return ".yaml"
	case ReporterTypeSARIF:
		return ".sarif"
	default:
		return ".txt"
	}
}

// SuggestOutputFileName suggests an output filename based on the reporter type and repository
func SuggestOutputFileName(reporterType ReporterType, repository string) string {
	base := "gha-optimizer-report"
	if repository != "" {
		sanitized := strings.NewReplacer("/", "-", ":", "-", " ", "-").Replace(repository)
		base = fmt.Sprintf("gha-optimizer-%s", sanitized)
	}

	return base + GetRecommendedFileExtension(reporterType)
}
