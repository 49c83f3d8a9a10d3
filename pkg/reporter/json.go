package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONReporter implements the Reporter interface for JSON output
type JSONReporter struct{}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter() Reporter {
	return &JSONReporter{}
}

// GenerateReport generates a JSON report
func (r *JSONReporter) GenerateReport(ctx context.Context, report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport writes the JSON report to writer
func (r *JSONReporter) WriteReport(ctx context.Context, report *Report, writer io.Writer) error {
	data, err := r.GenerateReport(ctx, report)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// GetFormat returns the format name
func (r *JSONReporter) GetFormat() string {
	return "json"
}

// GetFileExtension returns the file extension
func (r *JSONReporter) GetFileExtension() string {
	return ".json"
}
