package reporter

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLReporter implements the Reporter interface for YAML output
type YAMLReporter struct{}

// NewYAMLReporter creates a new YAML reporter
func NewYAMLReporter() Reporter {
	return &YAMLReporter{}
}

// GetFormat returns the format name
func (r *YAMLReporter) GetFormat() string {
	return "yaml"
}

// GetFileExtension returns the file extension
func (r *YAMLReporter) GetFileExtension() string {
	return ".yaml"
}

// GenerateReport generates a YAML report
func (r *YAMLReporter) GenerateReport(ctx context.Context, report *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReport writes the YAML report to writer
func (r *YAMLReporter) WriteReport(ctx context.Context, report *Report, writer io.Writer) error {
	data, err := r.GenerateReport(ctx, report)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}
	return nil
}
