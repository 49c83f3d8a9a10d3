package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BohdanBykov/gha-optimizer/pkg/recommendations"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	toolURI      = "https://github.com/BohdanBykov/gha-optimizer"
)

// SARIFReporter implements the Reporter interface for SARIF output
type SARIFReporter struct{}

// NewSARIFReporter creates a new SARIF reporter
func NewSARIFReporter() Reporter {
	return &SARIFReporter{}
}

// GenerateReport generates a SARIF report
func (r *SARIFReporter) GenerateReport(ctx context.Context, report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r.buildSARIFReport(report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SARIF report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport writes the SARIF report to writer
func (r *SARIFReporter) WriteReport(ctx context.Context, report *Report, writer io.Writer) error {
	data, err := r.GenerateReport(ctx, report)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	return nil
}

// SARIF format structures
type SARIFReport struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

type SARIFRun struct {
	Tool        SARIFTool              `json:"tool"`
	Results     []SARIFResult          `json:"results"`
	Invocations []SARIFInvocation      `json:"invocations,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationUri string      `json:"informationUri,omitempty"`
	Rules          []SARIFRule `json:"rules"`
}

type SARIFRule struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name,omitempty"`
	ShortDescription     SARIFMessage           `json:"shortDescription"`
	Properties           map[string]interface{} `json:"properties,omitempty"`
	DefaultConfiguration SARIFConfiguration     `json:"defaultConfiguration"`
}

type SARIFConfiguration struct {
	Level string `json:"level"`
}

type SARIFMessage struct {
	Text string `json:"text"`
}

type SARIFResult struct {
	RuleID     string                 `json:"ruleId"`
	RuleIndex  int                    `json:"ruleIndex"`
	Level      string                 `json:"level"`
	Message    SARIFMessage           `json:"message"`
	Locations  []SARIFLocation        `json:"locations"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation  `json:"physicalLocation"`
	LogicalLocations []SARIFLogicalLocation `json:"logicalLocations,omitempty"`
}

type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           *SARIFRegion          `json:"region,omitempty"`
}

type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

type SARIFRegion struct {
	StartLine int `json:"startLine"`
}

type SARIFLogicalLocation struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

type SARIFInvocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	StartTimeUtc        string `json:"startTimeUtc,omitempty"`
}

// GetFormat returns the format name
func (r *SARIFReporter) GetFormat() string {
	return "sarif"
}

// GetFileExtension returns the file extension
func (r *SARIFReporter) GetFileExtension() string {
	return ".sarif"
}

// buildSARIFReport emits one rule per recommendation category.
func (r *SARIFReporter) buildSARIFReport(report *Report) *SARIFReport {
	categories := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range report.Recommendations {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}
	sort.Strings(categories)

	rules := make([]SARIFRule, 0, len(categories))
	ruleIndex := make(map[string]int, len(categories))
	for i, category := range categories {
		ruleIndex[category] = i
		rules = append(rules, SARIFRule{
			ID:               ruleID(category),
			Name:             category,
			ShortDescription: SARIFMessage{Text: fmt.Sprintf("GitHub Actions %s optimization", category)},
			DefaultConfiguration: SARIFConfiguration{
				Level: "note",
			},
			Properties: map[string]interface{}{
				"category": category,
			},
		})
	}

	results := make([]SARIFResult, 0, len(report.Recommendations))
	for _, rec := range report.Recommendations {
		results = append(results, SARIFResult{
			RuleID:    ruleID(rec.Category),
			RuleIndex: ruleIndex[rec.Category],
			Level:     r.priorityToSARIFLevel(rec.Priority),
			Message:   SARIFMessage{Text: r.message(rec)},
			Locations: []SARIFLocation{r.location(rec)},
			Properties: map[string]interface{}{
				"priority":             rec.Priority,
				"impact_time_minutes":  rec.ImpactTimeMinutes,
				"monthly_cost_savings": rec.MonthlyCostSavings,
				"confidence_score":     rec.ConfidenceScore,
				"runner_class":         rec.RunnerClass,
				"cost_validated":       rec.CostValidation.IsReasonable,
			},
		})
	}

	return &SARIFReport{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []SARIFRun{{
			Tool: SARIFTool{Driver: SARIFDriver{
				Name:           report.Metadata.Tool,
				Version:        report.Metadata.Version,
				InformationUri: toolURI,
				Rules:          rules,
			}},
			Results: results,
			Invocations: []SARIFInvocation{{
				ExecutionSuccessful: true,
				StartTimeUtc:        report.Metadata.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}},
			Properties: map[string]interface{}{
				"run_id":                report.Metadata.RunID,
				"repository":            report.Repository.Name,
				"total_monthly_savings": report.Totals.MonthlySavings,
				"total_time_minutes":    report.Totals.TimeMinutes,
			},
		}},
	}
}

func (r *SARIFReporter) location(rec recommendations.Recommendation) SARIFLocation {
	loc := SARIFLocation{
		PhysicalLocation: SARIFPhysicalLocation{
			ArtifactLocation: SARIFArtifactLocation{URI: rec.WorkflowFile},
		},
	}
	if line, err := strconv.Atoi(strings.TrimSpace(rec.LineNumber)); err == nil && line > 0 {
		loc.PhysicalLocation.Region = &SARIFRegion{StartLine: line}
	}
	if rec.JobName != "" {
		loc.LogicalLocations = []SARIFLogicalLocation{{Name: rec.JobName, Kind: "job"}}
	}
	return loc
}

func (r *SARIFReporter) message(rec recommendations.Recommendation) string {
	msg := fmt.Sprintf("%s: saves ~%.1f min per run, ~$%.2f/month", rec.Title, rec.ImpactTimeMinutes, rec.MonthlyCostSavings)
	if rec.Description != "" {
		msg += ". " + rec.Description
	}
	return msg
}

func (r *SARIFReporter) priorityToSARIFLevel(priority string) string {
	switch strings.ToLower(priority) {
	case "high":
		return "warning"
	default:
		return "note"
	}
}

func ruleID(category string) string {
	return "GHA-" + strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(category), " ", "-"))
}
