package recommendations

import (
	"time"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
)

// Output is the result of one analysis run.
type Output struct {
	RunID           string           `json:"run_id" yaml:"run_id"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	Totals          Totals           `json:"totals" yaml:"totals"`
	Stats           ValidationStats  `json:"validation" yaml:"validation"`
	// DocsSource is the provenance of the guidance document used.
	DocsSource  string        `json:"docs_source" yaml:"docs_source"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
}

// Recommendation is a vetted optimization suggestion.
type Recommendation struct {
	Title              string       `json:"title" yaml:"title"`
	Category           string       `json:"type" yaml:"type"`
	Priority           string       `json:"priority" yaml:"priority"`
	WorkflowFile       string       `json:"workflow_file" yaml:"workflow_file"`
	JobName            string       `json:"job_name" yaml:"job_name"`
	LineNumber         string       `json:"line_number" yaml:"line_number"`
	Description        string       `json:"description" yaml:"description"`
	ImpactTimeMinutes  float64      `json:"impact_time_minutes" yaml:"impact_time_minutes"`
	MonthlyCostSavings float64      `json:"monthly_cost_savings" yaml:"monthly_cost_savings"`
	ConfidenceScore    float64      `json:"confidence_score" yaml:"confidence_score"`
	Implementation     string       `json:"implementation" yaml:"implementation"`
	CodeExample        string       `json:"code_example" yaml:"code_example"`
	RunnerClass        string       `json:"runner_class" yaml:"runner_class"`
	CostValidation     cost.Outcome `json:"cost_validation" yaml:"cost_validation"`
}

// Totals aggregates the emitted recommendations.
type Totals struct {
	MonthlySavings float64 `json:"total_monthly_savings" yaml:"total_monthly_savings"`
	TimeMinutes    float64 `json:"total_time_minutes" yaml:"total_time_minutes"`
}

// ValidationStats counts cost validation results.
type ValidationStats struct {
	Total    int `json:"total" yaml:"total"`
	Passed   int `json:"passed" yaml:"passed"`
	Adjusted int `json:"adjusted" yaml:"adjusted"`
}

// ComputeTotals sums time and savings across recs.
func ComputeTotals(recs []Recommendation) Totals {
	var t Totals
	for _, r := range recs {
		t.MonthlySavings += r.MonthlyCostSavings
		t.TimeMinutes += r.ImpactTimeMinutes
	}
	return t
}
