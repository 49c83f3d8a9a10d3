package recommendations

import (
	"log/slog"
	"path"
	"strings"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// AdjustmentNote is appended to the description of recommendations whose
// savings were replaced by the computed value.
const AdjustmentNote = " (Cost calculation adjusted based on usage patterns)"

// Defaults applied to missing suggestion fields.
const (
	DefaultTitle      = "Unknown Optimization"
	DefaultCategory   = "unknown"
	DefaultPriority   = "medium"
	DefaultWorkflow   = "unknown"
	DefaultJob        = "unknown"
	DefaultConfidence = 0.5
)

// Normalizer turns raw suggestions into vetted recommendations.
type Normalizer struct {
	Model cost.Model
	// Inspections supplies the runner class of a workflow job when the
	// suggestion does not name one.
	Inspections map[string]workflow.Inspection
	Logger      *slog.Logger
}

// Normalize applies Normalizer{} with the default cost model.
func Normalize(raw []RawSuggestion, stats workflow.UsageStatistics) ([]Recommendation, Totals, ValidationStats) {
	return Normalizer{Model: cost.DefaultModel}.Normalize(raw, stats)
}

// Normalize fills defaults and validates every suggestion's claimed savings.
// Implausible savings are replaced by the expected value and annotated.
func (n Normalizer) Normalize(raw []RawSuggestion, stats workflow.UsageStatistics) ([]Recommendation, Totals, ValidationStats) {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	model := n.Model
	if model.Tolerance <= 0 {
		model = cost.DefaultModel
	}

	runsPerWeek := stats.RunsPerWeek()
	log.Info("Cost validation starting", "recommendations", len(raw))
	if runsPerWeek > 0 {
		log.Debug("Using actual usage data", "runs_per_week", runsPerWeek)
	} else {
		log.Debug("Using conservative default for validation", "runs_per_week", cost.DefaultRunsPerWeek)
	}

	var vs ValidationStats
	recs := make([]Recommendation, 0, len(raw))
	for _, s := range raw {
		rec := n.fill(s)

		outcome := model.Validate(rec.ImpactTimeMinutes, rec.MonthlyCostSavings, runsPerWeek, rec.RunnerClass)
		rec.CostValidation = outcome
		vs.Total++
		if outcome.IsReasonable {
			vs.Passed++
			log.Debug("Cost calculation validated", "title", rec.Title, "monthly_cost_savings", rec.MonthlyCostSavings)
		} else {
			vs.Adjusted++
			log.Warn("Cost calculation adjusted", "title", rec.Title, "detail", outcome.Summary)
			rec.MonthlyCostSavings = outcome.ExpectedSavings
			rec.Description = Annotate(rec.Description)
		}

		if rec.LineNumber == "" {
			log.Warn("AI did not provide line number", "title", rec.Title, "workflow_file", rec.WorkflowFile)
		}
		recs = append(recs, rec)
	}

	log.Info("Cost validation complete", "total", vs.Total, "passed", vs.Passed, "adjusted", vs.Adjusted)
	return recs, ComputeTotals(recs), vs
}

// Annotate appends AdjustmentNote once.
func Annotate(description string) string {
	note := strings.TrimSpace(AdjustmentNote)
	if strings.Contains(description, note) {
		return description
	}
	if strings.TrimSpace(description) == "" {
		return note
	}
	return description + AdjustmentNote
}

func (n Normalizer) fill(s RawSuggestion) Recommendation {
	rec := Recommendation{
		Title:              nonEmpty(s, DefaultTitle, "title"),
		Category:           nonEmpty(s, DefaultCategory, "category", "type"),
		Priority:           strings.ToLower(nonEmpty(s, DefaultPriority, "priority")),
		WorkflowFile:       nonEmpty(s, DefaultWorkflow, "workflow_file", "workflow"),
		JobName:            nonEmpty(s, DefaultJob, "job_name", "job"),
		LineNumber:         s.StringOr("", "line_number", "line"),
		Description:        s.StringOr("", "description"),
		ImpactTimeMinutes:  nonNegative(s.FloatOr(0, "impact_time_minutes")),
		MonthlyCostSavings: nonNegative(s.FloatOr(0, "monthly_cost_savings")),
		ConfidenceScore:    clamp01(s.FloatOr(DefaultConfidence, "confidence_score", "confidence")),
		Implementation:     s.StringOr("", "implementation"),
		CodeExample:        s.StringOr("", "code_example", "code_sample"),
	}

	if runner, ok := s.String("runner_class", "runner", "runs_on"); ok && runner != "" {
		rec.RunnerClass = cost.ResolveRunnerClass(runner)
	} else {
		rec.RunnerClass = n.detectedRunner(rec.WorkflowFile, rec.JobName)
	}
	return rec
}

func (n Normalizer) detectedRunner(workflowFile, job string) string {
	if insp, ok := n.Inspections[workflowFile]; ok {
		return insp.RunnerClass(job)
	}
	for p, insp := range n.Inspections {
		if path.Base(p) == path.Base(workflowFile) {
			return insp.RunnerClass(job)
		}
	}
	return cost.DefaultRunnerClass
}

// nonEmpty is StringOr that also treats blank values as missing.
func nonEmpty(s RawSuggestion, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := s.String(k); ok && v != "" {
			return v
		}
	}
	return fallback
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
