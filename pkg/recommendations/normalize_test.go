package recommendations

import (
	"math"
	"strings"
	"testing"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

var busyRepo = workflow.UsageStatistics{RunCount: 300, WindowDays: 30, Repository: "acme/app"}

func TestNormalizeFillsDefaults(t *testing.T) {
	recs, totals, vs := Normalizer{Logger: quietLogger()}.Normalize([]RawSuggestion{{}}, busyRepo)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	r := recs[0]
	if r.Title != DefaultTitle || r.Category != DefaultCategory || r.Priority != DefaultPriority ||
		r.WorkflowFile != DefaultWorkflow || r.JobName != DefaultJob {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if r.LineNumber != "" || r.ConfidenceScore != DefaultConfidence || r.RunnerClass != cost.DefaultRunnerClass {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	// Zero minutes never validates, so the record is counted as adjusted.
	if vs.Total != 1 || vs.Adjusted != 1 || totals.MonthlySavings != 0 {
		t.Fatalf("unexpected stats %+v totals %+v", vs, totals)
	}
}

func TestNormalizeCoercesMistypedFields(t *testing.T) {
	raw := RawSuggestion{
		"title":                "Cache npm",
		"category":             "caching",
		"type":                 "performance",
		"priority":             "HIGH",
		"workflow":             ".github/workflows/ci.yml",
		"line_number":          47.0,
		"impact_time_minutes":  "3",
		"monthly_cost_savings": "$7.27",
		"confidence_score":     1.7,
	}
	recs, _, _ := Normalizer{Logger: quietLogger()}.Normalize([]RawSuggestion{raw}, busyRepo)
	r := recs[0]
	if r.Category != "caching" || r.Priority != "high" || r.WorkflowFile != ".github/workflows/ci.yml" {
		t.Fatalf("unexpected fields: %+v", r)
	}
	if r.LineNumber != "47" || r.ImpactTimeMinutes != 3 || r.ConfidenceScore != 1 {
		t.Fatalf("unexpected coercion: %+v", r)
	}
	if !r.CostValidation.IsReasonable {
		t.Fatalf("expected $7.27 to validate: %+v", r.CostValidation)
	}
}

func TestNormalizeScenarioRewritesOverclaim(t *testing.T) {
	raw := []RawSuggestion{{
		"title":                "Add Node.js Dependency Caching",
		"type":                 "caching",
		"description":          "Missing npm caching",
		"line_number":          "47",
		"impact_time_minutes":  3.0,
		"monthly_cost_savings": 31.19,
		"confidence_score":     0.9,
	}}
	recs, totals, vs := Normalize(raw, busyRepo)
	r := recs[0]
	if math.Abs(r.MonthlyCostSavings-7.2744) > 0.001 {
		t.Fatalf("expected savings rewritten to ~7.27, got %f", r.MonthlyCostSavings)
	}
	if !strings.HasSuffix(r.Description, AdjustmentNote) {
		t.Fatalf("expected annotation, got %q", r.Description)
	}
	if r.CostValidation.ActualSavings != 31.19 || r.CostValidation.IsReasonable {
		t.Fatalf("expected validation outcome of the original claim: %+v", r.CostValidation)
	}
	if vs.Adjusted != 1 || vs.Passed != 0 {
		t.Fatalf("unexpected stats %+v", vs)
	}
	if totals.MonthlySavings != r.MonthlyCostSavings || totals.TimeMinutes != 3 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestNormalizeIsSelfConsistentAndIdempotent(t *testing.T) {
	raw := []RawSuggestion{
		{"title": "a", "impact_time_minutes": 3.0, "monthly_cost_savings": 31.19, "description": "d"},
		{"title": "b", "impact_time_minutes": 0.5, "monthly_cost_savings": 0.01},
		{"title": "c", "impact_time_minutes": 12.0, "monthly_cost_savings": 29.0, "runner_class": "windows-latest"},
		{"title": "d", "impact_time_minutes": 2.0, "monthly_cost_savings": 4.85},
	}
	for _, stats := range []workflow.UsageStatistics{busyRepo, {}} {
		first, _, _ := Normalize(raw, stats)
		for _, r := range first {
			out := cost.Validate(r.ImpactTimeMinutes, r.MonthlyCostSavings, stats.RunsPerWeek(), r.RunnerClass)
			if !out.IsReasonable {
				t.Fatalf("%s: normalized output does not validate: %+v", r.Title, out)
			}
		}

		again := make([]RawSuggestion, 0, len(first))
		for _, r := range first {
			again = append(again, RawSuggestion{
				"title":                r.Title,
				"description":          r.Description,
				"impact_time_minutes":  r.ImpactTimeMinutes,
				"monthly_cost_savings": r.MonthlyCostSavings * 10,
				"runner_class":         r.RunnerClass,
			})
		}
		second, _, _ := Normalize(again, stats)
		for i, r := range second {
			if strings.Count(r.Description, strings.TrimSpace(AdjustmentNote)) > 1 {
				t.Fatalf("annotation duplicated: %q", r.Description)
			}
			if first[i].Description != "" && strings.Contains(first[i].Description, strings.TrimSpace(AdjustmentNote)) && r.Description != first[i].Description {
				t.Fatalf("annotation changed on repeated normalization: %q vs %q", r.Description, first[i].Description)
			}
		}
	}
}

func TestNormalizeUsesDetectedRunner(t *testing.T) {
	src := workflow.Source{Path: ".github/workflows/ci.yml", Content: "jobs:\n  build:\n    runs-on: macos-14\n", Ordinal: 1}
	n := Normalizer{Inspections: workflow.InspectAll([]workflow.Source{src}), Logger: quietLogger()}
	expected := cost.ExpectedCost(2, "macos-latest", 70)
	recs, _, vs := n.Normalize([]RawSuggestion{{
		"workflow_file":        "ci.yml",
		"job_name":             "build",
		"impact_time_minutes":  2.0,
		"monthly_cost_savings": expected,
	}}, busyRepo)
	if recs[0].RunnerClass != "macos-latest" {
		t.Fatalf("expected detected macOS runner, got %s", recs[0].RunnerClass)
	}
	if vs.Passed != 1 {
		t.Fatalf("expected macOS-priced claim to pass, got %+v", recs[0].CostValidation)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	raw, err := ParseSuggestions("", quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs, totals, vs := Normalize(raw, busyRepo)
	if len(recs) != 0 || totals != (Totals{}) || vs != (ValidationStats{}) {
		t.Fatalf("expected empty result, got %v %+v %+v", recs, totals, vs)
	}
}

func TestAnnotate(t *testing.T) {
	once := Annotate("desc")
	if once != "desc"+AdjustmentNote || Annotate(once) != once {
		t.Fatalf("Annotate must append exactly once, got %q", Annotate(once))
	}
	note := strings.TrimSpace(AdjustmentNote)
	for _, empty := range []string{"", "   "} {
		if got := Annotate(empty); got != note || Annotate(got) != got {
			t.Fatalf("Annotate(%q) = %q, want %q", empty, got, note)
		}
	}
}

func TestNormalizeEmptyDescriptionIsStable(t *testing.T) {
	raw := []RawSuggestion{{"title": "a", "impact_time_minutes": 3.0, "monthly_cost_savings": 31.19}}
	first, _, _ := Normalize(raw, busyRepo)
	if first[0].Description != strings.TrimSpace(AdjustmentNote) {
		t.Fatalf("unexpected annotation on empty description: %q", first[0].Description)
	}
	second, _, _ := Normalize([]RawSuggestion{{
		"title":                first[0].Title,
		"description":          first[0].Description,
		"impact_time_minutes":  first[0].ImpactTimeMinutes,
		"monthly_cost_savings": 31.19,
	}}, busyRepo)
	if second[0].Description != first[0].Description {
		t.Fatalf("annotation changed on repeated normalization: %q vs %q", second[0].Description, first[0].Description)
	}
}

func TestNormalizeRejectsNonFiniteNumbers(t *testing.T) {
	raw := []RawSuggestion{
		{"title": "a", "impact_time_minutes": "NaN", "monthly_cost_savings": "NaN"},
		{"title": "b", "impact_time_minutes": 2.0, "monthly_cost_savings": "Inf"},
		{"title": "c", "impact_time_minutes": "-Infinity", "confidence_score": "NaN"},
		{"title": "d", "impact_time_minutes": math.Inf(1), "confidence_score": math.NaN()},
	}
	recs, totals, _ := Normalize(raw, busyRepo)
	for _, r := range recs {
		for name, v := range map[string]float64{
			"impact_time_minutes":  r.ImpactTimeMinutes,
			"monthly_cost_savings": r.MonthlyCostSavings,
			"confidence_score":     r.ConfidenceScore,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				t.Fatalf("%s: %s = %v, want a finite non-negative value", r.Title, name, v)
			}
		}
		if r.ConfidenceScore != DefaultConfidence {
			t.Fatalf("%s: expected default confidence, got %v", r.Title, r.ConfidenceScore)
		}
	}
	if recs[1].ImpactTimeMinutes != 2 || !cost.Validate(2, recs[1].MonthlyCostSavings, busyRepo.RunsPerWeek(), recs[1].RunnerClass).IsReasonable {
		t.Fatalf("expected infinite claim to be replaced by the expected cost: %+v", recs[1])
	}
	if math.IsNaN(totals.MonthlySavings) || math.IsNaN(totals.TimeMinutes) {
		t.Fatalf("totals must stay finite: %+v", totals)
	}
}
