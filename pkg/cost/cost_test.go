package cost

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExpectedCostMonthly(t *testing.T) {
	tests := []struct {
		name        string
		minutes     float64
		runner      string
		runsPerWeek float64
		rate        float64
	}{
		{"default runner", 3.0, "ubuntu-latest", 70, 0.008},
		{"larger runner", 2.5, "ubuntu-latest-4-core", 10, 0.016},
		{"windows", 1, "windows-latest", 100, 0.016},
		{"macos large", 0.5, "macos-latest-large", 3, 0.16},
		{"unknown defaults to cheapest", 4, "self-hosted", 20, 0.008},
		{"zero minutes", 0, "macos-latest", 20, 0.08},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedCost(tt.minutes, tt.runner, tt.runsPerWeek)
			want := tt.minutes * tt.rate * tt.runsPerWeek * WeeksPerMonth
			if !almostEqual(got, want) {
				t.Fatalf("ExpectedCost = %f, want %f", got, want)
			}
		})
	}
}

func TestExpectedCostPerRunMode(t *testing.T) {
	for _, runs := range []float64{0, -1, -50} {
		got := ExpectedCost(3.0, "ubuntu-latest", runs)
		if !almostEqual(got, 3.0*0.008) {
			t.Fatalf("runs=%v: expected flat per-run cost 0.024, got %f", runs, got)
		}
	}
}

func TestValidateScenarioFlagsOverclaim(t *testing.T) {
	out := Validate(3.0, 31.19, 70, "ubuntu-latest")
	if out.IsReasonable {
		t.Fatalf("expected $31.19 claim to be flagged")
	}
	if math.Abs(out.ExpectedSavings-7.2744) > 0.001 {
		t.Fatalf("expected ~7.27, got %f", out.ExpectedSavings)
	}
	if out.PercentageDifference <= 300 {
		t.Fatalf("expected >300%% divergence, got %f", out.PercentageDifference)
	}
	if out.Method != MethodUsageBased {
		t.Fatalf("expected usage-based method at 70 runs/week, got %s", out.Method)
	}
}

func TestValidateSubstitutesDefaultRuns(t *testing.T) {
	for _, runs := range []float64{0, -3} {
		out := Validate(2, 1, runs, "")
		if out.AppliedRunsPerWeek != DefaultRunsPerWeek {
			t.Fatalf("runs=%v: expected applied runs 50, got %f", runs, out.AppliedRunsPerWeek)
		}
		if out.Method != MethodConservativeDefault {
			t.Fatalf("expected conservative-default, got %s", out.Method)
		}
		want := 2 * 0.008 * 50 * WeeksPerMonth
		if !almostEqual(out.ExpectedSavings, want) {
			t.Fatalf("expected %f, got %f", want, out.ExpectedSavings)
		}
	}
}

func TestValidateHardOverrides(t *testing.T) {
	// Claim equals expectation, so only the hard limits can reject it.
	big := ExpectedCost(50, "macos-latest-large", 100)
	if out := Validate(50, big, 100, "macos-latest-large"); out.IsReasonable {
		t.Fatalf("expected claim of $%.2f (>1000) to be unreasonable", big)
	}
	long := ExpectedCost(61, "ubuntu-latest", 1)
	if out := Validate(61, long, 1, "ubuntu-latest"); out.IsReasonable {
		t.Fatalf("expected >60 minute saving to be unreasonable")
	}
}

func TestValidateZeroExpected(t *testing.T) {
	out := Validate(0, 12, 70, "ubuntu-latest")
	if out.IsReasonable {
		t.Fatalf("zero expectation must never be reasonable")
	}
	if out.PercentageDifference != 100 || out.ExpectedSavings != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestValidateWithinTolerance(t *testing.T) {
	expected := ExpectedCost(3, "ubuntu-latest", 70)
	if out := Validate(3, expected*1.2, 70, "ubuntu-latest"); !out.IsReasonable {
		t.Fatalf("20%% divergence should pass: %+v", out)
	}
	if out := Validate(3, expected*0.7, 70, "ubuntu-latest"); out.IsReasonable {
		t.Fatalf("30%% under-claim should fail: %+v", out)
	}
	loose := NewModel(30)
	if out := loose.Validate(3, expected*0.75, 70, "ubuntu-latest"); !out.IsReasonable {
		t.Fatalf("25%% divergence should pass a 30%% tolerance: %+v", out)
	}
}

func TestValidateSelfConsistent(t *testing.T) {
	for _, minutes := range []float64{0.1, 1, 3, 12.5, 45, 60} {
		for _, runs := range []float64{0, 5, 50, 70, 140} {
			first := Validate(minutes, 9999, runs, "ubuntu-latest")
			second := Validate(minutes, first.ExpectedSavings, runs, "ubuntu-latest")
			if !second.IsReasonable {
				t.Fatalf("minutes=%v runs=%v: corrected value not reasonable: %+v", minutes, runs, second)
			}
		}
	}
}

func TestResolveRunnerClass(t *testing.T) {
	tests := map[string]string{
		"ubuntu-latest":        "ubuntu-latest",
		"ubuntu-22.04":         "ubuntu-latest",
		"ubuntu-latest-8-core": "ubuntu-latest-8-core",
		"ubuntu-24.04-4core":   "ubuntu-latest-4-core",
		"windows-2022":         "windows-latest",
		"macos-14":             "macos-latest",
		"macos-14-large":       "macos-latest-large",
		"self-hosted":          "ubuntu-latest",
		"":                     "ubuntu-latest",
	}
	for label, want := range tests {
		if got := ResolveRunnerClass(label); got != want {
			t.Errorf("ResolveRunnerClass(%q) = %q, want %q", label, got, want)
		}
	}
	if got := ResolveRunnerClass("self-hosted", "macos-13"); got != "macos-latest" {
		t.Errorf("expected first recognised label to win, got %q", got)
	}
}
