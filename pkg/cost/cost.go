// Package cost prices GitHub Actions minutes and checks savings claims
// against that price.
package cost

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultRunnerClass is billed when a runner class is unknown.
	DefaultRunnerClass = "ubuntu-latest"

	// WeeksPerMonth is the average number of weeks in a month.
	WeeksPerMonth = 4.33

	// DefaultRunsPerWeek is substituted by Validate when no usage data exists
	// (roughly two runs per workday).
	DefaultRunsPerWeek = 50.0

	// DefaultTolerance is the maximum percentage divergence between a claimed
	// and an expected monthly saving that is still considered reasonable.
	DefaultTolerance = 25.0

	// MaxMonthlySavings flags any claim above this amount.
	MaxMonthlySavings = 1000.0

	// MaxTimeSavedMinutes flags any claim saving more than this per run.
	MaxTimeSavedMinutes = 60.0
)

// Validation methods reported in Outcome.Method.
const (
	MethodUsageBased          = "usage-based"
	MethodConservativeDefault = "conservative-default"
)

// RunnerRates is the per-minute USD price of each runner class.
var RunnerRates = map[string]float64{
	"ubuntu-latest":        0.008,
	"ubuntu-latest-4-core": 0.016,
	"ubuntu-latest-8-core": 0.032,
	"windows-latest":       0.016,
	"macos-latest":         0.08,
	"macos-latest-large":   0.16,
}

// Outcome is the result of checking one savings claim.
type Outcome struct {
	IsReasonable         bool    `json:"is_reasonable" yaml:"is_reasonable"`
	ExpectedSavings      float64 `json:"expected_savings" yaml:"expected_savings"`
	ActualSavings        float64 `json:"actual_savings" yaml:"actual_savings"`
	AbsoluteDifference   float64 `json:"absolute_difference" yaml:"absolute_difference"`
	PercentageDifference float64 `json:"percentage_difference" yaml:"percentage_difference"`
	AppliedRunsPerWeek   float64 `json:"applied_runs_per_week" yaml:"applied_runs_per_week"`
	Method               string  `json:"method" yaml:"method"`
	Summary              string  `json:"summary" yaml:"summary"`
}

// Model holds the validation policy. The zero value is not useful; use
// DefaultModel or NewModel.
type Model struct {
	Tolerance float64
}

// DefaultModel applies DefaultTolerance.
var DefaultModel = Model{Tolerance: DefaultTolerance}

// NewModel returns a model with the given tolerance percentage. Non-positive
// values fall back to DefaultTolerance.
func NewModel(tolerance float64) Model {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Model{Tolerance: tolerance}
}

// Rate returns the per-minute price for a runner class.
func Rate(runnerClass string) float64 {
	if rate, ok := RunnerRates[strings.ToLower(strings.TrimSpace(runnerClass))]; ok {
		return rate
	}
	return RunnerRates[DefaultRunnerClass]
}

// ExpectedCost returns the monthly cost of timeMinutes on runnerClass at
// runsPerWeek. When runsPerWeek <= 0 it returns the flat cost of a single run
// instead.
func ExpectedCost(timeMinutes float64, runnerClass string, runsPerWeek float64) float64 {
	rate := Rate(runnerClass)
	if runsPerWeek <= 0 {
		return timeMinutes * rate
	}
	return timeMinutes * rate * runsPerWeek * WeeksPerMonth
}

// Validate checks claimedMonthly against DefaultModel.
func Validate(timeMinutes, claimedMonthly, runsPerWeek float64, runnerClass string) Outcome {
	return DefaultModel.Validate(timeMinutes, claimedMonthly, runsPerWeek, runnerClass)
}

// Validate compares a claimed monthly saving with the expected one.
func (m Model) Validate(timeMinutes, claimedMonthly, runsPerWeek float64, runnerClass string) Outcome {
	if runsPerWeek <= 0 {
		runsPerWeek = DefaultRunsPerWeek
	}
	tolerance := m.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	method := MethodConservativeDefault
	if runsPerWeek > DefaultRunsPerWeek {
		method = MethodUsageBased
	}

	expected := ExpectedCost(timeMinutes, runnerClass, runsPerWeek)
	if expected <= 0 {
		return Outcome{
			IsReasonable:         false,
			ExpectedSavings:      0,
			ActualSavings:        claimedMonthly,
			AbsoluteDifference:   math.Abs(claimedMonthly),
			PercentageDifference: 100,
			AppliedRunsPerWeek:   runsPerWeek,
			Method:               method,
			Summary:              fmt.Sprintf("Invalid calculation: expected $0.00, got $%.2f", claimedMonthly),
		}
	}

	diff := math.Abs(claimedMonthly - expected)
	pct := diff / expected * 100

	reasonable := pct < tolerance
	if claimedMonthly > MaxMonthlySavings || timeMinutes > MaxTimeSavedMinutes {
		reasonable = false
	}

	out := Outcome{
		IsReasonable:         reasonable,
		ExpectedSavings:      expected,
		ActualSavings:        claimedMonthly,
		AbsoluteDifference:   diff,
		PercentageDifference: pct,
		AppliedRunsPerWeek:   runsPerWeek,
		Method:               method,
	}
	if reasonable {
		out.Summary = fmt.Sprintf("Validated: $%.2f/month (%s)", claimedMonthly, method)
	} else {
		out.Summary = fmt.Sprintf("Expected $%.2f, got $%.2f (%.1f%% diff)", expected, claimedMonthly, pct)
	}
	return out
}
