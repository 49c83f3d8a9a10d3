package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
)

// costCmd validates a savings claim against the cost model
var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Check a time/cost savings claim against the cost model",
	Long: `Compute the expected monthly savings for a per-run time saving and compare it
with a claimed amount, the same way AI recommendations are validated.

Expected savings = minutes × runner rate × runs per week × 4.33. Without usage
data (--runs-per-week 0) a conservative 50 runs per week is assumed.

Examples:
  gha-optimizer cost --minutes 3 --claimed 31.19 --runs-per-week 70
  gha-optimizer cost --minutes 2 --claimed 4 --runner macos-14 -o json`,
	RunE: runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)

	costCmd.Flags().Float64("minutes", 0, "time saved per run in minutes")
	costCmd.Flags().Float64("claimed", 0, "claimed monthly savings in USD")
	costCmd.Flags().Float64("runs-per-week", 0, "workflow runs per week (0 = conservative default)")
	costCmd.Flags().String("runner", cost.DefaultRunnerClass, "runner label or class (e.g. ubuntu-latest, macos-14, windows-latest)")
	costCmd.Flags().Float64("tolerance", cost.DefaultTolerance, "maximum percentage difference considered reasonable")
	_ = costCmd.MarkFlagRequired("minutes")
}

func runCost(cmd *cobra.Command, args []string) error {
	minutes, _ := cmd.Flags().GetFloat64("minutes")
	claimed, _ := cmd.Flags().GetFloat64("claimed")
	runsPerWeek, _ := cmd.Flags().GetFloat64("runs-per-week")
	runner, _ := cmd.Flags().GetString("runner")
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	if minutes < 0 || claimed < 0 || runsPerWeek < 0 {
		return fmt.Errorf("--minutes, --claimed and --runs-per-week must not be negative")
	}

	class := cost.ResolveRunnerClass(runner)
	outcome := cost.NewModel(tolerance).Validate(minutes, claimed, runsPerWeek, class)

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("output")
	if format == "json" {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal outcome: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	status := "REASONABLE"
	if !outcome.IsReasonable {
		status = "FLAGGED"
	}
	fmt.Fprintf(out, "Runner class:      %s ($%.3f/min)\n", class, cost.Rate(class))
	fmt.Fprintf(out, "Runs per week:     %.1f (%s)\n", outcome.AppliedRunsPerWeek, outcome.Method)
	fmt.Fprintf(out, "Expected savings:  $%.2f/month\n", outcome.ExpectedSavings)
	fmt.Fprintf(out, "Claimed savings:   $%.2f/month\n", outcome.ActualSavings)
	fmt.Fprintf(out, "Difference:        $%.2f (%.1f%%)\n", outcome.AbsoluteDifference, outcome.PercentageDifference)
	fmt.Fprintf(out, "Result:            %s\n", status)
	fmt.Fprintf(out, "\n%s\n", outcome.Summary)
	return nil
}
