package recommendations

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
)

// Filter selects recommendations by a CEL expression and a minimum
// confidence, e.g. `priority == "high" && monthly_cost_savings > 5.0`.
type Filter struct {
	expr          string
	program       cel.Program
	minConfidence float64
}

func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("priority", cel.StringType),
		cel.Variable("workflow_file", cel.StringType),
		cel.Variable("job_name", cel.StringType),
		cel.Variable("line_number", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("impact_time_minutes", cel.DoubleType),
		cel.Variable("monthly_cost_savings", cel.DoubleType),
		cel.Variable("confidence_score", cel.DoubleType),
		cel.Variable("runner_class", cel.StringType),

		ext.Strings(),
		ext.Math(),

		// rate returns the per-minute price of a runner class
		cel.Function("rate",
			cel.Overload("rate_string", []*cel.Type{cel.StringType}, cel.DoubleType,
				cel.UnaryBinding(func(value ref.Val) ref.Val {
					s, ok := value.(types.String)
					if !ok {
						return types.MaybeNoSuchOverloadErr(value)
					}
					return types.Double(cost.Rate(string(s)))
				}),
			),
		),
	)
}

// NewFilter compiles expr. An empty expression matches everything.
func NewFilter(expr string, minConfidence float64) (*Filter, error) {
	f := &Filter{expr: strings.TrimSpace(expr), minConfidence: minConfidence}
	if f.expr == "" {
		return f, nil
	}

	env, err := newFilterEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(f.expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", f.expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter expression must return a boolean value, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	f.program = prg
	return f, nil
}

// Empty reports whether the filter accepts everything.
func (f *Filter) Empty() bool {
	return f == nil || (f.program == nil && f.minConfidence <= 0)
}

// Match evaluates the filter against one recommendation.
func (f *Filter) Match(rec Recommendation) (bool, error) {
	if f == nil {
		return true, nil
	}
	if rec.ConfidenceScore < f.minConfidence {
		return false, nil
	}
	if f.program == nil {
		return true, nil
	}

	out, _, err := f.program.Eval(map[string]interface{}{
		"title":                rec.Title,
		"category":             rec.Category,
		"priority":             rec.Priority,
		"workflow_file":        rec.WorkflowFile,
		"job_name":             rec.JobName,
		"line_number":          rec.LineNumber,
		"description":          rec.Description,
		"impact_time_minutes":  rec.ImpactTimeMinutes,
		"monthly_cost_savings": rec.MonthlyCostSavings,
		"confidence_score":     rec.ConfidenceScore,
		"runner_class":         rec.RunnerClass,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter expression must return a boolean value, got %T", out.Value())
	}
	return b, nil
}

// Apply returns the matching recommendations in order.
func (f *Filter) Apply(recs []Recommendation) ([]Recommendation, error) {
	if f.Empty() {
		return recs, nil
	}
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		ok, err := f.Match(r)
		if err != nil {
			return nil, fmt.Errorf("failed to filter %q: %w", r.Title, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
