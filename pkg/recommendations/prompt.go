package recommendations

import (
	"fmt"
	"strings"

	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// PromptInput is everything the prompt is built from.
type PromptInput struct {
	ToolVersion string
	// Guidance is the rendered patterns document (inline body or reference).
	Guidance string
	Sources  []workflow.Source
	Stats    workflow.UsageStatistics
	// Inspections maps workflow path to its parsed jobs. Optional.
	Inspections map[string]workflow.Inspection
}

// NumberLines prefixes every line with its 1-based number, right-aligned to
// three columns.
func NumberLines(content string) string {
	lines := strings.Split(content, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%3d| %s", i+1, line)
	}
	return b.String()
}

// BuildPrompt assembles the analysis request. The result depends only on in.
func BuildPrompt(in PromptInput) string {
	runsPerWeek := in.Stats.RunsPerWeek()
	repo := orUnknown(in.Stats.Repository)
	language := orUnknown(in.Stats.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert GitHub Actions optimization analyst powered by GHA-Optimizer v%s.\n\n", in.ToolVersion)
	b.WriteString("ANALYSIS TASK: Analyze ALL workflows below for optimization opportunities using the comprehensive patterns documentation provided.\n\n")

	b.WriteString("## Repository Context\n")
	fmt.Fprintf(&b, "- **Repository**: %s\n", repo)
	fmt.Fprintf(&b, "- **Language**: %s\n", language)
	fmt.Fprintf(&b, "- **Activity**: %d runs in %d days (~%.0f/week)\n", in.Stats.RunCount, in.Stats.WindowDays, runsPerWeek)
	fmt.Fprintf(&b, "- **Total Workflows**: %d\n\n", len(in.Sources))

	b.WriteString("## Optimization Patterns Documentation\n")
	b.WriteString(in.Guidance)
	b.WriteString("\n\n## Workflows to Analyze\n")
	for _, src := range in.Sources {
		fmt.Fprintf(&b, "\n### Workflow %s: `%s`\n", src.ID(), src.Path)
		if insp, ok := in.Inspections[src.Path]; ok && len(insp.Jobs) > 0 {
			fmt.Fprintf(&b, "Detected runners: %s\n", insp.Summary())
		}
		fmt.Fprintf(&b, "```yaml\n%s\n```\n", NumberLines(src.Content))
	}

	fmt.Fprintf(&b, `
## Critical Instructions

### 1. Workflow Identification
- Each workflow has an ID (WF01, WF02, etc.) and file path
- Use the exact workflow_file path in your response
- Reference the correct workflow ID when analyzing

### 2. Line Number Requirements
- **MANDATORY**: Provide exact line numbers relative to each workflow file start
- Be precise - reference the actual line where optimization applies
- Example: If optimization is on line 25 of WF02, use "25" (not cumulative line number)

### 3. Impact Calculation
- Time savings per run (realistic minutes)
- Monthly cost: $0.008/minute × time_saved × %.0f runs/week × 4.33 weeks
- Use the runner rate from the documentation when a job runs on a larger, Windows or macOS runner and set runner_class accordingly
- Implementation effort: low/medium/high
- Confidence: 0.0-1.0 based on pattern clarity

### 4. Required Output
Return ONLY a JSON array with ALL optimizations found across ALL workflows:

`+"```json"+`
[
  {
    "title": "Add Node.js Dependency Caching",
    "type": "caching",
    "priority": "high",
    "workflow_file": ".github/workflows/ci.yml",
    "job_name": "build",
    "line_number": "47",
    "description": "Missing npm dependency caching causing repeated installs",
    "impact_time_minutes": 3.0,
    "monthly_cost_savings": 7.27,
    "confidence_score": 0.9,
    "runner_class": "ubuntu-latest",
    "implementation": "Add actions/cache@v4 before npm install",
    "code_example": "- uses: actions/cache@v4\n  with:\n    path: ~/.npm\n    key: ${{ runner.os }}-node-${{ hashFiles('package-lock.json') }}"
  }
]
`+"```"+`
`, runsPerWeek)
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
