package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BohdanBykov/gha-optimizer/pkg/recommendations"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	moneyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	highStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).PaddingLeft(4)
)

const summaryWidth = 24

// TableReporter renders reports for console output
type TableReporter struct {
	noColor bool
	verbose bool
}

// NewTableReporter creates a new table reporter
func NewTableReporter(noColor, verbose bool) Reporter {
	return &TableReporter{
		noColor: noColor,
		verbose: verbose,
	}
}

// ColorEnabled reports whether colored output should be written to f.
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// GenerateReport generates a table format report
func (r *TableReporter) GenerateReport(ctx context.Context, report *Report) ([]byte, error) {
	var output strings.Builder

	output.WriteString(r.formatHeader("GHA-Optimizer Report"))
	output.WriteString("\n")
	output.WriteString(r.formatRepository(report))
	output.WriteString("\n")
	output.WriteString(r.formatSummary(report))
	output.WriteString("\n")

	if len(report.Recommendations) == 0 {
		output.WriteString("No optimization opportunities found.\n")
		return []byte(output.String()), nil
	}

	output.WriteString(r.formatCategoryTable(report.Recommendations))
	output.WriteString("\n")
	output.WriteString(r.formatRecommendations(report.Recommendations))

	return []byte(output.String()), nil
}

// WriteReport writes the table report to writer
func (r *TableReporter) WriteReport(ctx context.Context, report *Report, writer io.Writer) error {
	data, err := r.GenerateReport(ctx, report)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write table report: %w", err)
	}
	return nil
}

// GetFormat returns the format name
func (r *TableReporter) GetFormat() string {
	return "table"
}

// GetFileExtension returns the file extension
func (r *TableReporter) GetFileExtension() string {
	return ".txt"
}

func (r *TableReporter) formatHeader(title string) string {
	line := strings.Repeat("=", len(title)+4)
	return fmt.Sprintf("%s\n  %s  \n%s\n", line, r.render(titleStyle, title), line)
}

func (r *TableReporter) formatRepository(report *Report) string {
	repo := report.Repository
	name := repo.Name
	if repo.Language != "" {
		name = fmt.Sprintf("%s (%s)", name, repo.Language)
	}

	rows := [][2]string{
		{"Repository", name},
		{"Usage", fmt.Sprintf("%d runs in %d days (~%.1f/week)", repo.RunCount, repo.WindowDays, repo.RunsPerWeek)},
		{"Workflows", fmt.Sprintf("%d", repo.Workflows)},
		{"Guidance", report.Metadata.DocsSource},
		{"Run ID", report.Metadata.RunID},
	}
	if report.Metadata.Duration != "" && report.Metadata.Duration != "0s" {
		rows = append(rows, [2]string{"Duration", report.Metadata.Duration})
	}
	return r.formatRows(rows)
}

func (r *TableReporter) formatSummary(report *Report) string {
	var summary strings.Builder
	summary.WriteString(r.render(titleStyle, "Summary"))
	summary.WriteString("\n")

	validation := fmt.Sprintf("%d passed, %d adjusted", report.Validation.Passed, report.Validation.Adjusted)
	if report.Validation.Adjusted > 0 {
		validation = r.render(warnStyle, validation)
	}
	summary.WriteString(r.formatRows([][2]string{
		{"Recommendations", fmt.Sprintf("%d", len(report.Recommendations))},
		{"Monthly savings", r.render(moneyStyle, fmt.Sprintf("$%.2f", report.Totals.MonthlySavings))},
		{"Time saved per run", fmt.Sprintf("%.1f min", report.Totals.TimeMinutes)},
		{"Cost validation", validation},
	}))
	return summary.String()
}

// formatCategoryTable groups savings by category, largest first.
func (r *TableReporter) formatCategoryTable(recs []recommendations.Recommendation) string {
	type categoryStat struct {
		name    string
		count   int
		savings float64
		minutes float64
	}
	byName := map[string]*categoryStat{}
	var stats []*categoryStat
	for _, rec := range recs {
		s, ok := byName[rec.Category]
		if !ok {
			s = &categoryStat{name: rec.Category}
			byName[rec.Category] = s
			stats = append(stats, s)
		}
		s.count++
		s.savings += rec.MonthlyCostSavings
		s.minutes += rec.ImpactTimeMinutes
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].savings > stats[j].savings })

	var table strings.Builder
	table.WriteString(r.render(titleStyle, "Savings by Category"))
	table.WriteString("\n")
	table.WriteString(fmt.Sprintf("  %-20s %5s %12s %10s\n", "Category", "Count", "Monthly", "Minutes"))
	table.WriteString("  " + strings.Repeat("-", 50) + "\n")
	for _, s := range stats {
		table.WriteString(fmt.Sprintf("  %-20s %5d %12s %10.1f\n",
			r.truncateString(titleCase(s.name), 20), s.count, fmt.Sprintf("$%.2f", s.savings), s.minutes))
	}
	return table.String()
}

func (r *TableReporter) formatRecommendations(recs []recommendations.Recommendation) string {
	var out strings.Builder
	out.WriteString(r.render(titleStyle, "Recommendations"))
	out.WriteString("\n\n")

	for i, rec := range recs {
		out.WriteString(fmt.Sprintf("%d. %s %s %s\n", i+1,
			r.formatPriority(rec.Priority),
			rec.Title,
			r.render(labelStyle, "("+titleCase(rec.Category)+")")))

		location := rec.WorkflowFile
		if rec.LineNumber != "" {
			location += ":" + rec.LineNumber
		}
		out.WriteString(fmt.Sprintf("   %s job %s on %s\n", location, rec.JobName, rec.RunnerClass))
		out.WriteString(fmt.Sprintf("   Saves %.1f min/run, %s/month, confidence %.0f%%\n",
			rec.ImpactTimeMinutes,
			r.render(moneyStyle, fmt.Sprintf("$%.2f", rec.MonthlyCostSavings)),
			rec.ConfidenceScore*100))
		if !rec.CostValidation.IsReasonable {
			out.WriteString("   " + r.render(warnStyle, fmt.Sprintf("Estimate adjusted from $%.2f", rec.CostValidation.ActualSavings)) + "\n")
		}
		if rec.Description != "" {
			out.WriteString("   " + rec.Description + "\n")
		}
		if r.verbose {
			if rec.Implementation != "" {
				out.WriteString("   " + r.render(labelStyle, "Implementation: ") + rec.Implementation + "\n")
			}
			if rec.CodeExample != "" {
				out.WriteString(r.render(codeStyle, rec.CodeExample) + "\n")
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}

func (r *TableReporter) formatPriority(priority string) string {
	label := "[" + titleCase(priority) + "]"
	switch strings.ToLower(priority) {
	case "high":
		return r.render(highStyle, label)
	case "medium":
		return r.render(mediumStyle, label)
	default:
		return r.render(lowStyle, label)
	}
}

func (r *TableReporter) formatRows(rows [][2]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString("  " + r.padToWidth(r.render(labelStyle, row[0]), summaryWidth) + row[1] + "\n")
	}
	return b.String()
}

func (r *TableReporter) render(style lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return style.Render(text)
}

func (r *TableReporter) truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// padToWidth pads a string to a display width, ignoring color codes
func (r *TableReporter) padToWidth(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-w)
}

// titleCase builds a fresh Caser per call; a Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
