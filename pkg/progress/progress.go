package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ProgressBar represents a terminal progress bar
type ProgressBar struct {
	mu         sync.Mutex
	total      int
	current    int
	width      int
	prefix     string
	writer     io.Writer
	startTime  time.Time
	finished   bool
	isTerminal bool
}

// NewProgressBar creates a progress bar on stderr
func NewProgressBar(total int, prefix string) *ProgressBar {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	width := 30
	if isTerminal {
		if termWidth, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
			// A third of the terminal leaves room for the stage label.
			width = termWidth / 3
			if width < 10 {
				width = 10
			}
			if width > 40 {
				width = 40
			}
		}
	}

	pb := NewProgressBarWriter(total, prefix, os.Stderr, isTerminal)
	pb.width = width
	return pb
}

// NewProgressBarWriter creates a progress bar on w. Non-terminal writers get
// one line per update instead of an in-place bar.
func NewProgressBarWriter(total int, prefix string, w io.Writer, isTerminal bool) *ProgressBar {
	return &ProgressBar{
		total:      total,
		width:      30,
		prefix:     prefix,
		writer:     w,
		startTime:  time.Now(),
		isTerminal: isTerminal,
	}
}

// Add increases the progress by the specified amount
func (pb *ProgressBar) Add(n int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current += n
	if pb.current > pb.total {
		pb.current = pb.total
	}
	pb.render()
}

// Step moves the bar to position n with a new label.
func (pb *ProgressBar) Step(n int, prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.finished {
		return
	}
	if n > pb.total {
		n = pb.total
	}
	pb.current = n
	pb.prefix = prefix
	pb.render()
}

// Finish completes the progress bar
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.finished {
		return
	}

	pb.current = pb.total
	pb.finished = true
	if pb.isTerminal {
		pb.render()
		fmt.Fprint(pb.writer, "\n")
	}
}

// render draws the progress bar
func (pb *ProgressBar) render() {
	percentage := 0.0
	filledWidth := 0
	if pb.total > 0 {
		percentage = float64(pb.current) / float64(pb.total) * 100
		filledWidth = pb.width * pb.current / pb.total
	}

	if !pb.isTerminal {
		fmt.Fprintf(pb.writer, "[%d/%d] %s\n", pb.current, pb.total, pb.prefix)
		return
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", pb.width-filledWidth)

	elapsed := time.Since(pb.startTime)
	output := fmt.Sprintf("[%s] %3.0f%% %s (%s)", bar, percentage, pb.prefix, formatDuration(elapsed))

	// Clear line and write progress
	fmt.Fprint(pb.writer, "\r\033[K"+output)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		return fmt.Sprintf("%dm%ds", m, int(d.Seconds())-60*m)
	}
	h := int(d.Hours())
	return fmt.Sprintf("%dh%dm", h, int(d.Minutes())-60*h)
}

// StageTracker drives a ProgressBar from named pipeline stages.
type StageTracker struct {
	bar    *ProgressBar
	stages map[string]int
}

// NewStageTracker tracks the given ordered stages on bar.
func NewStageTracker(bar *ProgressBar, stages []string) *StageTracker {
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		index[s] = i + 1
	}
	return &StageTracker{bar: bar, stages: index}
}

// Start reports that stage has begun. Unknown stages keep the current position.
func (t *StageTracker) Start(stage string) {
	n, ok := t.stages[stage]
	if !ok {
		t.bar.mu.Lock()
		n = t.bar.current
		t.bar.mu.Unlock()
	}
	t.bar.Step(n, stage)
}

// Done completes the bar.
func (t *StageTracker) Done() {
	t.bar.Finish()
}
