package cost

import (
	"strings"
)

// ResolveRunnerClass maps GitHub Actions runs-on labels onto a priced runner
// class. Self-hosted runners and unrecognised labels resolve to
// DefaultRunnerClass.
func ResolveRunnerClass(labels ...string) string {
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := RunnerRates[label]; ok {
			return label
		}
		switch {
		case strings.HasPrefix(label, "macos"):
			if isLarge(label) {
				return "macos-latest-large"
			}
			return "macos-latest"
		case strings.HasPrefix(label, "windows"):
			return "windows-latest"
		case strings.HasPrefix(label, "ubuntu"):
			switch {
			case strings.Contains(label, "8-core") || strings.Contains(label, "8core"):
				return "ubuntu-latest-8-core"
			case strings.Contains(label, "4-core") || strings.Contains(label, "4core"):
				return "ubuntu-latest-4-core"
			}
			return DefaultRunnerClass
		}
	}
	return DefaultRunnerClass
}

func isLarge(label string) bool {
	return strings.HasSuffix(label, "-large") || strings.HasSuffix(label, "-xlarge")
}
