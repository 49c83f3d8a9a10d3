package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
)

var logger = slog.Default()

// Job is the subset of a workflow job used for pricing.
type Job struct {
	Name        string
	RunsOn      []string
	RunnerClass string
	Line        int
	Steps       int
	Needs       []string
}

// Inspection is the parsed shape of a workflow. It is informational only;
// the workflow is never validated or executed.
type Inspection struct {
	Name string
	Jobs []Job
}

// RunnerClass returns the priced runner class of job, or the default class
// when the job is unknown.
func (i Inspection) RunnerClass(job string) string {
	for _, j := range i.Jobs {
		if j.Name == job {
			return j.RunnerClass
		}
	}
	return cost.DefaultRunnerClass
}

// RunnerClasses returns the distinct runner classes in job order.
func (i Inspection) RunnerClasses() []string {
	seen := map[string]bool{}
	var out []string
	for _, j := range i.Jobs {
		if !seen[j.RunnerClass] {
			seen[j.RunnerClass] = true
			out = append(out, j.RunnerClass)
		}
	}
	return out
}

// Inspect maps a workflow's YAML onto jobs and their runners. Malformed YAML
// yields an empty Inspection.
func Inspect(src Source) Inspection {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src.Content), &root); err != nil {
		logger.Debug("Skipping inspection of unparsable workflow", "path", src.Path, "error", err)
		return Inspection{}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		logger.Debug("Workflow is not a mapping", "path", src.Path)
		return Inspection{}
	}
	doc := root.Content[0]

	var out Inspection
	if n := mappingValue(doc, "name"); n != nil && n.Kind == yaml.ScalarNode {
		out.Name = n.Value
	}
	jobs := mappingValue(doc, "jobs")
	if jobs == nil || jobs.Kind != yaml.MappingNode {
		return out
	}
	for i := 0; i+1 < len(jobs.Content); i += 2 {
		key, body := jobs.Content[i], jobs.Content[i+1]
		if body.Kind != yaml.MappingNode {
			continue
		}
		job := Job{Name: key.Value, Line: key.Line}
		job.RunsOn = runsOnLabels(mappingValue(body, "runs-on"))
		job.RunnerClass = cost.ResolveRunnerClass(job.RunsOn...)
		job.Needs = scalarList(mappingValue(body, "needs"))
		if steps := mappingValue(body, "steps"); steps != nil && steps.Kind == yaml.SequenceNode {
			job.Steps = len(steps.Content)
		}
		out.Jobs = append(out.Jobs, job)
	}
	return out
}

// InspectAll inspects every source, keyed by path.
func InspectAll(sources []Source) map[string]Inspection {
	out := make(map[string]Inspection, len(sources))
	for _, s := range sources {
		out[s.Path] = Inspect(s)
	}
	return out
}

// InspectJobs returns job name → runs-on labels for src.
func InspectJobs(src Source) map[string][]string {
	insp := Inspect(src)
	out := make(map[string][]string, len(insp.Jobs))
	for _, j := range insp.Jobs {
		out[j.Name] = j.RunsOn
	}
	return out
}

// Summary renders a one-line description of the jobs and their runners.
func (i Inspection) Summary() string {
	if len(i.Jobs) == 0 {
		return "no jobs detected"
	}
	parts := make([]string, 0, len(i.Jobs))
	for _, j := range i.Jobs {
		parts = append(parts, fmt.Sprintf("%s (line %d) → %s", j.Name, j.Line, j.RunnerClass))
	}
	return strings.Join(parts, ", ")
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// runsOnLabels accepts the string, list and {group, labels} forms of runs-on.
func runsOnLabels(n *yaml.Node) []string {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		labels := scalarList(mappingValue(n, "labels"))
		if group := mappingValue(n, "group"); group != nil && group.Kind == yaml.ScalarNode {
			labels = append(labels, group.Value)
		}
		return labels
	}
	return scalarList(n)
}

func scalarList(n *yaml.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		var out []string
		for _, c := range n.Content {
			if c.Kind == yaml.ScalarNode && c.Value != "" {
				out = append(out, c.Value)
			}
		}
		return out
	}
	return nil
}
