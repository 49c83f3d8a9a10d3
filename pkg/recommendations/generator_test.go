package recommendations

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/BohdanBykov/gha-optimizer/pkg/docs"
	"github.com/BohdanBykov/gha-optimizer/pkg/llm"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

type stubResolver struct {
	doc *docs.Document
	err error
}

func (s stubResolver) Resolve(context.Context) (*docs.Document, error) { return s.doc, s.err }

type stubClient struct {
	text    string
	err     error
	prompts []string
}

func (s *stubClient) Submit(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

var packagedDoc = &docs.Document{Body: "PATTERNS", Provenance: docs.ProvenancePackaged, DeclaredVersion: "0.1.0", URL: "https://example.test/doc"}

var ciSources = []workflow.Source{{Path: ".github/workflows/ci.yml", Content: "jobs:\n  build:\n    runs-on: ubuntu-latest\n", Ordinal: 1}}

func TestAnalyze(t *testing.T) {
	client := &stubClient{text: "Here are the results:\n```json\n" + `[
		{"title":"Add Node.js Dependency Caching","type":"caching","priority":"high","workflow_file":".github/workflows/ci.yml","job_name":"build","line_number":"3","impact_time_minutes":3.0,"monthly_cost_savings":31.19,"confidence_score":0.9},
		{"title":"Cancel superseded runs","type":"concurrency","priority":"low","workflow_file":".github/workflows/ci.yml","impact_time_minutes":1.0,"monthly_cost_savings":2.42,"confidence_score":0.8}
	]` + "\n```"}
	var stages []string
	a := NewAnalyzer(stubResolver{doc: packagedDoc}, client, Params{
		ToolVersion: "0.1.0",
		Logger:      quietLogger(),
		OnStage:     func(s string) { stages = append(stages, s) },
	})

	out, err := a.Analyze(context.Background(), ciSources, busyRepo)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if out.RunID == "" || out.DocsSource != string(docs.ProvenancePackaged) {
		t.Fatalf("unexpected metadata: %+v", out)
	}
	if len(out.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(out.Recommendations))
	}
	if out.Stats.Adjusted != 1 || out.Stats.Passed != 1 {
		t.Fatalf("unexpected validation stats %+v", out.Stats)
	}
	if math.Abs(out.Recommendations[0].MonthlyCostSavings-7.2744) > 0.001 {
		t.Fatalf("expected overclaim rewritten, got %f", out.Recommendations[0].MonthlyCostSavings)
	}
	if math.Abs(out.Totals.MonthlySavings-(7.2744+2.42)) > 0.001 || out.Totals.TimeMinutes != 4 {
		t.Fatalf("unexpected totals %+v", out.Totals)
	}
	if len(stages) != len(Stages) {
		t.Fatalf("expected all stages reported, got %v", stages)
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], "PATTERNS") || !strings.Contains(client.prompts[0], "WF01") {
		t.Fatalf("expected a single prompt with guidance and sources")
	}
}

func TestAnalyzeWithFilter(t *testing.T) {
	client := &stubClient{text: `[{"title":"a","priority":"high","impact_time_minutes":3.0,"monthly_cost_savings":7.27},{"title":"b","priority":"low","impact_time_minutes":1.0,"monthly_cost_savings":2.42}]`}
	f, err := NewFilter(`priority == "high"`, 0)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAnalyzer(stubResolver{doc: packagedDoc}, client, Params{Filter: f, Logger: quietLogger()})
	out, err := a.Analyze(context.Background(), ciSources, busyRepo)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(out.Recommendations) != 1 || out.Totals.TimeMinutes != 3 {
		t.Fatalf("expected filtered result with recomputed totals, got %+v", out)
	}
}

func TestAnalyzeEmptyResponse(t *testing.T) {
	a := NewAnalyzer(stubResolver{doc: packagedDoc}, &stubClient{text: ""}, Params{Logger: quietLogger()})
	out, err := a.Analyze(context.Background(), ciSources, busyRepo)
	if err != nil {
		t.Fatalf("empty response must not be an error: %v", err)
	}
	if len(out.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(out.Recommendations))
	}
}

func TestAnalyzeFailuresAreAtomic(t *testing.T) {
	tests := []struct {
		name     string
		resolver stubResolver
		client   *stubClient
		check    func(error) bool
	}{
		{"resolution", stubResolver{err: docs.ErrUnresolved}, &stubClient{}, func(err error) bool { return errors.Is(err, docs.ErrUnresolved) }},
		{"service", stubResolver{doc: packagedDoc}, &stubClient{err: &llm.ServiceError{Provider: "anthropic", StatusCode: 529}}, func(err error) bool {
			var se *llm.ServiceError
			return errors.As(err, &se)
		}},
		{"payload", stubResolver{doc: packagedDoc}, &stubClient{text: "Sorry, I cannot help."}, func(err error) bool {
			var pe *PayloadError
			return errors.As(err, &pe)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.resolver, tt.client, Params{Logger: quietLogger()})
			out, err := a.Analyze(context.Background(), ciSources, busyRepo)
			if out != nil {
				t.Fatalf("expected no partial output")
			}
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildPromptDoesNotSubmit(t *testing.T) {
	client := &stubClient{}
	a := NewAnalyzer(stubResolver{doc: packagedDoc}, client, Params{ToolVersion: "0.1.0", Logger: quietLogger()})
	prompt, err := a.BuildPrompt(context.Background(), ciSources, busyRepo)
	if err != nil {
		t.Fatalf("BuildPrompt error: %v", err)
	}
	if len(client.prompts) != 0 {
		t.Fatalf("debug mode must not call the AI service")
	}
	if !strings.Contains(prompt, "(LOCAL FALLBACK)") || !strings.Contains(prompt, "  3|     runs-on: ubuntu-latest") {
		t.Fatalf("unexpected prompt:\n%s", prompt)
	}
}
