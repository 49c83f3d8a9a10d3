package recommendations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
	"github.com/BohdanBykov/gha-optimizer/pkg/docs"
	"github.com/BohdanBykov/gha-optimizer/pkg/version"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// Stage names reported to Params.OnStage.
const (
	StageDocs      = "Resolving documentation"
	StagePrompt    = "Building prompt"
	StageSubmit    = "Waiting for AI analysis"
	StageParse     = "Parsing response"
	StageNormalize = "Validating costs"
)

// Stages lists the pipeline stages in order.
var Stages = []string{StageDocs, StagePrompt, StageSubmit, StageParse, StageNormalize}

// Submitter sends a prompt to the reasoning service.
type Submitter interface {
	Submit(ctx context.Context, prompt string) (string, error)
}

// Resolver provides the guidance document.
type Resolver interface {
	Resolve(ctx context.Context) (*docs.Document, error)
}

// Params configures an Analyzer.
type Params struct {
	ToolVersion string
	Model       cost.Model
	Filter      *Filter
	Logger      *slog.Logger
	// OnStage is called when a pipeline stage starts.
	OnStage func(stage string)
}

// Analyzer runs the analysis pipeline.
type Analyzer struct {
	resolver Resolver
	client   Submitter
	params   Params
	now      func() time.Time
}

// NewAnalyzer builds an analyzer. client may be nil when only BuildPrompt is used.
func NewAnalyzer(resolver Resolver, client Submitter, params Params) *Analyzer {
	if params.ToolVersion == "" {
		params.ToolVersion = version.GetVersion()
	}
	if params.Model.Tolerance <= 0 {
		params.Model = cost.DefaultModel
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	return &Analyzer{resolver: resolver, client: client, params: params, now: time.Now}
}

// BuildPrompt returns the prompt Analyze would send, without contacting the
// reasoning service.
func (a *Analyzer) BuildPrompt(ctx context.Context, sources []workflow.Source, stats workflow.UsageStatistics) (string, error) {
	a.params.Logger.Info("Generating prompt (debug mode)", "workflows", len(sources))
	prompt, _, err := a.prompt(ctx, sources, stats, workflow.InspectAll(sources))
	if err != nil {
		return "", err
	}
	a.params.Logger.Info("Prompt generated successfully", "chars", len(prompt))
	return prompt, nil
}

// Analyze runs the full pipeline. On error no partial output is returned.
func (a *Analyzer) Analyze(ctx context.Context, sources []workflow.Source, stats workflow.UsageStatistics) (*Output, error) {
	if a.client == nil {
		return nil, errors.New("analyzer has no AI client configured")
	}
	start := a.now()
	runID := uuid.NewString()
	log := a.params.Logger.With("run_id", runID)
	log.Info("Starting AI analysis", "workflows", len(sources))

	inspections := workflow.InspectAll(sources)
	prompt, doc, err := a.prompt(ctx, sources, stats, inspections)
	if err != nil {
		return nil, err
	}

	a.stage(StageSubmit)
	text, err := a.client.Submit(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}

	a.stage(StageParse)
	raw, err := ParseSuggestions(text, log)
	if err != nil {
		return nil, err
	}

	a.stage(StageNormalize)
	n := Normalizer{Model: a.params.Model, Inspections: inspections, Logger: log}
	recs, totals, vs := n.Normalize(raw, stats)

	if !a.params.Filter.Empty() {
		before := len(recs)
		recs, err = a.params.Filter.Apply(recs)
		if err != nil {
			return nil, err
		}
		totals = ComputeTotals(recs)
		log.Info("Applied recommendation filter", "before", before, "after", len(recs))
	}

	log.Info("AI analysis completed", "recommendations", len(recs), "monthly_savings", totals.MonthlySavings)
	return &Output{
		RunID:           runID,
		Recommendations: recs,
		Totals:          totals,
		Stats:           vs,
		DocsSource:      string(doc.Provenance),
		Duration:        a.now().Sub(start),
		GeneratedAt:     start,
	}, nil
}

func (a *Analyzer) prompt(ctx context.Context, sources []workflow.Source, stats workflow.UsageStatistics, inspections map[string]workflow.Inspection) (string, *docs.Document, error) {
	a.stage(StageDocs)
	doc, err := a.resolver.Resolve(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("cannot proceed without optimization patterns documentation: %w", err)
	}

	a.stage(StagePrompt)
	prompt := BuildPrompt(PromptInput{
		ToolVersion: a.params.ToolVersion,
		Guidance:    doc.PromptText(a.params.ToolVersion),
		Sources:     sources,
		Stats:       stats,
		Inspections: inspections,
	})
	return prompt, doc, nil
}

func (a *Analyzer) stage(name string) {
	if a.params.OnStage != nil {
		a.params.OnStage(name)
	}
}
