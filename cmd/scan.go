package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BohdanBykov/gha-optimizer/internal"
	"github.com/BohdanBykov/gha-optimizer/pkg/config"
	"github.com/BohdanBykov/gha-optimizer/pkg/cost"
	"github.com/BohdanBykov/gha-optimizer/pkg/docs"
	"github.com/BohdanBykov/gha-optimizer/pkg/github"
	"github.com/BohdanBykov/gha-optimizer/pkg/llm"
	"github.com/BohdanBykov/gha-optimizer/pkg/progress"
	"github.com/BohdanBykov/gha-optimizer/pkg/recommendations"
	"github.com/BohdanBykov/gha-optimizer/pkg/reporter"
	"github.com/BohdanBykov/gha-optimizer/pkg/version"
	"github.com/BohdanBykov/gha-optimizer/pkg/workflow"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [owner/repo]",
	Short: "Analyze workflows and report optimization opportunities",
	Long: `Analyze GitHub Actions workflows with the configured AI provider and report
optimization recommendations with validated time and cost savings.

With an owner/repo argument, workflows, run counts and repository metadata are
collected from the GitHub API (requires a token). Without it, workflow files are
read from --workflows-dir and usage is taken from --runs and --days.

Examples:
  # Analyze a repository on GitHub over the last 14 days
  gha-optimizer scan microsoft/vscode --max-history-days 14

  # Analyze only selected workflows
  gha-optimizer scan acme/app --workflow ci.yml --workflow release.yml

  # Analyze local workflows
  gha-optimizer scan --workflows-dir .github/workflows --runs 300 --days 30

  # Keep only high-value recommendations
  gha-optimizer scan acme/app --filter 'monthly_cost_savings > 10.0' --min-confidence 0.7

  # Save the prompt without calling the AI provider
  gha-optimizer scan acme/app --output-prompt-file prompt.txt --local-docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("workflows-dir", workflow.DefaultDir, "directory of local workflow files")
	scanCmd.Flags().Bool("recursive", false, "recursively collect local workflow files")
	scanCmd.Flags().Int("runs", 0, "number of workflow runs in the observation window (local mode)")
	scanCmd.Flags().Int("days", 30, "observation window in days for --runs (local mode)")
	scanCmd.Flags().String("repository", "", "repository name shown in reports (local mode)")
	scanCmd.Flags().String("language", "", "primary language of the repository")
	scanCmd.Flags().String("token", "", "GitHub personal access token (default $GITHUB_TOKEN)")
	scanCmd.Flags().Int("max-history-days", 30, "days of workflow run history to analyze")
	scanCmd.Flags().StringSlice("workflow", []string{}, "workflow file to analyze (repeatable, default: all)")
	scanCmd.Flags().String("output-prompt-file", "", "debug: save the AI prompt to this file without calling the AI provider")
	scanCmd.Flags().Bool("local-docs", false, "debug: use the local optimization patterns document only")
	scanCmd.Flags().String("filter", "", "CEL expression recommendations must satisfy")
	scanCmd.Flags().Float64("min-confidence", 0, "minimum confidence score (0-1)")
	scanCmd.Flags().String("provider", "", "AI provider (anthropic, openai, ollama)")
	scanCmd.Flags().String("model", "", "AI model identifier")
	scanCmd.Flags().Bool("show-progress", true, "show pipeline progress on stderr")

	bindFlags := []struct {
		name string
		flag string
	}{
		{"analysis.workflows_dir", "workflows-dir"},
		{"analysis.filter", "filter"},
		{"analysis.min_confidence", "min-confidence"},
		{"github.token", "token"},
		{"github.max_history_days", "max-history-days"},
		{"docs.force_local", "local-docs"},
		{"ai.provider", "provider"},
		{"ai.model", "model"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.name, scanCmd.Flags().Lookup(bf.flag)); err != nil {
			slog.Error("Failed to bind flag", "name", bf.name, "error", err)
		}
	}
}

// scanInputs is what a scan analyzes.
type scanInputs struct {
	sources []workflow.Source
	stats   workflow.UsageStatistics
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := GetLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	promptFile, _ := cmd.Flags().GetString("output-prompt-file")
	filter, err := recommendations.NewFilter(cfg.Analysis.Filter, cfg.Analysis.MinConfidence)
	if err != nil {
		return err
	}

	// The AI client is built before any collection so missing credentials
	// fail fast. Debug mode never contacts the provider.
	var client *llm.Client
	if promptFile == "" {
		client, err = newLLMClient(cfg)
		if err != nil {
			return err
		}
	}

	inputs, err := collectInputs(ctx, cmd, cfg, args)
	if err != nil {
		return err
	}

	params := recommendations.Params{
		ToolVersion: version.GetVersion(),
		Model:       cost.NewModel(cfg.Analysis.Tolerance),
		Filter:      filter,
		Logger:      logger,
	}

	if promptFile != "" {
		analyzer := recommendations.NewAnalyzer(newResolver(cfg), nil, params)
		return writePrompt(ctx, analyzer, inputs, promptFile)
	}

	showProgress, _ := cmd.Flags().GetBool("show-progress")
	var tracker *progress.StageTracker
	if showProgress {
		tracker = progress.NewStageTracker(progress.NewProgressBar(len(recommendations.Stages), ""), recommendations.Stages)
		params.OnStage = tracker.Start
	}

	analyzer := recommendations.NewAnalyzer(newResolver(cfg), client, params)
	out, err := analyzer.Analyze(ctx, inputs.sources, inputs.stats)
	if tracker != nil {
		tracker.Done()
	}
	if err != nil {
		return err
	}

	report := reporter.NewReport(out, inputs.stats, len(inputs.sources))
	report.Metadata.Provider = cfg.AI.Provider
	report.Metadata.Model = client.Model()
	return writeReport(ctx, cfg, report)
}

func newLLMClient(cfg *config.Config) (*llm.Client, error) {
	return llm.New(llm.Config{
		Provider:    cfg.AI.Provider,
		Model:       cfg.AI.Model,
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Timeout:     cfg.AI.Timeout,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, llm.WithLogger(GetLogger()), llm.WithRetry(cfg.AI.MaxAttempts, llm.DefaultBaseDelay))
}

func newResolver(cfg *config.Config) *docs.Resolver {
	return docs.Shared(docs.Options{
		Version:      version.GetVersion(),
		RemoteURL:    cfg.Docs.RemoteURL,
		Packaged:     internal.GetPackagedDocsFS(),
		LocalPath:    cfg.Docs.LocalPath,
		ForceLocal:   cfg.Docs.ForceLocal,
		ProbeTimeout: cfg.Docs.ProbeTimeout,
		Logger:       GetLogger(),
	})
}

func collectInputs(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) (*scanInputs, error) {
	logger := GetLogger()
	only, _ := cmd.Flags().GetStringSlice("workflow")
	language, _ := cmd.Flags().GetString("language")

	if len(args) == 1 {
		owner, repo, err := github.ParseRepository(args[0])
		if err != nil {
			return nil, err
		}
		if cfg.GitHub.Token == "" {
			return nil, fmt.Errorf("GitHub token is required: set GITHUB_TOKEN or use --token")
		}

		client := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token).WithLogger(logger)
		user, err := client.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		logger.Debug("Authenticated with GitHub", "user", user.Login)

		collection, err := client.Collect(ctx, owner, repo, cfg.GitHub.MaxHistoryDays, only)
		if err != nil {
			return nil, err
		}
		if len(collection.Sources) == 0 {
			return nil, fmt.Errorf("no workflow files found in %s/%s", owner, repo)
		}
		stats := collection.Stats
		if language != "" {
			stats.Language = language
		}
		return &scanInputs{sources: collection.Sources, stats: stats}, nil
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	runs, _ := cmd.Flags().GetInt("runs")
	days, _ := cmd.Flags().GetInt("days")
	repository, _ := cmd.Flags().GetString("repository")
	if runs < 0 || days < 0 {
		return nil, fmt.Errorf("--runs and --days must not be negative")
	}

	options := workflow.DefaultCollectOptions()
	options.Recursive = recursive
	options.Only = only
	sources, err := workflow.CollectLocal(cfg.Analysis.WorkflowsDir, options)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no workflow files found in %s", cfg.Analysis.WorkflowsDir)
	}
	if repository == "" {
		if wd, err := os.Getwd(); err == nil {
			repository = filepath.Base(wd)
		}
	}

	logger.Info("Collected local workflows", "dir", cfg.Analysis.WorkflowsDir, "workflows", len(sources))
	return &scanInputs{
		sources: sources,
		stats: workflow.UsageStatistics{
			RunCount:   runs,
			WindowDays: days,
			Repository: repository,
			Language:   language,
		},
	}, nil
}

func writePrompt(ctx context.Context, analyzer *recommendations.Analyzer, inputs *scanInputs, path string) error {
	logger := GetLogger()
	logger.Info("Debug mode: saving AI prompt", "file", path)

	prompt, err := analyzer.BuildPrompt(ctx, inputs.sources, inputs.stats)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(prompt), 0644); err != nil {
		return fmt.Errorf("failed to save prompt to file: %w", err)
	}
	logger.Info("Prompt saved successfully", "file", path)
	return nil
}

func writeReport(ctx context.Context, cfg *config.Config, report *reporter.Report) error {
	logger := GetLogger()
	options := &reporter.ReportOptions{
		Format:     cfg.Output.Format,
		OutputFile: cfg.Output.File,
		NoColor:    cfg.Output.NoColor,
		Verbose:    cfg.Output.Verbose,
	}
	if err := reporter.ValidateReportOptions(options); err != nil {
		return err
	}

	writer := os.Stdout
	if options.OutputFile != "" {
		file, err := os.Create(options.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Error("Failed to close output file", "error", err)
			}
		}()
		writer = file
	}

	noColor := !reporter.ColorEnabled(writer, options.NoColor)
	r, err := reporter.NewFactory().CreateReporterWithOptions(options.Format, noColor, options.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}
	if err := r.WriteReport(ctx, report, writer); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Debug("Report written", "format", r.GetFormat(), "file", options.OutputFile)
	return nil
}
