package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/browser"
	"github.com/sekbote/job-applier/internal/config"
	"github.com/sekbote/job-applier/internal/db"
	"github.com/sekbote/job-applier/internal/engine"
	"github.com/sekbote/job-applier/internal/llm"
	"github.com/sekbote/job-applier/internal/logging"
	"github.com/sekbote/job-applier/internal/observability"
	"github.com/sekbote/job-applier/internal/pipeline"
	"github.com/sekbote/job-applier/internal/profile"
	"github.com/sekbote/job-applier/internal/runguard"
	"github.com/sekbote/job-applier/internal/scoring"
	"github.com/sekbote/job-applier/internal/scraper"
	"github.com/sekbote/job-applier/internal/tailoring"
	"github.com/sekbote/job-applier/internal/tracker"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: scrape, score, tailor, apply",
	Long: `Runs one full application cycle: scrape job boards, score each listing against
your resume, tailor and render a PDF resume for strong matches, and submit
applications through browser automation. Every job lands in the tracker
spreadsheet exactly once.

A successful run is recorded in the run guard; a second run on the same day
exits with code 2 unless --force is given.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runRole        string
	runLocations   []string
	runPlatforms   []string
	runDays        int
	runMaxJobs     int
	runMinScore    int
	runTemplate    string
	runResume      string
	runDryRun      bool
	runForce       bool
	runHeadless    bool
	runVerbose     bool
	runAPIKey      string
	runDatabaseURL string
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runRole, "role", "r", "", "Job title to search for")
	runCommand.Flags().StringArrayVarP(&runLocations, "location", "l", nil, "Location to search (repeatable)")
	runCommand.Flags().StringArrayVarP(&runPlatforms, "platform", "p", nil, "Platform to scrape: linkedin, indeed, glassdoor (repeatable)")
	runCommand.Flags().IntVar(&runDays, "days", 0, "Only consider postings from the last N days")
	runCommand.Flags().IntVar(&runMaxJobs, "max-jobs", 0, "Maximum applications per run")
	runCommand.Flags().IntVar(&runMinScore, "min-score", 0, "Minimum match score to apply (0-100)")
	runCommand.Flags().StringVarP(&runTemplate, "template", "t", "", "Resume template: "+strings.Join(tailoring.TemplateNames(), ", "))
	runCommand.Flags().StringVar(&runResume, "resume", "", "Path to the base resume")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Scrape, score, and tailor but do not apply")
	runCommand.Flags().BoolVar(&runForce, "force", false, "Run even if today's run already completed")
	runCommand.Flags().BoolVar(&runHeadless, "headless", true, "Run the browser headless")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for optional run-history persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	summary, err := executePipeline(ctx, cfg, runDryRun, runForce)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRan) {
			fmt.Fprintln(os.Stdout, "Pipeline already ran today. Use --force to run again.")
			os.Exit(2)
		}
		return err
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintSummary(summary)
	}
	return nil
}

// loadRunConfig merges config file, CLI overrides, and defaults, in that
// priority order.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("role") {
		cfg.Role = runRole
	}
	if cmd.Flags().Changed("location") {
		cfg.Locations = runLocations
	}
	if cmd.Flags().Changed("platform") {
		cfg.Platforms = runPlatforms
	}
	if cmd.Flags().Changed("days") {
		cfg.DaysBack = runDays
	}
	if cmd.Flags().Changed("max-jobs") {
		cfg.MaxJobs = runMaxJobs
	}
	if cmd.Flags().Changed("min-score") {
		cfg.MinScore = runMinScore
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = runTemplate
	}
	if cmd.Flags().Changed("resume") {
		cfg.BaseResume = runResume
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = runHeadless
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := validateTemplate(cfg.Template); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateTemplate checks the name against the templates that actually ship,
// not the static list in the config validate tag.
func validateTemplate(name string) error {
	available := tailoring.TemplateNames()
	if slices.Contains(available, name) {
		return nil
	}
	return fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(available, ", "))
}

// executePipeline wires every collaborator and runs the pipeline once.
func executePipeline(ctx context.Context, cfg config.Config, dryRun, force bool) (*pipeline.Summary, error) {
	logger, err := logging.NewWithFile(cfg.LogsDir, cfg.Verbose)
	if err != nil {
		logger.Warn("file logging unavailable, console only", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	client, err := buildLLMClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	defer client.Close() //nolint:errcheck

	store := tracker.NewXLSXStore(cfg.TrackerPath, logger)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initializing tracker: %w", err)
	}
	guard := runguard.NewFileGuard(cfg.LogsDir)
	extractor := profile.NewExtractor(client, cfg.LogsDir, logger)
	scorer := scoring.NewLLMScorer(client)
	tailorer := tailoring.NewLLMTailorer(client, tailoring.NewPDFRenderer(), cfg.ResumesDir, logger)

	// The engine needs the profile up front to answer form questions. The
	// extraction is cached, so the pipeline's own Extract call is free.
	prof, err := extractor.Extract(ctx, cfg.BaseResume)
	if err != nil {
		return nil, err
	}

	session, err := browser.NewSession(ctx, browser.Options{
		Headless:   cfg.Headless,
		CookiePath: "linkedin_session.json",
		ChromePath: os.Getenv("CHROME_PATH"),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	defer session.Close() //nolint:errcheck

	if email, password := os.Getenv("LINKEDIN_EMAIL"), os.Getenv("LINKEDIN_PASSWORD"); email != "" && password != "" && !dryRun {
		if err := session.Login(ctx, email, password); err != nil {
			logger.Warn("linkedin login failed, easy apply may hit the auth wall", zap.Error(err))
		}
	}

	eng := engine.New(store, []engine.Strategy{
		engine.NewEasyApply(session, prof, logger),
		engine.NewAgentBrowser(nil, logger),
		engine.NewVisionFill(session, client, prof, logger),
		engine.NewBlindFill(session, prof, logger),
	}, logger)

	var history pipeline.History
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("run history disabled, database unreachable", zap.Error(err))
		} else {
			defer database.Close()
			history = database
		}
	}

	runner := pipeline.NewRunner(guard, store, scraper.NewMulti(logger), extractor, scorer, tailorer, eng, history, logger)
	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		runner.OnScore = printer.PrintScore
	}
	return runner.Run(ctx, pipeline.Params{
		Role:       cfg.Role,
		Locations:  cfg.Locations,
		Platforms:  cfg.Platforms,
		DaysBack:   cfg.DaysBack,
		MaxJobs:    cfg.MaxJobs,
		MinScore:   cfg.MinScore,
		Template:   cfg.Template,
		BaseResume: cfg.BaseResume,
		DryRun:     dryRun,
		Force:      force,
	})
}

// buildLLMClient assembles the provider chain: Gemini first, Copilot as
// fallback when GITHUB_TOKEN is set.
func buildLLMClient(ctx context.Context, apiKey string) (llm.Client, error) {
	var providers []llm.Client

	if apiKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, apiKey)
		if err != nil {
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		providers = append(providers, gemini)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		copilot, err := llm.NewCopilotClient(token)
		if err != nil {
			return nil, fmt.Errorf("creating Copilot client: %w", err)
		}
		providers = append(providers, copilot)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no LLM provider configured: set GEMINI_API_KEY or GITHUB_TOKEN")
	}
	fallback, err := llm.NewFallback(providers...)
	if err != nil {
		return nil, err
	}
	return fallback, nil
}
