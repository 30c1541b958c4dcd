package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claimsiqhq/claimfix/internal/llm"
	"github.com/claimsiqhq/claimfix/internal/metrics"
	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/claimsiqhq/claimfix/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	outputDir       string
	noCache         bool
	noMarkdown      bool
	workers         int
	claimWorkers    int
	validateTimeout time.Duration
	llmProvider     string
	llmModel        string
	metricsFile     string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <manifest.yaml>...",
	Short: "Validate claim documents for cross-document consistency",
	Long: `Validate loads each claim manifest, extracts fields from every listed
document in parallel, and reports values that disagree between documents.

A JSON report (and a Markdown report unless --no-markdown) is written per
claim. An optional reviewer narrative is added with --llm-provider; it never
changes the findings.

Example:
  claimfix validate claims/CLM-1001.yaml
  claimfix validate claims/*.yaml --claims 4 --output-dir ./reports
  claimfix validate claim.yaml --llm-provider ollama --llm-model llama3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default from config)")
	validateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
	validateCmd.Flags().BoolVar(&noMarkdown, "no-markdown", false, "skip Markdown reports")
	validateCmd.Flags().IntVar(&workers, "workers", 0, "documents extracted at once per claim (default from config)")
	validateCmd.Flags().IntVar(&claimWorkers, "claims", 0, "claims validated at once (default from config)")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 10*time.Minute, "total timeout")

	validateCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "reviewer narrative provider (openai, ollama)")
	validateCmd.Flags().StringVar(&llmModel, "llm-model", "", "reviewer model name")
	validateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
}

func applyValidateFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noMarkdown {
		cfg.Output.Markdown = false
	}
	if flags.Changed("workers") {
		cfg.Concurrency.ExtractionWorkers = workers
	}
	if flags.Changed("claims") {
		cfg.Concurrency.Claims = claimWorkers
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = metricsFile
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyValidateFlags(cmd, cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
	defer cancel()

	logger := slog.Default()
	reviewer, err := llm.NewReviewer(llm.ConfigFromModel(cfg.LLM), logger)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder()

	p := pipeline.NewPipeline(cfg,
		pipeline.WithCache(pipeline.NewCache(cfg.Cache)),
		pipeline.WithReviewer(reviewer),
		pipeline.WithObserver(recorder),
		pipeline.WithLogger(logger))
	renderer := pipeline.NewRenderer()

	out := cmd.OutOrStdout()
	var (
		mu       sync.Mutex
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency.Claims > 0 {
		g.SetLimit(cfg.Concurrency.Claims)
	}
	for _, path := range args {
		g.Go(func() error {
			report, err := validateManifest(gctx, p, path)
			if err == nil {
				_, err = renderer.WriteReports(report, cfg.Output.Dir, cfg.Output.Markdown)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One bad manifest does not stop the others
				failures++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				return nil
			}
			renderer.RenderSummary(out, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d claims failed", failures, len(args))
	}
	return nil
}

func validateManifest(ctx context.Context, p *pipeline.Pipeline, path string) (*model.ClaimReport, error) {
	manifest, err := pipeline.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return p.ValidateClaim(ctx, *manifest)
}
