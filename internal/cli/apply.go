package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claimsiqhq/claimfix/internal/fix"
	"github.com/claimsiqhq/claimfix/internal/metrics"
	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/claimsiqhq/claimfix/internal/viewer"
	"github.com/spf13/cobra"
)

var (
	viewerURL    string
	resultsPath  string
	applyTimeout time.Duration
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply <payload.json>",
	Short: "Apply corrections and annotations through the document viewer",
	Long: `Apply adapts an analysis payload and sends every auto-correctable
correction and every annotation to the viewer bridge, trying each correction
strategy in turn. Corrections that need human review are skipped.

Per-item results are printed as JSON, or written to --results.

Example:
  claimfix apply analysis.json --viewer-url http://localhost:8700
  claimfix apply analysis.json --results applied.json --metrics-file claimfix.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&viewerURL, "viewer-url", "", "viewer bridge base URL (default from config)")
	applyCmd.Flags().StringVar(&resultsPath, "results", "", "write results JSON to this path instead of stdout")
	applyCmd.Flags().BoolVar(&noSchema, "no-schema", false, "skip payload schema validation")
	applyCmd.Flags().DurationVar(&applyTimeout, "timeout", 5*time.Minute, "total timeout")
	applyCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
}

// applyOutput is the results document written by apply
type applyOutput struct {
	Result  fix.ProcessingResult    `json:"result"`
	Payload model.CorrectionPayload `json:"payload"`
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("viewer-url") {
		cfg.Viewer.BaseURL = viewerURL
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Metrics.TextfilePath = metricsFile
	}

	adapted, err := adaptPayloadFile(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	logger := slog.Default()
	client, err := viewer.NewClient(cfg.Viewer, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), applyTimeout)
	defer cancel()

	recorder := metrics.NewRecorder()
	claim := adapted.Payload
	result := fix.ProcessClaim(ctx, claim, client.EngineFunc(cfg.Resolver,
		fix.WithRecorder(recorder),
		fix.WithLogger(logger)))
	if err := fix.MarkApplied(&claim, result); err != nil {
		return err
	}

	logger.Info("Claim processed",
		"claim_id", claim.ClaimID,
		"applied", result.Applied(),
		"errors", len(result.Errors),
		"skipped", len(result.Skipped))

	if err := writeApplyOutput(cmd, applyOutput{Result: result, Payload: claim}); err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Claim %s: %d applied, %d failed, %d skipped for review\n",
		claim.ClaimID, result.Applied(), len(result.Errors), len(result.Skipped))
	return nil
}

func writeApplyOutput(cmd *cobra.Command, out applyOutput) (err error) {
	if resultsPath == "" {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	f, err := os.Create(resultsPath)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close results file: %w", closeErr)
		}
	}()
	return writeJSON(f, out)
}
