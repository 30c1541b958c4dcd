package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/claimsiqhq/claimfix/internal/payload"
	"github.com/spf13/cobra"
)

var (
	documentID string
	noSchema   bool
)

// adaptCmd represents the adapt command
var adaptCmd = &cobra.Command{
	Use:   "adapt <payload.json>",
	Short: "Map an analysis payload onto canonical correction records",
	Long: `Adapt validates an analysis payload against the payload schema and prints
the canonical correction payload as JSON. With --document, the legacy issue
bundle for that one document is printed instead.

Example:
  claimfix adapt analysis.json
  claimfix adapt analysis.json --document DOC-2`,
	Args: cobra.ExactArgs(1),
	RunE: runAdapt,
}

func init() {
	rootCmd.AddCommand(adaptCmd)

	adaptCmd.Flags().StringVar(&documentID, "document", "", "print the legacy issue bundle for this document")
	adaptCmd.Flags().BoolVar(&noSchema, "no-schema", false, "skip payload schema validation")
}

func runAdapt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := adaptPayloadFile(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	var out interface{} = result
	if documentID != "" {
		bundle, err := payload.BundleFor(result.Payload, documentID)
		if err != nil {
			return err
		}
		out = bundle
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// adaptPayloadFile reads and adapts a payload, listing schema violations on stderr
func adaptPayloadFile(cmd *cobra.Command, cfg *model.Config, path string) (*payload.CorrectionPayloadResult, error) {
	if noSchema {
		cfg.Payload.ValidateSchema = false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	adapter, err := payload.NewAdapter(cfg.Payload, slog.Default())
	if err != nil {
		return nil, err
	}

	result, err := adapter.AdaptCorrectionPayload(raw)
	if err != nil {
		var schemaErr *payload.SchemaError
		if errors.As(err, &schemaErr) {
			for _, v := range schemaErr.Violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", v.Path, v.Message)
			}
			return nil, fmt.Errorf("%s: payload rejected with %d schema violations", path, len(schemaErr.Violations))
		}
		return nil, err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", w)
	}
	return result, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
