package cli

import (
	"encoding/json"
	"fmt"

	"github.com/claimsiqhq/claimfix/internal/extract"
	"github.com/spf13/cobra"
)

var minPhoneDigits int

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract claim fields from a single document",
	Long: `Extract reads a text or HTML document and prints every claim field
it recognizes as JSON, with confidence and location.

Example:
  claimfix extract fnol.txt
  claimfix extract estimate.html --min-phone-digits 7`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntVar(&minPhoneDigits, "min-phone-digits", 0, "minimum digits for a phone number (default from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("min-phone-digits") {
		cfg.Extraction.MinPhoneDigits = minPhoneDigits
	}

	text, err := extract.LoadDocumentText(args[0])
	if err != nil {
		return err
	}

	fields := extract.NewFieldExtractor(cfg.Extraction).Extract(text)
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
