package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// Reviewer adds an optional narrative to claim reports.
// Failures degrade to warnings on the note; they never fail the claim.
type Reviewer struct {
	provider Provider
	config   Config
	logger   *slog.Logger
}

// NewReviewer creates a reviewer; a disabled provider yields a no-op reviewer
func NewReviewer(config Config, logger *slog.Logger) (*Reviewer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider, err := NewProvider(config, logger)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Reviewer{provider: provider, config: config, logger: logger}, nil
}

// IsEnabled reports whether a provider is configured
func (r *Reviewer) IsEnabled() bool {
	return r != nil && r.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (r *Reviewer) ProviderName() string {
	if !r.IsEnabled() {
		return ""
	}
	return r.provider.Name()
}

// Review returns a note for the report, or nil when disabled
func (r *Reviewer) Review(ctx context.Context, report model.ClaimReport) (*model.ReviewNote, error) {
	if !r.IsEnabled() {
		return nil, nil
	}

	logCtx := r.logger.With("claim_id", report.ClaimID, "provider", r.provider.Name())
	note := &model.ReviewNote{
		Enabled:  true,
		Provider: r.provider.Name(),
		Model:    r.config.Model,
		Strict:   r.config.StrictCitations,
	}

	if !r.provider.IsAvailable(ctx) {
		note.Enabled = false
		note.Warnings = append(note.Warnings, fmt.Sprintf("LLM provider %s is not available", r.provider.Name()))
		logCtx.Warn("Reviewer unavailable")
		return note, nil
	}

	resp, err := r.provider.Review(ctx, ReviewRequest{
		Report:      report,
		DocumentIDs: DocumentIDs(report),
		Model:       r.config.Model,
		MaxTokens:   r.config.MaxTokens,
	})
	if err != nil {
		note.Warnings = append(note.Warnings, fmt.Sprintf("Narrative generation failed: %v", err))
		logCtx.Warn("Reviewer narrative failed", "error", err)
		return note, nil
	}

	note.SummaryMD = resp.Narrative
	if resp.Model != "" {
		note.Model = resp.Model
	}
	note.Warnings = append(note.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d document citations", len(resp.CitedDocuments)))
	logCtx.Info("Reviewer narrative generated", "tokens", resp.TokensUsed, "citations", len(resp.CitedDocuments))
	return note, nil
}

// RenderMarkdown renders a note as a standalone markdown section
func RenderMarkdown(note *model.ReviewNote) string {
	if note == nil || !note.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Reviewer Narrative\n\n")
	b.WriteString("> GENERATED CONTENT. The findings above were determined independently of this narrative.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", note.Provider)
	if note.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", note.Model)
	}
	fmt.Fprintf(&b, "- **Strict Citations**: %t\n\n", note.Strict)

	if note.SummaryMD == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(note.SummaryMD)
		b.WriteString("\n")
	}

	if len(note.Warnings) > 0 {
		b.WriteString("\n### Notes\n\n")
		for _, w := range note.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
