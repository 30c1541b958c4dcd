package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// ErrCitationLeak is returned when a narrative cites a document outside the claim
var ErrCitationLeak = errors.New("citation leak")

const systemPrompt = "You write short reviewer notes for insurance claim file inconsistencies. You never change, add or re-rank findings."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Review writes a reviewer narrative for a claim report
	Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ReviewRequest contains the input for a reviewer narrative
type ReviewRequest struct {
	Report model.ClaimReport

	// DocumentIDs is the allowlist of documents the narrative may cite
	DocumentIDs []string

	// Prompt overrides the default prompt
	Prompt string

	Model     string
	MaxTokens int
}

// ReviewResponse contains the narrative and what it cited
type ReviewResponse struct {
	Narrative      string
	CitedDocuments []string
	Model          string
	TokensUsed     int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictCitations rejects narratives citing documents outside the claim
	StrictCitations bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:        "", // Disabled by default
		Timeout:         30,
		StrictCitations: true,
		MaxTokens:       800,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		StrictCitations: cfg.Strict,
		MaxTokens:       cfg.MaxTokens,
	}
}

// BuildPrompt constructs the default reviewer prompt
func BuildPrompt(report model.ClaimReport, documentIDs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are writing a reviewer note for claim %s. The findings below were produced by deterministic rules and are final.

RULES:
1. Cite documents ONLY as [doc:ID], using IDs from this list:
%s

2. Do not cite any other document, person or source.
3. Do not add findings, change severities or suggest values that are not listed.
4. If there are no findings, say that the documents agree.

Documents: %d
Inconsistencies: %d (critical %d, warning %d, info %d)

Findings:
`, report.ClaimID, joinDocumentIDs(documentIDs), len(report.Documents), report.Summary.Total,
		report.Summary.BySeverity[model.SeverityCritical],
		report.Summary.BySeverity[model.SeverityWarning],
		report.Summary.BySeverity[model.SeverityInfo])

	if len(report.Validations) == 0 {
		b.WriteString("- none\n")
	}
	for _, v := range report.Validations {
		fmt.Fprintf(&b, "- %s [%s, %s]:", v.Field, v.Severity, v.RecommendedAction)
		for _, dv := range v.Documents {
			fmt.Fprintf(&b, " [doc:%s] %q;", dv.DocumentID, dv.FoundValue)
		}
		if v.ExpectedValue != "" {
			fmt.Fprintf(&b, " expected %q", v.ExpectedValue)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nWrite 3-5 sentences telling a reviewer what to check first.")
	return b.String()
}

// DocumentIDs returns the citation allowlist for a report
func DocumentIDs(report model.ClaimReport) []string {
	ids := make([]string, 0, len(report.Documents))
	for _, d := range report.Documents {
		ids = append(ids, d.DocumentID)
	}
	return ids
}

func joinDocumentIDs(ids []string) string {
	if len(ids) == 0 {
		return "(no documents)"
	}
	var b strings.Builder
	for i, id := range ids {
		if i >= 50 {
			fmt.Fprintf(&b, "\n... and %d more documents", len(ids)-50)
			break
		}
		fmt.Fprintf(&b, "\n- %s", id)
	}
	return b.String()
}

var citationPattern = regexp.MustCompile(`\[doc:([^\]\s]+)\]`)

// extractCitations returns the distinct document ids cited as [doc:ID], in order
func extractCitations(text string) []string {
	seen := make(map[string]bool)
	var cited []string
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			cited = append(cited, m[1])
		}
	}
	return cited
}

// checkCitations rejects any cited id that is not in the allowlist
func checkCitations(cited, allowed []string) error {
	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}
	for _, id := range cited {
		if !allow[id] {
			return fmt.Errorf("%w: narrative cited unknown document %s", ErrCitationLeak, id)
		}
	}
	return nil
}

// finishReview applies the citation policy shared by every provider
func finishReview(cfg Config, req ReviewRequest, text, modelName string, tokens int) (*ReviewResponse, error) {
	narrative := strings.TrimSpace(text)
	cited := extractCitations(narrative)
	if cfg.StrictCitations {
		if err := checkCitations(cited, req.DocumentIDs); err != nil {
			return nil, err
		}
	}
	return &ReviewResponse{
		Narrative:      narrative,
		CitedDocuments: cited,
		Model:          modelName,
		TokensUsed:     tokens,
	}, nil
}

func maxTokensFor(req ReviewRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return DefaultConfig().MaxTokens
}
