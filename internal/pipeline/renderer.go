package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/claimsiqhq/claimfix/internal/llm"
	"github.com/claimsiqhq/claimfix/internal/model"
)

// Renderer writes claim reports as JSON and Markdown
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// ReportPaths lists the files written for one claim
type ReportPaths struct {
	JSON     string
	Markdown string
}

// WriteReports writes <claim>.json and, when markdown is set, <claim>.md into dir
func (r *Renderer) WriteReports(report *model.ClaimReport, dir string, markdown bool) (ReportPaths, error) {
	var paths ReportPaths
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(dir, safeFileName(report.ClaimID))
	paths.JSON = base + ".json"
	if err := r.RenderJSON(report, paths.JSON); err != nil {
		return paths, err
	}

	if markdown {
		paths.Markdown = base + ".md"
		if err := r.RenderMarkdown(report, paths.Markdown); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.ClaimReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the human-readable report
func (r *Renderer) RenderMarkdown(report *model.ClaimReport, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.ClaimReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim %s\n\n", report.ClaimID)
	fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Documents\n\n")
	b.WriteString("| Document | Name | Fields | Cached | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, d := range report.Documents {
		status := "ok"
		if d.Error != "" {
			status = "error: " + escapeCell(d.Error)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %t | %s |\n", escapeCell(d.DocumentID), escapeCell(d.DocumentName), len(d.Fields), d.Cached, status)
	}

	b.WriteString("\n## Inconsistencies\n\n")
	if len(report.Validations) == 0 {
		b.WriteString("All compared documents agree.\n")
	} else {
		fmt.Fprintf(&b, "%d found: %d critical, %d warning, %d info.\n\n",
			report.Summary.Total,
			report.Summary.BySeverity[model.SeverityCritical],
			report.Summary.BySeverity[model.SeverityWarning],
			report.Summary.BySeverity[model.SeverityInfo])

		for _, v := range report.Validations {
			fmt.Fprintf(&b, "### %s (%s, %s)\n\n", v.Field, v.Severity, v.RecommendedAction)
			b.WriteString("| Document | Value | Confidence |\n")
			b.WriteString("|---|---|---|\n")
			for _, dv := range v.Documents {
				fmt.Fprintf(&b, "| %s | %s | %.2f |\n", escapeCell(dv.DocumentID), escapeCell(dv.FoundValue), dv.Confidence)
			}
			if v.ExpectedValue != "" {
				fmt.Fprintf(&b, "\nExpected: `%s`\n", v.ExpectedValue)
			}
			if v.Reasoning != "" {
				fmt.Fprintf(&b, "\n%s\n", v.Reasoning)
			}
			b.WriteString("\n")
		}
	}

	if narrative := llm.RenderMarkdown(report.Review); narrative != "" {
		b.WriteString("\n")
		b.WriteString(narrative)
	}
	return b.String()
}

// RenderSummary prints a short per-claim summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.ClaimReport) {
	failed := 0
	for _, d := range report.Documents {
		if d.Error != "" {
			failed++
		}
	}

	fmt.Fprintf(w, "Claim %s: %d documents", report.ClaimID, len(report.Documents))
	if failed > 0 {
		fmt.Fprintf(w, " (%d failed)", failed)
	}
	fmt.Fprintf(w, ", %d inconsistencies", report.Summary.Total)
	if report.Summary.Total > 0 {
		fmt.Fprintf(w, " [critical %d, warning %d, info %d]",
			report.Summary.BySeverity[model.SeverityCritical],
			report.Summary.BySeverity[model.SeverityWarning],
			report.Summary.BySeverity[model.SeverityInfo])
	}
	fmt.Fprintln(w)
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
