package model

import "time"

// ClaimReport is the output of validating every document of a claim
type ClaimReport struct {
	ClaimID     string                    `json:"claim_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Documents   []DocumentSummary         `json:"documents"`
	Validations []CrossDocumentValidation `json:"validations"`
	Summary     ReportSummary             `json:"summary"`

	Review *ReviewNote `json:"review,omitempty"` // Optional LLM narrative, never alters validations
}

// DocumentSummary describes what was extracted from one document
type DocumentSummary struct {
	DocumentID   string          `json:"document_id"`
	DocumentName string          `json:"document_name"`
	Source       string          `json:"source,omitempty"` // File path the text came from
	Fields       ExtractedFields `json:"fields"`
	Cached       bool            `json:"cached"`
	Error        string          `json:"error,omitempty"`
}

// ReportSummary counts validations by severity and recommended action
type ReportSummary struct {
	Total      int                       `json:"total"`
	BySeverity map[Severity]int          `json:"by_severity"`
	ByAction   map[RecommendedAction]int `json:"by_action"`
	Fields     []Field                   `json:"fields,omitempty"` // Fields with at least one disagreement
}

// Summarize builds the summary block for a set of validations
func Summarize(validations []CrossDocumentValidation) ReportSummary {
	summary := ReportSummary{
		Total:      len(validations),
		BySeverity: make(map[Severity]int),
		ByAction:   make(map[RecommendedAction]int),
	}
	for _, v := range validations {
		summary.BySeverity[v.Severity]++
		summary.ByAction[v.RecommendedAction]++
		summary.Fields = append(summary.Fields, v.Field)
	}
	return summary
}

// ReviewNote contains an optional LLM-written narrative for reviewers
type ReviewNote struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	Strict    bool     `json:"strict_citations"` // Whether document citations were enforced
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
