package payload

import (
	"fmt"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// Wire shapes of the analysis payload as produced upstream.
// Pages are 1-indexed here and 0-indexed in canonical records.

type rawPayload struct {
	ClaimID     string          `json:"claim_id"`
	Documents   []rawDocument   `json:"documents"`
	Validations []rawValidation `json:"cross_document_validations"`
}

type rawDocument struct {
	DocumentID   string          `json:"document_id"`
	DocumentName string          `json:"document_name"`
	Corrections  []rawCorrection `json:"corrections"`
	Annotations  []rawAnnotation `json:"annotations"`
}

type rawBBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type rawSearchText struct {
	Text          string `json:"text"`
	Occurrence    int    `json:"occurrence"`
	ContextBefore string `json:"context_before"`
	ContextAfter  string `json:"context_after"`
}

type rawLocation struct {
	Page       int            `json:"page"`
	BBox       *rawBBox       `json:"bbox"`
	SearchText *rawSearchText `json:"search_text"`
}

type rawCorrection struct {
	rawLocation
	ID                  string  `json:"id"`
	Type                string  `json:"type"`
	Severity            string  `json:"severity"`
	FoundValue          string  `json:"found_value"`
	ExpectedValue       string  `json:"expected_value"`
	Confidence          float64 `json:"confidence"`
	RequiresHumanReview *bool   `json:"requires_human_review"`
	Reasoning           string  `json:"reasoning"`
	FormFieldName       string  `json:"form_field_name"`
}

type rawAnnotation struct {
	rawLocation
	ID                  string `json:"id"`
	Type                string `json:"type"`
	Text                string `json:"text"`
	Color               string `json:"color"`
	CreatedBy           string `json:"created_by"`
	CreatedAt           string `json:"created_at"`
	RelatedCorrectionID string `json:"related_correction_id"`
	RelatedValidationID string `json:"related_validation_id"`
}

type rawOccurrence struct {
	rawLocation
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	FoundValue   string  `json:"found_value"`
	Confidence   float64 `json:"confidence"`
}

type rawValidation struct {
	ID                string          `json:"id"`
	Field             string          `json:"field"`
	Severity          string          `json:"severity"`
	ExpectedValue     string          `json:"expected_value"`
	RecommendedAction string          `json:"recommended_action"`
	Reasoning         string          `json:"reasoning"`
	Occurrences       []rawOccurrence `json:"occurrences"`
}

// toLocation converts the 1-indexed wire location.
// With neither bbox nor search text, fallbackText becomes the search text.
func (l rawLocation) toLocation(fallbackText string) (model.Location, error) {
	var loc model.Location

	if l.BBox != nil {
		if l.Page < 1 {
			return loc, fmt.Errorf("%w: page must be >= 1 when bbox is set, got %d", ErrInvalidPayload, l.Page)
		}
		loc.BBox = &model.BBox{
			PageIndex: l.Page - 1,
			Left:      l.BBox.Left,
			Top:       l.BBox.Top,
			Width:     l.BBox.Width,
			Height:    l.BBox.Height,
		}
	}

	if l.SearchText != nil && l.SearchText.Text != "" {
		loc.SearchText = &model.SearchText{
			Text:          l.SearchText.Text,
			Occurrence:    l.SearchText.Occurrence,
			ContextBefore: l.SearchText.ContextBefore,
			ContextAfter:  l.SearchText.ContextAfter,
		}
	}

	if loc.BBox == nil && loc.SearchText == nil && fallbackText != "" {
		loc.SearchText = &model.SearchText{Text: fallbackText, Occurrence: 1}
	}

	if err := loc.Validate(); err != nil {
		return loc, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return loc, nil
}
