package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a status change is not allowed by the lifecycle
var ErrInvalidTransition = errors.New("invalid status transition")

// Severity is the business-impact classification of a correction or validation
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// RecommendedAction is the suggested disposition for a correction or validation
type RecommendedAction string

const (
	ActionAutoCorrect   RecommendedAction = "auto_correct"
	ActionFlagForReview RecommendedAction = "flag_for_review"
	ActionEscalate      RecommendedAction = "escalate"
	ActionInformational RecommendedAction = "informational"
)

// CorrectionType is the closed set of correction categories
type CorrectionType string

const (
	CorrectionTypo              CorrectionType = "typo"
	CorrectionDateError         CorrectionType = "date_error"
	CorrectionNumericError      CorrectionType = "numeric_error"
	CorrectionNameMismatch      CorrectionType = "name_mismatch"
	CorrectionAddressError      CorrectionType = "address_error"
	CorrectionFormatError       CorrectionType = "format_error"
	CorrectionMissingValue      CorrectionType = "missing_value"
	CorrectionInconsistentValue CorrectionType = "inconsistent_value"
	CorrectionOther             CorrectionType = "other"
)

// AllCorrectionTypes lists every correction type
var AllCorrectionTypes = []CorrectionType{
	CorrectionTypo,
	CorrectionDateError,
	CorrectionNumericError,
	CorrectionNameMismatch,
	CorrectionAddressError,
	CorrectionFormatError,
	CorrectionMissingValue,
	CorrectionInconsistentValue,
	CorrectionOther,
}

// ParseCorrectionType converts a wire name into a CorrectionType
func ParseCorrectionType(s string) (CorrectionType, error) {
	for _, t := range AllCorrectionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown correction type %q", s)
}

// CorrectionStatus tracks a correction through review
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApplied  CorrectionStatus = "applied"
	CorrectionRejected CorrectionStatus = "rejected"
	CorrectionManual   CorrectionStatus = "manual"
)

// Evidence explains why a correction was proposed
type Evidence struct {
	Reasoning string `json:"reasoning"`
}

// Correction is a single proposed fix for a found-vs-expected discrepancy
type Correction struct {
	ID                  string            `json:"id"`
	Type                CorrectionType    `json:"type"`
	Severity            Severity          `json:"severity"`
	Location            Location          `json:"location"`
	FoundValue          string            `json:"found_value"`
	ExpectedValue       string            `json:"expected_value"`
	Confidence          float64           `json:"confidence"`
	RequiresHumanReview bool              `json:"requires_human_review"`
	RecommendedAction   RecommendedAction `json:"recommended_action"`
	Evidence            Evidence          `json:"evidence"`
	FormFieldName       string            `json:"form_field_name,omitempty"`
	Status              CorrectionStatus  `json:"status"`
}

// IsAutoApplicable reports whether batch processing may apply the correction unattended
func (c Correction) IsAutoApplicable() bool {
	return c.RecommendedAction == ActionAutoCorrect && !c.RequiresHumanReview
}

// Transition moves the correction to a new status.
// Only pending corrections may move, and only to applied, rejected or manual.
func (c *Correction) Transition(to CorrectionStatus) error {
	if c.Status != CorrectionPending && c.Status != "" {
		return fmt.Errorf("%w: correction %s is %s", ErrInvalidTransition, c.ID, c.Status)
	}
	switch to {
	case CorrectionApplied, CorrectionRejected, CorrectionManual:
		c.Status = to
		return nil
	default:
		return fmt.Errorf("%w: correction %s cannot move to %q", ErrInvalidTransition, c.ID, to)
	}
}

// AnnotationType is the kind of visual markup placed on a page
type AnnotationType string

const (
	AnnotationHighlight     AnnotationType = "highlight"
	AnnotationComment       AnnotationType = "comment"
	AnnotationFlag          AnnotationType = "flag"
	AnnotationStrikethrough AnnotationType = "strikethrough"
	AnnotationUnderline     AnnotationType = "underline"
)

// ParseAnnotationType converts a wire name into an AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch t := AnnotationType(s); t {
	case AnnotationHighlight, AnnotationComment, AnnotationFlag, AnnotationStrikethrough, AnnotationUnderline:
		return t, nil
	}
	return "", fmt.Errorf("unknown annotation type %q", s)
}

// Annotation is a markup record attached to a document location
type Annotation struct {
	ID                  string         `json:"id"`
	Type                AnnotationType `json:"type"`
	Location            Location       `json:"location"`
	Text                string         `json:"text,omitempty"`
	Color               string         `json:"color,omitempty"`
	CreatedBy           string         `json:"created_by"`
	CreatedAt           time.Time      `json:"created_at"`
	RelatedCorrectionID string         `json:"related_correction_id,omitempty"`
	RelatedValidationID string         `json:"related_validation_id,omitempty"`
}
