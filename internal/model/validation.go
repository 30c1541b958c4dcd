package model

import "fmt"

// ValidationStatus tracks a cross-document validation through review
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationResolved  ValidationStatus = "resolved"
	ValidationIgnored   ValidationStatus = "ignored"
	ValidationEscalated ValidationStatus = "escalated"
)

// DocumentValue is one document's reading of a field
type DocumentValue struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	FoundValue   string   `json:"found_value"`
	Location     Location `json:"location"`
	Confidence   float64  `json:"confidence"`
}

// CrossDocumentValidation records a disagreement on a field across documents of one claim.
// Documents always holds at least two entries.
type CrossDocumentValidation struct {
	ID                string            `json:"id"`
	ClaimID           string            `json:"claim_id"`
	Field             Field             `json:"field"`
	Severity          Severity          `json:"severity"`
	Documents         []DocumentValue   `json:"documents"`
	ExpectedValue     string            `json:"expected_value,omitempty"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
	Reasoning         string            `json:"reasoning"`
	Status            ValidationStatus  `json:"status"`
}

// Transition moves the validation out of pending
func (v *CrossDocumentValidation) Transition(to ValidationStatus) error {
	if v.Status != ValidationPending && v.Status != "" {
		return fmt.Errorf("%w: validation %s is %s", ErrInvalidTransition, v.ID, v.Status)
	}
	switch to {
	case ValidationResolved, ValidationIgnored, ValidationEscalated:
		v.Status = to
		return nil
	default:
		return fmt.Errorf("%w: validation %s cannot move to %q", ErrInvalidTransition, v.ID, to)
	}
}
