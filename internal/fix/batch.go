package fix

import (
	"context"
	"fmt"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// ItemError records one failed correction or annotation in a batch
type ItemError struct {
	ItemID     string `json:"item_id"`
	DocumentID string `json:"document_id"`
	Kind       string `json:"kind"` // "correction" or "annotation"
	Error      string `json:"error"`
}

// ProcessingResult is the complete outcome of a batch run
type ProcessingResult struct {
	ClaimID     string             `json:"claim_id"`
	Corrections []CorrectionResult `json:"corrections"`
	Annotations []AnnotationResult `json:"annotations"`
	Errors      []ItemError        `json:"errors"`
	Skipped     []string           `json:"skipped"` // Correction ids left for manual review
}

// Applied returns the number of corrections that were applied
func (r ProcessingResult) Applied() int {
	n := 0
	for _, c := range r.Corrections {
		if c.Success {
			n++
		}
	}
	return n
}

func newProcessingResult(claimID string) ProcessingResult {
	return ProcessingResult{
		ClaimID:     claimID,
		Corrections: []CorrectionResult{},
		Annotations: []AnnotationResult{},
		Errors:      []ItemError{},
		Skipped:     []string{},
	}
}

// ProcessCorrectionPayload applies every auto-correctable correction and every annotation in payload order.
// Items are isolated from each other: a failure or panic is recorded and the batch continues.
func (e *Engine) ProcessCorrectionPayload(ctx context.Context, payload model.CorrectionPayload) ProcessingResult {
	result := newProcessingResult(payload.ClaimID)
	for _, doc := range payload.Documents {
		e.processDocument(ctx, doc, &result)
	}

	e.logger.Info("Batch complete",
		"claim_id", payload.ClaimID,
		"applied", result.Applied(),
		"errors", len(result.Errors),
		"skipped", len(result.Skipped))
	return result
}

func (e *Engine) processDocument(ctx context.Context, doc model.DocumentCorrections, result *ProcessingResult) {
	for _, c := range doc.Corrections {
		if !c.IsAutoApplicable() {
			result.Skipped = append(result.Skipped, c.ID)
			e.recorder.ObserveItem("correction", "skipped")
			continue
		}

		cr := e.safeApplyCorrection(ctx, c)
		cr.DocumentID = doc.DocumentID
		result.Corrections = append(result.Corrections, cr)
		if !cr.Success {
			result.Errors = append(result.Errors, ItemError{
				ItemID:     c.ID,
				DocumentID: doc.DocumentID,
				Kind:       "correction",
				Error:      cr.Error,
			})
		}
	}

	for _, a := range doc.Annotations {
		ar := e.ApplyAnnotation(ctx, a)
		ar.DocumentID = doc.DocumentID
		result.Annotations = append(result.Annotations, ar)
		if !ar.Success {
			result.Errors = append(result.Errors, ItemError{
				ItemID:     a.ID,
				DocumentID: doc.DocumentID,
				Kind:       "annotation",
				Error:      ar.Error,
			})
		}
	}
}

// safeApplyCorrection converts a panic anywhere in the correction path into a failed result
func (e *Engine) safeApplyCorrection(ctx context.Context, c model.Correction) (result CorrectionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Correction panicked", "correction_id", c.ID, "panic", r)
			e.recorder.ObserveItem("correction", "failed")
			result = CorrectionResult{
				CorrectionID: c.ID,
				Error:        fmt.Sprintf("correction panicked: %v", r),
			}
		}
	}()
	return e.ApplyCorrection(ctx, c)
}

// EngineFunc opens an engine bound to one document
type EngineFunc func(ctx context.Context, documentID string) (*Engine, error)

// ProcessClaim runs a batch across a multi-document payload, opening one engine per document.
// A document whose engine cannot be opened fails every item it would have processed.
func ProcessClaim(ctx context.Context, payload model.CorrectionPayload, open EngineFunc) ProcessingResult {
	result := newProcessingResult(payload.ClaimID)

	for _, doc := range payload.Documents {
		engine, err := open(ctx, doc.DocumentID)
		if err != nil {
			failDocument(doc, fmt.Errorf("open document %s: %w", doc.DocumentID, err), &result)
			continue
		}
		engine.processDocument(ctx, doc, &result)
	}

	return result
}

func failDocument(doc model.DocumentCorrections, err error, result *ProcessingResult) {
	for _, c := range doc.Corrections {
		if !c.IsAutoApplicable() {
			result.Skipped = append(result.Skipped, c.ID)
			continue
		}
		result.Corrections = append(result.Corrections, CorrectionResult{CorrectionID: c.ID, DocumentID: doc.DocumentID, Error: err.Error()})
		result.Errors = append(result.Errors, ItemError{ItemID: c.ID, DocumentID: doc.DocumentID, Kind: "correction", Error: err.Error()})
	}
	for _, a := range doc.Annotations {
		result.Annotations = append(result.Annotations, AnnotationResult{AnnotationID: a.ID, DocumentID: doc.DocumentID, Error: err.Error()})
		result.Errors = append(result.Errors, ItemError{ItemID: a.ID, DocumentID: doc.DocumentID, Kind: "annotation", Error: err.Error()})
	}
}

// MarkApplied moves every successfully applied correction in the payload to applied.
// Failed corrections stay pending for manual handling.
func MarkApplied(payload *model.CorrectionPayload, result ProcessingResult) error {
	applied := make(map[string]bool)
	for _, cr := range result.Corrections {
		if cr.Success {
			applied[cr.DocumentID+"/"+cr.CorrectionID] = true
		}
	}

	for d := range payload.Documents {
		doc := &payload.Documents[d]
		for i := range doc.Corrections {
			c := &doc.Corrections[i]
			if !applied[doc.DocumentID+"/"+c.ID] {
				continue
			}
			if err := c.Transition(model.CorrectionApplied); err != nil {
				return fmt.Errorf("mark applied: %w", err)
			}
		}
	}
	return nil
}
