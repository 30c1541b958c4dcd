package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/google/uuid"
)

var (
	// ErrInvalidPayload is returned for payloads that cannot be mapped
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrUnknownDocument is returned when a legacy bundle is requested for a document not in the payload
	ErrUnknownDocument = errors.New("unknown document")
)

// NotFound marks placeholder occurrences added to keep validations at two documents
const NotFound = "(not found)"

// DefaultCreatedBy is stamped on annotations that do not name an author
const DefaultCreatedBy = "claimfix-analysis"

// Injectable for tests
var (
	newID = uuid.NewString
	now   = time.Now
)

// Adapter maps raw analysis payloads onto canonical records
type Adapter struct {
	schema        *SchemaValidator // nil disables the gate
	autoThreshold float64
	logger        *slog.Logger
}

// NewAdapter creates an adapter, compiling the configured schema when validation is on
func NewAdapter(cfg model.PayloadConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.AutoCorrectConfidence
	if threshold <= 0 {
		threshold = model.DefaultConfig().Payload.AutoCorrectConfidence
	}

	a := &Adapter{autoThreshold: threshold, logger: logger}
	if cfg.ValidateSchema {
		sv, err := LoadSchemaValidator(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		a.schema = sv
	}
	return a, nil
}

// CorrectionPayloadResult is the canonical payload plus what the adapter had to repair
type CorrectionPayloadResult struct {
	Payload  model.CorrectionPayload `json:"payload"`
	Padded   int                     `json:"padded_occurrences"`
	Warnings []string                `json:"warnings,omitempty"`
}

// AdaptCorrectionPayload validates and maps a raw payload.
// A schema failure rejects the payload before any record is mapped.
func (a *Adapter) AdaptCorrectionPayload(raw []byte) (*CorrectionPayloadResult, error) {
	in, err := a.decode(raw)
	if err != nil {
		return nil, err
	}

	logCtx := a.logger.With("claim_id", in.ClaimID)
	result := &CorrectionPayloadResult{
		Payload: model.CorrectionPayload{
			ClaimID:     in.ClaimID,
			Documents:   make([]model.DocumentCorrections, 0, len(in.Documents)),
			Validations: make([]model.CrossDocumentValidation, 0, len(in.Validations)),
		},
	}

	for di, rd := range in.Documents {
		doc, err := a.mapDocument(rd, result)
		if err != nil {
			return nil, fmt.Errorf("document %d (%s): %w", di, rd.DocumentID, err)
		}
		result.Payload.Documents = append(result.Payload.Documents, doc)
	}

	for vi, rv := range in.Validations {
		v, padded, err := a.mapValidation(in.ClaimID, rv)
		if err != nil {
			return nil, fmt.Errorf("validation %d: %w", vi, err)
		}
		result.Padded += padded
		result.Payload.Validations = append(result.Payload.Validations, v)
	}

	logCtx.Info("Payload adapted",
		"documents", len(result.Payload.Documents),
		"corrections", result.Payload.CorrectionCount(),
		"validations", len(result.Payload.Validations),
		"padded", result.Padded)
	return result, nil
}

// decode runs the schema gate and unmarshals the raw payload
func (a *Adapter) decode(raw []byte) (*rawPayload, error) {
	if a.schema != nil {
		if err := a.schema.Validate(raw); err != nil {
			return nil, err
		}
	}

	var in rawPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if in.ClaimID == "" {
		return nil, fmt.Errorf("%w: claim_id is required", ErrInvalidPayload)
	}
	return &in, nil
}

func (a *Adapter) mapDocument(rd rawDocument, result *CorrectionPayloadResult) (model.DocumentCorrections, error) {
	if rd.DocumentID == "" {
		return model.DocumentCorrections{}, fmt.Errorf("%w: document_id is required", ErrInvalidPayload)
	}

	doc := model.DocumentCorrections{
		DocumentID:   rd.DocumentID,
		DocumentName: rd.DocumentName,
		Corrections:  make([]model.Correction, 0, len(rd.Corrections)),
		Annotations:  make([]model.Annotation, 0, len(rd.Annotations)),
	}

	for i, rc := range rd.Corrections {
		c, warning, err := a.mapCorrection(rc)
		if err != nil {
			return doc, fmt.Errorf("correction %d: %w", i, err)
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		doc.Corrections = append(doc.Corrections, c)
	}

	for i, ra := range rd.Annotations {
		ann, err := mapAnnotation(ra)
		if err != nil {
			return doc, fmt.Errorf("annotation %d: %w", i, err)
		}
		doc.Annotations = append(doc.Annotations, ann)
	}

	return doc, nil
}

func (a *Adapter) mapCorrection(rc rawCorrection) (model.Correction, string, error) {
	var warning string

	typ, err := model.ParseCorrectionType(rc.Type)
	if err != nil {
		warning = fmt.Sprintf("correction %s: %v, mapped to other", rc.ID, err)
		typ = model.CorrectionOther
	}

	severity, err := parseSeverity(rc.Severity)
	if err != nil {
		return model.Correction{}, "", err
	}

	loc, err := rc.rawLocation.toLocation(rc.FoundValue)
	if err != nil {
		return model.Correction{}, "", err
	}

	id := rc.ID
	if id == "" {
		id = newID()
	}

	// Missing requires_human_review counts as requiring review
	review := rc.RequiresHumanReview == nil || *rc.RequiresHumanReview

	return model.Correction{
		ID:                  id,
		Type:                typ,
		Severity:            severity,
		Location:            loc,
		FoundValue:          rc.FoundValue,
		ExpectedValue:       rc.ExpectedValue,
		Confidence:          rc.Confidence,
		RequiresHumanReview: review,
		RecommendedAction:   a.deriveAction(review, rc.Confidence),
		Evidence:            model.Evidence{Reasoning: rc.Reasoning},
		FormFieldName:       rc.FormFieldName,
		Status:              model.CorrectionPending,
	}, warning, nil
}

// deriveAction auto-corrects only confident corrections that need no review
func (a *Adapter) deriveAction(requiresReview bool, confidence float64) model.RecommendedAction {
	if !requiresReview && confidence >= a.autoThreshold {
		return model.ActionAutoCorrect
	}
	return model.ActionFlagForReview
}

func mapAnnotation(ra rawAnnotation) (model.Annotation, error) {
	typ, err := model.ParseAnnotationType(ra.Type)
	if err != nil {
		return model.Annotation{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	loc, err := ra.rawLocation.toLocation(ra.Text)
	if err != nil {
		return model.Annotation{}, err
	}

	createdAt := now().UTC()
	if ra.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, ra.CreatedAt)
		if err != nil {
			return model.Annotation{}, fmt.Errorf("%w: created_at: %v", ErrInvalidPayload, err)
		}
		createdAt = t
	}

	ann := model.Annotation{
		ID:                  ra.ID,
		Type:                typ,
		Location:            loc,
		Text:                ra.Text,
		Color:               ra.Color,
		CreatedBy:           ra.CreatedBy,
		CreatedAt:           createdAt,
		RelatedCorrectionID: ra.RelatedCorrectionID,
		RelatedValidationID: ra.RelatedValidationID,
	}
	if ann.ID == "" {
		ann.ID = newID()
	}
	if ann.CreatedBy == "" {
		ann.CreatedBy = DefaultCreatedBy
	}
	return ann, nil
}

func (a *Adapter) mapValidation(claimID string, rv rawValidation) (model.CrossDocumentValidation, int, error) {
	field, err := model.ParseField(rv.Field)
	if err != nil {
		return model.CrossDocumentValidation{}, 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	severity, err := parseSeverity(rv.Severity)
	if err != nil {
		return model.CrossDocumentValidation{}, 0, err
	}

	docs := make([]model.DocumentValue, 0, len(rv.Occurrences))
	for i, occ := range rv.Occurrences {
		loc, err := occ.rawLocation.toLocation(occ.FoundValue)
		if err != nil {
			return model.CrossDocumentValidation{}, 0, fmt.Errorf("occurrence %d: %w", i, err)
		}
		docs = append(docs, model.DocumentValue{
			DocumentID:   occ.DocumentID,
			DocumentName: occ.DocumentName,
			FoundValue:   occ.FoundValue,
			Location:     loc,
			Confidence:   occ.Confidence,
		})
	}

	// Upstream analysis sometimes reports a single occurrence; keep the two-document invariant
	padded := 0
	for len(docs) < 2 {
		docs = append(docs, notFoundValue())
		padded++
	}

	action := defaultValidationAction(severity)
	if rv.RecommendedAction != "" {
		action, err = parseAction(rv.RecommendedAction)
		if err != nil {
			return model.CrossDocumentValidation{}, 0, err
		}
	}

	id := rv.ID
	if id == "" {
		id = newID()
	}

	return model.CrossDocumentValidation{
		ID:                id,
		ClaimID:           claimID,
		Field:             field,
		Severity:          severity,
		Documents:         docs,
		ExpectedValue:     rv.ExpectedValue,
		RecommendedAction: action,
		Reasoning:         rv.Reasoning,
		Status:            model.ValidationPending,
	}, padded, nil
}

func notFoundValue() model.DocumentValue {
	return model.DocumentValue{
		DocumentName: NotFound,
		FoundValue:   NotFound,
		Location:     model.Location{SearchText: &model.SearchText{Text: NotFound}},
		Confidence:   0,
	}
}

func defaultValidationAction(severity model.Severity) model.RecommendedAction {
	switch severity {
	case model.SeverityCritical:
		return model.ActionEscalate
	case model.SeverityWarning:
		return model.ActionFlagForReview
	case model.SeverityInfo:
		return model.ActionInformational
	}
	panic(fmt.Sprintf("payload: unhandled severity %q", severity))
}

// parseSeverity defaults a missing severity to warning
func parseSeverity(s string) (model.Severity, error) {
	switch sev := model.Severity(s); sev {
	case "":
		return model.SeverityWarning, nil
	case model.SeverityCritical, model.SeverityWarning, model.SeverityInfo:
		return sev, nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidPayload, s)
}

func parseAction(s string) (model.RecommendedAction, error) {
	switch act := model.RecommendedAction(s); act {
	case model.ActionAutoCorrect, model.ActionFlagForReview, model.ActionEscalate, model.ActionInformational:
		return act, nil
	}
	return "", fmt.Errorf("%w: unknown recommended_action %q", ErrInvalidPayload, s)
}
