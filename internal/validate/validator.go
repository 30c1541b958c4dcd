package validate

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/claimsiqhq/claimfix/internal/extract"
	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/google/uuid"
)

// Thresholds used to pick the expected value and recommended action
const (
	HighConfidence      = 0.9
	AmountVariationSpan = 0.2 // coefficient of variation above which amounts escalate
)

// newValidationID generates validation ids (injectable for tests)
var newValidationID = uuid.NewString

// Validator detects field disagreements across the documents of one claim.
// It performs no I/O and holds no state between calls.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a new cross-document validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// observation is one document's reading of a field, with its normalized form
type observation struct {
	doc        model.DocumentFields
	value      model.ExtractedValue
	normalized string
}

// ValidateClaim compares every field across the documents and returns one validation per disagreeing field.
// Fields reported by fewer than two documents are skipped silently.
func (v *Validator) ValidateClaim(claimID string, documents []model.DocumentFields) []model.CrossDocumentValidation {
	logCtx := v.logger.With("claim_id", claimID)

	validations := []model.CrossDocumentValidation{}
	for _, field := range model.AllFields {
		// 1. Collect
		var obs []observation
		for _, doc := range documents {
			if ev, ok := doc.Fields[field]; ok {
				obs = append(obs, observation{doc: doc, value: ev, normalized: Normalize(ev.Value)})
			}
		}
		if len(obs) < 2 {
			continue
		}

		// 2. Compare normalized values
		groups := groupByNormalized(obs)
		if len(groups) == 1 {
			continue
		}

		// 3. Classify
		validation := v.buildValidation(claimID, field, obs, groups)
		logCtx.Debug("Cross-document inconsistency",
			"field", field,
			"severity", validation.Severity,
			"action", validation.RecommendedAction,
			"documents", len(obs))
		validations = append(validations, validation)
	}

	return validations
}

func (v *Validator) buildValidation(claimID string, field model.Field, obs []observation, groups []valueGroup) model.CrossDocumentValidation {
	severity := SeverityFor(field)

	docs := make([]model.DocumentValue, len(obs))
	for i, o := range obs {
		docs[i] = model.DocumentValue{
			DocumentID:   o.doc.DocumentID,
			DocumentName: o.doc.DocumentName,
			FoundValue:   o.value.Value,
			Location:     o.value.Location,
			Confidence:   o.value.Confidence,
		}
	}

	expected, fromConfidence := expectedValue(obs, groups)

	return model.CrossDocumentValidation{
		ID:                newValidationID(),
		ClaimID:           claimID,
		Field:             field,
		Severity:          severity,
		Documents:         docs,
		ExpectedValue:     expected,
		RecommendedAction: recommendAction(field, severity, obs),
		Reasoning:         reasoning(field, len(obs), groups, expected, fromConfidence),
		Status:            model.ValidationPending,
	}
}

// SeverityFor returns the fixed business severity of a field
func SeverityFor(field model.Field) model.Severity {
	switch field {
	case model.FieldClaimNumber, model.FieldPolicyNumber, model.FieldLossAmount:
		return model.SeverityCritical
	case model.FieldInsuredName, model.FieldDateOfLoss, model.FieldPropertyAddress, model.FieldPaymentAmount:
		return model.SeverityWarning
	case model.FieldAdjusterName, model.FieldInsuredPhone, model.FieldAdjusterPhone,
		model.FieldInsuredEmail, model.FieldAdjusterEmail, model.FieldDeductible:
		return model.SeverityInfo
	}
	panic(fmt.Sprintf("validate: unhandled field %q", string(field)))
}

// Normalize lowercases a value and strips every non-alphanumeric rune
func Normalize(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// valueGroup is a set of observations sharing one normalized value
type valueGroup struct {
	normalized string
	first      string // first original value seen for the group
	count      int
}

// groupByNormalized groups observations in first-seen order
func groupByNormalized(obs []observation) []valueGroup {
	var groups []valueGroup
	index := make(map[string]int)
	for _, o := range obs {
		if i, ok := index[o.normalized]; ok {
			groups[i].count++
			continue
		}
		index[o.normalized] = len(groups)
		groups = append(groups, valueGroup{normalized: o.normalized, first: o.value.Value, count: 1})
	}
	return groups
}

// majority returns the most frequent group; ties go to the first seen
func majority(groups []valueGroup) valueGroup {
	best := groups[0]
	for _, g := range groups[1:] {
		if g.count > best.count {
			best = g
		}
	}
	return best
}

// expectedValue picks the single highest-confidence value above HighConfidence,
// falling back to the most frequent normalized value.
func expectedValue(obs []observation, groups []valueGroup) (string, bool) {
	top := obs[0]
	ties := 1
	for _, o := range obs[1:] {
		switch {
		case o.value.Confidence > top.value.Confidence:
			top = o
			ties = 1
		case o.value.Confidence == top.value.Confidence:
			ties++
		}
	}
	if ties == 1 && top.value.Confidence > HighConfidence {
		return top.value.Value, true
	}
	return majority(groups).first, false
}

// recommendAction decides the disposition of a validation.
// Monetary fields are judged by how far the amounts spread before severity applies,
// so a small rounding difference on a critical amount is not escalated.
func recommendAction(field model.Field, severity model.Severity, obs []observation) model.RecommendedAction {
	switch field {
	case model.FieldLossAmount, model.FieldPaymentAmount:
		if CoefficientOfVariation(amounts(obs)) > AmountVariationSpan {
			return model.ActionEscalate
		}
	default:
		if severity == model.SeverityCritical {
			return model.ActionEscalate
		}
	}

	var total float64
	for _, o := range obs {
		total += o.value.Confidence
	}
	if total/float64(len(obs)) > HighConfidence {
		return model.ActionAutoCorrect
	}
	return model.ActionFlagForReview
}

func amounts(obs []observation) []float64 {
	var out []float64
	for _, o := range obs {
		if v, ok := extract.ParseAmount(o.value.Value); ok {
			out = append(out, v)
		}
	}
	return out
}

// CoefficientOfVariation returns population standard deviation divided by mean.
// It is 0 for fewer than two values or a zero mean.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / math.Abs(mean)
}

// reasoning describes the majority/minority split in one sentence
func reasoning(field model.Field, total int, groups []valueGroup, expected string, fromConfidence bool) string {
	top := majority(groups)
	minority := total - top.count

	var msg string
	if top.count == 1 {
		msg = fmt.Sprintf("All %d documents report different values for %s.", total, field)
	} else {
		msg = fmt.Sprintf("%d of %d documents have the value %q for %s; %s.",
			top.count, total, top.first, field, pluralDifferent(minority))
	}

	if fromConfidence {
		msg += fmt.Sprintf(" Expected value %q is the only reading above %.2f confidence.", expected, HighConfidence)
	}
	return msg
}

func pluralDifferent(n int) string {
	if n == 1 {
		return "1 document has a different value"
	}
	return fmt.Sprintf("%d documents have different values", n)
}
