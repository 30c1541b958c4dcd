package fix

import (
	"context"
	"errors"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// ErrIndeterminate is returned by a target when a write may have been applied
// but its outcome could not be read. The cascade stops rather than edit the region twice.
var ErrIndeterminate = errors.New("write outcome unknown")

// Strategy is a method of writing a correction into a document
type Strategy string

const (
	StrategyFormField        Strategy = "form_field"
	StrategyContentEdit      Strategy = "content_edit"
	StrategyRedactionOverlay Strategy = "redaction_overlay"
)

// StrategiesFor returns the ordered cascade for a correction.
// Form fields are edited in place first; everything else, including a type
// this build does not know, is a content edit with an overlay fallback.
func StrategiesFor(c model.Correction) []Strategy {
	if c.FormFieldName != "" {
		return []Strategy{StrategyFormField, StrategyContentEdit, StrategyRedactionOverlay}
	}

	switch c.Type {
	case model.CorrectionDateError, model.CorrectionNumericError:
		return []Strategy{StrategyContentEdit, StrategyRedactionOverlay}
	case model.CorrectionTypo, model.CorrectionNameMismatch, model.CorrectionAddressError,
		model.CorrectionFormatError, model.CorrectionMissingValue, model.CorrectionInconsistentValue,
		model.CorrectionOther:
		return []Strategy{StrategyContentEdit, StrategyRedactionOverlay}
	}
	return defaultCascade()
}

func defaultCascade() []Strategy {
	return []Strategy{StrategyContentEdit, StrategyRedactionOverlay}
}

// AdapterResult is what a correction target reports for one strategy attempt
type AdapterResult struct {
	Success bool   `json:"success"`
	Method  string `json:"method,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnnotationAck is what a correction target reports for a created annotation
type AnnotationAck struct {
	Success  bool   `json:"success"`
	NativeID string `json:"native_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CorrectionTarget writes corrections and annotations into a document
type CorrectionTarget interface {
	ApplyTextCorrection(ctx context.Context, c model.Correction, strategy Strategy) (AdapterResult, error)
	CreateAnnotation(ctx context.Context, a model.Annotation) (AnnotationAck, error)
}

// LocationResolver turns a location descriptor into a rectangle
type LocationResolver interface {
	Resolve(ctx context.Context, loc model.Location) (*model.ResolvedLocation, error)
}

// Recorder receives engine outcomes (implemented by the metrics package)
type Recorder interface {
	ObserveStrategy(strategy string, success bool)
	ObserveItem(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStrategy(string, bool) {}
func (nopRecorder) ObserveItem(string, string)   {}
