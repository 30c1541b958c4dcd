package fix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// AllStrategiesFailed is the error reported when every strategy in a cascade failed
const AllStrategiesFailed = "All strategies failed"

// Attempt records one strategy try
type Attempt struct {
	Strategy Strategy `json:"strategy"`
	Error    string   `json:"error,omitempty"`
}

// CorrectionResult is the outcome of applying one correction
type CorrectionResult struct {
	CorrectionID string                  `json:"correction_id"`
	DocumentID   string                  `json:"document_id,omitempty"`
	Success      bool                    `json:"success"`
	Strategy     Strategy                `json:"strategy,omitempty"`
	Method       string                  `json:"method,omitempty"` // As reported by the target
	Error        string                  `json:"error,omitempty"`
	Resolved     *model.ResolvedLocation `json:"resolved,omitempty"`
	Attempts     []Attempt               `json:"attempts,omitempty"`
}

// AnnotationResult is the outcome of creating one annotation
type AnnotationResult struct {
	AnnotationID string `json:"annotation_id"`
	DocumentID   string `json:"document_id,omitempty"`
	Success      bool   `json:"success"`
	NativeID     string `json:"native_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Engine applies corrections and annotations to one document.
// It never retains the records it is given.
type Engine struct {
	resolver LocationResolver
	target   CorrectionTarget
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithRecorder reports outcomes to a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over a resolver and a correction target
func NewEngine(resolver LocationResolver, target CorrectionTarget, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		target:   target,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyCorrection resolves the correction's location once, then runs its strategy cascade.
// The first successful strategy wins; errors, panics and unsuccessful results advance the cascade.
func (e *Engine) ApplyCorrection(ctx context.Context, c model.Correction) CorrectionResult {
	logCtx := e.logger.With("correction_id", c.ID, "type", c.Type)
	result := CorrectionResult{CorrectionID: c.ID}

	resolved, err := e.resolver.Resolve(ctx, c.Location)
	if err != nil {
		logCtx.Warn("Could not resolve correction location", "error", err)
		result.Error = fmt.Sprintf("could not resolve location: %v", err)
		e.recorder.ObserveItem("correction", "unresolved")
		return result
	}
	result.Resolved = resolved
	c.Location = resolved.Location()

	for _, strategy := range StrategiesFor(c) {
		method, err := e.tryStrategy(ctx, c, strategy)
		e.recorder.ObserveStrategy(string(strategy), err == nil)
		if err == nil {
			logCtx.Info("Correction applied", "strategy", strategy, "method", method, "resolved_by", resolved.Type)
			result.Success = true
			result.Strategy = strategy
			result.Method = method
			result.Attempts = append(result.Attempts, Attempt{Strategy: strategy})
			e.recorder.ObserveItem("correction", "applied")
			return result
		}
		logCtx.Debug("Strategy failed", "strategy", strategy, "error", err)
		result.Attempts = append(result.Attempts, Attempt{Strategy: strategy, Error: err.Error()})
		if errors.Is(err, ErrIndeterminate) {
			logCtx.Warn("Correction outcome unknown, stopping cascade", "strategy", strategy, "error", err)
			result.Error = err.Error()
			e.recorder.ObserveItem("correction", "failed")
			return result
		}
	}

	logCtx.Warn("All strategies failed", "attempts", len(result.Attempts))
	result.Error = AllStrategiesFailed
	e.recorder.ObserveItem("correction", "failed")
	return result
}

// tryStrategy runs one strategy, turning adapter errors, panics and explicit failures into an error.
// On success it returns the method the target reports, or the strategy name when it reports none.
func (e *Engine) tryStrategy(ctx context.Context, c model.Correction, strategy Strategy) (method string, err error) {
	defer func() {
		if r := recover(); r != nil {
			method, err = "", fmt.Errorf("strategy %s panicked: %v", strategy, r)
		}
	}()

	res, err := e.target.ApplyTextCorrection(ctx, c, strategy)
	if err != nil {
		return "", fmt.Errorf("apply %s: %w", strategy, err)
	}
	if !res.Success {
		if res.Error != "" {
			return "", fmt.Errorf("apply %s: %s", strategy, res.Error)
		}
		return "", fmt.Errorf("apply %s: target reported failure", strategy)
	}
	if res.Method == "" {
		return string(strategy), nil
	}
	return res.Method, nil
}

// ApplyAnnotation resolves the annotation's location and creates it on the target
func (e *Engine) ApplyAnnotation(ctx context.Context, a model.Annotation) (result AnnotationResult) {
	logCtx := e.logger.With("annotation_id", a.ID, "type", a.Type)
	result = AnnotationResult{AnnotationID: a.ID}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("create annotation panicked: %v", r)
		}
		outcome := "applied"
		if !result.Success {
			outcome = "failed"
		}
		e.recorder.ObserveItem("annotation", outcome)
	}()

	resolved, err := e.resolver.Resolve(ctx, a.Location)
	if err != nil {
		logCtx.Warn("Could not resolve annotation location", "error", err)
		result.Error = fmt.Sprintf("could not resolve location: %v", err)
		return result
	}
	a.Location = resolved.Location()

	ack, err := e.target.CreateAnnotation(ctx, a)
	switch {
	case err != nil:
		result.Error = fmt.Sprintf("create annotation: %v", err)
	case !ack.Success:
		result.Error = ack.Error
		if result.Error == "" {
			result.Error = "target reported failure"
		}
	default:
		result.Success = true
		result.NativeID = ack.NativeID
	}
	return result
}
