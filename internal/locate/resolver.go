package locate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// ErrUnresolved is the terminal failure returned when no part of a location can be found
var ErrUnresolved = errors.New("location could not be resolved")

// Resolver turns a location descriptor into a concrete rectangle.
// The bbox is tried first; search text is the fallback for layout drift.
type Resolver struct {
	accessor    TextAccessor
	sampleWidth float64
	strict      bool
	logger      *slog.Logger
}

// NewResolver creates a resolver over a text accessor
func NewResolver(accessor TextAccessor, cfg model.ResolverConfig, logger *slog.Logger) *Resolver {
	width := cfg.ContextSampleWidth
	if width <= 0 {
		width = model.DefaultConfig().Resolver.ContextSampleWidth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		accessor:    accessor,
		sampleWidth: width,
		strict:      cfg.StrictContext,
		logger:      logger,
	}
}

// Resolve returns the rectangle a location refers to, or an error wrapping ErrUnresolved
func (r *Resolver) Resolve(ctx context.Context, loc model.Location) (*model.ResolvedLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	// 1. Verify the bbox still has text under it
	if loc.BBox != nil {
		text, err := r.accessor.TextAtLocation(ctx, *loc.BBox)
		if err == nil && strings.TrimSpace(text) != "" {
			return &model.ResolvedLocation{Type: model.ResolvedByBBox, BBox: *loc.BBox}, nil
		}
		r.logger.Debug("Bbox verification failed, falling back to search text",
			"page", loc.BBox.PageIndex, "error", err)
	}

	// 2. Fall back to search text
	if loc.SearchText == nil || loc.SearchText.Text == "" {
		return nil, fmt.Errorf("%w: bbox has no text and no search text was given", ErrUnresolved)
	}
	return r.resolveSearchText(ctx, *loc.SearchText)
}

func (r *Resolver) resolveSearchText(ctx context.Context, st model.SearchText) (*model.ResolvedLocation, error) {
	results, err := r.accessor.Search(ctx, st.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrUnresolved, st.Text, err)
	}

	hits := Collect(results)
	idx := st.OccurrenceIndex()
	if idx >= len(hits) {
		return nil, fmt.Errorf("%w: occurrence %d of %q not found (%d hits)", ErrUnresolved, idx+1, st.Text, len(hits))
	}
	hit := hits[idx]

	// 3. Disambiguate with surrounding context
	if st.ContextBefore != "" {
		if err := r.verifyContext(ctx, r.beforeRect(hit), st.ContextBefore); err != nil {
			return nil, err
		}
	}
	if st.ContextAfter != "" {
		if err := r.verifyContext(ctx, r.afterRect(hit), st.ContextAfter); err != nil {
			return nil, err
		}
	}

	return &model.ResolvedLocation{Type: model.ResolvedBySearchText, BBox: hit}, nil
}

// verifyContext checks that the sampled rectangle contains the expected text.
// When the accessor cannot sample, the check passes unless strict mode is on.
func (r *Resolver) verifyContext(ctx context.Context, rect model.BBox, expected string) error {
	var sampled string
	err := ErrUnsupported
	if rect.Width > 0 {
		sampled, err = r.accessor.TextAtLocation(ctx, rect)
	}

	if err != nil || strings.TrimSpace(sampled) == "" {
		if r.strict {
			return fmt.Errorf("%w: context %q could not be verified", ErrUnresolved, expected)
		}
		r.logger.Debug("Context verification skipped", "context", expected, "error", err)
		return nil
	}

	if !strings.Contains(squash(sampled), squash(expected)) {
		return fmt.Errorf("%w: context %q not found near match", ErrUnresolved, expected)
	}
	return nil
}

// beforeRect is the strip immediately left of a hit, clipped at the page edge
func (r *Resolver) beforeRect(hit model.BBox) model.BBox {
	left := hit.Left - r.sampleWidth
	if left < 0 {
		left = 0
	}
	return model.BBox{
		PageIndex: hit.PageIndex,
		Left:      left,
		Top:       hit.Top,
		Width:     hit.Left - left,
		Height:    hit.Height,
	}
}

// afterRect is the strip immediately right of a hit
func (r *Resolver) afterRect(hit model.BBox) model.BBox {
	return model.BBox{
		PageIndex: hit.PageIndex,
		Left:      hit.Right(),
		Top:       hit.Top,
		Width:     r.sampleWidth,
		Height:    hit.Height,
	}
}

// squash lowercases and collapses whitespace for tolerant comparison
func squash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
